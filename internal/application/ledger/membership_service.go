package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MembershipService drives the membership state machine
type MembershipService struct {
	scope          TransactionScope
	membershipRepo membership.Repository
	enrollments    enrollment.Deactivator
	calendar       Calendar
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	scope TransactionScope,
	membershipRepo membership.Repository,
	enrollments enrollment.Deactivator,
	calendar Calendar,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		scope:          scope,
		membershipRepo: membershipRepo,
		enrollments:    enrollments,
		calendar:       calendar,
		metrics:        metrics,
		logger:         logger,
	}
}

// UpdateStatusRequest is the input of UpdateMembershipStatus
type UpdateStatusRequest struct {
	TenantID     uuid.UUID
	ClientID     uuid.UUID
	MembershipID uuid.UUID
	TargetStatus membership.Status
}

// UpdateStatusResult describes the transition that happened
type UpdateStatusResult struct {
	MembershipID  uuid.UUID
	From          membership.Status
	To            membership.Status
	Changed       bool
	EndAt         valueobject.DateKey
	StatusDateKey valueobject.DateKey
	// CascadeError is set when enrollments could not be deactivated inline.
	// The membership.terminated outbox event retries the deactivation.
	CascadeError error
}

// loadClientMembership fetches a membership and checks it belongs to clientID
func loadClientMembership(ctx context.Context, repo membership.Repository, tenantID, clientID, membershipID uuid.UUID) (*membership.Membership, error) {
	m, err := repo.FindByID(ctx, tenantID, membershipID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFound("membership")
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	if clientID != uuid.Nil && m.ClientID != clientID {
		return nil, shared.NewNotFound("membership")
	}
	return m, nil
}

// UpdateMembershipStatus moves a membership to the target status. Canceling
// or expiring pins the end date to today, and once the transaction commits
// the client's recurring enrollments are deactivated from today. That call
// is best effort: a failure is logged and reported in the result, never
// returned, because the terminated event in the outbox delivers it again.
func (s *MembershipService) UpdateMembershipStatus(ctx context.Context, req UpdateStatusRequest) (*UpdateStatusResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "update_status",
		telemetry.SpanAttrTenantID, req.TenantID,
		telemetry.SpanAttrMembershipID, req.MembershipID,
		telemetry.SpanAttrStatus, string(req.TargetStatus),
	)
	defer span.End()

	if !req.TargetStatus.IsValid() {
		err := shared.NewInvalidArgument(fmt.Sprintf("invalid membership status %q", req.TargetStatus))
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		result     *UpdateStatusResult
		terminated bool
		clientID   uuid.UUID
		today      valueobject.DateKey
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		now := s.calendar.Now()
		today = s.calendar.Today()

		m, err := loadClientMembership(ctx, repos.Memberships(), req.TenantID, req.ClientID, req.MembershipID)
		if err != nil {
			return err
		}

		transition, err := m.ChangeStatus(req.TargetStatus, today, now)
		if err != nil {
			return err
		}
		result = &UpdateStatusResult{
			MembershipID:  m.ID,
			From:          transition.From,
			To:            transition.To,
			Changed:       transition.Changed,
			EndAt:         m.EndAt,
			StatusDateKey: m.StatusDateKey,
		}
		terminated = transition.Terminated
		clientID = m.ClientID
		if !transition.Changed {
			return nil
		}

		if err := repos.Memberships().SaveWithLock(ctx, m); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}
		touched := []shared.AggregateRoot{m}

		c, err := s.projectOntoClient(ctx, repos, m, transition, now)
		if err != nil {
			return err
		}
		if c != nil {
			touched = append(touched, c)
		}
		return recordEvents(ctx, repos.Events(), touched...)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Membership status updated",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("membership_id", req.MembershipID.String()),
		zap.String("from", result.From.String()),
		zap.String("to", result.To.String()),
		zap.Bool("changed", result.Changed),
	)

	if terminated {
		s.metrics.MembershipTerminated(ctx, req.TenantID.String(), result.To.String())
		result.CascadeError = s.cascade(ctx, req.TenantID, clientID, req.MembershipID, today)
		if result.CascadeError != nil {
			telemetry.AddEvent(span, "enrollment_cascade_failed", "error", result.CascadeError.Error())
		}
	}
	return result, nil
}

// projectOntoClient keeps the client's membership pointers in step with the
// transition. A missing client is not an error here: the membership is the
// source of truth and the pointers are a projection.
func (s *MembershipService) projectOntoClient(ctx context.Context, repos TransactionalRepositories, m *membership.Membership, transition membership.TransitionResult, now time.Time) (*client.Client, error) {
	c, err := repos.Clients().FindByID(ctx, m.TenantID, m.ClientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Client not found while updating membership projection",
				zap.String("client_id", m.ClientID.String()),
				zap.String("membership_id", m.ID.String()),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	changed := false
	switch {
	case transition.Terminated:
		changed = c.ReleaseMembership(m.ID, now)
	case transition.From == membership.StatusPending && m.IsActive():
		c.ActivateMembership(m.ID, m.SaleID, now)
		changed = true
	}
	if !changed {
		return nil, nil
	}
	if err := repos.Clients().SaveWithLock(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}
	return c, nil
}

// cascade issues exactly one deactivation call. Errors are logged and
// returned to the caller for reporting only.
func (s *MembershipService) cascade(ctx context.Context, tenantID, clientID, membershipID uuid.UUID, from valueobject.DateKey) error {
	if s.enrollments == nil {
		return nil
	}
	count, err := s.enrollments.DeactivateClientEnrollmentsFromDate(ctx, tenantID, clientID, from)
	if err != nil {
		s.metrics.CascadeFailed(ctx, tenantID.String(), "inline")
		s.logger.Warn("Failed to deactivate enrollments after membership ended",
			zap.String("tenant_id", tenantID.String()),
			zap.String("client_id", clientID.String()),
			zap.String("membership_id", membershipID.String()),
			zap.String("from", from.String()),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("Enrollments deactivated",
		zap.String("client_id", clientID.String()),
		zap.String("from", from.String()),
		zap.Int("count", count),
	)
	return nil
}

// SuspendRequest is the input of SuspendMembership
type SuspendRequest struct {
	TenantID     uuid.UUID
	ClientID     uuid.UUID
	MembershipID uuid.UUID
	StartDate    valueobject.DateKey
	Days         int
	Reason       string
}

// SuspendMembership freezes a membership and pushes its end date forward.
// The suspension record is immutable once written.
func (s *MembershipService) SuspendMembership(ctx context.Context, req SuspendRequest) (*membership.Suspension, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "suspend",
		telemetry.SpanAttrMembershipID, req.MembershipID,
	)
	defer span.End()

	if req.Days < 1 {
		err := shared.NewInvalidArgument("suspension must last at least one day")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var suspension *membership.Suspension
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := loadClientMembership(ctx, repos.Memberships(), req.TenantID, req.ClientID, req.MembershipID)
		if err != nil {
			return err
		}
		start := req.StartDate
		if start.IsZero() {
			start = s.calendar.Today()
		}
		suspension, err = m.Suspend(start, req.Days, req.Reason, s.calendar.Now())
		if err != nil {
			return err
		}
		if err := repos.Memberships().SaveWithLock(ctx, m); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}
		if err := repos.Memberships().AddSuspension(ctx, suspension); err != nil {
			return fmt.Errorf("failed to record suspension: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return suspension, nil
}

// AdjustRequest is the input of AdjustMembershipEnd
type AdjustRequest struct {
	TenantID     uuid.UUID
	ClientID     uuid.UUID
	MembershipID uuid.UUID
	Days         int
	Reason       string
}

// AdjustMembershipEnd moves the end date and appends an adjustment record
func (s *MembershipService) AdjustMembershipEnd(ctx context.Context, req AdjustRequest) (*membership.Adjustment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "adjust_end",
		telemetry.SpanAttrMembershipID, req.MembershipID,
	)
	defer span.End()

	if req.Days == 0 {
		err := shared.NewInvalidArgument("adjustment must change the end date")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var adjustment *membership.Adjustment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := loadClientMembership(ctx, repos.Memberships(), req.TenantID, req.ClientID, req.MembershipID)
		if err != nil {
			return err
		}
		adjustment, err = m.AdjustEnd(req.Days, req.Reason, s.calendar.Now())
		if err != nil {
			return err
		}
		if err := repos.Memberships().SaveWithLock(ctx, m); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}
		if err := repos.Memberships().AddAdjustment(ctx, adjustment); err != nil {
			return fmt.Errorf("failed to record adjustment: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return adjustment, nil
}

// FetchMembershipsByEndRange lists the branch's memberships whose end date
// lies in [startKey, endKey], both inclusive, earliest end first.
func (s *MembershipService) FetchMembershipsByEndRange(ctx context.Context, tenantID, branchID uuid.UUID, startKey, endKey string) ([]membership.Membership, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "fetch_by_end_range",
		telemetry.SpanAttrTenantID, tenantID,
		"start", startKey,
		"end", endKey,
	)
	defer span.End()

	start, err := valueobject.ParseDateKey(startKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewInvalidArgument(fmt.Sprintf("invalid start date %q", startKey))
	}
	end, err := valueobject.ParseDateKey(endKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewInvalidArgument(fmt.Sprintf("invalid end date %q", endKey))
	}
	if start.After(end) {
		err := shared.NewInvalidArgument("start date must not be after end date")
		telemetry.RecordError(span, err)
		return nil, err
	}

	memberships, err := s.membershipRepo.FindByEndRange(ctx, tenantID, branchID, start, end)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to fetch memberships: %w", err)
	}
	telemetry.SetAttributes(span, "count", len(memberships))
	return memberships, nil
}

// GetMembership returns a membership with its suspension and adjustment history
func (s *MembershipService) GetMembership(ctx context.Context, tenantID, membershipID uuid.UUID) (*membership.Membership, []membership.Suspension, []membership.Adjustment, error) {
	m, err := loadClientMembership(ctx, s.membershipRepo, tenantID, uuid.Nil, membershipID)
	if err != nil {
		return nil, nil, nil, err
	}
	suspensions, err := s.membershipRepo.FindSuspensions(ctx, tenantID, membershipID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load suspensions: %w", err)
	}
	adjustments, err := s.membershipRepo.FindAdjustments(ctx, tenantID, membershipID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load adjustments: %w", err)
	}
	return m, suspensions, adjustments, nil
}
