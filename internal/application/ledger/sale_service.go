package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SaleService records point-of-sale transactions
type SaleService struct {
	scope    TransactionScope
	saleRepo sales.SaleRepository
	calendar Calendar
	metrics  *telemetry.LedgerMetrics
	logger   *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	scope TransactionScope,
	saleRepo sales.SaleRepository,
	calendar Calendar,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		scope:    scope,
		saleRepo: saleRepo,
		calendar: calendar,
		metrics:  metrics,
		logger:   logger,
	}
}

// MembershipIntent describes the membership sold by the sale's membership item
type MembershipIntent struct {
	PlanID       *uuid.UUID
	PlanName     string
	StartAt      valueobject.DateKey
	DurationType membership.DurationType
	Duration     int
	// PreviousMembershipID is the membership this one renews, if any
	PreviousMembershipID *uuid.UUID
}

// CreateSaleRequest is the input of CreateSale
type CreateSaleRequest struct {
	TenantID      uuid.UUID
	BranchID      uuid.UUID
	ClientID      uuid.UUID
	ConsultantID  *uuid.UUID
	CreatedBy     *uuid.UUID
	SaleDate      valueobject.DateKey // defaults to today
	Items         []sales.ItemInput
	DiscountCents valueobject.Cents
	Payments      []sales.SalePayment
	Membership    *MembershipIntent
	// ManualDueDate is when the unpaid balance falls due; defaults to the sale date
	ManualDueDate valueobject.DateKey
	Notes         string
}

// CreateSaleResult identifies everything CreateSale wrote
type CreateSaleResult struct {
	SaleID         uuid.UUID
	Status         sales.SaleStatus
	NetTotalCents  valueobject.Cents
	RemainingCents valueobject.Cents
	ReceivableIDs  []uuid.UUID
	MembershipID   *uuid.UUID
}

// saleDraft is the validated, fully computed form of a request. It is
// rebuilt on every transaction attempt so retries never reuse stale state.
type saleDraft struct {
	sale        *sales.Sale
	receivables []*finance.Receivable
	membership  *membership.Membership
}

func (s *SaleService) draft(req CreateSaleRequest, today valueobject.DateKey, now time.Time) (*saleDraft, error) {
	saleDate := req.SaleDate
	if saleDate.IsZero() {
		saleDate = today
	}

	sale, err := sales.NewSale(sales.NewSaleParams{
		TenantID:      req.TenantID,
		BranchID:      req.BranchID,
		ClientID:      req.ClientID,
		ConsultantID:  req.ConsultantID,
		SaleDate:      saleDate,
		Items:         req.Items,
		DiscountCents: req.DiscountCents,
		Payments:      req.Payments,
		Notes:         req.Notes,
	}, now)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != nil {
		sale.SetCreatedBy(*req.CreatedBy)
	}

	d := &saleDraft{sale: sale}
	origin := finance.ReceivableOrigin{
		TenantID:     req.TenantID,
		BranchID:     req.BranchID,
		SaleID:       &sale.ID,
		ClientID:     req.ClientID,
		ConsultantID: req.ConsultantID,
	}

	for _, pay := range sale.CardPayments() {
		schedule, err := finance.BuildCardSchedule(finance.CardScheduleInput{
			GrossCents:   pay.AmountCents,
			FeeCents:     pay.CardFeeCents,
			Installments: pay.Installments(),
			SaleDate:     saleDate,
			Anticipated:  pay.Anticipated,
		})
		if err != nil {
			return nil, err
		}
		for _, inst := range schedule {
			r, err := finance.NewCardInstallmentReceivable(origin, inst, pay.Anticipated, pay.Acquirer, now)
			if err != nil {
				return nil, err
			}
			d.receivables = append(d.receivables, r)
		}
	}

	if sale.RemainingCents.IsPositive() {
		due := req.ManualDueDate
		if due.IsZero() {
			due = saleDate
		}
		r, err := finance.NewManualReceivable(origin, sale.RemainingCents, due, now)
		if err != nil {
			return nil, err
		}
		d.receivables = append(d.receivables, r)
	}

	item, hasItem := sale.MembershipItem()
	switch {
	case hasItem && req.Membership == nil:
		return nil, shared.NewInvalidArgument("membership item requires membership start and duration")
	case !hasItem && req.Membership != nil:
		return nil, shared.NewInvalidArgument("membership details given without a membership item")
	case hasItem:
		intent := req.Membership
		startAt := intent.StartAt
		if startAt.IsZero() {
			startAt = saleDate
		}
		planName := intent.PlanName
		if planName == "" {
			planName = item.Description
		}
		m, err := membership.NewMembership(membership.NewMembershipParams{
			TenantID:             req.TenantID,
			ClientID:             req.ClientID,
			BranchID:             req.BranchID,
			PlanID:               intent.PlanID,
			PlanName:             planName,
			PriceCents:           item.TotalCents,
			StartAt:              startAt,
			DurationType:         intent.DurationType,
			Duration:             intent.Duration,
			SaleID:               &sale.ID,
			PreviousMembershipID: intent.PreviousMembershipID,
		}, today, now)
		if err != nil {
			return nil, err
		}
		d.membership = m
	}

	return d, nil
}

// CreateSale writes the sale, its receivables, the sold membership and the
// client projection in a single transaction. Validation failures return
// before the transaction starts.
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*CreateSaleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create",
		telemetry.SpanAttrTenantID, req.TenantID,
		telemetry.SpanAttrClientID, req.ClientID,
	)
	defer span.End()

	if _, err := s.draft(req, s.calendar.Today(), s.calendar.Now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *CreateSaleResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		now := s.calendar.Now()
		today := s.calendar.Today()
		d, err := s.draft(req, today, now)
		if err != nil {
			return err
		}

		if err := repos.Sales().Create(ctx, d.sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}
		if len(d.receivables) > 0 {
			if err := repos.Receivables().Create(ctx, d.receivables...); err != nil {
				return fmt.Errorf("failed to create receivables: %w", err)
			}
		}

		aggregates := []shared.AggregateRoot{d.sale}
		for _, r := range d.receivables {
			aggregates = append(aggregates, r)
		}
		if d.membership != nil {
			touched, err := s.attachMembership(ctx, repos, d, now)
			if err != nil {
				return err
			}
			aggregates = append(aggregates, touched...)
		}
		if err := recordEvents(ctx, repos.Events(), aggregates...); err != nil {
			return fmt.Errorf("failed to record sale events: %w", err)
		}

		result = &CreateSaleResult{
			SaleID:         d.sale.ID,
			Status:         d.sale.Status,
			NetTotalCents:  d.sale.NetTotalCents,
			RemainingCents: d.sale.RemainingCents,
		}
		for _, r := range d.receivables {
			result.ReceivableIDs = append(result.ReceivableIDs, r.ID)
		}
		if d.membership != nil {
			id := d.membership.ID
			result.MembershipID = &id
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, result.SaleID,
		telemetry.SpanAttrStatus, result.Status,
	)
	telemetry.AddEvent(span, "sale_created", "receivables", len(result.ReceivableIDs))
	s.metrics.SaleCreated(ctx, req.TenantID.String(), result.NetTotalCents.Int64(), len(result.ReceivableIDs))
	s.logger.Info("Sale created",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("sale_id", result.SaleID.String()),
		zap.String("client_id", req.ClientID.String()),
		zap.String("status", result.Status.String()),
		zap.Int("receivables", len(result.ReceivableIDs)),
	)
	return result, nil
}

// attachMembership persists the new membership, links its predecessor and
// points the client at it. It returns the aggregates whose events still
// need recording.
func (s *SaleService) attachMembership(ctx context.Context, repos TransactionalRepositories, d *saleDraft, now time.Time) ([]shared.AggregateRoot, error) {
	m := d.membership
	touched := []shared.AggregateRoot{m}

	c, err := repos.Clients().FindByID(ctx, m.TenantID, m.ClientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFound("client")
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	if err := repos.Memberships().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	if m.PreviousMembershipID != nil {
		prev, err := repos.Memberships().FindByID(ctx, m.TenantID, *m.PreviousMembershipID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewNotFound("previous membership")
			}
			return nil, fmt.Errorf("failed to load previous membership: %w", err)
		}
		if prev.ClientID != m.ClientID {
			return nil, shared.NewInvalidArgument("previous membership belongs to another client")
		}
		if err := prev.LinkNext(m.ID, now); err != nil {
			return nil, err
		}
		if err := repos.Memberships().SaveWithLock(ctx, prev); err != nil {
			return nil, fmt.Errorf("failed to link previous membership: %w", err)
		}
		touched = append(touched, prev)
	}

	c.RecordMembershipSale(m.ID, d.sale.ID, m.IsActive(), d.sale.RemainingCents, now)
	if err := repos.Clients().SaveWithLock(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	touched = append(touched, c)
	return touched, nil
}

// GetSale returns a sale of the tenant
func (s *SaleService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*sales.Sale, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "get", telemetry.SpanAttrSaleID, saleID)
	defer span.End()

	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return sale, nil
}
