// Package enrollment holds the recurring-enrollment collaborator the
// membership lifecycle cascades into.
package enrollment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DeactivationService ends a client's recurring enrollments. Running it
// twice for the same client and date changes nothing the second time.
type DeactivationService struct {
	repo   enrollment.Repository
	clock  shared.Clock
	logger *zap.Logger
}

// NewDeactivationService creates a new DeactivationService
func NewDeactivationService(repo enrollment.Repository, clock shared.Clock, logger *zap.Logger) *DeactivationService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &DeactivationService{repo: repo, clock: clock, logger: logger}
}

// DeactivateClientEnrollmentsFromDate ends every active enrollment of the
// client effective from and returns how many were ended.
func (s *DeactivationService) DeactivateClientEnrollmentsFromDate(ctx context.Context, tenantID, clientID uuid.UUID, from valueobject.DateKey) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "enrollment", "deactivate_from_date",
		telemetry.SpanAttrTenantID, tenantID,
		telemetry.SpanAttrClientID, clientID,
	)
	defer span.End()

	if !from.Valid() {
		err := shared.NewInvalidArgument(fmt.Sprintf("invalid date %q", from))
		telemetry.RecordError(span, err)
		return 0, err
	}

	active, err := s.repo.FindActiveByClient(ctx, tenantID, clientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to load enrollments: %w", err)
	}

	now := s.clock.Now()
	count := 0
	for i := range active {
		e := &active[i]
		if !e.DeactivateFrom(from, now) {
			continue
		}
		if err := s.repo.Save(ctx, e); err != nil {
			telemetry.RecordError(span, err)
			return count, fmt.Errorf("failed to deactivate enrollment %s: %w", e.ID, err)
		}
		count++
	}

	telemetry.SetAttributes(span, "deactivated", count)
	s.logger.Debug("Client enrollments deactivated",
		zap.String("client_id", clientID.String()),
		zap.String("from", from.String()),
		zap.Int("count", count),
	)
	return count, nil
}

var _ enrollment.Deactivator = (*DeactivationService)(nil)
