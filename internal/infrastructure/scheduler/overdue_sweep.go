package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// TenantLister finds the tenants that have receivables to sweep
type TenantLister interface {
	TenantsWithPendingDueBefore(ctx context.Context, before valueobject.DateKey) ([]uuid.UUID, error)
}

// OverdueMarker flips a tenant's past-due receivables to overdue
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf valueobject.DateKey) (int, error)
}

// OverdueSweep marks receivables overdue across all tenants
type OverdueSweep struct {
	tenants TenantLister
	marker  OverdueMarker
	logger  *zap.Logger
}

// NewOverdueSweep creates the daily overdue job
func NewOverdueSweep(tenants TenantLister, marker OverdueMarker, logger *zap.Logger) *OverdueSweep {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueSweep{tenants: tenants, marker: marker, logger: logger}
}

// Name implements Job
func (s *OverdueSweep) Name() string {
	return "overdue_sweep"
}

// Run implements Job. Tenants are swept one by one; a tenant that fails is
// reported and the sweep moves on.
func (s *OverdueSweep) Run(ctx context.Context, day valueobject.DateKey) error {
	tenantIDs, err := s.tenants.TenantsWithPendingDueBefore(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	var (
		total int
		errs  []error
	)
	for _, tenantID := range tenantIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.marker.MarkOverdue(ctx, tenantID, day)
		total += n
		if err != nil {
			s.logger.Warn("Overdue sweep failed for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Int("marked", n),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("tenant %s: %w", tenantID, err))
		}
	}

	s.logger.Info("Overdue sweep finished",
		zap.String("as_of", day.String()),
		zap.Int("tenants", len(tenantIDs)),
		zap.Int("marked", total),
	)
	return errors.Join(errs...)
}
