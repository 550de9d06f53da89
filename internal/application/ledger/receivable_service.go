package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultOverdueBatchSize bounds how many receivables one sweep transaction touches
const DefaultOverdueBatchSize = 200

// ReceivableService serves receivable reads and the overdue sweep
type ReceivableService struct {
	scope          TransactionScope
	receivableRepo finance.ReceivableRepository
	calendar       Calendar
	batchSize      int
	logger         *zap.Logger
}

// NewReceivableService creates a new ReceivableService. A batchSize below 1
// falls back to DefaultOverdueBatchSize.
func NewReceivableService(scope TransactionScope, receivableRepo finance.ReceivableRepository, calendar Calendar, batchSize int, logger *zap.Logger) *ReceivableService {
	if batchSize < 1 {
		batchSize = DefaultOverdueBatchSize
	}
	return &ReceivableService{
		scope:          scope,
		receivableRepo: receivableRepo,
		calendar:       calendar,
		batchSize:      batchSize,
		logger:         logger,
	}
}

// GetReceivable returns a receivable of the tenant
func (s *ReceivableService) GetReceivable(ctx context.Context, tenantID, id uuid.UUID) (*finance.Receivable, error) {
	return s.receivableRepo.FindByID(ctx, tenantID, id)
}

// ListBySale returns the receivables a sale generated, card installments in order
func (s *ReceivableService) ListBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]finance.Receivable, error) {
	receivables, err := s.receivableRepo.FindBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receivables: %w", err)
	}
	return receivables, nil
}

// MarkOverdue flips every pending receivable of the tenant due before asOf
// to overdue and returns how many changed. A zero asOf means today. Each
// batch commits on its own, so a failure leaves earlier batches applied.
func (s *ReceivableService) MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf valueobject.DateKey) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receivable", "mark_overdue", telemetry.SpanAttrTenantID, tenantID)
	defer span.End()

	if asOf.IsZero() {
		asOf = s.calendar.Today()
	}
	if !asOf.Valid() {
		err := shared.NewInvalidArgument(fmt.Sprintf("invalid date %q", asOf))
		telemetry.RecordError(span, err)
		return 0, err
	}

	total := 0
	for {
		var batch int
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			batch = 0
			due, err := repos.Receivables().FindPendingDueBefore(ctx, tenantID, asOf, s.batchSize)
			if err != nil {
				return fmt.Errorf("failed to load due receivables: %w", err)
			}
			if len(due) == 0 {
				return nil
			}
			now := s.calendar.Now()
			touched := make([]shared.AggregateRoot, 0, len(due))
			for i := range due {
				r := &due[i]
				if !r.MarkOverdue(asOf, now) {
					continue
				}
				if err := repos.Receivables().SaveWithLock(ctx, r); err != nil {
					return fmt.Errorf("failed to save receivable %s: %w", r.ID, err)
				}
				touched = append(touched, r)
			}
			batch = len(touched)
			return recordEvents(ctx, repos.Events(), touched...)
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return total, err
		}
		total += batch
		if batch < s.batchSize {
			break
		}
	}

	telemetry.SetAttributes(span, "marked", total)
	if total > 0 {
		s.logger.Info("Receivables marked overdue",
			zap.String("tenant_id", tenantID.String()),
			zap.String("as_of", asOf.String()),
			zap.Int("count", total),
		)
	}
	return total, nil
}
