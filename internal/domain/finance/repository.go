package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// ReceivableRepository persists receivables
type ReceivableRepository interface {
	// FindByID returns shared.ErrNotFound when the receivable does not exist in the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Receivable, error)
	FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]Receivable, error)
	// FindOpenManualByClient returns pending or overdue manual receivables of a client
	FindOpenManualByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]Receivable, error)
	// FindPendingDueBefore returns pending receivables with DueDate < before, oldest first
	FindPendingDueBefore(ctx context.Context, tenantID uuid.UUID, before valueobject.DateKey, limit int) ([]Receivable, error)
	Create(ctx context.Context, receivables ...*Receivable) error
	// SaveWithLock updates the receivable if its stored version is Version-1,
	// and returns shared.ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, r *Receivable) error
}
