package sales

import (
	"context"

	"github.com/google/uuid"
)

// SaleRepository persists sales with their items and payments
type SaleRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)
	Create(ctx context.Context, sale *Sale) error
	// SaveWithLock updates the sale header if the stored version is Version-1
	SaveWithLock(ctx context.Context, sale *Sale) error
}
