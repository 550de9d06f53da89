package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID loads a sale with its items and payments
func (r *GormSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the sale header together with its items and payments
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error
}

// SaveWithLock updates the running totals of a sale. Items and payments are
// immutable once the sale is recorded and are not written.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", sale.TenantID, sale.ID, sale.Version-1).
		Updates(map[string]interface{}{
			"paid_total_cents":     sale.PaidTotalCents.Int64(),
			"net_paid_total_cents": sale.NetPaidTotalCents.Int64(),
			"remaining_cents":      sale.RemainingCents.Int64(),
			"status":               sale.Status,
			"notes":                sale.Notes,
			"version":              sale.Version,
			"updated_at":           sale.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Sale was modified by another transaction")
	}
	return nil
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
