package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientRepository implements client.Repository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client within a tenant
func (r *GormClientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*client.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a client
func (r *GormClientRepository) Create(ctx context.Context, c *client.Client) error {
	return r.db.WithContext(ctx).Create(models.ClientModelFromDomain(c)).Error
}

// SaveWithLock writes the ledger projection of a client
func (r *GormClientRepository) SaveWithLock(ctx context.Context, c *client.Client) error {
	result := r.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", c.TenantID, c.ID, c.Version-1).
		Updates(map[string]interface{}{
			"name":                    c.Name,
			"debt_cents":              c.DebtCents.Int64(),
			"debt_sale_id":            c.DebtSaleID,
			"active_membership_id":    c.ActiveMembershipID,
			"active_sale_id":          c.ActiveSaleID,
			"scheduled_membership_id": c.ScheduledMembershipID,
			"version":                 c.Version,
			"updated_at":              c.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Client was modified by another transaction")
	}
	return nil
}

var _ client.Repository = (*GormClientRepository)(nil)
