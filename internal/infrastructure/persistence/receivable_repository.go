package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReceivableRepository implements finance.ReceivableRepository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// FindByID finds a receivable within a tenant
func (r *GormReceivableRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Receivable, error) {
	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindBySale returns the receivables issued by a sale, card installments in order
func (r *GormReceivableRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]finance.Receivable, error) {
	return r.find(r.db.WithContext(ctx).
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Order("kind, card_installment_number, due_date, id"))
}

// FindOpenManualByClient returns the pending and overdue manual receivables of a client
func (r *GormReceivableRepository) FindOpenManualByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]finance.Receivable, error) {
	return r.find(r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ? AND kind = ? AND status IN ?",
			tenantID, clientID, finance.ReceivableKindManual,
			[]finance.ReceivableStatus{finance.ReceivableStatusPending, finance.ReceivableStatusOverdue}).
		Order("due_date, id"))
}

// FindPendingDueBefore returns pending receivables due before the given day, oldest first
func (r *GormReceivableRepository) FindPendingDueBefore(ctx context.Context, tenantID uuid.UUID, before valueobject.DateKey, limit int) ([]finance.Receivable, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND due_date < ?", tenantID, finance.ReceivableStatusPending, before.String()).
		Order("due_date, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(query)
}

// TenantsWithPendingDueBefore lists the tenants that have at least one
// pending receivable due before the given day
func (r *GormReceivableRepository) TenantsWithPendingDueBefore(ctx context.Context, before valueobject.DateKey) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Where("status = ? AND due_date < ?", finance.ReceivableStatusPending, before.String()).
		Distinct().
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormReceivableRepository) find(query *gorm.DB) ([]finance.Receivable, error) {
	var rows []models.ReceivableModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.Receivable, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("receivable %s: %w", rows[i].ID, err)
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Create inserts receivables in one statement
func (r *GormReceivableRepository) Create(ctx context.Context, receivables ...*finance.Receivable) error {
	if len(receivables) == 0 {
		return nil
	}
	rows := make([]*models.ReceivableModel, len(receivables))
	for i, rec := range receivables {
		rows[i] = models.ReceivableModelFromDomain(rec)
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// SaveWithLock writes the payment state of a receivable
func (r *GormReceivableRepository) SaveWithLock(ctx context.Context, rec *finance.Receivable) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", rec.TenantID, rec.ID, rec.Version-1).
		Updates(map[string]interface{}{
			"amount_paid_cents": rec.AmountPaidCents.Int64(),
			"status":            rec.Status,
			"due_date":          rec.DueDate.String(),
			"paid_at":           rec.PaidAt,
			"version":           rec.Version,
			"updated_at":        rec.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Receivable was modified by another transaction")
	}
	return nil
}

var _ finance.ReceivableRepository = (*GormReceivableRepository)(nil)
