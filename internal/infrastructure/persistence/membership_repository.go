package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMembershipRepository implements membership.Repository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// FindByID finds a membership within a tenant
func (r *GormMembershipRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*membership.Membership, error) {
	var model models.MembershipModel
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

// FindByEndRange returns the memberships of a branch ending within [start, end].
// Date keys are zero-padded so string comparison matches calendar order.
func (r *GormMembershipRepository) FindByEndRange(ctx context.Context, tenantID, branchID uuid.UUID, start, end valueobject.DateKey) ([]membership.Membership, error) {
	var rows []models.MembershipModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ? AND end_at >= ? AND end_at <= ?",
			tenantID, branchID, start.String(), end.String()).
		Order("end_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]membership.Membership, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a membership
func (r *GormMembershipRepository) Create(ctx context.Context, m *membership.Membership) error {
	return r.db.WithContext(ctx).Create(models.MembershipModelFromDomain(m)).Error
}

// SaveWithLock writes the lifecycle state of a membership
func (r *GormMembershipRepository) SaveWithLock(ctx context.Context, m *membership.Membership) error {
	result := r.db.WithContext(ctx).
		Model(&models.MembershipModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", m.TenantID, m.ID, m.Version-1).
		Updates(map[string]interface{}{
			"start_at":               m.StartAt.String(),
			"end_at":                 m.EndAt.String(),
			"status":                 m.Status,
			"status_date_key":        m.StatusDateKey.String(),
			"previous_membership_id": m.PreviousMembershipID,
			"next_membership_id":     m.NextMembershipID,
			"suspension_days_used":   m.SuspensionDaysUsed,
			"version":                m.Version,
			"updated_at":             m.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Membership was modified by another transaction")
	}
	return nil
}

// AddSuspension records a suspension period
func (r *GormMembershipRepository) AddSuspension(ctx context.Context, s *membership.Suspension) error {
	return r.db.WithContext(ctx).Create(models.MembershipSuspensionModelFromDomain(s)).Error
}

// AddAdjustment records a manual end-date change
func (r *GormMembershipRepository) AddAdjustment(ctx context.Context, a *membership.Adjustment) error {
	return r.db.WithContext(ctx).Create(models.MembershipAdjustmentModelFromDomain(a)).Error
}

// FindSuspensions lists the suspensions of a membership in the order they were taken
func (r *GormMembershipRepository) FindSuspensions(ctx context.Context, tenantID, membershipID uuid.UUID) ([]membership.Suspension, error) {
	var rows []models.MembershipSuspensionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND membership_id = ?", tenantID, membershipID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]membership.Suspension, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindAdjustments lists the end-date adjustments of a membership
func (r *GormMembershipRepository) FindAdjustments(ctx context.Context, tenantID, membershipID uuid.UUID) ([]membership.Adjustment, error) {
	var rows []models.MembershipAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND membership_id = ?", tenantID, membershipID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]membership.Adjustment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ membership.Repository = (*GormMembershipRepository)(nil)
