package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormEnrollmentRepository implements enrollment.Repository using GORM
type GormEnrollmentRepository struct {
	db *gorm.DB
}

// NewGormEnrollmentRepository creates a new GormEnrollmentRepository
func NewGormEnrollmentRepository(db *gorm.DB) *GormEnrollmentRepository {
	return &GormEnrollmentRepository{db: db}
}

// FindActiveByClient lists the active class bookings of a client
func (r *GormEnrollmentRepository) FindActiveByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]enrollment.Enrollment, error) {
	var rows []models.EnrollmentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ? AND active = ?", tenantID, clientID, true).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]enrollment.Enrollment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts an enrollment
func (r *GormEnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	return r.db.WithContext(ctx).Create(models.EnrollmentModelFromDomain(e)).Error
}

// Save writes an enrollment back. Only the deactivation fields change after creation.
func (r *GormEnrollmentRepository) Save(ctx context.Context, e *enrollment.Enrollment) error {
	return r.db.WithContext(ctx).
		Model(&models.EnrollmentModel{}).
		Where("tenant_id = ? AND id = ?", e.TenantID, e.ID).
		Updates(map[string]interface{}{
			"active":       e.Active,
			"end_date_key": e.EndDateKey.String(),
			"updated_at":   e.UpdatedAt,
		}).Error
}

var _ enrollment.Repository = (*GormEnrollmentRepository)(nil)
