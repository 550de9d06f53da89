package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Enrollment is a client's recurring weekly booking in a class
type Enrollment struct {
	shared.BaseEntity
	TenantID     uuid.UUID
	ClientID     uuid.UUID
	ClassID      uuid.UUID
	Weekday      time.Weekday
	StartDateKey valueobject.DateKey
	EndDateKey   valueobject.DateKey
	Active       bool
}

// NewEnrollment books a client into a class from start onwards
func NewEnrollment(tenantID, clientID, classID uuid.UUID, weekday time.Weekday, start valueobject.DateKey, now time.Time) (*Enrollment, error) {
	if tenantID == uuid.Nil || clientID == uuid.Nil || classID == uuid.Nil {
		return nil, shared.NewInvalidArgument("tenant, client and class are required")
	}
	if !start.Valid() {
		return nil, shared.NewInvalidArgument("enrollment start must be a valid YYYY-MM-DD date")
	}
	return &Enrollment{
		BaseEntity:   shared.NewBaseEntity(now),
		TenantID:     tenantID,
		ClientID:     clientID,
		ClassID:      classID,
		Weekday:      weekday,
		StartDateKey: start,
		Active:       true,
	}, nil
}

// DeactivateFrom ends the booking effective from. Already inactive
// enrollments are left untouched and false is returned.
func (e *Enrollment) DeactivateFrom(from valueobject.DateKey, now time.Time) bool {
	if !e.Active {
		return false
	}
	e.Active = false
	e.EndDateKey = from
	if from.Before(e.StartDateKey) {
		e.EndDateKey = e.StartDateKey
	}
	e.Touch(now)
	return true
}

// Repository persists enrollments
type Repository interface {
	FindActiveByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]Enrollment, error)
	Create(ctx context.Context, e *Enrollment) error
	Save(ctx context.Context, e *Enrollment) error
}

// Deactivator is the collaborator the membership lifecycle calls when a
// membership ends. Implementations must be idempotent.
type Deactivator interface {
	DeactivateClientEnrollmentsFromDate(ctx context.Context, tenantID, clientID uuid.UUID, from valueobject.DateKey) (int, error)
}
