package membership

import (
	"context"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Repository persists memberships and their suspension/adjustment history
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Membership, error)
	// FindByEndRange returns memberships of a branch whose EndAt lies in
	// [start, end], both ends inclusive, ordered by EndAt ascending
	FindByEndRange(ctx context.Context, tenantID, branchID uuid.UUID, start, end valueobject.DateKey) ([]Membership, error)
	Create(ctx context.Context, m *Membership) error
	SaveWithLock(ctx context.Context, m *Membership) error
	AddSuspension(ctx context.Context, s *Suspension) error
	AddAdjustment(ctx context.Context, a *Adjustment) error
	FindSuspensions(ctx context.Context, tenantID, membershipID uuid.UUID) ([]Suspension, error)
	FindAdjustments(ctx context.Context, tenantID, membershipID uuid.UUID) ([]Adjustment, error)
}
