package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Suspension is an append-only record of a membership freeze. Records are
// never updated; Membership.EndAt and SuspensionDaysUsed are the projections.
type Suspension struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	MembershipID  uuid.UUID
	StartDate     valueobject.DateKey
	EndDate       valueobject.DateKey
	Days          int
	Reason        string
	PreviousEndAt valueobject.DateKey
	NewEndAt      valueobject.DateKey
	CreatedAt     time.Time
}

// Adjustment is an append-only record of a manual end date change
type Adjustment struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	MembershipID  uuid.UUID
	Days          int
	Reason        string
	PreviousEndAt valueobject.DateKey
	NewEndAt      valueobject.DateKey
	CreatedAt     time.Time
}
