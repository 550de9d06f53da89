package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Aggregate and event type names
const (
	AggregateTypeMembership = "Membership"

	EventTypeMembershipCreated       = "membership.created"
	EventTypeMembershipStatusChanged = "membership.status_changed"
	EventTypeMembershipTerminated    = "membership.terminated"
)

// MembershipCreatedEvent is raised when a membership is sold
type MembershipCreatedEvent struct {
	shared.BaseDomainEvent
	MembershipID uuid.UUID           `json:"membership_id"`
	ClientID     uuid.UUID           `json:"client_id"`
	StartAt      valueobject.DateKey `json:"start_at"`
	EndAt        valueobject.DateKey `json:"end_at"`
	Status       Status              `json:"status"`
}

// EventType returns the event type name
func (e *MembershipCreatedEvent) EventType() string {
	return EventTypeMembershipCreated
}

// NewMembershipCreatedEvent creates a MembershipCreatedEvent
func NewMembershipCreatedEvent(m *Membership, now time.Time) *MembershipCreatedEvent {
	return &MembershipCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMembershipCreated, AggregateTypeMembership, m.ID, m.TenantID, now),
		MembershipID:    m.ID,
		ClientID:        m.ClientID,
		StartAt:         m.StartAt,
		EndAt:           m.EndAt,
		Status:          m.Status,
	}
}

// MembershipStatusChangedEvent is raised on every status change
type MembershipStatusChangedEvent struct {
	shared.BaseDomainEvent
	MembershipID  uuid.UUID           `json:"membership_id"`
	ClientID      uuid.UUID           `json:"client_id"`
	From          Status              `json:"from"`
	To            Status              `json:"to"`
	StatusDateKey valueobject.DateKey `json:"status_date_key"`
}

// EventType returns the event type name
func (e *MembershipStatusChangedEvent) EventType() string {
	return EventTypeMembershipStatusChanged
}

// NewMembershipStatusChangedEvent creates a MembershipStatusChangedEvent
func NewMembershipStatusChangedEvent(m *Membership, from Status, now time.Time) *MembershipStatusChangedEvent {
	return &MembershipStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMembershipStatusChanged, AggregateTypeMembership, m.ID, m.TenantID, now),
		MembershipID:    m.ID,
		ClientID:        m.ClientID,
		From:            from,
		To:              m.Status,
		StatusDateKey:   m.StatusDateKey,
	}
}

// MembershipTerminatedEvent is raised when a membership is canceled or
// expired. Its consumer deactivates the client's recurring enrollments from
// EffectiveDate on.
type MembershipTerminatedEvent struct {
	shared.BaseDomainEvent
	MembershipID  uuid.UUID           `json:"membership_id"`
	ClientID      uuid.UUID           `json:"client_id"`
	BranchID      uuid.UUID           `json:"branch_id"`
	Status        Status              `json:"status"`
	EffectiveDate valueobject.DateKey `json:"effective_date"`
}

// EventType returns the event type name
func (e *MembershipTerminatedEvent) EventType() string {
	return EventTypeMembershipTerminated
}

// NewMembershipTerminatedEvent creates a MembershipTerminatedEvent
func NewMembershipTerminatedEvent(m *Membership, now time.Time) *MembershipTerminatedEvent {
	return &MembershipTerminatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMembershipTerminated, AggregateTypeMembership, m.ID, m.TenantID, now),
		MembershipID:    m.ID,
		ClientID:        m.ClientID,
		BranchID:        m.BranchID,
		Status:          m.Status,
		EffectiveDate:   m.StatusDateKey,
	}
}
