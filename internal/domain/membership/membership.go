package membership

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Status represents the status of a membership
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusPaused, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for canceled and expired
func (s Status) IsTerminal() bool {
	return s == StatusCanceled || s == StatusExpired
}

// canMoveTo lists the non-terminal transitions. Terminal targets are
// accepted from every state and are not listed here.
func (s Status) canMoveTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusActive
	case StatusActive:
		return target == StatusPaused
	case StatusPaused:
		return target == StatusActive
	}
	return false
}

// DurationType is the unit of a membership duration
type DurationType string

const (
	DurationDay   DurationType = "day"
	DurationWeek  DurationType = "week"
	DurationMonth DurationType = "month"
	DurationYear  DurationType = "year"
)

// IsValid checks if the duration type is known
func (d DurationType) IsValid() bool {
	switch d {
	case DurationDay, DurationWeek, DurationMonth, DurationYear:
		return true
	}
	return false
}

// Advance returns start moved forward by n units. Day and week steps are
// exact; month and year steps follow the calendar.
func (d DurationType) Advance(start valueobject.DateKey, n int) valueobject.DateKey {
	switch d {
	case DurationDay:
		return start.AddDays(n)
	case DurationWeek:
		return start.AddDays(7 * n)
	case DurationMonth:
		return start.AddMonths(n)
	case DurationYear:
		return start.AddYears(n)
	}
	return start
}

// ComputeEndAt returns the inclusive last day of a membership: the start of
// the next period minus one day.
func ComputeEndAt(start valueobject.DateKey, durationType DurationType, duration int) (valueobject.DateKey, error) {
	if !start.Valid() {
		return "", shared.NewInvalidArgument("membership start must be a valid YYYY-MM-DD date")
	}
	if !durationType.IsValid() {
		return "", shared.NewInvalidArgument(fmt.Sprintf("invalid duration type %q", durationType))
	}
	if duration < 1 {
		return "", shared.NewInvalidArgument("membership duration must be at least 1")
	}
	return durationType.Advance(start, duration).AddDays(-1), nil
}

// Membership is a client's contract period
type Membership struct {
	shared.TenantAggregateRoot
	ClientID             uuid.UUID
	BranchID             uuid.UUID
	PlanID               *uuid.UUID
	PlanName             string
	PriceCents           valueobject.Cents
	StartAt              valueobject.DateKey
	DurationType         DurationType
	Duration             int
	EndAt                valueobject.DateKey
	Status               Status
	StatusDateKey        valueobject.DateKey
	PreviousMembershipID *uuid.UUID
	NextMembershipID     *uuid.UUID
	SaleID               *uuid.UUID
	SuspensionDaysUsed   int
}

// NewMembershipParams describes a membership being sold
type NewMembershipParams struct {
	TenantID             uuid.UUID
	ClientID             uuid.UUID
	BranchID             uuid.UUID
	PlanID               *uuid.UUID
	PlanName             string
	PriceCents           valueobject.Cents
	StartAt              valueobject.DateKey
	DurationType         DurationType
	Duration             int
	SaleID               *uuid.UUID
	PreviousMembershipID *uuid.UUID
}

// NewMembership creates a membership that is active when it starts on or
// before today and pending otherwise.
func NewMembership(p NewMembershipParams, today valueobject.DateKey, now time.Time) (*Membership, error) {
	if p.TenantID == uuid.Nil {
		return nil, shared.NewInvalidArgument("tenant ID cannot be empty")
	}
	if p.ClientID == uuid.Nil {
		return nil, shared.NewInvalidArgument("client ID cannot be empty")
	}
	if p.PriceCents.IsNegative() {
		return nil, shared.NewInvalidArgument("membership price cannot be negative")
	}
	endAt, err := ComputeEndAt(p.StartAt, p.DurationType, p.Duration)
	if err != nil {
		return nil, err
	}

	status := StatusPending
	if !p.StartAt.After(today) {
		status = StatusActive
	}

	m := &Membership{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(p.TenantID, now),
		ClientID:             p.ClientID,
		BranchID:             p.BranchID,
		PlanID:               p.PlanID,
		PlanName:             p.PlanName,
		PriceCents:           p.PriceCents,
		StartAt:              p.StartAt,
		DurationType:         p.DurationType,
		Duration:             p.Duration,
		EndAt:                endAt,
		Status:               status,
		StatusDateKey:        today,
		PreviousMembershipID: p.PreviousMembershipID,
		SaleID:               p.SaleID,
	}
	m.AddDomainEvent(NewMembershipCreatedEvent(m, now))
	return m, nil
}

// IsActive returns true when the membership is currently active
func (m *Membership) IsActive() bool {
	return m.Status == StatusActive
}

// TransitionResult describes the effect of ChangeStatus
type TransitionResult struct {
	From       Status
	To         Status
	Changed    bool
	Terminated bool
}

// ChangeStatus moves the membership to target. Canceling or expiring is
// allowed from any state and always pins EndAt and StatusDateKey to today,
// overriding any previously computed end. Asking for the current
// non-terminal status is a no-op.
func (m *Membership) ChangeStatus(target Status, today valueobject.DateKey, now time.Time) (TransitionResult, error) {
	if !target.IsValid() {
		return TransitionResult{}, shared.NewInvalidArgument(fmt.Sprintf("invalid membership status %q", target))
	}
	if !today.Valid() {
		return TransitionResult{}, shared.NewInvalidArgument("status change requires a valid date")
	}

	result := TransitionResult{From: m.Status, To: target}
	switch {
	case target.IsTerminal():
		m.EndAt = today
		result.Terminated = true
	case target == m.Status:
		return result, nil
	case !m.Status.canMoveTo(target):
		return TransitionResult{}, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot change membership from %s to %s", m.Status, target))
	}

	m.Status = target
	m.StatusDateKey = today
	m.Touch(now)
	m.IncrementVersion()
	result.Changed = true

	m.AddDomainEvent(NewMembershipStatusChangedEvent(m, result.From, now))
	if result.Terminated {
		m.AddDomainEvent(NewMembershipTerminatedEvent(m, now))
	}
	return result, nil
}

// LinkNext records the membership that renews this one
func (m *Membership) LinkNext(nextID uuid.UUID, now time.Time) error {
	if nextID == m.ID {
		return shared.NewInvalidArgument("membership cannot renew itself")
	}
	m.NextMembershipID = &nextID
	m.Touch(now)
	m.IncrementVersion()
	return nil
}

// Suspend freezes the membership for days starting at start. The end date
// is pushed forward by the same number of days.
func (m *Membership) Suspend(start valueobject.DateKey, days int, reason string, now time.Time) (*Suspension, error) {
	if m.Status.IsTerminal() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "cannot suspend a "+m.Status.String()+" membership")
	}
	if days < 1 {
		return nil, shared.NewInvalidArgument("suspension must last at least one day")
	}
	if !start.Valid() {
		return nil, shared.NewInvalidArgument("suspension start must be a valid YYYY-MM-DD date")
	}
	if start.Before(m.StartAt) || start.After(m.EndAt) {
		return nil, shared.NewInvalidArgument("suspension must start within the membership period")
	}

	previousEnd := m.EndAt
	m.EndAt = m.EndAt.AddDays(days)
	m.SuspensionDaysUsed += days
	m.Touch(now)
	m.IncrementVersion()

	return &Suspension{
		ID:            uuid.New(),
		TenantID:      m.TenantID,
		MembershipID:  m.ID,
		StartDate:     start,
		EndDate:       start.AddDays(days - 1),
		Days:          days,
		Reason:        reason,
		PreviousEndAt: previousEnd,
		NewEndAt:      m.EndAt,
		CreatedAt:     now,
	}, nil
}

// AdjustEnd moves the end date by days (negative shortens it)
func (m *Membership) AdjustEnd(days int, reason string, now time.Time) (*Adjustment, error) {
	if m.Status.IsTerminal() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "cannot adjust a "+m.Status.String()+" membership")
	}
	if days == 0 {
		return nil, shared.NewInvalidArgument("adjustment must change the end date")
	}
	newEnd := m.EndAt.AddDays(days)
	if newEnd.Before(m.StartAt) {
		return nil, shared.NewInvalidArgument("adjustment would end the membership before it starts")
	}

	previousEnd := m.EndAt
	m.EndAt = newEnd
	m.Touch(now)
	m.IncrementVersion()

	return &Adjustment{
		ID:            uuid.New(),
		TenantID:      m.TenantID,
		MembershipID:  m.ID,
		Days:          days,
		Reason:        reason,
		PreviousEndAt: previousEnd,
		NewEndAt:      newEnd,
		CreatedAt:     now,
	}, nil
}
