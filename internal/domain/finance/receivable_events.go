package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Aggregate and event type names
const (
	AggregateTypeReceivable = "Receivable"

	EventTypeReceivableCreated        = "receivable.created"
	EventTypeReceivablePaymentApplied = "receivable.payment_applied"
	EventTypeReceivableSettled        = "receivable.settled"
	EventTypeReceivableOverdue        = "receivable.overdue"
)

// ReceivableCreatedEvent is raised when a receivable is issued
type ReceivableCreatedEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID           `json:"receivable_id"`
	SaleID       *uuid.UUID          `json:"sale_id,omitempty"`
	ClientID     uuid.UUID           `json:"client_id"`
	Kind         ReceivableKind      `json:"kind"`
	AmountCents  valueobject.Cents   `json:"amount_cents"`
	DueDate      valueobject.DateKey `json:"due_date"`
}

// EventType returns the event type name
func (e *ReceivableCreatedEvent) EventType() string {
	return EventTypeReceivableCreated
}

// NewReceivableCreatedEvent creates a ReceivableCreatedEvent
func NewReceivableCreatedEvent(r *Receivable, now time.Time) *ReceivableCreatedEvent {
	return &ReceivableCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceivableCreated, AggregateTypeReceivable, r.ID, r.TenantID, now),
		ReceivableID:    r.ID,
		SaleID:          r.SaleID,
		ClientID:        r.ClientID,
		Kind:            r.Kind(),
		AmountCents:     r.AmountCents,
		DueDate:         r.DueDate,
	}
}

// ReceivablePaymentAppliedEvent is raised for every non-zero application
type ReceivablePaymentAppliedEvent struct {
	shared.BaseDomainEvent
	ReceivableID    uuid.UUID         `json:"receivable_id"`
	ClientID        uuid.UUID         `json:"client_id"`
	Kind            ReceivableKind    `json:"kind"`
	AppliedCents    valueobject.Cents `json:"applied_cents"`
	AmountPaidCents valueobject.Cents `json:"amount_paid_cents"`
}

// EventType returns the event type name
func (e *ReceivablePaymentAppliedEvent) EventType() string {
	return EventTypeReceivablePaymentApplied
}

// NewReceivablePaymentAppliedEvent creates a ReceivablePaymentAppliedEvent
func NewReceivablePaymentAppliedEvent(r *Receivable, applied valueobject.Cents, now time.Time) *ReceivablePaymentAppliedEvent {
	return &ReceivablePaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceivablePaymentApplied, AggregateTypeReceivable, r.ID, r.TenantID, now),
		ReceivableID:    r.ID,
		ClientID:        r.ClientID,
		Kind:            r.Kind(),
		AppliedCents:    applied,
		AmountPaidCents: r.AmountPaidCents,
	}
}

// ReceivableSettledEvent is raised on the transition into paid
type ReceivableSettledEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID         `json:"receivable_id"`
	ClientID     uuid.UUID         `json:"client_id"`
	AmountCents  valueobject.Cents `json:"amount_cents"`
	PaidAt       time.Time         `json:"paid_at"`
}

// EventType returns the event type name
func (e *ReceivableSettledEvent) EventType() string {
	return EventTypeReceivableSettled
}

// NewReceivableSettledEvent creates a ReceivableSettledEvent
func NewReceivableSettledEvent(r *Receivable, now time.Time) *ReceivableSettledEvent {
	paidAt := now
	if r.PaidAt != nil {
		paidAt = *r.PaidAt
	}
	return &ReceivableSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceivableSettled, AggregateTypeReceivable, r.ID, r.TenantID, now),
		ReceivableID:    r.ID,
		ClientID:        r.ClientID,
		AmountCents:     r.AmountCents,
		PaidAt:          paidAt,
	}
}

// ReceivableOverdueEvent is raised when the overdue sweep flags a receivable
type ReceivableOverdueEvent struct {
	shared.BaseDomainEvent
	ReceivableID   uuid.UUID           `json:"receivable_id"`
	ClientID       uuid.UUID           `json:"client_id"`
	DueDate        valueobject.DateKey `json:"due_date"`
	AsOf           valueobject.DateKey `json:"as_of"`
	RemainingCents valueobject.Cents   `json:"remaining_cents"`
}

// EventType returns the event type name
func (e *ReceivableOverdueEvent) EventType() string {
	return EventTypeReceivableOverdue
}

// NewReceivableOverdueEvent creates a ReceivableOverdueEvent
func NewReceivableOverdueEvent(r *Receivable, asOf valueobject.DateKey, now time.Time) *ReceivableOverdueEvent {
	return &ReceivableOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceivableOverdue, AggregateTypeReceivable, r.ID, r.TenantID, now),
		ReceivableID:    r.ID,
		ClientID:        r.ClientID,
		DueDate:         r.DueDate,
		AsOf:            asOf,
		RemainingCents:  r.RemainingCents(),
	}
}
