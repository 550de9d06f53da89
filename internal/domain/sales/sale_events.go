package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
)

// Aggregate and event type names
const (
	AggregateTypeSale = "Sale"

	EventTypeSaleCreated = "sale.created"
	EventTypeSalePaid    = "sale.paid"
)

// SaleCreatedEvent is raised when a sale is recorded
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID         uuid.UUID         `json:"sale_id"`
	ClientID       uuid.UUID         `json:"client_id"`
	BranchID       uuid.UUID         `json:"branch_id"`
	NetTotalCents  valueobject.Cents `json:"net_total_cents"`
	PaidTotalCents valueobject.Cents `json:"paid_total_cents"`
	RemainingCents valueobject.Cents `json:"remaining_cents"`
	Status         SaleStatus        `json:"status"`
}

// EventType returns the event type name
func (e *SaleCreatedEvent) EventType() string {
	return EventTypeSaleCreated
}

// NewSaleCreatedEvent creates a SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale, now time.Time) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.TenantID, now),
		SaleID:          s.ID,
		ClientID:        s.ClientID,
		BranchID:        s.BranchID,
		NetTotalCents:   s.NetTotalCents,
		PaidTotalCents:  s.PaidTotalCents,
		RemainingCents:  s.RemainingCents,
		Status:          s.Status,
	}
}

// SalePaidEvent is raised when the remaining balance of a sale reaches zero
type SalePaidEvent struct {
	shared.BaseDomainEvent
	SaleID         uuid.UUID         `json:"sale_id"`
	ClientID       uuid.UUID         `json:"client_id"`
	PaidTotalCents valueobject.Cents `json:"paid_total_cents"`
}

// EventType returns the event type name
func (e *SalePaidEvent) EventType() string {
	return EventTypeSalePaid
}

// NewSalePaidEvent creates a SalePaidEvent
func NewSalePaidEvent(s *Sale, now time.Time) *SalePaidEvent {
	return &SalePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalePaid, AggregateTypeSale, s.ID, s.TenantID, now),
		SaleID:          s.ID,
		ClientID:        s.ClientID,
		PaidTotalCents:  s.PaidTotalCents,
	}
}
