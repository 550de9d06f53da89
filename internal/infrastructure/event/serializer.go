package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
)

// EventSerializer turns domain events into outbox payloads and back.
// Deserialization needs the concrete Go type, so every event type that can
// land in the outbox must be registered.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewLedgerEventSerializer creates a serializer that knows every ledger event
func NewLedgerEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterLedgerEvents(s)
	return s
}

// RegisterLedgerEvents registers the sale, receivable and membership events
func RegisterLedgerEvents(s *EventSerializer) {
	s.Register(sales.EventTypeSaleCreated, &sales.SaleCreatedEvent{})
	s.Register(sales.EventTypeSalePaid, &sales.SalePaidEvent{})

	s.Register(finance.EventTypeReceivableCreated, &finance.ReceivableCreatedEvent{})
	s.Register(finance.EventTypeReceivablePaymentApplied, &finance.ReceivablePaymentAppliedEvent{})
	s.Register(finance.EventTypeReceivableSettled, &finance.ReceivableSettledEvent{})
	s.Register(finance.EventTypeReceivableOverdue, &finance.ReceivableOverdueEvent{})

	s.Register(membership.EventTypeMembershipCreated, &membership.MembershipCreatedEvent{})
	s.Register(membership.EventTypeMembershipStatusChanged, &membership.MembershipStatusChangedEvent{})
	s.Register(membership.EventTypeMembershipTerminated, &membership.MembershipTerminatedEvent{})
}

// Register binds an event type name to the concrete type of eventInstance
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes an event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	if !s.IsRegistered(event.EventType()) {
		return nil, fmt.Errorf("unknown event type: %s", event.EventType())
	}
	return json.Marshal(event)
}

// Deserialize decodes a payload into a new instance of the registered type
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	eventPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized object does not implement DomainEvent")
	}
	return event, nil
}

// IsRegistered checks if an event type is registered
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
