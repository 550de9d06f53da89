package event

import (
	"context"
	"fmt"

	"github.com/gymdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxRecorder serializes domain events and appends them to the outbox
// through one transaction handle. Create one per transaction with ForTx.
type OutboxRecorder struct {
	serializer *EventSerializer
	repo       *GormOutboxRepository
	clock      shared.Clock
}

// NewOutboxRecorder creates a recorder writing through db
func NewOutboxRecorder(db *gorm.DB, serializer *EventSerializer, clock shared.Clock) *OutboxRecorder {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &OutboxRecorder{
		serializer: serializer,
		repo:       NewGormOutboxRepository(db),
		clock:      clock,
	}
}

// ForTx returns a recorder bound to tx
func (r *OutboxRecorder) ForTx(tx *gorm.DB) *OutboxRecorder {
	return &OutboxRecorder{
		serializer: r.serializer,
		repo:       r.repo.WithTx(tx),
		clock:      r.clock,
	}
}

// Record implements shared.EventRecorder
func (r *OutboxRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	now := r.clock.Now()
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := r.serializer.Serialize(event)
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload, now))
	}
	return r.repo.Save(ctx, entries...)
}

var _ shared.EventRecorder = (*OutboxRecorder)(nil)
