package shared

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

// Delivery retry defaults
const (
	DefaultOutboxMaxRetries  = 8
	DefaultOutboxBaseBackoff = 2 * time.Second
	MaxOutboxBackoff         = 10 * time.Minute
)

// OutboxEntry is a domain event persisted in the same transaction as the
// aggregate change that produced it, waiting for at-least-once delivery.
type OutboxEntry struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEntry wraps a serialized domain event
func NewOutboxEntry(event DomainEvent, payload []byte, now time.Time) *OutboxEntry {
	return &OutboxEntry{
		ID:            uuid.New(),
		TenantID:      event.TenantID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultOutboxMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CanRetry reports whether a failed entry still has attempts left
func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

// MarkProcessing claims the entry for delivery
func (e *OutboxEntry) MarkProcessing(now time.Time) error {
	if e.Status != OutboxStatusPending && e.Status != OutboxStatusFailed {
		return NewDomainError(CodeInvalidState, "only pending or failed outbox entries can be processed")
	}
	e.Status = OutboxStatusProcessing
	e.UpdatedAt = now
	return nil
}

// MarkSent records a successful delivery
func (e *OutboxEntry) MarkSent(now time.Time) {
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a failed delivery. The entry is retried after an
// exponential delay until MaxRetries is reached, then it becomes dead.
func (e *OutboxEntry) MarkFailed(errMsg string, now time.Time) {
	e.RetryCount++
	e.LastError = errMsg
	e.UpdatedAt = now

	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := now.Add(OutboxRetryDelay(e.RetryCount))
	e.NextRetryAt = &next
}

// ResetForRetry moves a dead entry back to pending
func (e *OutboxEntry) ResetForRetry(now time.Time) error {
	if e.Status != OutboxStatusDead {
		return NewDomainError(CodeInvalidState, "only dead outbox entries can be reset")
	}
	e.Status = OutboxStatusPending
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	e.UpdatedAt = now
	return nil
}

// IsDead reports whether the entry exhausted its retries
func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// OutboxRetryDelay is the wait before attempt number retryCount+1
func OutboxRetryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	d := DefaultOutboxBaseBackoff
	for i := 1; i < retryCount; i++ {
		d *= 2
		if d >= MaxOutboxBackoff {
			return MaxOutboxBackoff
		}
	}
	return d
}

// EventFamily is the aggregate part of an event type: "receivable" for
// "receivable.overdue"
func EventFamily(eventType string) string {
	family, _, _ := strings.Cut(eventType, ".")
	return family
}

// EventTypeFilter selects outbox entries by event type. "receivable.*"
// selects a whole family, anything else must match exactly and "" selects
// every entry.
type EventTypeFilter string

// Family returns the family of a "<family>.*" filter
func (f EventTypeFilter) Family() (string, bool) {
	family, ok := strings.CutSuffix(string(f), ".*")
	return family, ok && family != ""
}

// Matches reports whether the filter selects eventType
func (f EventTypeFilter) Matches(eventType string) bool {
	if f == "" {
		return true
	}
	if family, ok := f.Family(); ok {
		return EventFamily(eventType) == family
	}
	return string(f) == eventType
}

// OutboxCount is the number of entries of one event type in one status
type OutboxCount struct {
	EventType string
	Status    OutboxStatus
	Count     int64
}

// OutboxRepository persists outbox entries
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	// FindDead pages through dead entries the filter selects, newest first
	FindDead(ctx context.Context, filter EventTypeFilter, page, pageSize int) ([]*OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// MarkProcessing claims the given entries and returns the ones actually claimed
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
	CountByEventType(ctx context.Context) ([]OutboxCount, error)
}
