package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	BaseDomainEvent
}

func newTestEntry(now time.Time) *OutboxEntry {
	evt := &testEvent{BaseDomainEvent: NewBaseDomainEvent("test.happened", "Test", uuid.New(), uuid.New(), now)}
	return NewOutboxEntry(evt, []byte(`{}`), now)
}

func TestNewOutboxEntry(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	entry := newTestEntry(now)

	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, "test.happened", entry.EventType)
	assert.Equal(t, "Test", entry.AggregateType)
	assert.Equal(t, DefaultOutboxMaxRetries, entry.MaxRetries)
	assert.Equal(t, now, entry.CreatedAt)
}

func TestOutboxEntry_MarkProcessing(t *testing.T) {
	now := time.Now()

	t.Run("pending entry can be claimed", func(t *testing.T) {
		entry := newTestEntry(now)
		require.NoError(t, entry.MarkProcessing(now))
		assert.Equal(t, OutboxStatusProcessing, entry.Status)
	})

	t.Run("sent entry cannot be claimed", func(t *testing.T) {
		entry := newTestEntry(now)
		entry.MarkSent(now)
		err := entry.MarkProcessing(now)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidState, ErrorCode(err))
	})
}

func TestOutboxEntry_MarkFailed(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("schedules retry with backoff", func(t *testing.T) {
		entry := newTestEntry(now)
		entry.MarkFailed("boom", now)

		assert.Equal(t, OutboxStatusFailed, entry.Status)
		assert.Equal(t, 1, entry.RetryCount)
		assert.Equal(t, "boom", entry.LastError)
		require.NotNil(t, entry.NextRetryAt)
		assert.Equal(t, now.Add(DefaultOutboxBaseBackoff), *entry.NextRetryAt)
		assert.True(t, entry.CanRetry())
	})

	t.Run("becomes dead after max retries", func(t *testing.T) {
		entry := newTestEntry(now)
		entry.MaxRetries = 2
		entry.MarkFailed("one", now)
		entry.MarkFailed("two", now)

		assert.True(t, entry.IsDead())
		assert.Nil(t, entry.NextRetryAt)
		assert.False(t, entry.CanRetry())
	})
}

func TestOutboxEntry_ResetForRetry(t *testing.T) {
	now := time.Now()

	t.Run("dead entry returns to pending", func(t *testing.T) {
		entry := newTestEntry(now)
		entry.MaxRetries = 1
		entry.MarkFailed("boom", now)
		require.True(t, entry.IsDead())

		require.NoError(t, entry.ResetForRetry(now))
		assert.Equal(t, OutboxStatusPending, entry.Status)
		assert.Zero(t, entry.RetryCount)
		assert.Empty(t, entry.LastError)
	})

	t.Run("non-dead entries are rejected", func(t *testing.T) {
		for _, status := range []OutboxStatus{OutboxStatusPending, OutboxStatusProcessing, OutboxStatusSent, OutboxStatusFailed} {
			entry := &OutboxEntry{ID: uuid.New(), Status: status}
			assert.Error(t, entry.ResetForRetry(now), status)
		}
	})
}

func TestOutboxRetryDelay(t *testing.T) {
	assert.Equal(t, DefaultOutboxBaseBackoff, OutboxRetryDelay(0))
	assert.Equal(t, DefaultOutboxBaseBackoff, OutboxRetryDelay(1))
	assert.Equal(t, 2*DefaultOutboxBaseBackoff, OutboxRetryDelay(2))
	assert.Equal(t, 8*DefaultOutboxBaseBackoff, OutboxRetryDelay(4))
	assert.Equal(t, MaxOutboxBackoff, OutboxRetryDelay(30))
}

func TestEventTypeFilter_Matches(t *testing.T) {
	tests := []struct {
		filter    EventTypeFilter
		eventType string
		want      bool
	}{
		{"", "sale.created", true},
		{"membership.terminated", "membership.terminated", true},
		{"membership.terminated", "membership.status_changed", false},
		{"receivable.*", "receivable.overdue", true},
		{"receivable.*", "receivable.payment_applied", true},
		{"receivable.*", "sale.paid", false},
		{"receivable", "receivable.overdue", false},
		{".*", ".*", true},
		{".*", "sale.created", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter)+"/"+tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.eventType))
		})
	}
}

func TestEventFamily(t *testing.T) {
	assert.Equal(t, "receivable", EventFamily("receivable.payment_applied"))
	assert.Equal(t, "membership", EventFamily("membership.terminated"))
	assert.Equal(t, "legacy", EventFamily("legacy"))

	family, ok := EventTypeFilter("sale.*").Family()
	assert.True(t, ok)
	assert.Equal(t, "sale", family)
	_, ok = EventTypeFilter("sale.paid").Family()
	assert.False(t, ok)
}
