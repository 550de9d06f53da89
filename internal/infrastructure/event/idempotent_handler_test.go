package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) Unmark(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *mockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func TestIdempotentHandler_FirstDeliveryAndDuplicate(t *testing.T) {
	store := new(mockIdempotencyStore)
	inner := newTestHandler("membership.terminated")
	h := NewIdempotentHandler(inner, store, zap.NewNop())
	evt := newTestEvent("membership.terminated", uuid.New())
	id := evt.EventID().String()

	store.On("MarkProcessed", mock.Anything, id, shared.DefaultIdempotencyConfig().TTL).Return(true, nil).Once()
	store.On("MarkProcessed", mock.Anything, id, mock.Anything).Return(false, nil).Once()

	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Len(t, inner.getHandled(), 1)
	stats := h.Metrics().Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(1), stats.EventsDuplicate)
	store.AssertExpectations(t)
}

func TestIdempotentHandler_FailureReleasesClaim(t *testing.T) {
	store := new(mockIdempotencyStore)
	inner := newTestHandler("membership.terminated")
	inner.setError(errors.New("enrollments unavailable"))
	h := NewIdempotentHandler(inner, store, zap.NewNop())
	evt := newTestEvent("membership.terminated", uuid.New())
	id := evt.EventID().String()

	store.On("MarkProcessed", mock.Anything, id, mock.Anything).Return(true, nil)
	store.On("Unmark", mock.Anything, id).Return(nil).Once()

	err := h.Handle(context.Background(), evt)
	assert.EqualError(t, err, "enrollments unavailable")
	assert.Equal(t, int64(1), h.Metrics().Stats().EventsFailed)
	store.AssertExpectations(t)
}

func TestIdempotentHandler_StoreOutageStillProcesses(t *testing.T) {
	store := new(mockIdempotencyStore)
	inner := newTestHandler("membership.terminated")
	inner.setError(errors.New("boom"))
	h := NewIdempotentHandler(inner, store, zap.NewNop())
	evt := newTestEvent("membership.terminated", uuid.New())

	store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))

	assert.Error(t, h.Handle(context.Background(), evt))
	assert.Len(t, inner.getHandled(), 1)
	store.AssertNotCalled(t, "Unmark", mock.Anything, mock.Anything)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	store := new(mockIdempotencyStore)
	inner := newTestHandler("membership.terminated")
	h := NewIdempotentHandler(inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))

	evt := newTestEvent("membership.terminated", uuid.New())
	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Len(t, inner.getHandled(), 2)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{"membership.terminated"}, h.EventTypes())
}

func TestIdempotentHandler_SharedMetrics(t *testing.T) {
	store := new(mockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	metrics := &IdempotencyMetrics{}

	a := NewIdempotentHandler(newTestHandler("a"), store, zap.NewNop(), WithIdempotencyMetrics(metrics))
	b := NewIdempotentHandler(newTestHandler("b"), store, zap.NewNop(), WithIdempotencyMetrics(metrics))
	require.NoError(t, a.Handle(context.Background(), newTestEvent("a", uuid.New())))
	require.NoError(t, b.Handle(context.Background(), newTestEvent("b", uuid.New())))

	assert.Equal(t, int64(2), metrics.Stats().EventsProcessed)
}
