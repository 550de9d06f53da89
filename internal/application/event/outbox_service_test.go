package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var serviceNow = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

// memoryOutboxRepo is an in-memory shared.OutboxRepository
type memoryOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
	findErr error
	// ignoreFilter makes FindDead return every dead entry
	ignoreFilter bool
}

func newMemoryOutboxRepo() *memoryOutboxRepo {
	return &memoryOutboxRepo{
		entries: make(map[uuid.UUID]*shared.OutboxEntry),
	}
}

func (r *memoryOutboxRepo) put(status shared.OutboxStatus) *shared.OutboxEntry {
	return r.putType(membership.EventTypeMembershipTerminated, status)
}

func (r *memoryOutboxRepo) putType(eventType string, status shared.OutboxStatus) *shared.OutboxEntry {
	entry := &shared.OutboxEntry{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		EventID:       uuid.New(),
		EventType:     eventType,
		AggregateID:   uuid.New(),
		AggregateType: "Membership",
		Status:        status,
		MaxRetries:    shared.DefaultOutboxMaxRetries,
		CreatedAt:     serviceNow.Add(-time.Hour),
		UpdatedAt:     serviceNow.Add(-time.Hour),
	}
	if status == shared.OutboxStatusDead {
		entry.RetryCount = entry.MaxRetries
		entry.LastError = "enrollment store unavailable"
	}
	r.entries[entry.ID] = entry
	return entry
}

func (r *memoryOutboxRepo) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *memoryOutboxRepo) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusPending && len(result) < limit {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memoryOutboxRepo) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) FindDead(ctx context.Context, filter shared.EventTypeFilter, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	if r.findErr != nil {
		return nil, 0, r.findErr
	}
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead && (r.ignoreFilter || filter.Matches(e.EventType)) {
			result = append(result, e)
		}
	}
	total := int64(len(result))

	start := (page - 1) * pageSize
	if start >= len(result) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *memoryOutboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryOutboxRepo) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *memoryOutboxRepo) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (r *memoryOutboxRepo) CountByEventType(ctx context.Context) ([]shared.OutboxCount, error) {
	type key struct {
		eventType string
		status    shared.OutboxStatus
	}
	counts := make(map[key]int64)
	for _, e := range r.entries {
		counts[key{e.EventType, e.Status}]++
	}
	var result []shared.OutboxCount
	for k, n := range counts {
		result = append(result, shared.OutboxCount{EventType: k.eventType, Status: k.status, Count: n})
	}
	return result, nil
}

func newTestOutboxService(repo shared.OutboxRepository) *OutboxService {
	return NewOutboxService(repo, shared.FixedClock{At: serviceNow}, zap.NewNop())
}

func TestOutboxService_GetDeadLetterEntries(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := newTestOutboxService(repo)

	for i := 0; i < 5; i++ {
		repo.put(shared.OutboxStatusDead)
	}
	repo.put(shared.OutboxStatusPending)

	result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, 3, result.TotalPages)
	for _, entry := range result.Entries {
		assert.Equal(t, "DEAD", entry.Status)
		assert.Equal(t, membership.EventTypeMembershipTerminated, entry.EventType)
	}
}

func TestOutboxService_GetDeadLetterEntries_PageSizeBounds(t *testing.T) {
	service := newTestOutboxService(newMemoryOutboxRepo())

	result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, DefaultDeadLetterPageSize, result.PageSize)

	result, err = service.GetDeadLetterEntries(context.Background(), OutboxFilter{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxDeadLetterPageSize, result.PageSize)
}

func TestOutboxService_GetDeadLetterEntries_RepositoryError(t *testing.T) {
	repo := newMemoryOutboxRepo()
	repo.findErr = errors.New("connection reset")

	_, err := newTestOutboxService(repo).GetDeadLetterEntries(context.Background(), OutboxFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.findErr)
}

func TestOutboxService_GetEntry(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := newTestOutboxService(repo)
	entry := repo.put(shared.OutboxStatusSent)

	got, err := service.GetEntry(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.EventID, got.EventID)

	_, err = service.GetEntry(context.Background(), uuid.New())
	assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := newTestOutboxService(repo)
	dead := repo.put(shared.OutboxStatusDead)

	result, err := service.RetryDeadEntry(context.Background(), dead.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", result.Status)
	assert.Equal(t, 0, result.RetryCount)
	assert.Empty(t, result.LastError)
	assert.True(t, result.UpdatedAt.Equal(serviceNow))
}

func TestOutboxService_RetryDeadEntry_NotFound(t *testing.T) {
	service := newTestOutboxService(newMemoryOutboxRepo())

	_, err := service.RetryDeadEntry(context.Background(), uuid.New())
	assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
}

func TestOutboxService_RetryDeadEntry_NotDead(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := newTestOutboxService(repo)
	entry := repo.put(shared.OutboxStatusPending)

	_, err := service.RetryDeadEntry(context.Background(), entry.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
}

func TestOutboxService_GetStats(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := newTestOutboxService(repo)

	for _, e := range []struct {
		eventType string
		status    shared.OutboxStatus
	}{
		{membership.EventTypeMembershipTerminated, shared.OutboxStatusPending},
		{membership.EventTypeMembershipTerminated, shared.OutboxStatusFailed},
		{membership.EventTypeMembershipTerminated, shared.OutboxStatusDead},
		{membership.EventTypeMembershipTerminated, shared.OutboxStatusSent},
		{membership.EventTypeMembershipCreated, shared.OutboxStatusPending},
		{finance.EventTypeReceivableOverdue, shared.OutboxStatusProcessing},
		{finance.EventTypeReceivableSettled, shared.OutboxStatusSent},
		{sales.EventTypeSaleCreated, shared.OutboxStatusSent},
	} {
		repo.putType(e.eventType, e.status)
	}

	stats, err := service.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutboxStatusCounts{Pending: 2, Processing: 1, Sent: 3, Failed: 1, Dead: 1, Total: 8}, stats.OutboxStatusCounts)
	assert.Equal(t, map[string]OutboxStatusCounts{
		"membership": {Pending: 2, Failed: 1, Dead: 1, Sent: 1, Total: 5},
		"receivable": {Processing: 1, Sent: 1, Total: 2},
		"sale":       {Sent: 1, Total: 1},
	}, stats.Families)
	assert.Equal(t, CascadeBacklogDTO{
		EventType:   membership.EventTypeMembershipTerminated,
		Undelivered: 2,
		Dead:        1,
	}, stats.Cascade, "membership.created is not part of the cascade")
}

func TestOutboxService_GetStats_Empty(t *testing.T) {
	stats, err := newTestOutboxService(newMemoryOutboxRepo()).GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.Families)
	assert.Equal(t, CascadeEventType, stats.Cascade.EventType)
}

func TestOutboxService_DeadLettersByEventType(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := newTestOutboxService(repo)

	repo.putType(membership.EventTypeMembershipTerminated, shared.OutboxStatusDead)
	repo.putType(membership.EventTypeMembershipTerminated, shared.OutboxStatusDead)
	repo.putType(finance.EventTypeReceivableOverdue, shared.OutboxStatusDead)
	repo.putType(finance.EventTypeReceivablePaymentApplied, shared.OutboxStatusDead)
	repo.putType(sales.EventTypeSalePaid, shared.OutboxStatusDead)

	tests := []struct {
		name      string
		eventType string
		want      int64
		wantCode  string
	}{
		{name: "everything", want: 5},
		{name: "cascade only", eventType: membership.EventTypeMembershipTerminated, want: 2},
		{name: "receivable family", eventType: "receivable.*", want: 2},
		{name: "single receivable event", eventType: finance.EventTypeReceivableOverdue, want: 1},
		{name: "known family without dead letters", eventType: membership.EventTypeMembershipCreated, want: 0},
		{name: "unknown family", eventType: "enrollment.*", wantCode: shared.CodeInvalidArgument},
		{name: "unknown event type", eventType: "payroll.closed", wantCode: shared.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{EventType: tt.eventType})
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, shared.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Total)
			for _, entry := range result.Entries {
				assert.Equal(t, shared.EventFamily(entry.EventType), entry.EventFamily)
			}
		})
	}
}

func TestOutboxService_RetryAllDeadEntries_ByEventType(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := newTestOutboxService(repo)

	terminated := repo.putType(membership.EventTypeMembershipTerminated, shared.OutboxStatusDead)
	overdue := repo.putType(finance.EventTypeReceivableOverdue, shared.OutboxStatusDead)

	count, err := service.RetryAllDeadEntries(context.Background(), CascadeEventType)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, shared.OutboxStatusPending, terminated.Status)
	assert.Equal(t, shared.OutboxStatusDead, overdue.Status)

	_, err = service.RetryAllDeadEntries(context.Background(), "payroll.*")
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))
	assert.Equal(t, shared.OutboxStatusDead, overdue.Status)
}

func TestOutboxService_RetryAllDeadEntries_SkipsEntriesOutsideFilter(t *testing.T) {
	repo := newMemoryOutboxRepo()
	repo.ignoreFilter = true
	service := newTestOutboxService(repo)

	terminated := repo.putType(membership.EventTypeMembershipTerminated, shared.OutboxStatusDead)
	overdue := repo.putType(finance.EventTypeReceivableOverdue, shared.OutboxStatusDead)
	created := repo.putType(sales.EventTypeSaleCreated, shared.OutboxStatusDead)

	count, err := service.RetryAllDeadEntries(context.Background(), "membership.*")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, shared.OutboxStatusPending, terminated.Status)
	assert.Equal(t, shared.OutboxStatusDead, overdue.Status)
	assert.Equal(t, shared.OutboxStatusDead, created.Status)
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	repo := newMemoryOutboxRepo()
	service := newTestOutboxService(repo)

	// more than one page of dead letters
	for i := 0; i < MaxDeadLetterPageSize+30; i++ {
		repo.put(shared.OutboxStatusDead)
	}
	pending := repo.put(shared.OutboxStatusPending)

	count, err := service.RetryAllDeadEntries(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(MaxDeadLetterPageSize+30), count)

	for _, entry := range repo.entries {
		assert.Equal(t, shared.OutboxStatusPending, entry.Status)
		if entry.ID != pending.ID {
			assert.Zero(t, entry.RetryCount)
		}
	}
}
