package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Page size bounds for dead letter listings
const (
	DefaultDeadLetterPageSize = 20
	MaxDeadLetterPageSize     = 100
)

// CascadeEventType is the event whose delivery drives the enrollment
// cascade. Its backlog is reported on its own.
const CascadeEventType = membership.EventTypeMembershipTerminated

// ledgerEventFamilies are the families an event type filter may name
var ledgerEventFamilies = map[string]bool{
	shared.EventFamily(sales.EventTypeSaleCreated):            true,
	shared.EventFamily(finance.EventTypeReceivableCreated):    true,
	shared.EventFamily(membership.EventTypeMembershipCreated): true,
}

// OutboxService exposes the delivery state of ledger events to operators:
// dead letters per event type, manual redelivery and the backlog of each
// event family.
type OutboxService struct {
	repo   shared.OutboxRepository
	clock  shared.Clock
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(
	repo shared.OutboxRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *OutboxService {
	return &OutboxService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// OutboxEntryDTO represents an outbox entry data transfer object
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	EventFamily   string     `json:"event_family"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxFilter selects dead letters. EventType is an exact ledger event type
// such as "membership.terminated" or a family wildcard such as "receivable.*".
type OutboxFilter struct {
	EventType string `form:"event_type,omitempty" binding:"omitempty,max=255"`
	Page      int    `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

// eventTypeFilter rejects filters outside the ledger's event families
func eventTypeFilter(eventType string) (shared.EventTypeFilter, error) {
	filter := shared.EventTypeFilter(eventType)
	if filter == "" {
		return filter, nil
	}
	family, ok := filter.Family()
	if !ok {
		family = shared.EventFamily(eventType)
	}
	if !ledgerEventFamilies[family] {
		return "", shared.NewInvalidArgument(fmt.Sprintf("unknown ledger event type %q", eventType))
	}
	return filter, nil
}

func (f OutboxFilter) normalize() (page, pageSize int) {
	page, pageSize = f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultDeadLetterPageSize
	}
	if pageSize > MaxDeadLetterPageSize {
		pageSize = MaxDeadLetterPageSize
	}
	return page, pageSize
}

// OutboxListResult represents paginated outbox entry list result
type OutboxListResult struct {
	Entries    []OutboxEntryDTO `json:"entries"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// OutboxStatusCounts is the number of entries in each delivery status
type OutboxStatusCounts struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

func (c *OutboxStatusCounts) add(status shared.OutboxStatus, n int64) {
	switch status {
	case shared.OutboxStatusPending:
		c.Pending += n
	case shared.OutboxStatusProcessing:
		c.Processing += n
	case shared.OutboxStatusSent:
		c.Sent += n
	case shared.OutboxStatusFailed:
		c.Failed += n
	case shared.OutboxStatusDead:
		c.Dead += n
	}
	c.Total += n
}

// Undelivered counts entries that still wait for a successful delivery,
// dead letters excluded
func (c OutboxStatusCounts) Undelivered() int64 {
	return c.Pending + c.Processing + c.Failed
}

// CascadeBacklogDTO is the delivery backlog of membership terminations. Each
// undelivered entry is a terminated membership whose class enrollments have
// not been removed yet.
type CascadeBacklogDTO struct {
	EventType   string `json:"event_type"`
	Undelivered int64  `json:"undelivered"`
	Dead        int64  `json:"dead"`
}

// OutboxStatsDTO is the outbox backlog overall, per event family and for
// the termination cascade
type OutboxStatsDTO struct {
	OutboxStatusCounts
	Families map[string]OutboxStatusCounts `json:"families"`
	Cascade  CascadeBacklogDTO             `json:"cascade"`
}

// GetDeadLetterEntries pages through the dead letters of the filtered event types
func (s *OutboxService) GetDeadLetterEntries(ctx context.Context, filter OutboxFilter) (*OutboxListResult, error) {
	eventType, err := eventTypeFilter(filter.EventType)
	if err != nil {
		return nil, err
	}
	page, pageSize := filter.normalize()

	entries, total, err := s.repo.FindDead(ctx, eventType, page, pageSize)
	if err != nil {
		s.logger.Error("failed to find dead letter entries", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve dead letter entries: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	dtos := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toOutboxEntryDTO(entry)
	}

	return &OutboxListResult{
		Entries:    dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetEntry retrieves a single outbox entry by ID
func (s *OutboxService) GetEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryDeadEntry moves a dead entry back to pending so the processor
// delivers it again. Entries in any other status are rejected.
func (s *OutboxService) RetryDeadEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := entry.ResetForRetry(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("failed to update outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to reset outbox entry: %w", err)
	}

	s.logger.Info("dead letter entry reset for retry",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
	)

	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadEntries resets every dead entry of the given event types, all of
// them when eventType is empty. Entries outside the filter are never reset.
// Reset entries leave the dead set, so the
// first page is re-read until it comes back empty or nothing on it could be
// reset.
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context, eventType string) (int64, error) {
	filter, err := eventTypeFilter(eventType)
	if err != nil {
		return 0, err
	}

	var count int64
	for {
		entries, _, err := s.repo.FindDead(ctx, filter, 1, MaxDeadLetterPageSize)
		if err != nil {
			s.logger.Error("failed to find dead letter entries", zap.Error(err))
			return count, fmt.Errorf("failed to retrieve dead letter entries: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		reset := 0
		for _, entry := range entries {
			if !filter.Matches(entry.EventType) {
				continue
			}
			if err := entry.ResetForRetry(s.clock.Now()); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("failed to update outbox entry", zap.Error(err), zap.String("id", entry.ID.String()))
				continue
			}
			reset++
		}
		count += int64(reset)

		if reset == 0 || len(entries) < MaxDeadLetterPageSize {
			break
		}
	}

	s.logger.Info("retried dead letter entries",
		zap.String("event_type", eventType),
		zap.Int64("count", count),
	)
	return count, nil
}

// GetStats returns the outbox backlog overall, per event family and for the
// termination cascade
func (s *OutboxService) GetStats(ctx context.Context) (*OutboxStatsDTO, error) {
	counts, err := s.repo.CountByEventType(ctx)
	if err != nil {
		s.logger.Error("failed to get outbox stats", zap.Error(err))
		return nil, fmt.Errorf("failed to get outbox stats: %w", err)
	}

	stats := &OutboxStatsDTO{
		Families: make(map[string]OutboxStatusCounts),
		Cascade:  CascadeBacklogDTO{EventType: CascadeEventType},
	}
	var cascade OutboxStatusCounts
	for _, c := range counts {
		stats.add(c.Status, c.Count)

		family := stats.Families[shared.EventFamily(c.EventType)]
		family.add(c.Status, c.Count)
		stats.Families[shared.EventFamily(c.EventType)] = family

		if c.EventType == CascadeEventType {
			cascade.add(c.Status, c.Count)
		}
	}
	stats.Cascade.Undelivered = cascade.Undelivered()
	stats.Cascade.Dead = cascade.Dead

	if stats.Cascade.Dead > 0 {
		s.logger.Warn("membership terminations stuck in dead letters",
			zap.Int64("dead", stats.Cascade.Dead),
		)
	}
	return stats, nil
}

func (s *OutboxService) find(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && entry == nil) {
		return nil, shared.NewNotFound("outbox entry")
	}
	if err != nil {
		s.logger.Error("failed to find outbox entry", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to find outbox entry: %w", err)
	}
	return entry, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		TenantID:      entry.TenantID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		EventFamily:   shared.EventFamily(entry.EventType),
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
