package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     2 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// BatchResult summarizes one processing pass
type BatchResult struct {
	Sent   int
	Failed int
	Dead   int
}

// OutboxProcessor polls the outbox and publishes entries to the event bus.
// Delivery is at least once: an entry is marked sent only after every
// handler succeeded, otherwise it is rescheduled with backoff until it
// runs out of retries and becomes dead.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	publisher  shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	clock      shared.Clock
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	publisher shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	clock shared.Clock,
	logger *zap.Logger,
) *OutboxProcessor {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultOutboxProcessorConfig().BatchSize
	}
	return &OutboxProcessor{
		repo:       repo,
		publisher:  publisher,
		serializer: serializer,
		config:     config,
		clock:      clock,
		logger:     logger,
	}
}

// Start launches the polling and cleanup loops
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop cancels the loops and waits for the current batch to finish
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch delivers one batch of pending entries followed by one batch of
// entries due for retry.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		return result, fmt.Errorf("failed to find pending entries: %w", err)
	}
	if err := p.processEntries(ctx, pending, &result); err != nil {
		return result, err
	}

	retryable, err := p.repo.FindRetryable(ctx, p.clock.Now(), p.config.BatchSize)
	if err != nil {
		return result, fmt.Errorf("failed to find retryable entries: %w", err)
	}
	if err := p.processEntries(ctx, retryable, &result); err != nil {
		return result, err
	}
	return result, nil
}

func (p *OutboxProcessor) processEntries(ctx context.Context, entries []*shared.OutboxEntry, result *BatchResult) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to claim outbox entries: %w", err)
	}

	for _, entry := range claimed {
		switch p.deliver(ctx, entry) {
		case shared.OutboxStatusSent:
			result.Sent++
		case shared.OutboxStatusDead:
			result.Dead++
		default:
			result.Failed++
		}
	}
	return nil
}

// deliver publishes one claimed entry and records the outcome
func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) shared.OutboxStatus {
	fields := []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("tenant_id", entry.TenantID.String()),
	}

	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.publisher.Publish(ctx, event)
	}

	now := p.clock.Now()
	if err != nil {
		entry.MarkFailed(err.Error(), now)
		if entry.IsDead() {
			p.logger.Warn("outbox entry moved to dead letter",
				append(fields,
					zap.String("aggregate_type", entry.AggregateType),
					zap.String("aggregate_id", entry.AggregateID.String()),
					zap.Int("retry_count", entry.RetryCount),
					zap.String("last_error", entry.LastError),
				)...,
			)
		} else {
			p.logger.Error("failed to deliver outbox entry",
				append(fields, zap.Int("retry_count", entry.RetryCount), zap.Error(err))...,
			)
		}
	} else {
		entry.MarkSent(now)
		p.logger.Debug("outbox entry delivered", fields...)
	}

	if updateErr := p.repo.Update(ctx, entry); updateErr != nil {
		p.logger.Error("failed to update outbox entry", append(fields, zap.Error(updateErr))...)
	}
	return entry.Status
}

// RetryDead moves a dead entry back to pending so the next pass redelivers it
func (p *OutboxProcessor) RetryDead(ctx context.Context, id uuid.UUID) error {
	entry, err := p.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := entry.ResetForRetry(p.clock.Now()); err != nil {
		return err
	}
	return p.repo.Update(ctx, entry)
}

func (p *OutboxProcessor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Cleanup(ctx)
		}
	}
}

// Cleanup removes delivered entries older than the retention period
func (p *OutboxProcessor) Cleanup(ctx context.Context) int64 {
	cutoff := p.clock.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up outbox entries", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		p.logger.Info("cleaned up outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted
}
