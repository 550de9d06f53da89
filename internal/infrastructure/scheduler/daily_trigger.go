// Package scheduler runs the ledger's daily maintenance jobs, such as
// flipping past-due receivables to overdue.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// Job is one unit of daily work. day is the academy date the run is for.
type Job interface {
	Name() string
	Run(ctx context.Context, day valueobject.DateKey) error
}

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	// At is the local time of day ("HH:MM") after which the jobs run
	At string
	// Location is the academy timezone; nil means UTC
	Location *time.Location
	// CheckInterval is how often the trigger looks at the clock
	CheckInterval time.Duration
}

// DefaultDailyTriggerConfig returns default daily trigger configuration
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		At:            "01:00",
		Location:      time.UTC,
		CheckInterval: time.Minute,
	}
}

// DailyTrigger runs its jobs once per academy day, the first time it sees
// the clock at or past the configured time. A process started after that
// time runs the jobs on its first check.
type DailyTrigger struct {
	config DailyTriggerConfig
	offset time.Duration
	clock  shared.Clock
	jobs   []Job
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   valueobject.DateKey
}

// NewDailyTrigger creates a new daily trigger
func NewDailyTrigger(config DailyTriggerConfig, clock shared.Clock, logger *zap.Logger, jobs ...Job) (*DailyTrigger, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}
	at, err := time.Parse("15:04", config.At)
	if err != nil {
		return nil, fmt.Errorf("%w: at %q: %v", ErrInvalidConfig, config.At, err)
	}
	if config.CheckInterval <= 0 {
		return nil, fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyTrigger{
		config: config,
		offset: time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute,
		clock:  clock,
		jobs:   jobs,
		logger: logger,
	}, nil
}

// Start starts the trigger loop
func (d *DailyTrigger) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.runLoop(ctx)

	d.logger.Info("Daily trigger started",
		zap.String("at", d.config.At),
		zap.String("timezone", d.config.Location.String()),
		zap.Int("jobs", len(d.jobs)),
	)
	return nil
}

// Stop stops the trigger and waits for a running pass to finish
func (d *DailyTrigger) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *DailyTrigger) runLoop(ctx context.Context) {
	defer d.wg.Done()

	d.checkAndRun(ctx)

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.checkAndRun(ctx)
		}
	}
}

// checkAndRun runs the jobs when today's run is due and has not happened.
// It reports whether a run took place.
func (d *DailyTrigger) checkAndRun(ctx context.Context) bool {
	now := d.clock.Now().In(d.config.Location)
	today := valueobject.DateKeyOf(now, d.config.Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.config.Location)
	if now.Before(midnight.Add(d.offset)) {
		return false
	}

	d.mu.Lock()
	if d.lastRun == today {
		d.mu.Unlock()
		return false
	}
	d.lastRun = today
	d.mu.Unlock()

	_ = d.RunNow(ctx, today)
	return true
}

// RunNow runs every job for day regardless of the schedule. A failing job
// does not stop the ones after it; the failures are joined.
func (d *DailyTrigger) RunNow(ctx context.Context, day valueobject.DateKey) error {
	var errs []error
	for _, job := range d.jobs {
		start := time.Now()
		if err := job.Run(ctx, day); err != nil {
			d.logger.Error("Daily job failed",
				zap.String("job", job.Name()),
				zap.String("day", day.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", job.Name(), err))
			continue
		}
		d.logger.Info("Daily job completed",
			zap.String("job", job.Name()),
			zap.String("day", day.String()),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return errors.Join(errs...)
}
