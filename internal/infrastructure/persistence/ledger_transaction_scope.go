package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/infrastructure/event"
	"github.com/gymdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RetryPolicy bounds how often a transaction that lost a version check is re-run
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  5,
		BaseBackoff: 20 * time.Millisecond,
		MaxBackoff:  time.Second,
	}
}

// GormLedgerTransactionScope implements ledger.TransactionScope using GORM
// transactions. A transaction that fails with a concurrency conflict is rolled
// back and run again from the start with jittered exponential backoff; any
// other error aborts immediately.
type GormLedgerTransactionScope struct {
	db       *gorm.DB
	recorder *event.OutboxRecorder
	policy   RetryPolicy
	metrics  *telemetry.LedgerMetrics
	logger   *zap.Logger
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(
	db *gorm.DB,
	recorder *event.OutboxRecorder,
	policy RetryPolicy,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *GormLedgerTransactionScope {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormLedgerTransactionScope{
		db:       db,
		recorder: recorder,
		policy:   policy,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute runs fn in a transaction, retrying on version conflicts. When the
// retries are used up the last conflict is reported as a transient failure.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos ledger.TransactionalRepositories) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(s.repositories(tx))
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		s.metrics.TransactionRetried(ctx)
		s.logger.Debug("ledger transaction conflicted, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(op, s.backOff(ctx), notify)
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		s.logger.Warn("ledger transaction gave up after repeated conflicts", zap.Int("attempts", attempt))
		return shared.WrapDomainError(shared.CodeTransientFailure,
			"The ledger is busy with concurrent updates, retry later", err)
	}
	return err
}

func (s *GormLedgerTransactionScope) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.policy.BaseBackoff
	exp.MaxInterval = s.policy.MaxBackoff
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.policy.MaxRetries)), ctx)
}

func (s *GormLedgerTransactionScope) repositories(tx *gorm.DB) *gormLedgerRepositories {
	repos := &gormLedgerRepositories{tx: tx}
	if s.recorder != nil {
		repos.events = s.recorder.ForTx(tx)
	}
	return repos
}

// gormLedgerRepositories provides the ledger repositories bound to one transaction
type gormLedgerRepositories struct {
	tx     *gorm.DB
	events *event.OutboxRecorder
}

func (r *gormLedgerRepositories) Sales() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormLedgerRepositories) Receivables() finance.ReceivableRepository {
	return NewGormReceivableRepository(r.tx)
}

func (r *gormLedgerRepositories) Memberships() membership.Repository {
	return NewGormMembershipRepository(r.tx)
}

func (r *gormLedgerRepositories) Clients() client.Repository {
	return NewGormClientRepository(r.tx)
}

// Events returns nil when the scope was built without an outbox recorder
func (r *gormLedgerRepositories) Events() shared.EventRecorder {
	if r.events == nil {
		return nil
	}
	return r.events
}

// Ensure GormLedgerTransactionScope implements TransactionScope
var _ ledger.TransactionScope = (*GormLedgerTransactionScope)(nil)

// Ensure gormLedgerRepositories implements TransactionalRepositories
var _ ledger.TransactionalRepositories = (*gormLedgerRepositories)(nil)
