package ledger

import (
	"context"

	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
)

// TransactionScope runs ledger writes atomically. Implementations retry fn
// from scratch when a concurrent writer wins a version check, so fn must
// read everything it changes through the repositories it is given.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the ledger repositories bound to one transaction
type TransactionalRepositories interface {
	Sales() sales.SaleRepository
	Receivables() finance.ReceivableRepository
	Memberships() membership.Repository
	Clients() client.Repository
	// Events appends domain events to the outbox in the same transaction
	Events() shared.EventRecorder
}

// NoOpTransactionScope hands out plain repositories without a transaction.
// Useful for tests and tools where atomicity is not required.
type NoOpTransactionScope struct {
	sales       sales.SaleRepository
	receivables finance.ReceivableRepository
	memberships membership.Repository
	clients     client.Repository
	events      shared.EventRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	saleRepo sales.SaleRepository,
	receivableRepo finance.ReceivableRepository,
	membershipRepo membership.Repository,
	clientRepo client.Repository,
	events shared.EventRecorder,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		sales:       saleRepo,
		receivables: receivableRepo,
		memberships: membershipRepo,
		clients:     clientRepo,
		events:      events,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Sales() sales.SaleRepository { return s.sales }
func (s *NoOpTransactionScope) Receivables() finance.ReceivableRepository { return s.receivables }
func (s *NoOpTransactionScope) Memberships() membership.Repository { return s.memberships }
func (s *NoOpTransactionScope) Clients() client.Repository { return s.clients }
func (s *NoOpTransactionScope) Events() shared.EventRecorder { return s.events }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

// recordEvents moves pending events of each aggregate into the outbox
func recordEvents(ctx context.Context, recorder shared.EventRecorder, aggregates ...shared.AggregateRoot) error {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.GetDomainEvents()...)
	}
	if len(events) == 0 || recorder == nil {
		return nil
	}
	if err := recorder.Record(ctx, events...); err != nil {
		return err
	}
	for _, agg := range aggregates {
		agg.ClearDomainEvents()
	}
	return nil
}
