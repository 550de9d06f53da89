// Package testutil wires the ledger stack over an in-memory sqlite database
// for handler, router and flow tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appevent "github.com/gymdesk/backend/internal/application/event"
	"github.com/gymdesk/backend/internal/application/enrollment"
	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/client"
	domainenrollment "github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/event"
	"github.com/gymdesk/backend/internal/infrastructure/persistence"
	"github.com/gymdesk/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Now is the fixed instant every fixture runs at: 2025-01-10 10:00 UTC
var Now = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

// Today is the date key of Now
var Today = valueobject.DateKey("2025-01-10")

// OpenLedgerDB opens a private in-memory sqlite database with every ledger
// table. One connection keeps all statements on the same database.
func OpenLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return Now },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// Ledger is the real service graph over one sqlite database
type Ledger struct {
	DB       *gorm.DB
	Clock    shared.FixedClock
	Calendar ledger.Calendar
	Scope    *persistence.GormLedgerTransactionScope

	Clients        *persistence.GormClientRepository
	Enrollments    *persistence.GormEnrollmentRepository
	MembershipRepo *persistence.GormMembershipRepository
	OutboxRepo     *event.GormOutboxRepository

	Sales          *ledger.SaleService
	Payments       *ledger.PaymentService
	Receivables    *ledger.ReceivableService
	Memberships    *ledger.MembershipService
	Reconciliation *ledger.ReconciliationService
	Outbox         *appevent.OutboxService
	Deactivation   *enrollment.DeactivationService
}

// NewLedger builds the services the way cmd/server does, minus telemetry.
// Ledger events are recorded to the outbox table in the same transaction.
func NewLedger(t *testing.T) *Ledger {
	t.Helper()
	db := OpenLedgerDB(t)
	logger := zap.NewNop()
	clock := shared.FixedClock{At: Now}
	calendar := ledger.NewCalendar(clock, time.UTC)

	recorder := event.NewOutboxRecorder(db, event.NewLedgerEventSerializer(), clock)
	scope := persistence.NewGormLedgerTransactionScope(db, recorder, persistence.RetryPolicy{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}, nil, logger)

	enrollments := persistence.NewGormEnrollmentRepository(db)
	deactivation := enrollment.NewDeactivationService(enrollments, clock, logger)
	outboxRepo := event.NewGormOutboxRepository(db)
	memberships := persistence.NewGormMembershipRepository(db)
	receivables := persistence.NewGormReceivableRepository(db)
	clients := persistence.NewGormClientRepository(db)

	return &Ledger{
		DB:             db,
		Clock:          clock,
		Calendar:       calendar,
		Scope:          scope,
		Clients:        clients,
		Enrollments:    enrollments,
		MembershipRepo: memberships,
		OutboxRepo:     outboxRepo,
		Sales:          ledger.NewSaleService(scope, persistence.NewGormSaleRepository(db), calendar, nil, logger),
		Payments:       ledger.NewPaymentService(scope, calendar, nil, logger),
		Receivables:    ledger.NewReceivableService(scope, receivables, calendar, 50, logger),
		Memberships:    ledger.NewMembershipService(scope, memberships, deactivation, calendar, nil, logger),
		Reconciliation: ledger.NewReconciliationService(scope, clients, receivables, calendar, nil, logger),
		Outbox:         appevent.NewOutboxService(outboxRepo, clock, logger),
		Deactivation:   deactivation,
	}
}

// SeedClient stores a client without ledger history
func (l *Ledger) SeedClient(t *testing.T, tenantID, branchID uuid.UUID, name string) *client.Client {
	t.Helper()
	c, err := client.NewClient(tenantID, branchID, name, Now)
	require.NoError(t, err)
	require.NoError(t, l.Clients.Create(context.Background(), c))
	return c
}

// SeedEnrollment stores an active weekly class enrollment starting at start
func (l *Ledger) SeedEnrollment(t *testing.T, tenantID, clientID uuid.UUID, weekday time.Weekday, start valueobject.DateKey) *domainenrollment.Enrollment {
	t.Helper()
	e, err := domainenrollment.NewEnrollment(tenantID, clientID, uuid.New(), weekday, start, Now)
	require.NoError(t, err)
	require.NoError(t, l.Enrollments.Create(context.Background(), e))
	return e
}

// ReloadClient reads the client back from the database
func (l *Ledger) ReloadClient(t *testing.T, tenantID, clientID uuid.UUID) *client.Client {
	t.Helper()
	c, err := l.Clients.FindByID(context.Background(), tenantID, clientID)
	require.NoError(t, err)
	return c
}
