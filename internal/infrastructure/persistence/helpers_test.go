package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testNow is 2025-01-10 10:00 UTC
var testNow = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

// setupLedgerDB opens a private in-memory sqlite database with every ledger
// table. One connection keeps all statements on the same in-memory database.
func setupLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return testNow },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// newMockGormDB returns a GORM handle over sqlmock speaking the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

// seedClient stores a client with no ledger history
func seedClient(t *testing.T, db *gorm.DB, tenantID, branchID uuid.UUID) *client.Client {
	t.Helper()
	c, err := client.NewClient(tenantID, branchID, "Bruna", testNow)
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Create(context.Background(), c))
	return c
}
