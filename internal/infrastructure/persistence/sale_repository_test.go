package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSale(t *testing.T, tenantID, clientID uuid.UUID) *sales.Sale {
	t.Helper()
	s, err := sales.NewSale(sales.NewSaleParams{
		TenantID: tenantID,
		BranchID: uuid.New(),
		ClientID: clientID,
		SaleDate: valueobject.MustParseDateKey("2025-01-10"),
		Items: []sales.ItemInput{
			{Type: sales.ItemTypeMembership, Description: "Monthly plan", Quantity: 1, UnitPriceCents: 12000},
			{Type: sales.ItemTypeProduct, Description: "Towel", Quantity: 2, UnitPriceCents: 1500},
		},
		DiscountCents: 1000,
		Payments: []sales.SalePayment{
			{Method: sales.PaymentMethodCash, AmountCents: 4000},
			{Method: sales.PaymentMethodCredit, AmountCents: 6000, CardInstallments: 3, Acquirer: "stone"},
		},
		Notes: "front desk",
	}, testNow)
	require.NoError(t, err)
	return s
}

func TestGormSaleRepository_CreateAndFind(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewGormSaleRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	sale := newTestSale(t, tenantID, uuid.New())
	require.NoError(t, repo.Create(ctx, sale))

	got, err := repo.FindByID(ctx, tenantID, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.NetTotalCents, got.NetTotalCents)
	assert.Equal(t, sale.RemainingCents, got.RemainingCents)
	assert.Equal(t, sale.PaidTotalCents, got.PaidTotalCents)
	assert.Equal(t, sale.Status, got.Status)
	assert.Equal(t, "2025-01-10", got.SaleDate.String())
	assert.Equal(t, 1, got.Version)
	assert.Len(t, got.Items, 2)
	require.Len(t, got.Payments, 2)
	assert.Equal(t, sales.PaymentMethodCash, got.Payments[0].Method)
	assert.Equal(t, 3, got.Payments[1].CardInstallments)
	assert.Equal(t, "stone", got.Payments[1].Acquirer)

	_, err = repo.FindByID(ctx, uuid.New(), sale.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "other tenants cannot read the sale")
}

func TestGormSaleRepository_SaveWithLock(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewGormSaleRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	sale := newTestSale(t, tenantID, uuid.New())
	require.NoError(t, repo.Create(ctx, sale))
	stale := *sale

	require.NoError(t, sale.ApplyReceivablePayment(sale.RemainingCents, true, testNow))
	require.NoError(t, repo.SaveWithLock(ctx, sale))

	got, err := repo.FindByID(ctx, tenantID, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Zero(t, got.RemainingCents)
	assert.Equal(t, sales.SaleStatusPaid, got.Status)
	assert.Len(t, got.Payments, 2, "payments are not rewritten")

	require.NoError(t, stale.ApplyReceivablePayment(100, true, testNow))
	err = repo.SaveWithLock(ctx, &stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormSaleRepository_SaveWithLockSQL(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	sale := newTestSale(t, uuid.New(), uuid.New())
	sale.Version = 4

	mock.ExpectExec(`UPDATE "sales" SET .* WHERE tenant_id = \$\d+ AND id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGormSaleRepository(db).SaveWithLock(context.Background(), sale)
	assert.Equal(t, shared.CodeConcurrencyConflict, shared.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
