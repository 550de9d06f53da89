package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualSale sells a membership with price and an unpaid balance of price-paid
func (f *ledgerFixture) manualSale(t *testing.T, price, paid valueobject.Cents) (*CreateSaleResult, finance.Receivable) {
	t.Helper()
	result, err := f.sales.CreateSale(context.Background(), f.membershipSaleRequest(price, paid, "2025-01-01"))
	require.NoError(t, err)
	receivables := f.receivablesOf(t, result.SaleID)
	require.Len(t, receivables, 1)
	f.store.events = nil
	return result, receivables[0]
}

func (f *ledgerFixture) cardSale(t *testing.T, amount valueobject.Cents, installments int) (*CreateSaleResult, []finance.Receivable) {
	t.Helper()
	req := f.baseSaleRequest()
	req.Items = []sales.ItemInput{{Type: sales.ItemTypeProduct, Quantity: 1, UnitPriceCents: amount}}
	req.Payments = []sales.SalePayment{{Method: sales.PaymentMethodCredit, AmountCents: amount, CardInstallments: installments}}
	result, err := f.sales.CreateSale(context.Background(), req)
	require.NoError(t, err)
	f.store.events = nil
	return result, f.receivablesOf(t, result.SaleID)
}

func (f *ledgerFixture) pay(receivableID uuid.UUID, amount valueobject.Cents) (*ApplyPaymentResult, error) {
	return f.payments.ApplyReceivablePayment(context.Background(), ApplyPaymentRequest{
		TenantID:     f.tenantID,
		ReceivableID: receivableID,
		ClientID:     f.client.ID,
		AmountCents:  amount,
		PaidAt:       fixtureNow.Add(time.Hour),
	})
}

func TestApplyPayment_RejectsNonPositiveAmount(t *testing.T) {
	f := newLedgerFixture()
	_, r := f.manualSale(t, 10000, 0)

	for _, amount := range []valueobject.Cents{0, -100} {
		_, err := f.pay(r.ID, amount)
		assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))
	}
	stored := f.store.receivables[r.ID]
	assert.Zero(t, stored.AmountPaidCents)
	assert.Equal(t, r.Version, stored.Version)
	assert.Empty(t, f.store.events)
}

func TestApplyPayment_NotFound(t *testing.T) {
	f := newLedgerFixture()
	_, err := f.pay(uuid.New(), 100)
	assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
}

func TestApplyPayment_PartialManual(t *testing.T) {
	f := newLedgerFixture()
	saleResult, r := f.manualSale(t, 10000, 0)

	result, err := f.pay(r.ID, 4000)
	require.NoError(t, err)
	assert.Equal(t, valueobject.Cents(4000), result.AppliedCents)
	assert.Equal(t, finance.ReceivableStatusPending, result.ReceivableStatus)
	assert.Equal(t, valueobject.Cents(6000), result.RemainingCents)
	assert.Equal(t, sales.SaleStatusOpen, result.SaleStatus)
	require.NotNil(t, result.ClientDebtCents)
	assert.Equal(t, valueobject.Cents(6000), *result.ClientDebtCents)

	stored := f.store.receivables[r.ID]
	assert.Equal(t, valueobject.Cents(4000), stored.AmountPaidCents)
	assert.Nil(t, stored.PaidAt)

	sale := f.store.sales[saleResult.SaleID]
	assert.Equal(t, valueobject.Cents(4000), sale.PaidTotalCents)
	assert.Equal(t, valueobject.Cents(4000), sale.NetPaidTotalCents)
	assert.Equal(t, valueobject.Cents(6000), sale.RemainingCents)
	assert.Equal(t, valueobject.Cents(6000), f.storedClient().DebtCents)
	assert.Equal(t, []string{finance.EventTypeReceivablePaymentApplied}, f.store.eventTypes())
}

func TestApplyPayment_OverpaymentIsCappedAndIdempotent(t *testing.T) {
	f := newLedgerFixture()
	saleResult, r := f.manualSale(t, 10000, 2500)

	result, err := f.pay(r.ID, 50000)
	require.NoError(t, err)
	assert.Equal(t, valueobject.Cents(50000), result.RequestedCents)
	assert.Equal(t, valueobject.Cents(7500), result.AppliedCents)
	assert.Equal(t, finance.ReceivableStatusPaid, result.ReceivableStatus)
	assert.Equal(t, sales.SaleStatusPaid, result.SaleStatus)
	assert.False(t, result.AlreadySettled)

	stored := f.store.receivables[r.ID]
	assert.Equal(t, stored.AmountCents, stored.AmountPaidCents)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(fixtureNow.Add(time.Hour)))

	sale := f.store.sales[saleResult.SaleID]
	assert.Zero(t, sale.RemainingCents)
	assert.Equal(t, sales.SaleStatusPaid, sale.Status)
	assert.Equal(t, valueobject.Cents(10000), sale.PaidTotalCents)
	assert.Zero(t, f.storedClient().DebtCents)
	assert.Equal(t, 1, f.store.countEvents(sales.EventTypeSalePaid))
	assert.Equal(t, 1, f.store.countEvents(finance.EventTypeReceivableSettled))

	versions := []int{stored.Version, sale.Version, f.storedClient().Version}
	eventsBefore := len(f.store.events)

	again, err := f.pay(r.ID, 1000)
	require.NoError(t, err)
	assert.Zero(t, again.AppliedCents)
	assert.True(t, again.AlreadySettled)
	assert.Zero(t, again.RemainingCents)
	assert.Equal(t, finance.ReceivableStatusPaid, again.ReceivableStatus)
	assert.Equal(t, versions, []int{
		f.store.receivables[r.ID].Version,
		f.store.sales[saleResult.SaleID].Version,
		f.storedClient().Version,
	}, "no writes on a settled receivable")
	assert.Len(t, f.store.events, eventsBefore)
}

func TestApplyPayment_CardInstallmentLeavesDebt(t *testing.T) {
	f := newLedgerFixture()
	// a membership sale leaves debt we can watch
	_, _ = f.manualSale(t, 10000, 0)
	debtBefore := f.storedClient().DebtCents
	require.Equal(t, valueobject.Cents(10000), debtBefore)

	saleResult, installments := f.cardSale(t, 9000, 3)
	require.Len(t, installments, 3)

	result, err := f.pay(installments[0].ID, 3000)
	require.NoError(t, err)
	assert.Equal(t, finance.ReceivableKindCardInstallment, result.Kind)
	assert.Equal(t, valueobject.Cents(3000), result.AppliedCents)
	assert.Nil(t, result.ClientDebtCents)
	assert.Equal(t, debtBefore, f.storedClient().DebtCents)

	sale := f.store.sales[saleResult.SaleID]
	assert.Equal(t, valueobject.Cents(12000), sale.PaidTotalCents, "card payments always add to the paid total")
	assert.Zero(t, sale.NetPaidTotalCents, "only manual receivables add to the net paid total")
}

func TestApplyPayment_OverdueReceivableSettles(t *testing.T) {
	f := newLedgerFixture()
	_, r := f.manualSale(t, 5000, 0)
	stored := f.store.receivables[r.ID]
	stored.Status = finance.ReceivableStatusOverdue
	f.store.receivables[r.ID] = stored

	result, err := f.pay(r.ID, 5000)
	require.NoError(t, err)
	assert.Equal(t, finance.ReceivableStatusPaid, result.ReceivableStatus)
	assert.NotNil(t, f.store.receivables[r.ID].PaidAt)
}

func TestApplyPayment_CanceledReceivable(t *testing.T) {
	f := newLedgerFixture()
	_, r := f.manualSale(t, 5000, 0)
	stored := f.store.receivables[r.ID]
	stored.Status = finance.ReceivableStatusCanceled
	f.store.receivables[r.ID] = stored

	_, err := f.pay(r.ID, 100)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
}

func TestApplyPayment_WrongClient(t *testing.T) {
	f := newLedgerFixture()
	_, r := f.manualSale(t, 5000, 0)

	_, err := f.payments.ApplyReceivablePayment(context.Background(), ApplyPaymentRequest{
		TenantID:     f.tenantID,
		ReceivableID: r.ID,
		ClientID:     uuid.New(),
		AmountCents:  100,
	})
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))
	assert.Zero(t, f.store.receivables[r.ID].AmountPaidCents)
}

func TestApplyPayment_RollsBackOnClientFailure(t *testing.T) {
	f := newLedgerFixture()
	saleResult, r := f.manualSale(t, 10000, 0)
	f.store.failOn = "client.save"

	_, err := f.pay(r.ID, 4000)
	require.ErrorIs(t, err, errInjected)
	assert.Zero(t, f.store.receivables[r.ID].AmountPaidCents)
	assert.Zero(t, f.store.sales[saleResult.SaleID].PaidTotalCents)
	assert.Equal(t, valueobject.Cents(10000), f.storedClient().DebtCents)
}

func TestApplyPayment_SequentialPartialsNeverExceedAmount(t *testing.T) {
	f := newLedgerFixture()
	saleResult, r := f.manualSale(t, 10000, 0)

	var applied valueobject.Cents
	for _, amount := range []valueobject.Cents{3000, 3000, 3000, 3000} {
		result, err := f.pay(r.ID, amount)
		require.NoError(t, err)
		applied += result.AppliedCents
	}
	assert.Equal(t, valueobject.Cents(10000), applied)
	assert.Equal(t, valueobject.Cents(10000), f.store.receivables[r.ID].AmountPaidCents)
	assert.Equal(t, sales.SaleStatusPaid, f.store.sales[saleResult.SaleID].Status)
	assert.Zero(t, f.storedClient().DebtCents)
}
