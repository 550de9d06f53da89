package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrTenantID = attribute.Key("tenant_id")
	AttrKind     = attribute.Key("kind")
	AttrStatus   = attribute.Key("status")
	AttrOutcome  = attribute.Key("outcome")
)

// LedgerMetrics holds the ledger's business counters. A nil *LedgerMetrics
// is valid and records nothing.
type LedgerMetrics struct {
	salesCreated         metric.Int64Counter
	saleNetCents         metric.Int64Counter
	receivablesIssued    metric.Int64Counter
	paymentCentsApplied  metric.Int64Counter
	membershipsEnded     metric.Int64Counter
	cascadeFailures      metric.Int64Counter
	transactionRetries   metric.Int64Counter
	reconciliationDrifts metric.Int64Counter
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
		unit   string
	}{
		{&m.salesCreated, "ledger_sales_created_total", "Sales recorded", "{sales}"},
		{&m.saleNetCents, "ledger_sale_net_cents_total", "Net value of recorded sales", "{cents}"},
		{&m.receivablesIssued, "ledger_receivables_issued_total", "Receivables created by sales", "{receivables}"},
		{&m.paymentCentsApplied, "ledger_payment_cents_applied_total", "Cents applied to receivables", "{cents}"},
		{&m.membershipsEnded, "ledger_memberships_terminated_total", "Memberships canceled or expired", "{memberships}"},
		{&m.cascadeFailures, "ledger_enrollment_cascade_failures_total", "Enrollment deactivation calls that failed", "{calls}"},
		{&m.transactionRetries, "ledger_transaction_retries_total", "Transactions retried after a version conflict", "{retries}"},
		{&m.reconciliationDrifts, "ledger_debt_drift_detected_total", "Client debt projections that disagreed with receivables", "{clients}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}
	return m, nil
}

// SaleCreated records a new sale and the receivables it issued
func (m *LedgerMetrics) SaleCreated(ctx context.Context, tenantID string, netCents int64, receivables int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrTenantID.String(tenantID))
	m.salesCreated.Add(ctx, 1, attrs)
	m.saleNetCents.Add(ctx, netCents, attrs)
	m.receivablesIssued.Add(ctx, int64(receivables), attrs)
}

// PaymentApplied records cents applied to a receivable of the given kind
func (m *LedgerMetrics) PaymentApplied(ctx context.Context, tenantID, kind string, appliedCents int64) {
	if m == nil || appliedCents <= 0 {
		return
	}
	m.paymentCentsApplied.Add(ctx, appliedCents, metric.WithAttributes(
		AttrTenantID.String(tenantID),
		AttrKind.String(kind),
	))
}

// MembershipTerminated records a canceled or expired membership
func (m *LedgerMetrics) MembershipTerminated(ctx context.Context, tenantID, status string) {
	if m == nil {
		return
	}
	m.membershipsEnded.Add(ctx, 1, metric.WithAttributes(
		AttrTenantID.String(tenantID),
		AttrStatus.String(status),
	))
}

// CascadeFailed records a failed enrollment deactivation
func (m *LedgerMetrics) CascadeFailed(ctx context.Context, tenantID, path string) {
	if m == nil {
		return
	}
	m.cascadeFailures.Add(ctx, 1, metric.WithAttributes(
		AttrTenantID.String(tenantID),
		AttrOutcome.String(path),
	))
}

// TransactionRetried records one optimistic-lock retry
func (m *LedgerMetrics) TransactionRetried(ctx context.Context) {
	if m == nil {
		return
	}
	m.transactionRetries.Add(ctx, 1)
}

// DebtDriftDetected records a reconciliation mismatch
func (m *LedgerMetrics) DebtDriftDetected(ctx context.Context, tenantID string) {
	if m == nil {
		return
	}
	m.reconciliationDrifts.Add(ctx, 1, metric.WithAttributes(AttrTenantID.String(tenantID)))
}
