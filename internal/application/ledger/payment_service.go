package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService applies payments to receivables
type PaymentService struct {
	scope    TransactionScope
	calendar Calendar
	metrics  *telemetry.LedgerMetrics
	logger   *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(scope TransactionScope, calendar Calendar, metrics *telemetry.LedgerMetrics, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		scope:    scope,
		calendar: calendar,
		metrics:  metrics,
		logger:   logger,
	}
}

// ApplyPaymentRequest is the input of ApplyReceivablePayment
type ApplyPaymentRequest struct {
	TenantID     uuid.UUID
	ReceivableID uuid.UUID
	// ClientID must match the receivable's client when set
	ClientID    uuid.UUID
	AmountCents valueobject.Cents
	// PaidAt defaults to now
	PaidAt time.Time
}

// ApplyPaymentResult reports what was applied. AppliedCents can be lower
// than the requested amount: overpayment is capped to the remaining balance.
// AlreadySettled marks a payment against a paid receivable, which writes
// nothing.
type ApplyPaymentResult struct {
	ReceivableID     uuid.UUID
	Kind             finance.ReceivableKind
	RequestedCents   valueobject.Cents
	AppliedCents     valueobject.Cents
	ReceivableStatus finance.ReceivableStatus
	RemainingCents   valueobject.Cents
	SaleID           *uuid.UUID
	SaleStatus       sales.SaleStatus
	ClientDebtCents  *valueobject.Cents
	AlreadySettled   bool
}

// ApplyReceivablePayment applies a payment to a receivable and propagates
// it to the owning sale and, for manual receivables, the client debt. All
// reads and writes share one transaction; a concurrent payment on the same
// receivable forces a retry that recomputes against the new balance.
func (s *PaymentService) ApplyReceivablePayment(ctx context.Context, req ApplyPaymentRequest) (*ApplyPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receivable", "apply_payment",
		telemetry.SpanAttrTenantID, req.TenantID,
		telemetry.SpanAttrReceivableID, req.ReceivableID,
		telemetry.SpanAttrAmountCents, req.AmountCents.Int64(),
	)
	defer span.End()

	if !req.AmountCents.IsPositive() {
		err := shared.NewInvalidArgument("payment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.ReceivableID == uuid.Nil {
		err := shared.NewInvalidArgument("receivable ID cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *ApplyPaymentResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		paidAt := req.PaidAt
		if paidAt.IsZero() {
			paidAt = s.calendar.Now()
		}

		r, err := repos.Receivables().FindByID(ctx, req.TenantID, req.ReceivableID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewNotFound("receivable")
			}
			return fmt.Errorf("failed to load receivable: %w", err)
		}
		if req.ClientID != uuid.Nil && r.ClientID != req.ClientID {
			return shared.NewInvalidArgument("receivable does not belong to the client")
		}

		result = &ApplyPaymentResult{
			ReceivableID:     r.ID,
			Kind:             r.Kind(),
			RequestedCents:   req.AmountCents,
			ReceivableStatus: r.Status,
			RemainingCents:   r.RemainingCents(),
			SaleID:           r.SaleID,
		}
		if r.IsPaid() {
			result.AlreadySettled = true
			return nil
		}

		outcome, err := r.ApplyPayment(req.AmountCents, paidAt)
		if err != nil {
			return err
		}
		result.AppliedCents = outcome.AppliedCents
		result.ReceivableStatus = r.Status
		result.RemainingCents = r.RemainingCents()
		if outcome.AppliedCents == 0 {
			return nil
		}

		if err := repos.Receivables().SaveWithLock(ctx, r); err != nil {
			return fmt.Errorf("failed to save receivable: %w", err)
		}
		touched := []shared.AggregateRoot{r}

		if r.SaleID != nil {
			sale, err := repos.Sales().FindByID(ctx, req.TenantID, *r.SaleID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewNotFound("sale")
				}
				return fmt.Errorf("failed to load sale: %w", err)
			}
			if err := sale.ApplyReceivablePayment(outcome.AppliedCents, isManual(r.Terms), paidAt); err != nil {
				return err
			}
			if err := repos.Sales().SaveWithLock(ctx, sale); err != nil {
				return fmt.Errorf("failed to save sale: %w", err)
			}
			result.SaleStatus = sale.Status
			touched = append(touched, sale)
		}

		switch r.Terms.(type) {
		case finance.ManualTerms:
			c, err := repos.Clients().FindByID(ctx, req.TenantID, r.ClientID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewNotFound("client")
				}
				return fmt.Errorf("failed to load client: %w", err)
			}
			if err := c.ReduceDebt(outcome.AppliedCents, paidAt); err != nil {
				return err
			}
			if err := repos.Clients().SaveWithLock(ctx, c); err != nil {
				return fmt.Errorf("failed to save client: %w", err)
			}
			debt := c.DebtCents
			result.ClientDebtCents = &debt
			touched = append(touched, c)
		case finance.CardInstallmentTerms:
			// settled by the acquirer schedule; client debt is untouched
		}

		return recordEvents(ctx, repos.Events(), touched...)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAppliedCents, result.AppliedCents.Int64(),
		telemetry.SpanAttrKind, string(result.Kind),
		telemetry.SpanAttrStatus, result.ReceivableStatus,
	)
	if result.AlreadySettled || result.AppliedCents == 0 {
		telemetry.AddEvent(span, "payment_noop")
		s.logger.Debug("Receivable already settled, payment ignored",
			zap.String("receivable_id", req.ReceivableID.String()),
		)
		return result, nil
	}

	s.metrics.PaymentApplied(ctx, req.TenantID.String(), string(result.Kind), result.AppliedCents.Int64())
	s.logger.Info("Receivable payment applied",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("receivable_id", req.ReceivableID.String()),
		zap.String("kind", string(result.Kind)),
		zap.Int64("requested_cents", req.AmountCents.Int64()),
		zap.Int64("applied_cents", result.AppliedCents.Int64()),
		zap.String("status", result.ReceivableStatus.String()),
	)
	return result, nil
}

func isManual(terms finance.ReceivableTerms) bool {
	_, ok := terms.(finance.ManualTerms)
	return ok
}
