package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DebtReport compares a client's debt projection with its receivables
type DebtReport struct {
	ClientID        uuid.UUID
	DebtSaleID      *uuid.UUID
	RecordedCents   valueobject.Cents
	ExpectedCents   valueobject.Cents
	DriftCents      valueobject.Cents
	OpenReceivables int
	Repaired        bool
}

// InSync reports whether the projection matches the receivables
func (r DebtReport) InSync() bool {
	return r.DriftCents == 0
}

// ReconciliationService checks the client debt projection. DebtCents is
// written from the remaining balance of one sale and then only decremented,
// so its expected value is the open balance of that sale's manual receivables.
type ReconciliationService struct {
	scope          TransactionScope
	clientRepo     client.Repository
	receivableRepo finance.ReceivableRepository
	calendar       Calendar
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	scope TransactionScope,
	clientRepo client.Repository,
	receivableRepo finance.ReceivableRepository,
	calendar Calendar,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		scope:          scope,
		clientRepo:     clientRepo,
		receivableRepo: receivableRepo,
		calendar:       calendar,
		metrics:        metrics,
		logger:         logger,
	}
}

func expectedDebt(c *client.Client, open []finance.Receivable) (valueobject.Cents, int) {
	if c.DebtSaleID == nil {
		return 0, 0
	}
	var sum valueobject.Cents
	count := 0
	for i := range open {
		r := &open[i]
		if r.SaleID == nil || *r.SaleID != *c.DebtSaleID || !r.Status.IsOpen() {
			continue
		}
		sum += r.RemainingCents()
		count++
	}
	return sum, count
}

func (s *ReconciliationService) report(ctx context.Context, clientRepo client.Repository, receivableRepo finance.ReceivableRepository, tenantID, clientID uuid.UUID) (*client.Client, *DebtReport, error) {
	c, err := clientRepo.FindByID(ctx, tenantID, clientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewNotFound("client")
		}
		return nil, nil, fmt.Errorf("failed to load client: %w", err)
	}
	open, err := receivableRepo.FindOpenManualByClient(ctx, tenantID, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load open receivables: %w", err)
	}
	expected, count := expectedDebt(c, open)
	return c, &DebtReport{
		ClientID:        c.ID,
		DebtSaleID:      c.DebtSaleID,
		RecordedCents:   c.DebtCents,
		ExpectedCents:   expected,
		DriftCents:      c.DebtCents - expected,
		OpenReceivables: count,
	}, nil
}

// ReconcileClientDebt reports drift between DebtCents and the open manual
// receivables. With repair set, a drifted projection is rewritten to the
// expected value inside a transaction.
func (s *ReconciliationService) ReconcileClientDebt(ctx context.Context, tenantID, clientID uuid.UUID, repair bool) (*DebtReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "client", "reconcile_debt",
		telemetry.SpanAttrTenantID, tenantID,
		telemetry.SpanAttrClientID, clientID,
	)
	defer span.End()

	_, report, err := s.report(ctx, s.clientRepo, s.receivableRepo, tenantID, clientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if report.InSync() {
		return report, nil
	}

	s.metrics.DebtDriftDetected(ctx, tenantID.String())
	s.logger.Warn("Client debt drift detected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("client_id", clientID.String()),
		zap.Int64("recorded_cents", report.RecordedCents.Int64()),
		zap.Int64("expected_cents", report.ExpectedCents.Int64()),
	)
	if !repair {
		return report, nil
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, fresh, err := s.report(ctx, repos.Clients(), repos.Receivables(), tenantID, clientID)
		if err != nil {
			return err
		}
		report = fresh
		if !c.CorrectDebt(fresh.ExpectedCents, s.calendar.Now()) {
			return nil
		}
		if err := repos.Clients().SaveWithLock(ctx, c); err != nil {
			return fmt.Errorf("failed to save client: %w", err)
		}
		report.Repaired = true
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if report.Repaired {
		s.logger.Info("Client debt repaired",
			zap.String("client_id", clientID.String()),
			zap.Int64("debt_cents", report.ExpectedCents.Int64()),
		)
	}
	return report, nil
}
