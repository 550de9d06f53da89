// Command seed fills a development database with one tenant's worth of
// clients, class enrollments and sales so the ledger API has data to serve.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gymdesk/backend/internal/application/enrollment"
	"github.com/gymdesk/backend/internal/application/ledger"
	"github.com/gymdesk/backend/internal/domain/client"
	domainenrollment "github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/infrastructure/config"
	"github.com/gymdesk/backend/internal/infrastructure/event"
	"github.com/gymdesk/backend/internal/infrastructure/logger"
	"github.com/gymdesk/backend/internal/infrastructure/persistence"
)

type plan struct {
	name         string
	durationType membership.DurationType
	duration     int
	priceCents   valueobject.Cents
}

var plans = []plan{
	{"Monthly", membership.DurationMonth, 1, 15000},
	{"Quarterly", membership.DurationMonth, 3, 40500},
	{"Annual", membership.DurationYear, 1, 144000},
	{"Day pass", membership.DurationDay, 1, 3000},
}

var acquirers = []string{"stone", "cielo", "rede", "getnet"}

func main() {
	var (
		tenantFlag string
		clients    int
		branches   int
		seed       uint64
	)
	flag.StringVar(&tenantFlag, "tenant", "", "Tenant ID to seed (default: a new one)")
	flag.IntVar(&clients, "clients", 25, "Number of clients to create")
	flag.IntVar(&branches, "branches", 2, "Number of branches the clients are spread over")
	flag.Uint64Var(&seed, "seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewForService(cfg.App, cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	tenantID := uuid.New()
	if tenantFlag != "" {
		if tenantID, err = uuid.Parse(tenantFlag); err != nil {
			log.Fatal("Invalid tenant ID", zap.String("tenant", tenantFlag))
		}
	}
	if clients < 1 || branches < 1 {
		log.Fatal("clients and branches must be positive")
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal("Invalid ledger timezone", zap.Error(err))
	}
	clock := shared.SystemClock{}
	calendar := ledger.NewCalendar(clock, loc)
	scope := persistence.NewGormLedgerTransactionScope(db.DB,
		event.NewOutboxRecorder(db.DB, event.NewLedgerEventSerializer(), clock),
		persistence.DefaultRetryPolicy(), nil, log)
	enrollmentRepo := persistence.NewGormEnrollmentRepository(db.DB)
	s := &seeder{
		tenantID:    tenantID,
		faker:       gofakeit.New(seed),
		calendar:    calendar,
		clients:     persistence.NewGormClientRepository(db.DB),
		enrollments: enrollmentRepo,
		sales:       ledger.NewSaleService(scope, persistence.NewGormSaleRepository(db.DB), calendar, nil, log),
		memberships: ledger.NewMembershipService(scope, persistence.NewGormMembershipRepository(db.DB),
			enrollment.NewDeactivationService(enrollmentRepo, clock, log), calendar, nil, log),
		log: log,
	}
	for i := 0; i < branches; i++ {
		s.branchIDs = append(s.branchIDs, uuid.New())
	}

	ctx := context.Background()
	for i := 0; i < clients; i++ {
		if err := s.seedClient(ctx); err != nil {
			log.Fatal("Seeding stopped", zap.Int("clients_done", i), zap.Error(err))
		}
	}

	log.Info("Seed complete",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("clients", clients),
		zap.Int("sales", s.salesCreated),
		zap.Int("receivables", s.receivables),
	)
}

type seeder struct {
	tenantID    uuid.UUID
	branchIDs   []uuid.UUID
	faker       *gofakeit.Faker
	calendar    ledger.Calendar
	clients     *persistence.GormClientRepository
	enrollments *persistence.GormEnrollmentRepository
	sales       *ledger.SaleService
	memberships *ledger.MembershipService
	log         *zap.Logger

	salesCreated int
	receivables  int
}

func (s *seeder) seedClient(ctx context.Context) error {
	today := s.calendar.Today()
	branchID := s.branchIDs[s.faker.IntRange(0, len(s.branchIDs)-1)]

	c, err := client.NewClient(s.tenantID, branchID, s.faker.Name(), s.calendar.Now())
	if err != nil {
		return err
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return fmt.Errorf("client: %w", err)
	}

	for n := s.faker.IntRange(0, 3); n > 0; n-- {
		weekday := time.Weekday(s.faker.IntRange(1, 6))
		e, err := domainenrollment.NewEnrollment(s.tenantID, c.ID, uuid.New(), weekday, today.AddDays(-s.faker.IntRange(0, 60)), s.calendar.Now())
		if err != nil {
			return err
		}
		if err := s.enrollments.Create(ctx, e); err != nil {
			return fmt.Errorf("enrollment: %w", err)
		}
	}

	p := plans[s.faker.IntRange(0, len(plans)-1)]
	req := ledger.CreateSaleRequest{
		TenantID: s.tenantID,
		BranchID: branchID,
		ClientID: c.ID,
		SaleDate: today.AddDays(-s.faker.IntRange(0, 20)),
		Items: []sales.ItemInput{{
			Type:           sales.ItemTypeMembership,
			Description:    p.name + " plan",
			Quantity:       1,
			UnitPriceCents: p.priceCents,
		}},
		Membership: &ledger.MembershipIntent{
			PlanName:     p.name,
			DurationType: p.durationType,
			Duration:     p.duration,
		},
	}
	req.Membership.StartAt = req.SaleDate
	req.ManualDueDate = req.SaleDate.AddDays(s.faker.IntRange(5, 30))

	if s.faker.Bool() {
		req.Items = append(req.Items, sales.ItemInput{
			Type:           sales.ItemTypeProduct,
			Description:    s.faker.ProductName(),
			Quantity:       s.faker.IntRange(1, 3),
			UnitPriceCents: valueobject.Cents(s.faker.IntRange(15, 120) * 100),
		})
	}
	var gross valueobject.Cents
	for _, item := range req.Items {
		gross += item.UnitPriceCents * valueobject.Cents(item.Quantity)
	}
	req.Payments = s.payments(gross)

	result, err := s.sales.CreateSale(ctx, req)
	if err != nil {
		return fmt.Errorf("sale: %w", err)
	}
	s.salesCreated++
	s.receivables += len(result.ReceivableIDs)

	// a few clients quit right away so the ledger shows terminated memberships
	if result.MembershipID != nil && s.faker.IntRange(1, 10) == 1 {
		_, err := s.memberships.UpdateMembershipStatus(ctx, ledger.UpdateStatusRequest{
			TenantID:     s.tenantID,
			ClientID:     c.ID,
			MembershipID: *result.MembershipID,
			TargetStatus: membership.StatusCanceled,
		})
		if err != nil {
			return fmt.Errorf("cancel: %w", err)
		}
	}
	return nil
}

// payments splits gross into a random mix of full card, partial cash and
// nothing paid at all
func (s *seeder) payments(gross valueobject.Cents) []sales.SalePayment {
	switch s.faker.IntRange(0, 3) {
	case 0:
		return nil
	case 1:
		installments := s.faker.IntRange(1, 6)
		return []sales.SalePayment{{
			Method:           sales.PaymentMethodCredit,
			AmountCents:      gross,
			CardInstallments: installments,
			CardFeeCents:     gross * 3 / 100,
			Acquirer:         acquirers[s.faker.IntRange(0, len(acquirers)-1)],
		}}
	case 2:
		return []sales.SalePayment{{Method: sales.PaymentMethodPix, AmountCents: gross}}
	default:
		return []sales.SalePayment{{Method: sales.PaymentMethodCash, AmountCents: gross / 2}}
	}
}
