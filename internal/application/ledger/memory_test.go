package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/domain/finance"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/sales"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory ledger whose transaction scope snapshots the
// maps and restores them when the closure fails.
type memStore struct {
	mu          sync.Mutex
	sales       map[uuid.UUID]sales.Sale
	receivables map[uuid.UUID]finance.Receivable
	order       []uuid.UUID
	memberships map[uuid.UUID]membership.Membership
	clients     map[uuid.UUID]client.Client
	suspensions []membership.Suspension
	adjustments []membership.Adjustment
	events      []shared.DomainEvent
	// failOn makes the named write return errInjected
	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		sales:       map[uuid.UUID]sales.Sale{},
		receivables: map[uuid.UUID]finance.Receivable{},
		memberships: map[uuid.UUID]membership.Membership{},
		clients:     map[uuid.UUID]client.Client{},
	}
}

type memSnapshot struct {
	sales       map[uuid.UUID]sales.Sale
	receivables map[uuid.UUID]finance.Receivable
	order       []uuid.UUID
	memberships map[uuid.UUID]membership.Membership
	clients     map[uuid.UUID]client.Client
	suspensions []membership.Suspension
	adjustments []membership.Adjustment
	events      []shared.DomainEvent
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		sales:       cloneMap(s.sales),
		receivables: cloneMap(s.receivables),
		order:       append([]uuid.UUID(nil), s.order...),
		memberships: cloneMap(s.memberships),
		clients:     cloneMap(s.clients),
		suspensions: append([]membership.Suspension(nil), s.suspensions...),
		adjustments: append([]membership.Adjustment(nil), s.adjustments...),
		events:      append([]shared.DomainEvent(nil), s.events...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.sales = snap.sales
	s.receivables = snap.receivables
	s.order = snap.order
	s.memberships = snap.memberships
	s.clients = snap.clients
	s.suspensions = snap.suspensions
	s.adjustments = snap.adjustments
	s.events = snap.events
}

func (s *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) Sales() sales.SaleRepository { return memSales{s} }
func (s *memStore) Receivables() finance.ReceivableRepository { return memReceivables{s} }
func (s *memStore) Memberships() membership.Repository { return memMemberships{s} }
func (s *memStore) Clients() client.Repository { return memClients{s} }
func (s *memStore) Events() shared.EventRecorder { return memRecorder{s} }

func (s *memStore) fail(op string) error {
	if s.failOn == op {
		return errInjected
	}
	return nil
}

func conflict() error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict, "version mismatch")
}

func (s *memStore) eventTypes() []string {
	types := make([]string, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.EventType())
	}
	return types
}

func (s *memStore) countEvents(eventType string) int {
	n := 0
	for _, e := range s.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type memSales struct{ s *memStore }

func (r memSales) FindByID(_ context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	v, ok := r.s.sales[id]
	if !ok || v.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	v.ClearDomainEvents()
	return &v, nil
}

func (r memSales) Create(_ context.Context, sale *sales.Sale) error {
	if err := r.s.fail("sale.create"); err != nil {
		return err
	}
	r.s.sales[sale.ID] = *sale
	return nil
}

func (r memSales) SaveWithLock(_ context.Context, sale *sales.Sale) error {
	if err := r.s.fail("sale.save"); err != nil {
		return err
	}
	stored, ok := r.s.sales[sale.ID]
	if !ok || stored.Version != sale.Version-1 {
		return conflict()
	}
	r.s.sales[sale.ID] = *sale
	return nil
}

type memReceivables struct{ s *memStore }

func (r memReceivables) FindByID(_ context.Context, tenantID, id uuid.UUID) (*finance.Receivable, error) {
	v, ok := r.s.receivables[id]
	if !ok || v.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	v.ClearDomainEvents()
	return &v, nil
}

func (r memReceivables) list(keep func(finance.Receivable) bool) []finance.Receivable {
	var out []finance.Receivable
	for _, id := range r.s.order {
		v := r.s.receivables[id]
		if keep(v) {
			v.ClearDomainEvents()
			out = append(out, v)
		}
	}
	return out
}

func (r memReceivables) FindBySale(_ context.Context, tenantID, saleID uuid.UUID) ([]finance.Receivable, error) {
	return r.list(func(v finance.Receivable) bool {
		return v.TenantID == tenantID && v.SaleID != nil && *v.SaleID == saleID
	}), nil
}

func (r memReceivables) FindOpenManualByClient(_ context.Context, tenantID, clientID uuid.UUID) ([]finance.Receivable, error) {
	return r.list(func(v finance.Receivable) bool {
		return v.TenantID == tenantID && v.ClientID == clientID &&
			v.Kind() == finance.ReceivableKindManual && v.Status.IsOpen()
	}), nil
}

func (r memReceivables) FindPendingDueBefore(_ context.Context, tenantID uuid.UUID, before valueobject.DateKey, limit int) ([]finance.Receivable, error) {
	out := r.list(func(v finance.Receivable) bool {
		return v.TenantID == tenantID && v.Status == finance.ReceivableStatusPending && v.DueDate.Before(before)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memReceivables) Create(_ context.Context, receivables ...*finance.Receivable) error {
	if err := r.s.fail("receivable.create"); err != nil {
		return err
	}
	for _, v := range receivables {
		r.s.receivables[v.ID] = *v
		r.s.order = append(r.s.order, v.ID)
	}
	return nil
}

func (r memReceivables) SaveWithLock(_ context.Context, v *finance.Receivable) error {
	if err := r.s.fail("receivable.save"); err != nil {
		return err
	}
	stored, ok := r.s.receivables[v.ID]
	if !ok || stored.Version != v.Version-1 {
		return conflict()
	}
	r.s.receivables[v.ID] = *v
	return nil
}

type memMemberships struct{ s *memStore }

func (r memMemberships) FindByID(_ context.Context, tenantID, id uuid.UUID) (*membership.Membership, error) {
	v, ok := r.s.memberships[id]
	if !ok || v.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	v.ClearDomainEvents()
	return &v, nil
}

func (r memMemberships) FindByEndRange(_ context.Context, tenantID, branchID uuid.UUID, start, end valueobject.DateKey) ([]membership.Membership, error) {
	var out []membership.Membership
	for _, v := range r.s.memberships {
		if v.TenantID != tenantID || v.BranchID != branchID {
			continue
		}
		if v.EndAt.Before(start) || v.EndAt.After(end) {
			continue
		}
		v.ClearDomainEvents()
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndAt != out[j].EndAt {
			return out[i].EndAt.Before(out[j].EndAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r memMemberships) Create(_ context.Context, m *membership.Membership) error {
	if err := r.s.fail("membership.create"); err != nil {
		return err
	}
	r.s.memberships[m.ID] = *m
	return nil
}

func (r memMemberships) SaveWithLock(_ context.Context, m *membership.Membership) error {
	if err := r.s.fail("membership.save"); err != nil {
		return err
	}
	stored, ok := r.s.memberships[m.ID]
	if !ok || stored.Version != m.Version-1 {
		return conflict()
	}
	r.s.memberships[m.ID] = *m
	return nil
}

func (r memMemberships) AddSuspension(_ context.Context, s *membership.Suspension) error {
	r.s.suspensions = append(r.s.suspensions, *s)
	return nil
}

func (r memMemberships) AddAdjustment(_ context.Context, a *membership.Adjustment) error {
	r.s.adjustments = append(r.s.adjustments, *a)
	return nil
}

func (r memMemberships) FindSuspensions(_ context.Context, tenantID, membershipID uuid.UUID) ([]membership.Suspension, error) {
	var out []membership.Suspension
	for _, s := range r.s.suspensions {
		if s.TenantID == tenantID && s.MembershipID == membershipID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r memMemberships) FindAdjustments(_ context.Context, tenantID, membershipID uuid.UUID) ([]membership.Adjustment, error) {
	var out []membership.Adjustment
	for _, a := range r.s.adjustments {
		if a.TenantID == tenantID && a.MembershipID == membershipID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memClients struct{ s *memStore }

func (r memClients) FindByID(_ context.Context, tenantID, id uuid.UUID) (*client.Client, error) {
	v, ok := r.s.clients[id]
	if !ok || v.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	v.ClearDomainEvents()
	return &v, nil
}

func (r memClients) Create(_ context.Context, c *client.Client) error {
	r.s.clients[c.ID] = *c
	return nil
}

func (r memClients) SaveWithLock(_ context.Context, c *client.Client) error {
	if err := r.s.fail("client.save"); err != nil {
		return err
	}
	stored, ok := r.s.clients[c.ID]
	if !ok || stored.Version != c.Version-1 {
		return conflict()
	}
	r.s.clients[c.ID] = *c
	return nil
}

type memRecorder struct{ s *memStore }

func (r memRecorder) Record(_ context.Context, events ...shared.DomainEvent) error {
	if err := r.s.fail("events.record"); err != nil {
		return err
	}
	r.s.events = append(r.s.events, events...)
	return nil
}

// MockDeactivator is a mock implementation of enrollment.Deactivator
type MockDeactivator struct {
	mock.Mock
}

func (m *MockDeactivator) DeactivateClientEnrollmentsFromDate(ctx context.Context, tenantID, clientID uuid.UUID, from valueobject.DateKey) (int, error) {
	args := m.Called(ctx, tenantID, clientID, from)
	return args.Int(0), args.Error(1)
}

var _ enrollment.Deactivator = (*MockDeactivator)(nil)

// ledgerFixture wires every service over one memStore
type ledgerFixture struct {
	store       *memStore
	calendar    Calendar
	tenantID    uuid.UUID
	branchID    uuid.UUID
	client      *client.Client
	deactivator *MockDeactivator

	sales          *SaleService
	payments       *PaymentService
	memberships    *MembershipService
	receivables    *ReceivableService
	reconciliation *ReconciliationService
}

// fixtureNow is 2025-01-10 10:00 in UTC
var fixtureNow = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

func newLedgerFixture() *ledgerFixture {
	store := newMemStore()
	calendar := NewCalendar(shared.FixedClock{At: fixtureNow}, time.UTC)
	logger := zap.NewNop()
	f := &ledgerFixture{
		store:       store,
		calendar:    calendar,
		tenantID:    uuid.New(),
		branchID:    uuid.New(),
		deactivator: new(MockDeactivator),
	}

	c, err := client.NewClient(f.tenantID, f.branchID, "Ana", fixtureNow)
	if err != nil {
		panic(err)
	}
	store.clients[c.ID] = *c
	f.client = c

	f.sales = NewSaleService(store, store.Sales(), calendar, nil, logger)
	f.payments = NewPaymentService(store, calendar, nil, logger)
	f.memberships = NewMembershipService(store, store.Memberships(), f.deactivator, calendar, nil, logger)
	f.receivables = NewReceivableService(store, store.Receivables(), calendar, 2, logger)
	f.reconciliation = NewReconciliationService(store, store.Clients(), store.Receivables(), calendar, nil, logger)
	return f
}

func (f *ledgerFixture) storedClient() client.Client {
	return f.store.clients[f.client.ID]
}
