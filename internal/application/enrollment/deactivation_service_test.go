package enrollment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/enrollment"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

// MockEnrollmentRepository is a mock implementation of enrollment.Repository
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) FindActiveByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]enrollment.Enrollment, error) {
	args := m.Called(ctx, tenantID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]enrollment.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) Save(ctx context.Context, e *enrollment.Enrollment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// MockDeactivator is a mock implementation of enrollment.Deactivator
type MockDeactivator struct {
	mock.Mock
}

func (m *MockDeactivator) DeactivateClientEnrollmentsFromDate(ctx context.Context, tenantID, clientID uuid.UUID, from valueobject.DateKey) (int, error) {
	args := m.Called(ctx, tenantID, clientID, from)
	return args.Int(0), args.Error(1)
}

func newEnrollment(t *testing.T, tenantID, clientID uuid.UUID, start string) enrollment.Enrollment {
	t.Helper()
	e, err := enrollment.NewEnrollment(tenantID, clientID, uuid.New(), time.Monday, valueobject.MustParseDateKey(start), testNow)
	require.NoError(t, err)
	return *e
}

func TestDeactivateClientEnrollmentsFromDate(t *testing.T) {
	tenantID, clientID := uuid.New(), uuid.New()
	from := valueobject.MustParseDateKey("2025-01-10")
	repo := new(MockEnrollmentRepository)
	repo.On("FindActiveByClient", mock.Anything, tenantID, clientID).Return([]enrollment.Enrollment{
		newEnrollment(t, tenantID, clientID, "2024-09-01"),
		newEnrollment(t, tenantID, clientID, "2025-02-01"),
	}, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(e *enrollment.Enrollment) bool {
		return !e.Active
	})).Return(nil).Twice()

	svc := NewDeactivationService(repo, shared.FixedClock{At: testNow}, zap.NewNop())
	count, err := svc.DeactivateClientEnrollmentsFromDate(context.Background(), tenantID, clientID, from)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	saved := repo.Calls[1].Arguments.Get(1).(*enrollment.Enrollment)
	assert.Equal(t, "2025-01-10", saved.EndDateKey.String())
	future := repo.Calls[2].Arguments.Get(1).(*enrollment.Enrollment)
	assert.Equal(t, "2025-02-01", future.EndDateKey.String(), "future bookings end at their own start")
	repo.AssertExpectations(t)
}

func TestDeactivateClientEnrollmentsFromDate_Idempotent(t *testing.T) {
	repo := new(MockEnrollmentRepository)
	repo.On("FindActiveByClient", mock.Anything, mock.Anything, mock.Anything).Return([]enrollment.Enrollment{}, nil)

	svc := NewDeactivationService(repo, nil, zap.NewNop())
	count, err := svc.DeactivateClientEnrollmentsFromDate(context.Background(), uuid.New(), uuid.New(), valueobject.MustParseDateKey("2025-01-10"))
	require.NoError(t, err)
	assert.Zero(t, count)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDeactivateClientEnrollmentsFromDate_Errors(t *testing.T) {
	repo := new(MockEnrollmentRepository)
	svc := NewDeactivationService(repo, nil, zap.NewNop())

	_, err := svc.DeactivateClientEnrollmentsFromDate(context.Background(), uuid.New(), uuid.New(), "10/01/2025")
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))

	repo.On("FindActiveByClient", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	_, err = svc.DeactivateClientEnrollmentsFromDate(context.Background(), uuid.New(), uuid.New(), "2025-01-10")
	assert.Error(t, err)
}

func TestCascadeHandler(t *testing.T) {
	tenantID := uuid.New()
	m := &membership.Membership{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, testNow),
		ClientID:            uuid.New(),
		Status:              membership.StatusCanceled,
		StatusDateKey:       valueobject.MustParseDateKey("2025-01-10"),
	}
	event := membership.NewMembershipTerminatedEvent(m, testNow)

	deactivator := new(MockDeactivator)
	deactivator.On("DeactivateClientEnrollmentsFromDate", mock.Anything, tenantID, m.ClientID, m.StatusDateKey).
		Return(1, nil).Once()

	h := NewCascadeHandler(deactivator, zap.NewNop())
	assert.Equal(t, []string{membership.EventTypeMembershipTerminated}, h.EventTypes())
	require.NoError(t, h.Handle(context.Background(), event))
	deactivator.AssertExpectations(t)
}

func TestCascadeHandler_PropagatesFailure(t *testing.T) {
	m := &membership.Membership{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New(), testNow),
		ClientID:            uuid.New(),
		StatusDateKey:       valueobject.MustParseDateKey("2025-01-10"),
	}
	deactivator := new(MockDeactivator)
	deactivator.On("DeactivateClientEnrollmentsFromDate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(0, errors.New("timeout"))

	h := NewCascadeHandler(deactivator, zap.NewNop())
	assert.Error(t, h.Handle(context.Background(), membership.NewMembershipTerminatedEvent(m, testNow)))
}

func TestCascadeHandler_WrongEvent(t *testing.T) {
	h := NewCascadeHandler(new(MockDeactivator), zap.NewNop())
	m := &membership.Membership{TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New(), testNow)}
	assert.Error(t, h.Handle(context.Background(), membership.NewMembershipCreatedEvent(m, testNow)))
}
