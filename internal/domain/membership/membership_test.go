package membership

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/shared"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)

const today = valueobject.DateKey("2025-01-10")

func newTestMembership(t *testing.T, start valueobject.DateKey) *Membership {
	t.Helper()
	m, err := NewMembership(NewMembershipParams{
		TenantID:     uuid.New(),
		ClientID:     uuid.New(),
		BranchID:     uuid.New(),
		PlanName:     "Monthly",
		PriceCents:   15000,
		StartAt:      start,
		DurationType: DurationMonth,
		Duration:     1,
	}, today, testNow)
	require.NoError(t, err)
	m.ClearDomainEvents()
	return m
}

// ==================== EndAt computation ====================

func TestComputeEndAt(t *testing.T) {
	tests := []struct {
		start    string
		unit     DurationType
		duration int
		want     string
	}{
		{"2025-01-01", DurationMonth, 1, "2025-01-31"},
		{"2025-01-15", DurationMonth, 1, "2025-02-14"},
		{"2025-01-31", DurationMonth, 1, "2025-02-27"},
		{"2025-01-01", DurationMonth, 12, "2025-12-31"},
		{"2025-01-01", DurationDay, 1, "2025-01-01"},
		{"2025-01-01", DurationDay, 30, "2025-01-30"},
		{"2025-01-01", DurationWeek, 2, "2025-01-14"},
		{"2024-02-29", DurationYear, 1, "2025-02-27"},
		{"2025-03-01", DurationYear, 1, "2026-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.start+"+"+string(tt.unit), func(t *testing.T) {
			got, err := ComputeEndAt(valueobject.DateKey(tt.start), tt.unit, tt.duration)
			require.NoError(t, err)
			assert.Equal(t, valueobject.DateKey(tt.want), got)
		})
	}
}

func TestComputeEndAt_Invalid(t *testing.T) {
	_, err := ComputeEndAt("2025-01-01", "fortnight", 1)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))

	_, err = ComputeEndAt("2025-01-01", DurationMonth, 0)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))

	_, err = ComputeEndAt("", DurationMonth, 1)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))
}

// ==================== Construction ====================

func TestNewMembership_Status(t *testing.T) {
	assert.Equal(t, StatusActive, newTestMembership(t, "2025-01-01").Status)
	assert.Equal(t, StatusActive, newTestMembership(t, today).Status, "starting today is active")
	assert.Equal(t, StatusPending, newTestMembership(t, "2025-01-11").Status)
}

func TestMembership_IsActive(t *testing.T) {
	m := newTestMembership(t, "2025-01-11")
	assert.False(t, m.IsActive(), "future start")

	_, err := m.ChangeStatus(StatusActive, today, testNow)
	require.NoError(t, err)
	assert.True(t, m.IsActive())

	_, err = m.ChangeStatus(StatusPaused, today, testNow)
	require.NoError(t, err)
	assert.False(t, m.IsActive())
}

func TestNewMembership_Fields(t *testing.T) {
	m := newTestMembership(t, "2025-01-01")
	assert.Equal(t, valueobject.DateKey("2025-01-31"), m.EndAt)
	assert.Equal(t, today, m.StatusDateKey)
	assert.Equal(t, 1, m.Version)
}

// ==================== Status transitions ====================

func TestMembership_ChangeStatus_Terminal(t *testing.T) {
	for _, target := range []Status{StatusCanceled, StatusExpired} {
		t.Run(string(target), func(t *testing.T) {
			m := newTestMembership(t, "2025-01-05")
			m.EndAt = "2025-12-31"

			res, err := m.ChangeStatus(target, "2025-01-20", testNow)
			require.NoError(t, err)

			assert.True(t, res.Changed)
			assert.True(t, res.Terminated)
			assert.Equal(t, target, m.Status)
			assert.Equal(t, valueobject.DateKey("2025-01-20"), m.EndAt)
			assert.Equal(t, valueobject.DateKey("2025-01-20"), m.StatusDateKey)

			events := m.GetDomainEvents()
			require.Len(t, events, 2)
			terminated, ok := events[1].(*MembershipTerminatedEvent)
			require.True(t, ok)
			assert.Equal(t, m.ClientID, terminated.ClientID)
			assert.Equal(t, valueobject.DateKey("2025-01-20"), terminated.EffectiveDate)
		})
	}
}

func TestMembership_ChangeStatus_TerminalFromAnyState(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusActive, StatusPaused, StatusCanceled, StatusExpired} {
		m := newTestMembership(t, "2025-01-05")
		m.Status = from

		res, err := m.ChangeStatus(StatusCanceled, today, testNow)
		require.NoError(t, err, from)
		assert.True(t, res.Terminated)
		assert.Equal(t, today, m.EndAt)
	}
}

func TestMembership_ChangeStatus_NonTerminal(t *testing.T) {
	t.Run("pending to active", func(t *testing.T) {
		m := newTestMembership(t, "2025-02-01")
		res, err := m.ChangeStatus(StatusActive, today, testNow)
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.False(t, res.Terminated)
		assert.Equal(t, valueobject.DateKey("2025-02-28"), m.EndAt, "end date untouched")
	})

	t.Run("active to paused and back", func(t *testing.T) {
		m := newTestMembership(t, "2025-01-01")
		_, err := m.ChangeStatus(StatusPaused, today, testNow)
		require.NoError(t, err)
		assert.Equal(t, StatusPaused, m.Status)

		_, err = m.ChangeStatus(StatusActive, today, testNow)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, m.Status)
		assert.Equal(t, 3, m.Version)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		m := newTestMembership(t, "2025-01-01")
		res, err := m.ChangeStatus(StatusActive, today, testNow)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, 1, m.Version)
		assert.Empty(t, m.GetDomainEvents())
	})

	t.Run("invalid transitions", func(t *testing.T) {
		cases := []struct{ from, to Status }{
			{StatusPending, StatusPaused},
			{StatusCanceled, StatusActive},
			{StatusExpired, StatusPaused},
			{StatusCanceled, StatusPending},
		}
		for _, c := range cases {
			m := newTestMembership(t, "2025-01-01")
			m.Status = c.from
			_, err := m.ChangeStatus(c.to, today, testNow)
			assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "%s -> %s", c.from, c.to)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		m := newTestMembership(t, "2025-01-01")
		_, err := m.ChangeStatus("frozen", today, testNow)
		assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))
	})
}

// ==================== Suspensions and adjustments ====================

func TestMembership_Suspend(t *testing.T) {
	m := newTestMembership(t, "2025-01-01")

	s, err := m.Suspend("2025-01-15", 10, "travel", testNow)
	require.NoError(t, err)

	assert.Equal(t, valueobject.DateKey("2025-02-10"), m.EndAt)
	assert.Equal(t, 10, m.SuspensionDaysUsed)
	assert.Equal(t, valueobject.DateKey("2025-01-15"), s.StartDate)
	assert.Equal(t, valueobject.DateKey("2025-01-24"), s.EndDate)
	assert.Equal(t, valueobject.DateKey("2025-01-31"), s.PreviousEndAt)
	assert.Equal(t, m.EndAt, s.NewEndAt)
	assert.Equal(t, m.ID, s.MembershipID)

	_, err = m.Suspend("2025-03-01", 5, "late", testNow)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))

	_, err = m.Suspend("2025-01-15", 0, "none", testNow)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))

	_, err = m.ChangeStatus(StatusCanceled, today, testNow)
	require.NoError(t, err)
	_, err = m.Suspend("2025-01-10", 1, "after cancel", testNow)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
}

func TestMembership_AdjustEnd(t *testing.T) {
	m := newTestMembership(t, "2025-01-01")

	a, err := m.AdjustEnd(5, "courtesy", testNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DateKey("2025-02-05"), m.EndAt)
	assert.Equal(t, valueobject.DateKey("2025-01-31"), a.PreviousEndAt)
	assert.Equal(t, 5, a.Days)

	_, err = m.AdjustEnd(-10, "correction", testNow)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DateKey("2025-01-26"), m.EndAt)

	_, err = m.AdjustEnd(-60, "too much", testNow)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))

	_, err = m.AdjustEnd(0, "nothing", testNow)
	assert.Equal(t, shared.CodeInvalidArgument, shared.ErrorCode(err))
}

func TestMembership_LinkNext(t *testing.T) {
	m := newTestMembership(t, "2025-01-01")
	next := uuid.New()

	require.NoError(t, m.LinkNext(next, testNow))
	require.NotNil(t, m.NextMembershipID)
	assert.Equal(t, next, *m.NextMembershipID)
	assert.Error(t, m.LinkNext(m.ID, testNow))
}
