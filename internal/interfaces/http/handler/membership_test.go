package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/membership"
	"github.com/gymdesk/backend/internal/domain/shared/valueobject"
	"github.com/gymdesk/backend/internal/interfaces/http/dto"
	"github.com/gymdesk/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipHandler_CancelDeactivatesEnrollments(t *testing.T) {
	env := newHandlerEnv(t)
	created := env.createSale(t, env.membershipSale(10000, 10000, "2025-01-01"))
	membershipID := *created.MembershipID
	env.SeedEnrollment(t, env.tenantID, env.client.ID, time.Monday, "2025-01-02")
	env.SeedEnrollment(t, env.tenantID, env.client.ID, time.Thursday, "2025-01-02")

	w := env.do(t, http.MethodPut, env.membershipPath(membershipID, "/status"),
		UpdateMembershipStatusRequest{Status: "canceled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := testutil.DecodeData[UpdateMembershipStatusResponse](t, w)
	assert.True(t, result.Changed)
	assert.Equal(t, "active", result.From)
	assert.Equal(t, "canceled", result.To)
	assert.Equal(t, "2025-01-10", result.EndAt)
	assert.Empty(t, result.CascadeError)

	active, err := env.Enrollments.FindActiveByClient(context.Background(), env.tenantID, env.client.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	c := env.ReloadClient(t, env.tenantID, env.client.ID)
	assert.Nil(t, c.ActiveMembershipID)

	pending, err := env.OutboxRepo.FindPending(context.Background(), 100)
	require.NoError(t, err)
	terminated := 0
	for _, e := range pending {
		if e.EventType == membership.EventTypeMembershipTerminated {
			terminated++
			assert.Equal(t, membershipID, e.AggregateID.String())
		}
	}
	assert.Equal(t, 1, terminated)

	// terminal statuses are accepted from a terminal state
	w = env.do(t, http.MethodPut, env.membershipPath(membershipID, "/status"),
		UpdateMembershipStatusRequest{Status: "expired"})
	require.Equal(t, http.StatusOK, w.Code)
	again := testutil.DecodeData[UpdateMembershipStatusResponse](t, w)
	assert.Equal(t, "canceled", again.From)
	assert.Equal(t, "expired", again.To)
}

func TestMembershipHandler_UpdateStatus_Rejected(t *testing.T) {
	env := newHandlerEnv(t)
	created := env.createSale(t, env.membershipSale(10000, 10000, "2025-01-01"))
	headers := map[string]string{"X-Tenant-ID": env.tenantID.String()}

	testutil.RunHTTPTestCases(t, env.engine, []testutil.HTTPTestCase{
		{
			Name:           "unknown status",
			Method:         http.MethodPut,
			Path:           env.membershipPath(*created.MembershipID, "/status"),
			Body:           UpdateMembershipStatusRequest{Status: "frozen"},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
		},
		{
			Name:           "membership of another client",
			Method:         http.MethodPut,
			Path:           "/api/v1/clients/" + uuid.NewString() + "/memberships/" + *created.MembershipID + "/status",
			Body:           UpdateMembershipStatusRequest{Status: "paused"},
			Headers:        headers,
			ExpectedStatus: http.StatusNotFound,
			ExpectedCode:   dto.ErrCodeNotFound,
		},
		{
			Name:           "bad client id",
			Method:         http.MethodPut,
			Path:           "/api/v1/clients/nope/memberships/" + *created.MembershipID + "/status",
			Body:           UpdateMembershipStatusRequest{Status: "paused"},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeBadRequest,
		},
	})
}

func TestMembershipHandler_SuspendAndAdjust(t *testing.T) {
	env := newHandlerEnv(t)
	created := env.createSale(t, env.membershipSale(10000, 10000, "2025-01-01"))
	membershipID := *created.MembershipID

	w := env.do(t, http.MethodPost, env.membershipPath(membershipID, "/suspensions"), SuspendMembershipRequest{
		StartDate: "2025-01-15",
		Days:      10,
		Reason:    "travel",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	suspension := testutil.DecodeData[SuspensionResponse](t, w)
	assert.Equal(t, "2025-01-24", suspension.EndDate)
	assert.Equal(t, "2025-01-31", suspension.PreviousEndAt)
	assert.Equal(t, "2025-02-10", suspension.NewEndAt)

	w = env.do(t, http.MethodPost, env.membershipPath(membershipID, "/adjustments"), AdjustMembershipRequest{
		Days:   -5,
		Reason: "courtesy removed",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	adjustment := testutil.DecodeData[AdjustmentResponse](t, w)
	assert.Equal(t, "2025-02-10", adjustment.PreviousEndAt)
	assert.Equal(t, "2025-02-05", adjustment.NewEndAt)

	w = env.do(t, http.MethodGet, "/api/v1/memberships/"+membershipID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	m := testutil.DecodeData[MembershipResponse](t, w)
	assert.Equal(t, "2025-02-05", m.EndAt)
	assert.Equal(t, 10, m.SuspensionDaysUsed)
	assert.Equal(t, "active", m.Status)
	require.NotNil(t, m.SaleID)
	assert.Equal(t, created.SaleID, *m.SaleID)
	require.Len(t, m.Suspensions, 1)
	assert.Equal(t, "travel", m.Suspensions[0].Reason)
	require.Len(t, m.Adjustments, 1)
	assert.Equal(t, -5, m.Adjustments[0].Days)
}

func TestMembershipHandler_SuspendAndAdjust_Rejected(t *testing.T) {
	env := newHandlerEnv(t)
	created := env.createSale(t, env.membershipSale(10000, 10000, "2025-01-01"))
	headers := map[string]string{"X-Tenant-ID": env.tenantID.String()}

	testutil.RunHTTPTestCases(t, env.engine, []testutil.HTTPTestCase{
		{
			Name:           "zero suspension days",
			Method:         http.MethodPost,
			Path:           env.membershipPath(*created.MembershipID, "/suspensions"),
			Body:           SuspendMembershipRequest{StartDate: "2025-01-15"},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
		},
		{
			Name:           "invalid suspension start",
			Method:         http.MethodPost,
			Path:           env.membershipPath(*created.MembershipID, "/suspensions"),
			Body:           SuspendMembershipRequest{StartDate: "15/01/2025", Days: 3},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
		},
		{
			Name:           "zero adjustment",
			Method:         http.MethodPost,
			Path:           env.membershipPath(*created.MembershipID, "/adjustments"),
			Body:           AdjustMembershipRequest{},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
		},
		{
			Name:           "shortening before the start",
			Method:         http.MethodPost,
			Path:           env.membershipPath(*created.MembershipID, "/adjustments"),
			Body:           AdjustMembershipRequest{Days: -60},
			Headers:        headers,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeInvalidInput,
		},
	})

	w := env.do(t, http.MethodGet, "/api/v1/memberships/"+*created.MembershipID, nil)
	m := testutil.DecodeData[MembershipResponse](t, w)
	assert.Equal(t, "2025-01-31", m.EndAt)
	assert.Empty(t, m.Adjustments)
	assert.Empty(t, m.Suspensions)
}

func TestMembershipHandler_GetMembership_NotFound(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/memberships/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMembershipHandler_BranchRestrictedWrites(t *testing.T) {
	env := newHandlerEnv(t)
	created := env.createSale(t, env.membershipSale(10000, 10000, "2025-01-01"))

	env.restrictTo(uuid.New())
	w := env.do(t, http.MethodPost, env.membershipPath(*created.MembershipID, "/adjustments"), AdjustMembershipRequest{Days: 3})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/memberships/"+*created.MembershipID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.restrictTo(env.branchID)
	w = env.do(t, http.MethodPost, env.membershipPath(*created.MembershipID, "/adjustments"), AdjustMembershipRequest{Days: 3})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestMembershipHandler_ListEnding(t *testing.T) {
	env := newHandlerEnv(t)
	seed := func(branchID uuid.UUID, end string) uuid.UUID {
		m, err := membership.NewMembership(membership.NewMembershipParams{
			TenantID:     env.tenantID,
			ClientID:     env.client.ID,
			BranchID:     branchID,
			PlanName:     "Monthly",
			StartAt:      "2024-12-01",
			DurationType: membership.DurationDay,
			Duration:     1,
		}, testutil.Today, testutil.Now)
		require.NoError(t, err)
		m.EndAt = valueobject.MustParseDateKey(end)
		require.NoError(t, env.MembershipRepo.Create(context.Background(), m))
		return m.ID
	}
	first := seed(env.branchID, "2025-01-01")
	last := seed(env.branchID, "2025-01-31")
	middle := seed(env.branchID, "2025-01-15")
	seed(env.branchID, "2025-02-01")
	seed(uuid.New(), "2025-01-15")

	base := "/api/v1/branches/" + env.branchID.String() + "/memberships/ending"
	w := env.do(t, http.MethodGet, base+"?start=2025-01-01&end=2025-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := testutil.DecodeData[[]MembershipResponse](t, w)
	require.Len(t, got, 3)
	assert.Equal(t, []string{first.String(), middle.String(), last.String()}, []string{got[0].ID, got[1].ID, got[2].ID})

	headers := map[string]string{"X-Tenant-ID": env.tenantID.String()}
	testutil.RunHTTPTestCases(t, env.engine, []testutil.HTTPTestCase{
		{Name: "missing end", Path: base + "?start=2025-01-01", Headers: headers, ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeValidation},
		{Name: "impossible date", Path: base + "?start=2025-02-30&end=2025-03-01", Headers: headers, ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeInvalidInput},
		{Name: "start after end", Path: base + "?start=2025-02-01&end=2025-01-01", Headers: headers, ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeInvalidInput},
		{Name: "bad branch", Path: "/api/v1/branches/nope/memberships/ending?start=2025-01-01&end=2025-01-31", Headers: headers, ExpectedStatus: http.StatusBadRequest},
		{
			Name:           "empty range",
			Path:           base + "?start=2026-01-01&end=2026-01-31",
			Headers:        headers,
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Empty(t, testutil.DecodeData[[]MembershipResponse](t, w))
			},
		},
	})
}
