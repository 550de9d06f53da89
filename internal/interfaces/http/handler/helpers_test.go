package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/domain/client"
	"github.com/gymdesk/backend/internal/infrastructure/auth"
	"github.com/gymdesk/backend/internal/interfaces/http/middleware"
	"github.com/gymdesk/backend/internal/testutil"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// handlerEnv mounts every ledger handler behind the tenant middleware over
// real services and an in-memory database
type handlerEnv struct {
	*testutil.Ledger
	engine   *gin.Engine
	tenantID uuid.UUID
	branchID uuid.UUID
	client   *client.Client
	// claims, when set, are injected as if the JWT middleware had run
	claims *auth.Claims
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	env := &handlerEnv{
		Ledger:   testutil.NewLedger(t),
		tenantID: uuid.New(),
		branchID: uuid.New(),
	}
	env.client = env.SeedClient(t, env.tenantID, env.branchID, "Bruna")

	sale := NewSaleHandler(env.Sales, env.Receivables)
	receivable := NewReceivableHandler(env.Receivables, env.Payments)
	membership := NewMembershipHandler(env.Memberships)
	debt := NewClientDebtHandler(env.Reconciliation)
	outbox := NewOutboxHandler(env.Outbox)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(func(c *gin.Context) {
		if env.claims != nil {
			c.Set(middleware.JWTClaimsKey, env.claims)
		}
		c.Next()
	})
	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.HeaderEnabled = true
	r.Use(middleware.TenantMiddleware(tenantCfg))

	api := r.Group("/api/v1")
	api.POST("/sales", sale.CreateSale)
	api.GET("/sales/:id", sale.GetSale)
	api.GET("/sales/:id/receivables", sale.ListSaleReceivables)
	api.POST("/receivables/overdue-sweep", receivable.MarkOverdue)
	api.GET("/receivables/:id", receivable.GetReceivable)
	api.POST("/receivables/:id/payments", receivable.ApplyPayment)
	api.PUT("/clients/:client_id/memberships/:id/status", membership.UpdateStatus)
	api.POST("/clients/:client_id/memberships/:id/suspensions", membership.Suspend)
	api.POST("/clients/:client_id/memberships/:id/adjustments", membership.Adjust)
	api.POST("/clients/:client_id/debt/reconcile", debt.Reconcile)
	api.GET("/memberships/:id", membership.GetMembership)
	api.GET("/branches/:branch_id/memberships/ending", membership.ListEnding)
	api.GET("/system/outbox/dead", outbox.GetDeadLetterEntries)
	api.GET("/system/outbox/stats", outbox.GetStats)
	api.POST("/system/outbox/dead/retry-all", outbox.RetryAllDeadEntries)
	api.GET("/system/outbox/:id", outbox.GetEntry)
	api.POST("/system/outbox/:id/retry", outbox.RetryDeadEntry)
	env.engine = r
	return env
}

// do sends a request for the env's tenant
func (e *handlerEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Perform(t, e.engine, method, path, body, map[string]string{
		middleware.TenantHeaderKey: e.tenantID.String(),
	})
}

// restrictTo makes every following request carry claims limited to branches
func (e *handlerEnv) restrictTo(branches ...uuid.UUID) {
	ids := make([]string, len(branches))
	for i, b := range branches {
		ids[i] = b.String()
	}
	e.claims = &auth.Claims{
		TenantID:    e.tenantID.String(),
		UserID:      uuid.NewString(),
		BranchIDs:   ids,
		Permissions: []string{auth.PermissionLedgerAdmin},
	}
}

// membershipSale is a one-month membership sold on 2025-01-10 with paid
// taken in cash and the rest left as a manual receivable
func (e *handlerEnv) membershipSale(price, paid int64, startAt string) CreateSaleRequest {
	req := CreateSaleRequest{
		BranchID: e.branchID.String(),
		ClientID: e.client.ID.String(),
		SaleDate: "2025-01-10",
		Items: []SaleItemRequest{{
			Type:           "membership",
			Description:    "Monthly plan",
			Quantity:       1,
			UnitPriceCents: price,
		}},
		Membership: &SaleMembershipRequest{
			StartAt:      startAt,
			DurationType: "month",
			Duration:     1,
		},
	}
	if paid > 0 {
		req.Payments = []SalePaymentRequest{{Method: "cash", AmountCents: paid}}
	}
	return req
}

// createSale posts req and returns the created sale
func (e *handlerEnv) createSale(t *testing.T, req CreateSaleRequest) CreateSaleResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/sales", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[CreateSaleResponse](t, w)
}

func (e *handlerEnv) membershipPath(membershipID, suffix string) string {
	return "/api/v1/clients/" + e.client.ID.String() + "/memberships/" + membershipID + suffix
}
