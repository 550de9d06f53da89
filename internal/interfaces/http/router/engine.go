package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymdesk/backend/internal/infrastructure/auth"
	"github.com/gymdesk/backend/internal/infrastructure/config"
	"github.com/gymdesk/backend/internal/infrastructure/logger"
	"github.com/gymdesk/backend/internal/interfaces/http/handler"
	"github.com/gymdesk/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Sale       *handler.SaleHandler
	Receivable *handler.ReceivableHandler
	Membership *handler.MembershipHandler
	ClientDebt *handler.ClientDebtHandler
	Outbox     *handler.OutboxHandler
	System     *handler.SystemHandler
}

// EngineDeps is everything NewEngine wires together
type EngineDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Handlers Handlers
	// JWT is nil when authentication is disabled; the tenant then comes
	// from the X-Tenant-ID header.
	JWT *auth.JWTService
	// Metrics is nil when Prometheus metrics are disabled
	Metrics *middleware.HTTPMetrics
}

// NewEngine builds the gin engine: global middleware, health checks, docs, metrics
// and the authenticated /api/v1 ledger routes.
func NewEngine(deps EngineDeps) (*gin.Engine, error) {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	if deps.Metrics != nil {
		engine.Use(deps.Metrics.Middleware())
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader, middleware.TenantHeaderKey},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := deps.Handlers
	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
	if deps.JWT != nil {
		jwtConfig := middleware.DefaultJWTConfig(deps.JWT)
		jwtConfig.SkipPaths = append(jwtConfig.SkipPaths, "/api/v1/system/ping")
		jwtConfig.Logger = log
		r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	}
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.HeaderEnabled = deps.JWT == nil
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths, "/api/v1/system/ping", "/api/v1/system/info")
	tenantConfig.Logger = log
	r.Use(middleware.TenantMiddleware(tenantConfig))
	r.Use(middleware.TracingAttributes())
	if cfg.HTTP.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)))
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	r.Mount(ledgerResources(h)...)
	if err := r.Setup(); err != nil {
		return nil, err
	}
	log.Debug("Ledger routes mounted", zap.Int("routes", len(r.Routes())))

	return engine, nil
}

// ledgerResources declares every /api/v1 route. Reads inherit the resource
// permission; writes name the stronger one they need.
func ledgerResources(h Handlers) []*Resource {
	sales := NewResource("sales", "/sales", auth.PermissionSalesRead)
	sales.HandleWith(http.MethodPost, "", auth.PermissionSalesCreate, h.Sale.CreateSale)
	sales.Handle(http.MethodGet, "/:id", h.Sale.GetSale)
	sales.HandleWith(http.MethodGet, "/:id/receivables", auth.PermissionReceivablesRead, h.Sale.ListSaleReceivables)

	receivables := NewResource("receivables", "/receivables", auth.PermissionReceivablesRead)
	receivables.HandleWith(http.MethodPost, "/overdue-sweep", auth.PermissionLedgerAdmin, h.Receivable.MarkOverdue)
	receivables.Handle(http.MethodGet, "/:id", h.Receivable.GetReceivable)
	receivables.HandleWith(http.MethodPost, "/:id/payments", auth.PermissionReceivablesPay, h.Receivable.ApplyPayment)

	clients := NewResource("clients", "/clients/:client_id", "")
	clientMemberships := clients.Child("client-memberships", "/memberships/:id", auth.PermissionMembershipsWrite)
	clientMemberships.Handle(http.MethodPut, "/status", h.Membership.UpdateStatus)
	clientMemberships.Handle(http.MethodPost, "/suspensions", h.Membership.Suspend)
	clientMemberships.Handle(http.MethodPost, "/adjustments", h.Membership.Adjust)
	clients.HandleWith(http.MethodPost, "/debt/reconcile", auth.PermissionLedgerAdmin, h.ClientDebt.Reconcile)

	memberships := NewResource("memberships", "/memberships", auth.PermissionMembershipsRead)
	memberships.Handle(http.MethodGet, "/:id", h.Membership.GetMembership)

	branches := NewResource("branches", "/branches/:branch_id", auth.PermissionMembershipsRead)
	branches.Add(Route{
		Method:      http.MethodGet,
		Path:        "/memberships/ending",
		BranchParam: "branch_id",
		Handler:     h.Membership.ListEnding,
	})

	system := NewResource("system", "/system", PublicRoute)
	system.Handle(http.MethodGet, "/info", h.System.GetSystemInfo)
	system.Handle(http.MethodGet, "/ping", h.System.Ping)
	outbox := system.Child("outbox", "/outbox", auth.PermissionLedgerAdmin)
	outbox.Handle(http.MethodGet, "/dead", h.Outbox.GetDeadLetterEntries)
	outbox.Handle(http.MethodPost, "/dead/retry-all", h.Outbox.RetryAllDeadEntries)
	outbox.Handle(http.MethodGet, "/stats", h.Outbox.GetStats)
	outbox.Handle(http.MethodGet, "/:id", h.Outbox.GetEntry)
	outbox.Handle(http.MethodPost, "/:id/retry", h.Outbox.RetryDeadEntry)

	return []*Resource{sales, receivables, clients, memberships, branches, system}
}
