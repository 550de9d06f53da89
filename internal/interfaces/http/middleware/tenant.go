package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/infrastructure/logger"
	"github.com/gymdesk/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// HeaderEnabled accepts X-Tenant-ID when no JWT claims are present.
	// Only for deployments running without JWT.
	HeaderEnabled bool
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths        []string
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled:    false,
		SkipPaths:        []string{"/health", "/ready", "/metrics", "/api/v1/health"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// TenantMiddleware resolves the tenant every ledger call is scoped to.
// JWT claims win over the header; a request without a tenant is rejected.
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipPath(c.Request.URL.Path, cfg.SkipPaths, cfg.SkipPathPrefixes) {
			c.Next()
			return
		}

		var (
			tenantID uuid.UUID
			source   string
		)
		if claims := GetJWTClaims(c); claims != nil {
			tenantID, source = claims.TenantUUID(), "jwt"
		} else if cfg.HeaderEnabled {
			header := c.GetHeader(TenantHeaderKey)
			if header != "" {
				parsed, err := uuid.Parse(header)
				if err != nil {
					respondUnauthorized(c, "Invalid tenant ID format")
					return
				}
				tenantID, source = parsed, "header"
			}
		}

		if tenantID == uuid.Nil {
			respondUnauthorized(c, "Tenant identification required")
			return
		}

		c.Set(TenantIDKey, tenantID)
		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), tenantID.String())
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("tenant identified",
				zap.String("tenant_id", tenantID.String()),
				zap.String("method", source),
			)
		}
		c.Next()
	}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}

// GetTenantID retrieves the tenant resolved by TenantMiddleware
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(TenantIDKey); exists {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}
