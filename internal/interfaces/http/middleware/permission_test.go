package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/infrastructure/auth"
	"github.com/gymdesk/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestRequirePermission(t *testing.T) {
	svc := newTestJWTService()
	r := gin.New()
	r.Use(JWTAuthMiddleware(svc))
	r.POST("/api/v1/receivables/:id/payments", RequirePermission(auth.PermissionReceivablesPay), okHandler)

	tests := []struct {
		name        string
		permissions []string
		want        int
	}{
		{"granted", []string{auth.PermissionReceivablesPay}, http.StatusOK},
		{"admin", []string{auth.PermissionLedgerAdmin}, http.StatusOK},
		{"read only", []string{auth.PermissionReceivablesRead}, http.StatusForbidden},
		{"none", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := issueToken(t, svc, uuid.New(), tt.permissions)
			w := perform(r, http.MethodPost, "/api/v1/receivables/"+uuid.NewString()+"/payments", nil, map[string]string{
				AuthHeaderKey: BearerPrefix + token,
			})
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
			}
		})
	}
}

func TestRequirePermission_WithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/api/v1/sales/:id", RequirePermission(auth.PermissionSalesRead), okHandler)

	w := perform(r, http.MethodGet, "/api/v1/sales/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCanAccessBranch(t *testing.T) {
	svc := newTestJWTService()
	allowed, denied := uuid.New(), uuid.New()

	r := gin.New()
	r.Use(JWTAuthMiddleware(svc))
	r.GET("/api/v1/branches/:branch", func(c *gin.Context) {
		if !CanAccessBranch(c, uuid.MustParse(c.Param("branch"))) {
			c.Status(http.StatusForbidden)
			return
		}
		c.Status(http.StatusOK)
	})

	token := issueToken(t, svc, uuid.New(), nil, allowed)
	headers := map[string]string{AuthHeaderKey: BearerPrefix + token}
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/api/v1/branches/"+allowed.String(), nil, headers).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/api/v1/branches/"+denied.String(), nil, headers).Code)

	unrestricted := issueToken(t, svc, uuid.New(), nil)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/api/v1/branches/"+denied.String(), nil,
		map[string]string{AuthHeaderKey: BearerPrefix + unrestricted}).Code)
}

func TestRequireBranchParam(t *testing.T) {
	svc := newTestJWTService()
	allowed, denied := uuid.New(), uuid.New()

	r := gin.New()
	r.Use(JWTAuthMiddleware(svc))
	r.GET("/api/v1/branches/:branch_id/memberships/ending", RequireBranchParam("branch_id"), okHandler)

	restricted := map[string]string{AuthHeaderKey: BearerPrefix + issueToken(t, svc, uuid.New(), nil, allowed)}
	unrestricted := map[string]string{AuthHeaderKey: BearerPrefix + issueToken(t, svc, uuid.New(), nil)}

	tests := []struct {
		name    string
		branch  string
		headers map[string]string
		want    int
	}{
		{"own branch", allowed.String(), restricted, http.StatusOK},
		{"other branch", denied.String(), restricted, http.StatusForbidden},
		{"unrestricted token", denied.String(), unrestricted, http.StatusOK},
		{"malformed id left to the handler", "nope", restricted, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, "/api/v1/branches/"+tt.branch+"/memberships/ending", nil, tt.headers)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
			}
		})
	}
}
