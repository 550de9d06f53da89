package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/infrastructure/auth"
	"github.com/gymdesk/backend/internal/infrastructure/config"
	"github.com/gymdesk/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Enabled: true,
		Secret:  testSecret,
		Issuer:  "gymdesk-identity",
		Leeway:  time.Second,
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, tenantID uuid.UUID, permissions []string, branches ...uuid.UUID) string {
	t.Helper()
	token, _, err := svc.Issue(auth.IssueInput{
		TenantID:    tenantID,
		UserID:      uuid.New(),
		Username:    "front-desk",
		BranchIDs:   branches,
		Permissions: permissions,
		TTL:         time.Hour,
	})
	require.NoError(t, err)
	return token
}

func perform(r http.Handler, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse("ok"))
}
