package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-characters"

func newTestJWTService(at time.Time) *JWTService {
	s := NewJWTService(config.JWTConfig{
		Enabled: true,
		Secret:  testSecret,
		Issuer:  "gymdesk",
		Leeway:  30 * time.Second,
	})
	s.now = func() time.Time { return at }
	return s
}

func issue(t *testing.T, s *JWTService, in IssueInput) string {
	t.Helper()
	if in.TenantID == uuid.Nil {
		in.TenantID = uuid.New()
	}
	if in.UserID == uuid.Nil {
		in.UserID = uuid.New()
	}
	if in.TTL == 0 {
		in.TTL = 15 * time.Minute
	}
	token, _, err := s.Issue(in)
	require.NoError(t, err)
	return token
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	s := newTestJWTService(now)
	tenantID, userID, branchID := uuid.New(), uuid.New(), uuid.New()

	token, expiresAt, err := s.Issue(IssueInput{
		TenantID:    tenantID,
		UserID:      userID,
		Username:    "front.desk",
		BranchIDs:   []uuid.UUID{branchID},
		Permissions: []string{PermissionSalesCreate},
		TTL:         time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := s.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, tenantID, claims.TenantUUID())
	assert.Equal(t, userID, claims.UserUUID())
	assert.Equal(t, "front.desk", claims.Username)
	assert.True(t, claims.HasPermission(PermissionSalesCreate))
	assert.False(t, claims.HasPermission(PermissionReceivablesPay))
	assert.True(t, claims.CanAccessBranch(branchID))
	assert.False(t, claims.CanAccessBranch(uuid.New()))
}

func TestJWTService_TimeClaims(t *testing.T) {
	issuedAt := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	token := issue(t, newTestJWTService(issuedAt), IssueInput{TTL: 15 * time.Minute})

	_, err := newTestJWTService(issuedAt.Add(15*time.Minute + 10*time.Second)).ValidateAccessToken(token)
	assert.NoError(t, err, "inside the leeway")

	_, err = newTestJWTService(issuedAt.Add(time.Hour)).ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = newTestJWTService(issuedAt.Add(-time.Hour)).ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestJWTService_RejectsForeignTokens(t *testing.T) {
	now := time.Now()
	s := newTestJWTService(now)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-another-secret-123", Issuer: "gymdesk"})
	_, err := s.ValidateAccessToken(issue(t, other, IssueInput{}))
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong signature")

	wrongIssuer := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
	_, err = s.ValidateAccessToken(issue(t, wrongIssuer, IssueInput{}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{TenantID: uuid.NewString(), UserID: uuid.NewString()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ValidateAccessToken(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RequiresIdentityClaims(t *testing.T) {
	now := time.Now()
	s := newTestJWTService(now)
	sign := func(c *Claims) string {
		c.Issuer = "gymdesk"
		c.ExpiresAt = jwt.NewNumericDate(now.Add(time.Minute))
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	_, err := s.ValidateAccessToken(sign(&Claims{UserID: uuid.NewString()}))
	assert.ErrorIs(t, err, ErrMissingTenantID)

	_, err = s.ValidateAccessToken(sign(&Claims{TenantID: uuid.NewString(), UserID: "admin"}))
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestClaims_Permissions(t *testing.T) {
	admin := &Claims{Permissions: []string{PermissionLedgerAdmin}}
	assert.True(t, admin.HasPermission(PermissionReceivablesPay))
	assert.True(t, admin.HasPermission(PermissionMembershipsWrite))

	none := &Claims{}
	assert.False(t, none.HasPermission(PermissionSalesRead))
	assert.True(t, none.CanAccessBranch(uuid.New()), "no branch list grants the whole tenant")
}
