package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/infrastructure/config"
)

// Ledger permissions carried in the permissions claim
const (
	PermissionSalesCreate      = "sales:create"
	PermissionSalesRead        = "sales:read"
	PermissionReceivablesPay   = "receivables:pay"
	PermissionReceivablesRead  = "receivables:read"
	PermissionMembershipsWrite = "memberships:write"
	PermissionMembershipsRead  = "memberships:read"
	PermissionLedgerAdmin      = "ledger:admin"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims is the access token payload issued by the identity service. Branch
// IDs restrict which branches the staff member may act in; an empty list
// grants every branch of the tenant.
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string   `json:"tenant_id"`
	UserID      string   `json:"user_id"`
	Username    string   `json:"username,omitempty"`
	BranchIDs   []string `json:"branch_ids,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// JWTService validates bearer tokens. Issue exists for tooling and tests;
// production tokens come from the identity service with the same secret.
type JWTService struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewJWTService creates a JWT service from configuration
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		leeway: cfg.Leeway,
		now:    time.Now,
	}
}

// IssueInput describes a token to sign
type IssueInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Username    string
	BranchIDs   []uuid.UUID
	Permissions []string
	TTL         time.Duration
}

// Issue signs an HS256 access token
func (s *JWTService) Issue(in IssueInput) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(in.TTL)

	branches := make([]string, len(in.BranchIDs))
	for i, id := range in.BranchIDs {
		branches[i] = id.String()
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   in.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:    in.TenantID.String(),
		UserID:      in.UserID.String(),
		Username:    in.Username,
		BranchIDs:   branches,
		Permissions: in.Permissions,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken checks signature, issuer and time claims and returns
// the parsed claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := uuid.Parse(claims.TenantID); err != nil {
		return nil, ErrMissingTenantID
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// TenantUUID parses the tenant claim
func (c *Claims) TenantUUID() uuid.UUID {
	id, _ := uuid.Parse(c.TenantID)
	return id
}

// UserUUID parses the user claim
func (c *Claims) UserUUID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}

// HasPermission reports whether the token grants permission. ledger:admin
// grants everything.
func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission) || slices.Contains(c.Permissions, PermissionLedgerAdmin)
}

// CanAccessBranch reports whether the token may act in branchID
func (c *Claims) CanAccessBranch(branchID uuid.UUID) bool {
	return len(c.BranchIDs) == 0 || slices.Contains(c.BranchIDs, branchID.String())
}
