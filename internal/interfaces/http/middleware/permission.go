package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gymdesk/backend/internal/interfaces/http/dto"
)

// RequirePermission rejects requests whose token lacks permission. It is a
// no-op when the request carries no claims, which only happens when JWT is
// disabled.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims != nil && !claims.HasPermission(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Missing permission "+permission, GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// CanAccessBranch reports whether the caller may act in branchID
func CanAccessBranch(c *gin.Context, branchID uuid.UUID) bool {
	claims := GetJWTClaims(c)
	return claims == nil || claims.CanAccessBranch(branchID)
}

// RequireBranchParam rejects branch-scoped tokens whose branches do not
// include the branch named by the param path parameter. A malformed ID is
// left for the handler to report.
func RequireBranchParam(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		branchID, err := uuid.Parse(c.Param(param))
		if err == nil && !CanAccessBranch(c, branchID) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "No access to this branch", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user, if any
func CurrentUserID(c *gin.Context) *uuid.UUID {
	claims := GetJWTClaims(c)
	if claims == nil {
		return nil
	}
	id := claims.UserUUID()
	return &id
}
