package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/interfaces/http/dto"
)

// RequireRole allows the request through only when the authenticated
// user holds one of the given roles. It must run after JWT auth.
func RequireRole(roles ...identity.UserRole) gin.HandlerFunc {
	allowed := make(map[identity.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := identity.UserRole(GetJWTRole(c))
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Your role does not allow this operation"))
			return
		}

		c.Next()
	}
}

// RequireBranchManagement is shorthand for the roles that may manage
// branches and invite users.
func RequireBranchManagement() gin.HandlerFunc {
	return RequireRole(identity.RoleSuperAdmin, identity.RoleBranchAdmin)
}
