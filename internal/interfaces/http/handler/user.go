package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/pharmos/backend/internal/application/identity"
	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/interfaces/http/middleware"
)

// UserHandler handles user management requests
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
	authMW      gin.HandlerFunc
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identityapp.UserService, authMW gin.HandlerFunc) *UserHandler {
	return &UserHandler{
		userService: userService,
		authMW:      authMW,
	}
}

// RegisterRoutes registers user routes
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(h.authMW)

	users.POST("/invite", middleware.RequireBranchManagement(), h.Invite)
}

// Invite creates an invited user in the caller's organization
func (h *UserHandler) Invite(c *gin.Context) {
	var req InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var branchID *uuid.UUID
	if req.BranchID != nil {
		id, err := uuid.Parse(*req.BranchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID")
			return
		}
		branchID = &id
	}

	result, err := h.userService.Invite(c.Request.Context(), tenantID, identityapp.InviteUserInput{
		Email:    req.Email,
		Role:     identity.UserRole(req.Role),
		BranchID: branchID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
