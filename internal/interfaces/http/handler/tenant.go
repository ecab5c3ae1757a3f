package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/pharmos/backend/internal/application/identity"
)

// TenantHandler exposes the public tenant directory
type TenantHandler struct {
	BaseHandler
	tenantService *identity.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *identity.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// RegisterRoutes registers tenant routes
func (h *TenantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tenants/by-slug/:slug", h.ResolveBySlug)
}

// ResolveBySlug resolves an organization by slug for the login page.
// It is unauthenticated and returns only directory-level fields.
func (h *TenantHandler) ResolveBySlug(c *gin.Context) {
	tenant, err := h.tenantService.ResolveBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tenant)
}
