package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	branchapp "github.com/pharmos/backend/internal/application/branch"
	"github.com/pharmos/backend/internal/interfaces/http/middleware"
)

// CreateBranchRequest represents the request body for creating a branch
type CreateBranchRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=120"`
	Code    string `json:"code" binding:"required,min=2,max=16"`
	Address string `json:"address" binding:"omitempty,max=255"`
	Phone   string `json:"phone" binding:"omitempty,max=32"`
}

// BulkAssignRequest assigns one manager to a list of branches
type BulkAssignRequest struct {
	BranchIDs []string `json:"branch_ids" binding:"required,min=1,dive,uuid"`
	ManagerID string   `json:"manager_id" binding:"required,uuid"`
}

// BranchHandler handles branch management requests
type BranchHandler struct {
	BaseHandler
	branchService *branchapp.BranchService
	bulkService   *branchapp.BulkAssignService
	authMW        gin.HandlerFunc
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(
	branchService *branchapp.BranchService,
	bulkService *branchapp.BulkAssignService,
	authMW gin.HandlerFunc,
) *BranchHandler {
	return &BranchHandler{
		branchService: branchService,
		bulkService:   bulkService,
		authMW:        authMW,
	}
}

// RegisterRoutes registers branch routes
func (h *BranchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	branches := rg.Group("/branches")
	branches.Use(h.authMW)

	branches.GET("", h.List)
	branches.GET("/:id", h.Get)
	branches.POST("", middleware.RequireBranchManagement(), h.Create)
	branches.POST("/bulk-assign-manager", middleware.RequireBranchManagement(), h.BulkAssignManager)
}

// Create creates a branch in the caller's organization
func (h *BranchHandler) Create(c *gin.Context) {
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.branchService.Create(c.Request.Context(), tenantID, branchapp.CreateBranchInput{
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns one branch of the caller's organization
func (h *BranchHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	result, err := h.branchService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns all branches of the caller's organization
func (h *BranchHandler) List(c *gin.Context) {
	result, err := h.branchService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// BulkAssignManager assigns one manager to a batch of branches
func (h *BranchHandler) BulkAssignManager(c *gin.Context) {
	var req BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	managerID, err := uuid.Parse(req.ManagerID)
	if err != nil {
		h.BadRequest(c, "Invalid manager ID")
		return
	}
	branchIDs := make([]uuid.UUID, 0, len(req.BranchIDs))
	for _, raw := range req.BranchIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID in branch_ids")
			return
		}
		branchIDs = append(branchIDs, id)
	}

	result, err := h.bulkService.AssignManager(c.Request.Context(), managerID, branchIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
