package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmos/backend/internal/application/identity"
	"github.com/pharmos/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles registration, login, token refresh and logout
type AuthHandler struct {
	BaseHandler
	authService   *identity.AuthService
	googleService *identity.GoogleService
	authMW        gin.HandlerFunc
	loginLimiter  *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler. authMW protects the
// session endpoints; loginLimiter throttles the credential endpoints
// and may be nil.
func NewAuthHandler(
	authService *identity.AuthService,
	googleService *identity.GoogleService,
	authMW gin.HandlerFunc,
	loginLimiter *middleware.RateLimiter,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		googleService: googleService,
		authMW:        authMW,
		loginLimiter:  loginLimiter,
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	public := rg.Group("/auth")
	if h.loginLimiter != nil {
		public.Use(middleware.RateLimit(h.loginLimiter))
	}
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/refresh", h.Refresh)
	public.POST("/google", h.GoogleAuth)

	protected := rg.Group("/auth")
	protected.Use(h.authMW)
	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)
}

// Register creates a new organization and signs in its first admin
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		OrganizationName: req.OrganizationName,
		Email:            req.Email,
		Password:         req.Password,
		Country:          req.Country,
		Currency:         req.Currency,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Login authenticates a user against a specific organization
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		TenantSlug: req.TenantSlug,
		Email:      req.Email,
		Password:   req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Refresh exchanges a refresh token for a fresh token pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), identity.RefreshInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GoogleAuth signs a Google identity in, creating a new organization
// when is_new_org is set.
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	if req.IsNewOrg && req.OrganizationName == "" {
		h.BadRequest(c, "organization_name is required when creating an organization")
		return
	}

	result, err := h.googleService.Authenticate(c.Request.Context(), identity.GoogleAuthInput{
		IsNewOrg:         req.IsNewOrg,
		OrganizationName: req.OrganizationName,
		TenantSlug:       req.TenantSlug,
		IDToken:          req.IDToken,
		Code:             req.Code,
		Country:          req.Country,
		Currency:         req.Currency,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if req.IsNewOrg {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// Logout revokes the presented access token and clears the session
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var jti string
	var expiresAt time.Time
	if claims := middleware.GetJWTClaims(c); claims != nil {
		jti = claims.ID
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}

	if err := h.authService.Logout(c.Request.Context(), userID, jti, expiresAt); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}
