package handler

// =====================
// Auth Request DTOs
// =====================

// RegisterRequest creates a new organization with its first administrator
type RegisterRequest struct {
	OrganizationName string `json:"organization_name" binding:"required,min=2,max=120"`
	Email            string `json:"email" binding:"required,email,max=254"`
	Password         string `json:"password" binding:"required,min=8,max=128"`
	Country          string `json:"country" binding:"omitempty,len=2"`
	Currency         string `json:"currency" binding:"omitempty,len=3"`
}

// LoginRequest represents the request body for password login. The
// slug is optional: without it the account's own organization is used.
type LoginRequest struct {
	TenantSlug string `json:"tenant_slug" binding:"omitempty,slug"`
	Email      string `json:"email" binding:"required,email,max=254"`
	Password   string `json:"password" binding:"required,min=8,max=128"`
}

// GoogleAuthRequest signs in with a Google credential (id_token or
// code). is_new_org selects between creating an organization and
// joining an existing one.
type GoogleAuthRequest struct {
	IsNewOrg         bool   `json:"is_new_org"`
	OrganizationName string `json:"organization_name" binding:"omitempty,min=2,max=120"`
	TenantSlug       string `json:"tenant_slug" binding:"omitempty,slug"`
	IDToken          string `json:"id_token" binding:"omitempty"`
	Code             string `json:"code" binding:"omitempty"`
	Country          string `json:"country" binding:"omitempty,len=2"`
	Currency         string `json:"currency" binding:"omitempty,len=3"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// InviteUserRequest invites a user into the caller's organization
type InviteUserRequest struct {
	Email    string  `json:"email" binding:"required,email,max=254"`
	Role     string  `json:"role" binding:"required,oneof=super_admin branch_admin pharmacist cashier"`
	BranchID *string `json:"branch_id" binding:"omitempty,uuid"`
}
