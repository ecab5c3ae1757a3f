package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/identity"
)

// RegisterInput is the input for creating a new organization with its
// first administrator.
type RegisterInput struct {
	OrganizationName string
	Email            string
	Password         string
	Country          string
	Currency         string
}

// LoginInput is the input for tenant-first password login
type LoginInput struct {
	TenantSlug string
	Email      string
	Password   string
}

// GoogleAuthInput is the input for Google sign-in. IsNewOrg chooses
// between creating an organization (OrganizationName required) and
// joining an existing one (TenantSlug required).
type GoogleAuthInput struct {
	IsNewOrg         bool
	OrganizationName string
	TenantSlug       string
	IDToken          string
	Code             string
	Country          string
	Currency         string
}

// RefreshInput carries the opaque refresh token
type RefreshInput struct {
	RefreshToken string
}

// InviteUserInput is the input for inviting a user into the current tenant
type InviteUserInput struct {
	Email    string
	Role     identity.UserRole
	BranchID *uuid.UUID
}

// TokenPair is an access token plus the opaque refresh token
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"` // Bearer
}

// TenantDTO is the outward representation of a tenant
type TenantDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Country  string    `json:"country,omitempty"`
	Currency string    `json:"currency,omitempty"`
}

// UserDTO is the outward representation of a user
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"display_name,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	Role          string     `json:"role"`
	BranchID      *uuid.UUID `json:"branch_id,omitempty"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// LoginResult is returned by every flow that ends in a session.
// IsNewUser is true when the flow created or activated the account.
type LoginResult struct {
	User      UserDTO   `json:"user"`
	Tenant    TenantDTO `json:"tenant"`
	Tokens    TokenPair `json:"tokens"`
	IsNewUser bool      `json:"is_new_user"`
}

// ToTenantDTO maps a domain tenant to its DTO
func ToTenantDTO(t *identity.Tenant) TenantDTO {
	return TenantDTO{
		ID:       t.ID,
		Name:     t.Name,
		Slug:     t.Slug,
		Country:  t.Country,
		Currency: t.Currency,
	}
}

// ToUserDTO maps a domain user to its DTO
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		TenantID:      u.TenantID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		AvatarURL:     u.AvatarURL,
		Role:          string(u.Role),
		BranchID:      u.BranchID,
		Status:        string(u.Status),
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
	}
}
