package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusInvited UserStatus = "invited" // Created by an administrator, awaiting first login
	UserStatusActive  UserStatus = "active"  // Normal active status
)

// UserRole is the enumerated role of a user within its tenant
type UserRole string

const (
	RoleSuperAdmin  UserRole = "super_admin"
	RoleBranchAdmin UserRole = "branch_admin"
	RolePharmacist  UserRole = "pharmacist"
	RoleCashier     UserRole = "cashier"
)

// ValidRole reports whether r is a known role
func ValidRole(r UserRole) bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin, RolePharmacist, RoleCashier:
		return true
	}
	return false
}

// CanManageBranches reports whether the role may be assigned as a branch manager
func (r UserRole) CanManageBranches() bool {
	return r == RoleSuperAdmin || r == RoleBranchAdmin
}

// Password cost for bcrypt
const bcryptCost = 12

// ExternalIdentity is a verified assertion from an external identity
// provider (Google). It is produced by the infrastructure verifier and
// consumed by the identity resolver.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// User represents a principal in the system. Email is unique across the
// entire system, not per tenant: a person belongs to exactly one tenant
// at a time.
type User struct {
	shared.TenantAggregateRoot
	Email                 string
	DisplayName           string
	AvatarURL             string
	PasswordHash          string // empty for OAuth-only accounts
	GoogleSubject         string // external identity subject id, empty if unlinked
	EmailVerified         bool
	Role                  UserRole
	BranchID              *uuid.UUID
	Status                UserStatus
	FailedAttempts        int
	LockedUntil           *time.Time
	RefreshToken          string
	RefreshTokenExpiresAt *time.Time
	LastLoginAt           *time.Time
}

// NormalizeEmail lowercases and trims an email address. All lookups and
// uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a new active user with a password credential
func NewUser(tenantID uuid.UUID, email, password string, role UserRole) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown user role")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               NormalizeEmail(email),
		PasswordHash:        passwordHash,
		Role:                role,
		Status:              UserStatusActive,
	}

	user.AddDomainEvent(NewUserCreatedEvent(user))

	return user, nil
}

// NewGoogleUser creates a new active user from a verified external identity.
// The account has no password; it can only authenticate via the provider.
func NewGoogleUser(tenantID uuid.UUID, ext ExternalIdentity, role UserRole) (*User, error) {
	if err := validateEmail(ext.Email); err != nil {
		return nil, err
	}
	if ext.Subject == "" {
		return nil, shared.NewDomainError("INVALID_IDENTITY", "External identity subject is required")
	}
	if !ValidRole(role) {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown user role")
	}

	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               NormalizeEmail(ext.Email),
		DisplayName:         ext.Name,
		AvatarURL:           ext.Picture,
		GoogleSubject:       ext.Subject,
		EmailVerified:       ext.EmailVerified,
		Role:                role,
		Status:              UserStatusActive,
	}

	user.AddDomainEvent(NewUserCreatedEvent(user))

	return user, nil
}

// NewInvitedUser creates a user in Invited status. The account becomes
// active on its first successful authentication.
func NewInvitedUser(tenantID uuid.UUID, email string, role UserRole, branchID *uuid.UUID) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown user role")
	}

	user := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Email:               NormalizeEmail(email),
		Role:                role,
		BranchID:            branchID,
		Status:              UserStatusInvited,
	}

	user.AddDomainEvent(NewUserInvitedEvent(user))

	return user, nil
}

// SetPassword sets a new password credential
func (u *User) SetPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// VerifyPassword verifies the provided password against the stored hash.
// It returns false for OAuth-only accounts and for malformed stored
// hashes; it never returns an error.
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Activate transitions an invited user to active as a side effect of its
// first successful authentication, attaching the external identity and
// backfilling profile fields that are absent.
func (u *User) Activate(ext *ExternalIdentity) {
	u.Status = UserStatusActive
	if ext != nil {
		u.GoogleSubject = ext.Subject
		if ext.EmailVerified {
			u.EmailVerified = true
		}
		if u.DisplayName == "" {
			u.DisplayName = ext.Name
		}
		if u.AvatarURL == "" {
			u.AvatarURL = ext.Picture
		}
	}
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	u.AddDomainEvent(NewUserActivatedEvent(u))
}

// LinkGoogle attaches a verified external identity to an existing account
func (u *User) LinkGoogle(ext ExternalIdentity) {
	u.GoogleSubject = ext.Subject
	if ext.EmailVerified {
		u.EmailVerified = true
	}
	if u.AvatarURL == "" {
		u.AvatarURL = ext.Picture
	}
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// IsLocked returns true while the lockout window is active
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// RecordLoginFailure records a failed login attempt.
// Returns true if the account was locked by this failure.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	if u.FailedAttempts >= maxAttempts {
		lockedUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockedUntil
		u.AddDomainEvent(NewUserLockedEvent(u, lockedUntil))
		return true
	}

	return false
}

// RecordLoginSuccess resets the failure counter and stamps the login time
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = now
	u.IncrementVersion()
}

// RotateRefreshToken replaces the single active refresh token. The
// previous value is implicitly invalidated by being overwritten.
func (u *User) RotateRefreshToken(token string, expiresAt time.Time) {
	u.RefreshToken = token
	u.RefreshTokenExpiresAt = &expiresAt
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// ClearRefreshToken removes the stored refresh token (logout)
func (u *User) ClearRefreshToken() {
	u.RefreshToken = ""
	u.RefreshTokenExpiresAt = nil
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// RefreshTokenValid reports whether the stored refresh token is present
// and not expired.
func (u *User) RefreshTokenValid() bool {
	return u.RefreshToken != "" &&
		u.RefreshTokenExpiresAt != nil &&
		time.Now().Before(*u.RefreshTokenExpiresAt)
}

// Validation functions

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

// ValidatePassword enforces the password policy shared by registration
// and password changes.
func ValidatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
