package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/auth"
	"github.com/pharmos/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Helper function to create a test tenant
func createTestTenant() *identity.Tenant {
	tenant, _ := identity.NewTenant("Acme Pharmacy", "acme-pharmacy", "KE", "KES")
	return tenant
}

// Helper function to create an active test user
func createTestUser(tenantID uuid.UUID) *identity.User {
	user, _ := identity.NewUser(tenantID, "owner@acme.test", "Password123", identity.RoleSuperAdmin)
	return user
}

// Helper function to create auth service with in-memory token blacklist
func createAuthService(userRepo *MockUserRepository, tenantRepo *MockTenantRepository) (*AuthService, *auth.InMemoryTokenBlacklist) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-32-characters-long",
		AccessTokenExpiration: time.Hour,
		Issuer:                "test-issuer",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	tenantService := NewTenantService(tenantRepo)

	svc := NewAuthService(
		userRepo,
		tenantRepo,
		tenantService,
		jwtService,
		blacklist,
		stubTxScope{},
		DefaultAuthServiceConfig(),
	)
	return svc, blacklist
}

func TestAuthService_Register_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	userRepo.On("ExistsByEmail", ctx, "owner@acme.test").Return(false, nil)
	tenantRepo.On("ExistsBySlug", ctx, "acme-pharmacy").Return(false, nil)
	tenantRepo.On("Create", ctx, mock.AnythingOfType("*identity.Tenant")).Return(nil)
	userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Register(ctx, RegisterInput{
		OrganizationName: "Acme Pharmacy",
		Email:            "owner@acme.test",
		Password:         "Password123",
		Country:          "KE",
		Currency:         "KES",
	})

	require.NoError(t, err)
	assert.Equal(t, "acme-pharmacy", result.Tenant.Slug)
	assert.Equal(t, "owner@acme.test", result.User.Email)
	assert.Equal(t, string(identity.RoleSuperAdmin), result.User.Role)
	assert.Equal(t, result.Tenant.ID, result.User.TenantID)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)

	userRepo.AssertExpectations(t)
	tenantRepo.AssertExpectations(t)
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	userRepo.On("ExistsByEmail", ctx, "owner@acme.test").Return(true, nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Register(ctx, RegisterInput{
		OrganizationName: "Acme Pharmacy",
		Email:            "owner@acme.test",
		Password:         "Password123",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "EMAIL_EXISTS", domainErr.Code)
	tenantRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_RetriesOnSlugRace(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	// The slug looks free both times, but the first insert loses the
	// race on the unique index. The second attempt succeeds.
	userRepo.On("ExistsByEmail", ctx, "owner@acme.test").Return(false, nil)
	tenantRepo.On("ExistsBySlug", ctx, "acme-pharmacy").Return(false, nil)
	tenantRepo.On("Create", ctx, mock.AnythingOfType("*identity.Tenant")).Return(shared.ErrAlreadyExists).Once()
	tenantRepo.On("Create", ctx, mock.AnythingOfType("*identity.Tenant")).Return(nil).Once()
	userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Register(ctx, RegisterInput{
		OrganizationName: "Acme Pharmacy",
		Email:            "owner@acme.test",
		Password:         "Password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "acme-pharmacy", result.Tenant.Slug)
	tenantRepo.AssertExpectations(t)
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	user := createTestUser(tenant.ID)

	tenantRepo.On("FindBySlug", ctx, "acme-pharmacy").Return(tenant, nil)
	userRepo.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Login(ctx, LoginInput{
		TenantSlug: "acme-pharmacy",
		Email:      "owner@acme.test",
		Password:   "Password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "owner@acme.test", result.User.Email)
	assert.Equal(t, tenant.ID, result.User.TenantID)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, result.Tokens.RefreshToken, user.RefreshToken)
	assert.NotNil(t, user.LastLoginAt)

	userRepo.AssertExpectations(t)
	tenantRepo.AssertExpectations(t)
}

func TestAuthService_Login_TenantNotFound(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenantRepo.On("FindBySlug", ctx, "no-such-org").Return(nil, shared.ErrNotFound)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Login(ctx, LoginInput{
		TenantSlug: "no-such-org",
		Email:      "owner@acme.test",
		Password:   "Password123",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "TENANT_NOT_FOUND", domainErr.Code)
	userRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	tenantRepo.On("FindBySlug", ctx, "acme-pharmacy").Return(tenant, nil)
	userRepo.On("FindByEmail", ctx, "ghost@acme.test").Return(nil, nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Login(ctx, LoginInput{
		TenantSlug: "acme-pharmacy",
		Email:      "ghost@acme.test",
		Password:   "Password123",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}

func TestAuthService_Login_WrongTenant(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	// The account exists under a different organization
	home, _ := identity.NewTenant("Sunrise Pharmacy", "sunrise-pharmacy", "KE", "KES")
	user := createTestUser(home.ID)

	tenantRepo.On("FindBySlug", ctx, "acme-pharmacy").Return(tenant, nil)
	userRepo.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)
	tenantRepo.On("FindByID", ctx, home.ID).Return(home, nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Login(ctx, LoginInput{
		TenantSlug: "acme-pharmacy",
		Email:      "owner@acme.test",
		Password:   "Password123",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "TENANT_MISMATCH", domainErr.Code)
	// The message points the user at their own organization
	assert.Contains(t, domainErr.Message, "Sunrise Pharmacy")
	assert.Contains(t, domainErr.Message, "sunrise-pharmacy")
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthService_Login_WithoutSlugUsesOwnTenant(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	user := createTestUser(tenant.ID)

	userRepo.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)
	tenantRepo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Login(ctx, LoginInput{
		Email:    "owner@acme.test",
		Password: "Password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "acme-pharmacy", result.Tenant.Slug)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	tenantRepo.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
}

func TestAuthService_Login_InvitedAccount(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	user, err := identity.NewInvitedUser(tenant.ID, "invitee@acme.test", identity.RolePharmacist, nil)
	require.NoError(t, err)

	tenantRepo.On("FindBySlug", ctx, "acme-pharmacy").Return(tenant, nil)
	userRepo.On("FindByEmail", ctx, "invitee@acme.test").Return(user, nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Login(ctx, LoginInput{
		TenantSlug: "acme-pharmacy",
		Email:      "invitee@acme.test",
		Password:   "Password123",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ACCOUNT_NOT_ACTIVATED", domainErr.Code)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	user := createTestUser(tenant.ID)

	tenantRepo.On("FindBySlug", ctx, "acme-pharmacy").Return(tenant, nil)
	userRepo.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Login(ctx, LoginInput{
		TenantSlug: "acme-pharmacy",
		Email:      "owner@acme.test",
		Password:   "wrongpassword1",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	assert.Equal(t, 1, user.FailedAttempts)
	// The counter write happened even though the login was refused
	userRepo.AssertCalled(t, "Update", mock.Anything, user)
}

func TestAuthService_Login_CounterWriteFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	user := createTestUser(tenant.ID)

	tenantRepo.On("FindBySlug", ctx, "acme-pharmacy").Return(tenant, nil)
	userRepo.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(errors.New("connection reset"))

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Login(ctx, LoginInput{
		TenantSlug: "acme-pharmacy",
		Email:      "owner@acme.test",
		Password:   "wrongpassword1",
	})

	// A database failure rolls the transaction back instead of being
	// swallowed as a credentials error
	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.False(t, errors.As(err, &domainErr))
}

func TestAuthService_Login_LocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	user := createTestUser(tenant.ID)

	tenantRepo.On("FindBySlug", ctx, "acme-pharmacy").Return(tenant, nil)
	userRepo.On("FindByEmail", ctx, "owner@acme.test").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	input := LoginInput{
		TenantSlug: "acme-pharmacy",
		Email:      "owner@acme.test",
		Password:   "wrongpassword1",
	}

	var domainErr *shared.DomainError
	for i := 0; i < 4; i++ {
		_, err := authService.Login(ctx, input)
		require.Error(t, err)
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	}

	// The fifth failure locks the account
	_, err := authService.Login(ctx, input)
	require.Error(t, err)
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ACCOUNT_LOCKED", domainErr.Code)
	assert.True(t, user.IsLocked())

	// Even the right password is refused while locked
	input.Password = "Password123"
	_, err = authService.Login(ctx, input)
	require.Error(t, err)
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ACCOUNT_LOCKED", domainErr.Code)
}

func TestAuthService_Refresh_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	tenant := createTestTenant()
	user := createTestUser(tenant.ID)
	user.RotateRefreshToken("old-refresh-token", time.Now().Add(24*time.Hour))

	userRepo.On("FindByRefreshToken", ctx, "old-refresh-token").Return(user, nil)
	tenantRepo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Refresh(ctx, RefreshInput{RefreshToken: "old-refresh-token"})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	// Rotation consumed the presented token
	assert.NotEqual(t, "old-refresh-token", result.Tokens.RefreshToken)
	assert.Equal(t, result.Tokens.RefreshToken, user.RefreshToken)

	userRepo.AssertExpectations(t)
	tenantRepo.AssertExpectations(t)
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	userRepo.On("FindByRefreshToken", ctx, "rotated-away").Return(nil, nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Refresh(ctx, RefreshInput{RefreshToken: "rotated-away"})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_REFRESH_TOKEN", domainErr.Code)
}

func TestAuthService_Refresh_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	user := createTestUser(uuid.New())
	user.RotateRefreshToken("stale-token", time.Now().Add(-time.Hour))

	userRepo.On("FindByRefreshToken", ctx, "stale-token").Return(user, nil)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Refresh(ctx, RefreshInput{RefreshToken: "stale-token"})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_REFRESH_TOKEN", domainErr.Code)
}

func TestAuthService_Logout_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	user := createTestUser(uuid.New())
	user.RotateRefreshToken("active-token", time.Now().Add(24*time.Hour))

	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	authService, blacklist := createAuthService(userRepo, tenantRepo)

	err := authService.Logout(ctx, user.ID, "jti-123", time.Now().Add(30*time.Minute))

	require.NoError(t, err)
	assert.Empty(t, user.RefreshToken)

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-123")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_Logout_UnknownUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	userID := uuid.New()
	userRepo.On("FindByID", ctx, userID).Return(nil, shared.ErrNotFound)

	authService, _ := createAuthService(userRepo, tenantRepo)

	err := authService.Logout(ctx, userID, "jti-123", time.Now().Add(time.Hour))
	require.NoError(t, err)
}

func TestAuthService_Me_NotFound(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	tenantRepo := new(MockTenantRepository)

	userID := uuid.New()
	userRepo.On("FindByID", ctx, userID).Return(nil, shared.ErrNotFound)

	authService, _ := createAuthService(userRepo, tenantRepo)

	result, err := authService.Me(ctx, userID)

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "USER_NOT_FOUND", domainErr.Code)
}
