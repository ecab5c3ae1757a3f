package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/auth"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts       int           // Maximum failed login attempts before lock
	LockDuration           time.Duration // How long to lock account after max attempts
	RefreshTokenExpiration time.Duration // Lifetime of an opaque refresh token
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts:       5,
		LockDuration:           15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
	}
}

// registerRetries bounds the re-run of the registration transaction when
// a slug insert loses a race.
const registerRetries = 3

// AuthService handles registration, login, token refresh and logout
type AuthService struct {
	userRepo      identity.UserRepository
	tenantRepo    identity.TenantRepository
	tenantService *TenantService
	jwtService    *auth.JWTService
	blacklist     auth.TokenBlacklist
	txScope       shared.TransactionScope
	config        AuthServiceConfig
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	tenantRepo identity.TenantRepository,
	tenantService *TenantService,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	txScope shared.TransactionScope,
	config AuthServiceConfig,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tenantRepo:    tenantRepo,
		tenantService: tenantService,
		jwtService:    jwtService,
		blacklist:     blacklist,
		txScope:       txScope,
		config:        config,
	}
}

// Register creates a new organization with its first super admin. The
// tenant, the user and the initial session are created in one
// transaction: a failure at any point leaves nothing behind.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	log := logger.L(ctx)

	var result *LoginResult
	var err error
	for attempt := 0; attempt < registerRetries; attempt++ {
		result, err = s.registerOnce(ctx, input)
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			break
		}
		log.Warn("Retrying registration after slug race", zap.Int("attempt", attempt+1))
	}
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to allocate organization slug")
		}
		return nil, err
	}

	log.Info("Organization registered",
		zap.String("tenant_slug", result.Tenant.Slug),
		zap.String("email", result.User.Email))
	return result, nil
}

func (s *AuthService) registerOnce(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	var result *LoginResult

	err := s.txScope.Execute(ctx, func(txCtx context.Context) error {
		exists, err := s.userRepo.ExistsByEmail(txCtx, input.Email)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists")
		}

		tenant, err := s.tenantService.CreateWithUniqueSlug(txCtx, input.OrganizationName, input.Country, input.Currency)
		if err != nil {
			return err
		}

		user, err := identity.NewUser(tenant.ID, input.Email, input.Password, identity.RoleSuperAdmin)
		if err != nil {
			return err
		}
		if err := s.userRepo.Create(txCtx, user); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists")
			}
			return err
		}

		tokens, err := s.startSession(txCtx, user)
		if err != nil {
			return err
		}

		result = &LoginResult{
			User:      ToUserDTO(user),
			Tenant:    ToTenantDTO(tenant),
			Tokens:    *tokens,
			IsNewUser: true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Login authenticates a user, optionally against a specific
// organization. When a slug is given the account must belong to that
// organization; without one the account's own organization is used,
// which works because emails are globally unique. The whole
// read-check-write runs in one transaction so concurrent attempts for
// the same account cannot lose failure-counter or token updates.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	log := logger.L(ctx)

	var tenant *identity.Tenant
	var err error
	if input.TenantSlug != "" {
		tenant, err = s.tenantService.findBySlug(ctx, input.TenantSlug)
		if err != nil {
			return nil, err
		}
	}

	// Denials still need their counter updates committed, so the tx
	// callback records them in denied and returns nil. Only real
	// database errors roll back.
	var result *LoginResult
	var denied error
	err = s.txScope.Execute(ctx, func(txCtx context.Context) error {
		user, err := s.userRepo.FindByEmail(txCtx, input.Email)
		if err != nil {
			return err
		}
		if user == nil {
			log.Warn("Login attempt for unknown email", zap.String("tenant_slug", input.TenantSlug))
			denied = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
			return nil
		}

		if tenant == nil {
			tenant, err = s.tenantRepo.FindByID(txCtx, user.TenantID)
			if err != nil {
				return err
			}
		}

		if user.TenantID != tenant.ID {
			log.Warn("Login attempt against wrong organization",
				zap.String("tenant_slug", input.TenantSlug))
			denied = s.wrongTenantError(txCtx, user)
			return nil
		}

		if user.Status == identity.UserStatusInvited {
			denied = shared.NewDomainError("ACCOUNT_NOT_ACTIVATED", "Account has not been activated yet")
			return nil
		}

		if user.IsLocked() {
			log.Warn("Login attempt for locked account", zap.String("user_id", user.ID.String()))
			denied = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
			return nil
		}

		if !user.VerifyPassword(input.Password) {
			locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
			if err := s.userRepo.Update(scopedToUser(txCtx, user), user); err != nil {
				return err
			}

			if locked {
				log.Warn("Account locked after repeated failures",
					zap.String("user_id", user.ID.String()),
					zap.Int("attempts", s.config.MaxLoginAttempts))
				denied = shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
			} else {
				denied = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
			}
			return nil
		}

		user.RecordLoginSuccess()
		tokens, err := s.startSession(txCtx, user)
		if err != nil {
			return err
		}

		log.Info("User logged in", zap.String("user_id", user.ID.String()))
		result = &LoginResult{
			User:   ToUserDTO(user),
			Tenant: ToTenantDTO(tenant),
			Tokens: *tokens,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if denied != nil {
		return nil, denied
	}
	return result, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. The
// old refresh token is consumed inside the same transaction that found
// it, so a second concurrent use of it fails.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (*LoginResult, error) {
	log := logger.L(ctx)

	var result *LoginResult
	var denied error
	err := s.txScope.Execute(ctx, func(txCtx context.Context) error {
		user, err := s.userRepo.FindByRefreshToken(txCtx, input.RefreshToken)
		if err != nil {
			return err
		}
		if user == nil || !user.RefreshTokenValid() {
			log.Warn("Refresh with unknown or expired token")
			denied = shared.NewDomainError("INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired")
			return nil
		}

		tenant, err := s.tenantRepo.FindByID(txCtx, user.TenantID)
		if err != nil {
			return err
		}

		tokens, err := s.startSession(txCtx, user)
		if err != nil {
			return err
		}

		result = &LoginResult{
			User:   ToUserDTO(user),
			Tenant: ToTenantDTO(tenant),
			Tokens: *tokens,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if denied != nil {
		return nil, denied
	}
	return result, nil
}

// Logout clears the user's refresh token and revokes the presented
// access token. Logging out twice is fine.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, jti string, accessExpiresAt time.Time) error {
	log := logger.L(ctx)

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	user.ClearRefreshToken()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if jti != "" {
		ttl := time.Until(accessExpiresAt)
		if ttl > 0 {
			if err := s.blacklist.AddToBlacklist(ctx, jti, ttl); err != nil {
				// The access token still dies at its natural expiry
				log.Error("Failed to blacklist access token", zap.Error(err))
			}
		}
	}

	log.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

// Me returns the authenticated user's profile
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// scopedToUser stamps the user's own tenant id onto the context.
// Login, refresh and registration run before any access token exists,
// so nothing upstream has set a tenant yet and the row filter would
// otherwise reject the write.
func scopedToUser(ctx context.Context, user *identity.User) context.Context {
	ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), user.TenantID.String())
	return ctx
}

// wrongTenantError tells the caller which organization the account
// actually lives in. The email proved ownership of the account, so
// pointing the user at their own organization leaks nothing.
func (s *AuthService) wrongTenantError(ctx context.Context, user *identity.User) error {
	home, err := s.tenantRepo.FindByID(ctx, user.TenantID)
	if err != nil || home == nil {
		return shared.NewDomainError("TENANT_MISMATCH", "This account belongs to a different organization")
	}
	return shared.NewDomainErrorf("TENANT_MISMATCH",
		"This account belongs to %s (%s). Sign in there instead", home.Name, home.Slug)
}

// startSession issues an access token and rotates the refresh token,
// persisting the user inside the caller's transaction.
func (s *AuthService) startSession(ctx context.Context, user *identity.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(auth.IssueInput{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
		Role:     string(user.Role),
		BranchID: user.BranchID,
	})
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate access token")
	}

	refreshToken, err := auth.NewRefreshToken()
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate refresh token")
	}

	refreshExpiresAt := time.Now().Add(s.config.RefreshTokenExpiration)
	user.RotateRefreshToken(refreshToken, refreshExpiresAt)
	if err := s.userRepo.Update(scopedToUser(ctx, user), user); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken.Token,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessToken.ExpiresAt,
		RefreshTokenExpiresAt: refreshExpiresAt,
		TokenType:             "Bearer",
	}, nil
}
