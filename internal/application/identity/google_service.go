package identity

import (
	"context"
	"errors"

	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/googleauth"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// resolution is the outcome of matching a verified Google identity
// against the directory.
type resolution int

const (
	resolutionNewOrganization resolution = iota // no account anywhere: create org
	resolutionNewOrgConflict                    // wants a new org but already has an account
	resolutionWrongTenant                       // account lives under another org
	resolutionNotInvited                        // org exists, no account, no invite
	resolutionActivateAndLogin                  // invited account: first login activates it
	resolutionLoginExisting                     // active account in this org
)

// GoogleService signs users in via Google. Sign-up creates a new
// organization; login joins an existing one, activating a pending invite
// on first contact.
type GoogleService struct {
	userRepo    identity.UserRepository
	tenantRepo  identity.TenantRepository
	tenantSvc   *TenantService
	authService *AuthService
	verifier    googleauth.Verifier
	txScope     shared.TransactionScope
}

// NewGoogleService creates a new Google sign-in service
func NewGoogleService(
	userRepo identity.UserRepository,
	tenantRepo identity.TenantRepository,
	tenantSvc *TenantService,
	authService *AuthService,
	verifier googleauth.Verifier,
	txScope shared.TransactionScope,
) *GoogleService {
	return &GoogleService{
		userRepo:    userRepo,
		tenantRepo:  tenantRepo,
		tenantSvc:   tenantSvc,
		authService: authService,
		verifier:    verifier,
		txScope:     txScope,
	}
}

// Authenticate signs a verified Google identity in. A new-organization
// request creates the org with the identity as super admin; otherwise
// the identity joins the organization named by the slug.
func (s *GoogleService) Authenticate(ctx context.Context, input GoogleAuthInput) (*LoginResult, error) {
	if input.IsNewOrg {
		return s.signUp(ctx, input)
	}
	return s.login(ctx, input)
}

// signUp creates a new organization from a verified Google identity.
// The caller must not already have an account anywhere.
func (s *GoogleService) signUp(ctx context.Context, input GoogleAuthInput) (*LoginResult, error) {
	log := logger.L(ctx)

	ext, err := s.verify(ctx, input.IDToken, input.Code)
	if err != nil {
		return nil, err
	}

	existing, err := s.lookup(ctx, ext)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Warn("Google sign-up for an email that already has an account")
		return nil, s.existingAccountError(ctx, existing)
	}

	var result *LoginResult
	err = s.txScope.Execute(ctx, func(txCtx context.Context) error {
		tenant, err := s.tenantSvc.CreateWithUniqueSlug(txCtx, input.OrganizationName, input.Country, input.Currency)
		if err != nil {
			return err
		}

		user, err := identity.NewGoogleUser(tenant.ID, *ext, identity.RoleSuperAdmin)
		if err != nil {
			return err
		}
		if err := s.userRepo.Create(txCtx, user); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists")
			}
			return err
		}
		user.RecordLoginSuccess()

		tokens, err := s.authService.startSession(txCtx, user)
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

	log.Info("Organization registered via Google",
		zap.String("tenant_slug", result.Tenant.Slug))
	return result, nil
}

// login signs a Google identity into an existing organization
func (s *GoogleService) login(ctx context.Context, input GoogleAuthInput) (*LoginResult, error) {
	log := logger.L(ctx)

	if input.TenantSlug == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "An organization slug is required to sign in")
	}

	tenant, err := s.tenantSvc.findBySlug(ctx, input.TenantSlug)
	if err != nil {
		return nil, err
	}

	ext, err := s.verify(ctx, input.IDToken, input.Code)
	if err != nil {
		return nil, err
	}

	user, err := s.lookup(ctx, ext)
	if err != nil {
		return nil, err
	}

	switch s.resolve(tenant, user) {
	case resolutionNotInvited:
		log.Warn("Google login without an invite", zap.String("tenant_slug", input.TenantSlug))
		return nil, shared.NewDomainError("NOT_INVITED", "You have not been invited to this organization")

	case resolutionWrongTenant:
		log.Warn("Google login against wrong organization", zap.String("tenant_slug", input.TenantSlug))
		return nil, s.authService.wrongTenantError(ctx, user)

	case resolutionActivateAndLogin:
		return s.finishLogin(ctx, tenant, user, ext, true)

	default:
		return s.finishLogin(ctx, tenant, user, ext, false)
	}
}

// resolve classifies the (tenant, user) pair for the login flow
func (s *GoogleService) resolve(tenant *identity.Tenant, user *identity.User) resolution {
	switch {
	case user == nil:
		return resolutionNotInvited
	case user.TenantID != tenant.ID:
		return resolutionWrongTenant
	case user.Status == identity.UserStatusInvited:
		return resolutionActivateAndLogin
	default:
		return resolutionLoginExisting
	}
}

func (s *GoogleService) finishLogin(ctx context.Context, tenant *identity.Tenant, user *identity.User, ext *identity.ExternalIdentity, activate bool) (*LoginResult, error) {
	log := logger.L(ctx)

	var tokens *TokenPair
	err := s.txScope.Execute(ctx, func(txCtx context.Context) error {
		if activate {
			user.Activate(ext)
		} else if user.GoogleSubject == "" {
			user.LinkGoogle(*ext)
		}
		user.RecordLoginSuccess()

		var err error
		tokens, err = s.authService.startSession(txCtx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	if activate {
		log.Info("Invited user activated via Google", zap.String("user_id", user.ID.String()))
	}

	return &LoginResult{
		User:      ToUserDTO(user),
		Tenant:    ToTenantDTO(tenant),
		Tokens:    *tokens,
		IsNewUser: activate,
	}, nil
}

// existingAccountError names the organization the account already
// lives in, so the user knows where to sign in instead.
func (s *GoogleService) existingAccountError(ctx context.Context, user *identity.User) error {
	home, err := s.tenantRepo.FindByID(ctx, user.TenantID)
	if err != nil || home == nil {
		return shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists. Sign in to your organization instead")
	}
	return shared.NewDomainErrorf("EMAIL_EXISTS",
		"An account with this email already exists in %s (%s). Sign in there instead", home.Name, home.Slug)
}

// verify validates the credential, accepting either an ID token or an
// authorization code.
func (s *GoogleService) verify(ctx context.Context, idToken, code string) (*identity.ExternalIdentity, error) {
	var ext *identity.ExternalIdentity
	var err error

	switch {
	case idToken != "":
		ext, err = s.verifier.VerifyIDToken(ctx, idToken)
	case code != "":
		ext, err = s.verifier.ExchangeCode(ctx, code)
	default:
		return nil, shared.NewDomainError("VALIDATION_ERROR", "A Google credential is required")
	}

	if err != nil {
		if errors.Is(err, googleauth.ErrProviderUnavailable) {
			return nil, shared.NewDomainError("PROVIDER_UNAVAILABLE", "Google sign-in is temporarily unavailable. Please try again")
		}
		if errors.Is(err, googleauth.ErrInvalidCredential) {
			return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Google credential could not be verified")
		}
		return nil, err
	}
	return ext, nil
}

// lookup finds an account for the verified identity, by subject first,
// then by email.
func (s *GoogleService) lookup(ctx context.Context, ext *identity.ExternalIdentity) (*identity.User, error) {
	user, err := s.userRepo.FindByGoogleSubject(ctx, ext.Subject)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return s.userRepo.FindByEmail(ctx, ext.Email)
}
