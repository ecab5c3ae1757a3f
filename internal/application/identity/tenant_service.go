package identity

import (
	"context"
	"errors"

	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// slugAttemptLimit bounds the collision-suffix search
const slugAttemptLimit = 50

// TenantService is the tenant directory: it resolves slugs for the login
// flow and allocates unique slugs when organizations are created.
type TenantService struct {
	tenantRepo identity.TenantRepository
}

// NewTenantService creates a new tenant service
func NewTenantService(tenantRepo identity.TenantRepository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

// ResolveBySlug resolves a tenant by its slug. This is a public,
// pre-authentication lookup: it returns only what a login page needs.
func (s *TenantService) ResolveBySlug(ctx context.Context, slug string) (*TenantDTO, error) {
	tenant, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	dto := ToTenantDTO(tenant)
	return &dto, nil
}

func (s *TenantService) findBySlug(ctx context.Context, slug string) (*identity.Tenant, error) {
	if !identity.ValidSlug(slug) {
		return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Organization not found")
	}

	tenant, err := s.tenantRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Organization not found")
		}
		return nil, err
	}
	return tenant, nil
}

// CreateWithUniqueSlug creates a tenant whose slug is derived from the
// organization name, suffixing with -1, -2, ... on collision. Renaming a
// tenant later never changes the slug, so two organizations can share a
// name but never a slug.
func (s *TenantService) CreateWithUniqueSlug(ctx context.Context, name, country, currency string) (*identity.Tenant, error) {
	base := identity.Slugify(name)

	candidate := base
	for attempt := 1; attempt <= slugAttemptLimit; attempt++ {
		exists, err := s.tenantRepo.ExistsBySlug(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		candidate = identity.SlugWithSuffix(base, attempt)
	}

	tenant, err := identity.NewTenant(name, candidate, country, currency)
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost a race on the slug index; the caller retries the
			// enclosing transaction.
			logger.L(ctx).Warn("Slug collision on insert", zap.String("slug", candidate))
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, err
	}

	return tenant, nil
}
