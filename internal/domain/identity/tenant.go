package identity

import (
	"strings"
	"time"

	"github.com/pharmos/backend/internal/domain/shared"
)

// Tenant represents an organization in the multi-tenant system.
// It is the aggregate root for tenant-related operations and is the
// unit of data partitioning: every tenant-owned entity carries its ID.
type Tenant struct {
	shared.BaseAggregateRoot
	Name     string
	Slug     string
	Country  string
	Currency string
}

// NewTenant creates a new tenant. The slug must already be allocated
// (normalized and unique) by the tenant directory; it is immutable
// after creation.
func NewTenant(name, slug, country, currency string) (*Tenant, error) {
	if err := validateTenantName(name); err != nil {
		return nil, err
	}
	if !ValidSlug(slug) {
		return nil, shared.NewDomainError("INVALID_SLUG", "Tenant slug must contain only lowercase letters, numbers, and single hyphens")
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Country:           strings.ToUpper(strings.TrimSpace(country)),
		Currency:          strings.ToUpper(strings.TrimSpace(currency)),
	}

	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))

	return tenant, nil
}

// Rename updates the tenant's display name. The slug never changes.
func (t *Tenant) Rename(name string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}

	t.Name = name
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// SetCurrency updates the tenant's currency code
func (t *Tenant) SetCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}

	t.Currency = currency
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

func validateTenantName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Organization name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Organization name cannot exceed 200 characters")
	}
	return nil
}
