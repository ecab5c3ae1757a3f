package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines persistence operations for the Tenant aggregate.
//
// The tenants table is not itself tenant-scoped; it is filtered only by its
// own soft-delete flag. FindBySlug and ExistsBySlug are used by the tenant
// directory before any tenant context exists and therefore run with the
// row-level isolation bypass.
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	Update(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}
