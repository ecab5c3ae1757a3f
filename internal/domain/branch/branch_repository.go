package branch

import (
	"context"

	"github.com/google/uuid"
)

// BranchRepository manages branch persistence. All queries run inside the
// tenant filter of the calling context.
type BranchRepository interface {
	Create(ctx context.Context, branch *Branch) error
	Update(ctx context.Context, branch *Branch) error
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)

	// FindByIDs returns the branches matching the given ids within the
	// current tenant. Missing ids are simply absent from the result.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Branch, error)

	List(ctx context.Context) ([]*Branch, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
