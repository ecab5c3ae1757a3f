package shared

import "context"

// TransactionScope runs fn atomically. Repository calls made through the
// ctx passed to fn join the same transaction; any error returned by fn
// rolls everything back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}
