package tenant

import "context"

type bypassKey struct{}

// WithBypass marks the context so the tenant filter is not applied.
//
// The bypass is deliberately narrow: it exists for the handful of
// operations that run before a tenant is established (slug resolution,
// email lookup during login and registration, refresh token lookup) and
// for migrations. Request handlers never see a bypassed context.
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

// Bypassed reports whether the tenant filter is disabled for this context
func Bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}
