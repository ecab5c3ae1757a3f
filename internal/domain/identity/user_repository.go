package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository manages user persistence. Email and external-subject
// lookups happen before a tenant is established (login, registration,
// refresh), so implementations run them with the isolation bypass;
// everything else goes through the tenant filter.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail looks up by normalized email across all tenants.
	// Returns nil, nil when no user exists.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByGoogleSubject looks up by external identity subject across
	// all tenants. Returns nil, nil when no user exists.
	FindByGoogleSubject(ctx context.Context, subject string) (*User, error)

	// FindByRefreshToken looks up the user holding the given opaque
	// refresh token. Returns nil, nil when no user holds it.
	FindByRefreshToken(ctx context.Context, token string) (*User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
