package identity

import (
	"time"

	"github.com/pharmos/backend/internal/domain/shared"
)

const (
	EventTypeUserCreated   = "identity.user.created"
	EventTypeUserInvited   = "identity.user.invited"
	EventTypeUserActivated = "identity.user.activated"
	EventTypeUserLocked    = "identity.user.locked"
)

// UserCreatedEvent is raised when a new active user is created
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

func NewUserCreatedEvent(user *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, user.ID, "User", user.TenantID),
		Email:           user.Email,
		Role:            user.Role,
	}
}

// UserInvitedEvent is raised when an administrator invites a user
type UserInvitedEvent struct {
	shared.BaseDomainEvent
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

func NewUserInvitedEvent(user *User) *UserInvitedEvent {
	return &UserInvitedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserInvited, user.ID, "User", user.TenantID),
		Email:           user.Email,
		Role:            user.Role,
	}
}

// UserActivatedEvent is raised when an invited user completes first login
type UserActivatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

func NewUserActivatedEvent(user *User) *UserActivatedEvent {
	return &UserActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserActivated, user.ID, "User", user.TenantID),
		Email:           user.Email,
	}
}

// UserLockedEvent is raised when repeated login failures lock an account
type UserLockedEvent struct {
	shared.BaseDomainEvent
	Email       string    `json:"email"`
	LockedUntil time.Time `json:"locked_until"`
}

func NewUserLockedEvent(user *User, lockedUntil time.Time) *UserLockedEvent {
	return &UserLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserLocked, user.ID, "User", user.TenantID),
		Email:           user.Email,
		LockedUntil:     lockedUntil,
	}
}
