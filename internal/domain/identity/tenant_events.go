package identity

import (
	"github.com/pharmos/backend/internal/domain/shared"
)

// Event types for the Tenant aggregate
const (
	EventTypeTenantCreated = "identity.tenant.created"
)

// TenantCreatedEvent is raised when a new organization is registered
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NewTenantCreatedEvent creates a TenantCreatedEvent
func NewTenantCreatedEvent(t *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, t.ID, "Tenant", t.ID),
		Name:            t.Name,
		Slug:            t.Slug,
	}
}
