package branch

import (
	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/shared"
)

const (
	EventTypeBranchCreated   = "branch.created"
	EventTypeManagerAssigned = "branch.manager_assigned"
)

// BranchCreatedEvent is raised when a branch is created
type BranchCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
	Code string `json:"code"`
}

func NewBranchCreatedEvent(b *Branch) *BranchCreatedEvent {
	return &BranchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchCreated, b.ID, "Branch", b.TenantID),
		Name:            b.Name,
		Code:            b.Code,
	}
}

// ManagerAssignedEvent is raised when a manager is assigned to a branch
type ManagerAssignedEvent struct {
	shared.BaseDomainEvent
	ManagerID uuid.UUID `json:"manager_id"`
}

func NewManagerAssignedEvent(b *Branch, managerID uuid.UUID) *ManagerAssignedEvent {
	return &ManagerAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeManagerAssigned, b.ID, "Branch", b.TenantID),
		ManagerID:       managerID,
	}
}
