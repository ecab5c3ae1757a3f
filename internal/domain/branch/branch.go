package branch

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/shared"
)

// Branch represents a physical pharmacy location belonging to a tenant
type Branch struct {
	shared.TenantAggregateRoot
	Name      string
	Code      string
	Address   string
	Phone     string
	ManagerID *uuid.UUID
}

// NewBranch creates a new branch
func NewBranch(tenantID uuid.UUID, name, code, address, phone string) (*Branch, error) {
	if err := validateBranchName(name); err != nil {
		return nil, err
	}
	if err := validateBranchCode(code); err != nil {
		return nil, err
	}

	branch := &Branch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Code:                strings.ToUpper(strings.TrimSpace(code)),
		Address:             strings.TrimSpace(address),
		Phone:               strings.TrimSpace(phone),
	}

	branch.AddDomainEvent(NewBranchCreatedEvent(branch))

	return branch, nil
}

// Rename updates the branch name
func (b *Branch) Rename(name string) error {
	if err := validateBranchName(name); err != nil {
		return err
	}

	b.Name = strings.TrimSpace(name)
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// AssignManager sets the branch manager. Validation that the user exists,
// belongs to the same tenant and holds a managing role happens in the
// application layer, where the user aggregate is available.
func (b *Branch) AssignManager(managerID uuid.UUID) {
	b.ManagerID = &managerID
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewManagerAssignedEvent(b, managerID))
}

// RemoveManager clears the branch manager
func (b *Branch) RemoveManager() {
	b.ManagerID = nil
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

func validateBranchName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_BRANCH_NAME", "Branch name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_BRANCH_NAME", "Branch name cannot exceed 100 characters")
	}
	return nil
}

func validateBranchCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code cannot be empty")
	}
	if len(code) > 20 {
		return shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code cannot exceed 20 characters")
	}
	return nil
}
