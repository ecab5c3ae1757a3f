package branch

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/branch"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CreateBranchInput is the input for creating a branch
type CreateBranchInput struct {
	Name    string
	Code    string
	Address string
	Phone   string
}

// BranchDTO is the outward representation of a branch
type BranchDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	Address   string     `json:"address,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty"`
}

// ToBranchDTO maps a domain branch to its DTO
func ToBranchDTO(b *branch.Branch) BranchDTO {
	return BranchDTO{
		ID:        b.ID,
		Name:      b.Name,
		Code:      b.Code,
		Address:   b.Address,
		Phone:     b.Phone,
		ManagerID: b.ManagerID,
	}
}

// BranchService manages branches within the current tenant
type BranchService struct {
	branchRepo branch.BranchRepository
}

// NewBranchService creates a new branch service
func NewBranchService(branchRepo branch.BranchRepository) *BranchService {
	return &BranchService{branchRepo: branchRepo}
}

// Create creates a branch. Codes are unique per tenant.
func (s *BranchService) Create(ctx context.Context, tenantID uuid.UUID, input CreateBranchInput) (*BranchDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))

	exists, err := s.branchRepo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("BRANCH_CODE_EXISTS", "A branch with this code already exists")
	}

	b, err := branch.NewBranch(tenantID, input.Name, input.Code, input.Address, input.Phone)
	if err != nil {
		return nil, err
	}

	if err := s.branchRepo.Create(ctx, b); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("BRANCH_CODE_EXISTS", "A branch with this code already exists")
		}
		return nil, err
	}

	logger.L(ctx).Info("Branch created",
		zap.String("branch_id", b.ID.String()),
		zap.String("code", b.Code))

	dto := ToBranchDTO(b)
	return &dto, nil
}

// Get returns a branch by ID within the current tenant
func (s *BranchService) Get(ctx context.Context, id uuid.UUID) (*BranchDTO, error) {
	b, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BRANCH_NOT_FOUND", "Branch not found")
		}
		return nil, err
	}
	dto := ToBranchDTO(b)
	return &dto, nil
}

// List returns all branches of the current tenant
func (s *BranchService) List(ctx context.Context) ([]BranchDTO, error) {
	branches, err := s.branchRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]BranchDTO, 0, len(branches))
	for _, b := range branches {
		dtos = append(dtos, ToBranchDTO(b))
	}
	return dtos, nil
}
