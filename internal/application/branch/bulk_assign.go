package branch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/branch"
	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ItemError records why one branch of a bulk request was not assigned
type ItemError struct {
	Index    int       `json:"index"`
	BranchID uuid.UUID `json:"branch_id"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
}

// BulkAssignResult reports the outcome of a bulk assignment
type BulkAssignResult struct {
	SuccessCount int         `json:"success_count"`
	FailedCount  int         `json:"failed_count"`
	Errors       []ItemError `json:"errors,omitempty"`
}

// BulkAssignConfig holds limits for the bulk coordinator
type BulkAssignConfig struct {
	MaxBatchSize int
}

// DefaultBulkAssignConfig returns the default limits
func DefaultBulkAssignConfig() BulkAssignConfig {
	return BulkAssignConfig{MaxBatchSize: 100}
}

// BulkAssignService assigns one manager to a set of branches. The whole
// batch runs in one transaction: branches that fail validation are
// recorded and skipped, but a database failure rolls back every
// assignment. The transaction scope retries transient database errors.
type BulkAssignService struct {
	branchRepo branch.BranchRepository
	userRepo   identity.UserRepository
	txScope    shared.TransactionScope
	config     BulkAssignConfig
}

// NewBulkAssignService creates a new bulk assignment coordinator
func NewBulkAssignService(
	branchRepo branch.BranchRepository,
	userRepo identity.UserRepository,
	txScope shared.TransactionScope,
	config BulkAssignConfig,
) *BulkAssignService {
	return &BulkAssignService{
		branchRepo: branchRepo,
		userRepo:   userRepo,
		txScope:    txScope,
		config:     config,
	}
}

// AssignManager assigns the manager to every branch in the batch. The
// manager is validated before any branch row is touched: an unknown or
// ineligible manager fails the whole request rather than each item.
func (s *BulkAssignService) AssignManager(ctx context.Context, managerID uuid.UUID, branchIDs []uuid.UUID) (*BulkAssignResult, error) {
	if len(branchIDs) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "At least one branch is required")
	}
	if len(branchIDs) > s.config.MaxBatchSize {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Batch exceeds the maximum of %d branches", s.config.MaxBatchSize))
	}

	result := &BulkAssignResult{}

	err := s.txScope.Execute(ctx, func(txCtx context.Context) error {
		// Reset on retry so a replayed transaction does not double-count
		*result = BulkAssignResult{}

		manager, err := s.findManager(txCtx, managerID)
		if err != nil {
			return err
		}
		if manager == nil {
			return shared.NewDomainError("MANAGER_NOT_FOUND", "Manager not found")
		}
		if !manager.Role.CanManageBranches() {
			return shared.NewDomainError("ROLE_NOT_ALLOWED", "User's role cannot manage a branch")
		}

		// Load all referenced branches up front. The repository is
		// tenant-scoped, so foreign branches simply don't come back.
		branches, err := s.branchRepo.FindByIDs(txCtx, branchIDs)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*branch.Branch, len(branches))
		for _, b := range branches {
			byID[b.ID] = b
		}

		seen := make(map[uuid.UUID]bool, len(branchIDs))
		for i, branchID := range branchIDs {
			if seen[branchID] {
				result.fail(i, branchID, "DUPLICATE_BRANCH", "Branch appears more than once in this batch")
				continue
			}
			seen[branchID] = true

			b, ok := byID[branchID]
			if !ok {
				result.fail(i, branchID, "BRANCH_NOT_FOUND", "Branch not found")
				continue
			}

			b.AssignManager(managerID)
			if err := s.branchRepo.Update(txCtx, b); err != nil {
				return err
			}
			result.SuccessCount++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Bulk manager assignment finished",
		zap.String("manager_id", managerID.String()),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failed_count", result.FailedCount))

	return result, nil
}

// findManager returns nil, nil when the user does not exist in the
// current tenant.
func (s *BulkAssignService) findManager(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *BulkAssignResult) fail(index int, branchID uuid.UUID, code, message string) {
	r.FailedCount++
	r.Errors = append(r.Errors, ItemError{
		Index:    index,
		BranchID: branchID,
		Code:     code,
		Message:  message,
	})
}
