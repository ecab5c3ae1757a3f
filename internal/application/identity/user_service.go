package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// UserService manages users within the current tenant
type UserService struct {
	userRepo identity.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Invite creates an invited user in the given tenant. The account has no
// credentials until its first Google login activates it. Email is unique
// across the whole system, so an address already registered anywhere is
// a conflict.
func (s *UserService) Invite(ctx context.Context, tenantID uuid.UUID, input InviteUserInput) (*UserDTO, error) {
	log := logger.L(ctx)

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists")
	}

	user, err := identity.NewInvitedUser(tenantID, input.Email, input.Role, input.BranchID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("EMAIL_EXISTS", "An account with this email already exists")
		}
		return nil, err
	}

	log.Info("User invited",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(input.Role)))

	dto := ToUserDTO(user)
	return &dto, nil
}
