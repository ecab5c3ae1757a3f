package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/persistence/models"
	"github.com/pharmos/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM.
//
// FindByEmail, FindByGoogleSubject and FindByRefreshToken run with the
// tenant filter bypassed: they are the entry points of login,
// registration and refresh, which happen before any tenant is
// established. Every other method goes through the filter.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	model := models.UserModelFromDomain(user)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update updates an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	model := models.UserModelFromDomain(user)
	result := dbFrom(ctx, r.db).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a user by ID within the current tenant
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := dbFrom(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a user by normalized email across all tenants.
// Returns nil, nil when no user exists.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	var model models.UserModel
	err := dbFrom(tenant.WithBypass(ctx), r.db).
		Where("email = ?", email).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByGoogleSubject finds a user by external identity subject across
// all tenants. Returns nil, nil when no user exists.
func (r *GormUserRepository) FindByGoogleSubject(ctx context.Context, subject string) (*identity.User, error) {
	if subject == "" {
		return nil, nil
	}

	var model models.UserModel
	err := dbFrom(tenant.WithBypass(ctx), r.db).
		Where("google_subject = ?", subject).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRefreshToken finds the user holding the given opaque refresh
// token. Returns nil, nil when no user holds it.
func (r *GormUserRepository) FindByRefreshToken(ctx context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, nil
	}

	var model models.UserModel
	err := dbFrom(tenant.WithBypass(ctx), r.db).
		Where("refresh_token = ?", token).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByEmail reports whether any user holds the given email
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	email = identity.NormalizeEmail(email)

	var count int64
	err := dbFrom(tenant.WithBypass(ctx), r.db).
		Model(&models.UserModel{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
