package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/branch"
	"github.com/pharmos/backend/internal/domain/shared"
	"github.com/pharmos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBranchRepository implements BranchRepository using GORM. Every
// query runs inside the tenant filter; there is no bypass path here.
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// Create creates a new branch
func (r *GormBranchRepository) Create(ctx context.Context, b *branch.Branch) error {
	model := models.BranchModelFromDomain(b)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update updates an existing branch
func (r *GormBranchRepository) Update(ctx context.Context, b *branch.Branch) error {
	model := models.BranchModelFromDomain(b)
	result := dbFrom(ctx, r.db).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a branch by ID within the current tenant
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*branch.Branch, error) {
	var model models.BranchModel
	if err := dbFrom(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the branches matching the given ids within the
// current tenant. Missing ids are absent from the result.
func (r *GormBranchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*branch.Branch, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []models.BranchModel
	if err := dbFrom(ctx, r.db).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	branches := make([]*branch.Branch, 0, len(found))
	for i := range found {
		branches = append(branches, found[i].ToDomain())
	}
	return branches, nil
}

// List returns all branches of the current tenant
func (r *GormBranchRepository) List(ctx context.Context) ([]*branch.Branch, error) {
	var found []models.BranchModel
	if err := dbFrom(ctx, r.db).Order("created_at").Find(&found).Error; err != nil {
		return nil, err
	}

	branches := make([]*branch.Branch, 0, len(found))
	for i := range found {
		branches = append(branches, found[i].ToDomain())
	}
	return branches, nil
}

// ExistsByCode reports whether the current tenant already has a branch
// with the given code.
func (r *GormBranchRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&models.BranchModel{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ branch.BranchRepository = (*GormBranchRepository)(nil)
