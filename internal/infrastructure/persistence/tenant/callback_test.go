package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// widgetModel is a tenant-owned table for exercising the filter
type widgetModel struct {
	ID       uint   `gorm:"primarykey"`
	TenantID string `gorm:"type:uuid;not null;index"`
	Name     string
}

func (widgetModel) TableName() string { return "widgets" }

// registryModel has no tenant column and must stay unfiltered
type registryModel struct {
	ID   uint `gorm:"primarykey"`
	Name string
}

func (registryModel) TableName() string { return "registry" }

func setupFilteredDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&widgetModel{}, &registryModel{}))
	EnableAutoTenantFilter(db)
	return db
}

func tenantCtx(tenantID string) context.Context {
	ctx, _ := logger.WithTenantID(context.Background(), zap.NewNop(), tenantID)
	return ctx
}

func TestTenantFilter_Query(t *testing.T) {
	db := setupFilteredDB(t)
	tenantA := uuid.New().String()
	tenantB := uuid.New().String()

	seed := db.WithContext(WithBypass(context.Background()))
	require.NoError(t, seed.Create(&widgetModel{TenantID: tenantA, Name: "aspirin"}).Error)
	require.NoError(t, seed.Create(&widgetModel{TenantID: tenantB, Name: "ibuprofen"}).Error)

	t.Run("query returns only the context tenant's rows", func(t *testing.T) {
		var rows []widgetModel
		require.NoError(t, db.WithContext(tenantCtx(tenantA)).Find(&rows).Error)

		require.Len(t, rows, 1)
		assert.Equal(t, "aspirin", rows[0].Name)
	})

	t.Run("query without tenant in context fails closed", func(t *testing.T) {
		var rows []widgetModel
		err := db.WithContext(context.Background()).Find(&rows).Error

		assert.ErrorIs(t, err, ErrTenantIDRequired)
		assert.Empty(t, rows)
	})

	t.Run("malformed tenant in context fails", func(t *testing.T) {
		var rows []widgetModel
		err := db.WithContext(tenantCtx("not-a-uuid")).Find(&rows).Error

		assert.ErrorIs(t, err, ErrInvalidTenantID)
	})

	t.Run("bypass sees all rows", func(t *testing.T) {
		var rows []widgetModel
		require.NoError(t, db.WithContext(WithBypass(context.Background())).Find(&rows).Error)

		assert.Len(t, rows, 2)
	})

	t.Run("tables without tenant column are exempt", func(t *testing.T) {
		require.NoError(t, seed.Create(&registryModel{Name: "global"}).Error)

		var rows []registryModel
		require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)
		assert.Len(t, rows, 1)
	})
}

func TestTenantFilter_Mutations(t *testing.T) {
	db := setupFilteredDB(t)
	tenantA := uuid.New().String()
	tenantB := uuid.New().String()

	seed := db.WithContext(WithBypass(context.Background()))
	require.NoError(t, seed.Create(&widgetModel{ID: 1, TenantID: tenantA, Name: "aspirin"}).Error)
	require.NoError(t, seed.Create(&widgetModel{ID: 2, TenantID: tenantB, Name: "ibuprofen"}).Error)

	t.Run("update cannot touch another tenant's row", func(t *testing.T) {
		result := db.WithContext(tenantCtx(tenantA)).
			Model(&widgetModel{}).
			Where("id = ?", 2).
			Update("name", "hijacked")

		require.NoError(t, result.Error)
		assert.Equal(t, int64(0), result.RowsAffected)

		var row widgetModel
		require.NoError(t, seed.First(&row, 2).Error)
		assert.Equal(t, "ibuprofen", row.Name)
	})

	t.Run("delete cannot touch another tenant's row", func(t *testing.T) {
		result := db.WithContext(tenantCtx(tenantA)).
			Where("id = ?", 2).
			Delete(&widgetModel{})

		require.NoError(t, result.Error)
		assert.Equal(t, int64(0), result.RowsAffected)
	})

	t.Run("update without tenant in context fails closed", func(t *testing.T) {
		err := db.WithContext(context.Background()).
			Model(&widgetModel{}).
			Where("id = ?", 1).
			Update("name", "renamed").Error

		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})
}

func TestBypassScope(t *testing.T) {
	ctx := context.Background()
	assert.False(t, Bypassed(ctx))
	assert.True(t, Bypassed(WithBypass(ctx)))

	t.Run("bypass does not leak into parent context", func(t *testing.T) {
		_ = WithBypass(ctx)
		assert.False(t, Bypassed(ctx))
	})
}
