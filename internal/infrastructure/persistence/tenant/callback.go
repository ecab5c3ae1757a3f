// Package tenant provides automatic row-level tenant filtering for GORM.
//
// The filter is late-bound: at query time the tenant ID is read from the
// statement context (where the JWT middleware placed it) and a
// WHERE tenant_id = ? clause is injected. Queries on tenant-owned tables
// without a tenant in context fail instead of running unfiltered.
//
// Tables whose schema has no tenant_id column (the tenants table itself)
// are naturally exempt. Everything else requires either a tenant in
// context or an explicit WithBypass context.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTenantIDRequired is returned when a tenant-owned table is queried
// without a tenant in context and without an explicit bypass.
var ErrTenantIDRequired = errors.New("tenant_id is required but not found in context")

// ErrInvalidTenantID is returned when the tenant_id in context is not a UUID
var ErrInvalidTenantID = errors.New("invalid tenant_id format")

const tenantColumn = "tenant_id"

// Callback wires the tenant filter into GORM's query pipeline
type Callback struct{}

// Register registers the tenant filter on all read and write paths
func (tc *Callback) Register(db *gorm.DB) {
	_ = db.Callback().Query().Before("gorm:query").Register("tenant:before_query", tc.apply)
	_ = db.Callback().Update().Before("gorm:update").Register("tenant:before_update", tc.apply)
	_ = db.Callback().Delete().Before("gorm:delete").Register("tenant:before_delete", tc.apply)
	_ = db.Callback().Row().Before("gorm:row").Register("tenant:before_row", tc.apply)

	// Create is not hooked: tenant_id is a constructor argument of every
	// tenant-owned aggregate and is written as a plain column.
}

func (tc *Callback) apply(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	// Only tables that carry a tenant column are filtered. A nil schema
	// means raw SQL, which only migrations use.
	if db.Statement.Schema == nil || db.Statement.Schema.LookUpField(tenantColumn) == nil {
		return
	}

	if Bypassed(ctx) {
		return
	}

	if tc.hasTenantCondition(db) {
		return
	}

	tenantID := logger.GetTenantID(ctx)
	if tenantID == "" {
		_ = db.AddError(ErrTenantIDRequired)
		return
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		_ = db.AddError(ErrInvalidTenantID)
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: tenantColumn},
				Value:  tenantID,
			},
		},
	})
}

// hasTenantCondition checks if a tenant_id condition is already present
func (tc *Callback) hasTenantCondition(db *gorm.DB) bool {
	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if exprContainsTenant(expr) {
					return true
				}
			}
		}
	}
	return false
}

func exprContainsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == tenantColumn
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == tenantColumn
		}
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if exprContainsTenant(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if exprContainsTenant(cond) {
				return true
			}
		}
	}
	return false
}

// EnableAutoTenantFilter registers the tenant filter on a GORM DB instance
func EnableAutoTenantFilter(db *gorm.DB) {
	(&Callback{}).Register(db)
}
