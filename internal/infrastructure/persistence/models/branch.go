package models

import (
	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/branch"
)

// BranchModel is the persistence model for the Branch aggregate
type BranchModel struct {
	TenantAggregateModel
	Name      string     `gorm:"type:varchar(100);not null"`
	// Code is unique per tenant; the composite index lives in the migration
	Code      string     `gorm:"type:varchar(20);not null;index"`
	Address   string     `gorm:"type:varchar(500)"`
	Phone     string     `gorm:"type:varchar(50)"`
	ManagerID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (BranchModel) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch
func (m *BranchModel) ToDomain() *branch.Branch {
	b := &branch.Branch{
		Name:      m.Name,
		Code:      m.Code,
		Address:   m.Address,
		Phone:     m.Phone,
		ManagerID: m.ManagerID,
	}
	m.PopulateTenantAggregateRoot(&b.TenantAggregateRoot)
	return b
}

// FromDomain populates the persistence model from a domain Branch
func (m *BranchModel) FromDomain(b *branch.Branch) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.Name = b.Name
	m.Code = b.Code
	m.Address = b.Address
	m.Phone = b.Phone
	m.ManagerID = b.ManagerID
}

// BranchModelFromDomain creates a new persistence model from a domain Branch
func BranchModelFromDomain(b *branch.Branch) *BranchModel {
	m := &BranchModel{}
	m.FromDomain(b)
	return m
}
