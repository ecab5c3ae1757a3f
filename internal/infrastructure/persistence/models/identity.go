package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/domain/identity"
	"github.com/pharmos/backend/internal/domain/shared"
)

// TenantModel is the persistence model for the Tenant aggregate.
// It carries no tenant_id column and is therefore exempt from the
// automatic tenant filter.
type TenantModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(200);not null"`
	Slug     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Country  string `gorm:"type:varchar(2)"`
	Currency string `gorm:"type:varchar(3)"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *identity.Tenant {
	t := &identity.Tenant{
		Name:     m.Name,
		Slug:     m.Slug,
		Country:  m.Country,
		Currency: m.Currency,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain Tenant
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Name = t.Name
	m.Slug = t.Slug
	m.Country = t.Country
	m.Currency = t.Currency
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// UserModel is the persistence model for the User aggregate.
// Email is unique across all tenants; refresh_token holds the single
// active opaque refresh token.
type UserModel struct {
	TenantAggregateModel
	Email                 string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	DisplayName           string              `gorm:"type:varchar(200)"`
	AvatarURL             string              `gorm:"type:varchar(500)"`
	PasswordHash          string              `gorm:"type:varchar(255)"`
	GoogleSubject         string              `gorm:"type:varchar(100);index"`
	EmailVerified         bool                `gorm:"not null;default:false"`
	Role                  identity.UserRole   `gorm:"type:varchar(30);not null"`
	BranchID              *uuid.UUID          `gorm:"type:uuid;index"`
	Status                identity.UserStatus `gorm:"type:varchar(20);not null;default:'invited'"`
	FailedAttempts        int                 `gorm:"not null;default:0"`
	LockedUntil           *time.Time
	RefreshToken          string `gorm:"type:varchar(120);index"`
	RefreshTokenExpiresAt *time.Time
	LastLoginAt           *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		TenantAggregateRoot:   shared.TenantAggregateRoot{},
		Email:                 m.Email,
		DisplayName:           m.DisplayName,
		AvatarURL:             m.AvatarURL,
		PasswordHash:          m.PasswordHash,
		GoogleSubject:         m.GoogleSubject,
		EmailVerified:         m.EmailVerified,
		Role:                  m.Role,
		BranchID:              m.BranchID,
		Status:                m.Status,
		FailedAttempts:        m.FailedAttempts,
		LockedUntil:           m.LockedUntil,
		RefreshToken:          m.RefreshToken,
		RefreshTokenExpiresAt: m.RefreshTokenExpiresAt,
		LastLoginAt:           m.LastLoginAt,
	}
	m.PopulateTenantAggregateRoot(&u.TenantAggregateRoot)
	return u
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	m.Email = u.Email
	m.DisplayName = u.DisplayName
	m.AvatarURL = u.AvatarURL
	m.PasswordHash = u.PasswordHash
	m.GoogleSubject = u.GoogleSubject
	m.EmailVerified = u.EmailVerified
	m.Role = u.Role
	m.BranchID = u.BranchID
	m.Status = u.Status
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
	m.RefreshToken = u.RefreshToken
	m.RefreshTokenExpiresAt = u.RefreshTokenExpiresAt
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
