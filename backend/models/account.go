package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account is a login for the content back office. Accounts are never hard-deleted.
type Account struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	Name             string         `gorm:"not null" json:"name"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	Password         string         `gorm:"not null" json:"-"` // Stored hashed
	Role             Role           `gorm:"size:16;not null;default:user;index" json:"role"`
	Active           bool           `gorm:"not null;default:true" json:"active"`
	CreatedByID      *string        `gorm:"size:36" json:"created_by,omitempty"`
	CreatedBy        *Account       `gorm:"foreignKey:CreatedByID" json:"-"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	LastLoginCountry string         `gorm:"size:2" json:"last_login_country,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when none is set.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the account holds the admin role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// AccountSummary is the public shape returned on login.
type AccountSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Summary returns the login-response view of the account.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Name: a.Name, Role: a.Role}
}
