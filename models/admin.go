package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultAdminRole is assigned when an admin is created without an explicit role.
const DefaultAdminRole = "admin"

// Admin is a portal administrator. Passwords are stored as bcrypt hashes only.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;default:'admin'" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate hook ensures timestamps and role are set even when not provided.
func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Role == "" {
		a.Role = DefaultAdminRole
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (a *Admin) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}
