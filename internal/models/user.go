package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleApplicant UserRole = "applicant"
	RoleAdmin     UserRole = "admin"
)

// User mirrors the identity records issued by the external auth provider.
// Passwords and sessions are not managed here.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	CPF      string   `json:"cpf" gorm:"size:14;index"`
	Role     UserRole `json:"role" gorm:"default:applicant;size:20"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal is the authenticated caller as seen by this service: an opaque
// id plus the attributes the audit trail needs.
type Principal struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	CPF     string `json:"cpf"`
	IsAdmin bool   `json:"is_admin"`
}
