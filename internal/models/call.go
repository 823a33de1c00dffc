package models

import (
	"time"

	"gorm.io/gorm"
)

type CallStatus string

const (
	CallDraft  CallStatus = "Draft"
	CallOpen   CallStatus = "Open"
	CallClosed CallStatus = "Closed"
)

// Call is a published edital: one application opportunity with its own
// enrollment window and dynamic form.
type Call struct {
	ID     uint       `json:"id" gorm:"primaryKey"`
	Title  string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Code   string     `json:"code" gorm:"not null;size:50;uniqueIndex" validate:"required,max=50"`
	Status CallStatus `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Open Closed"`

	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`

	// Enrollment window. Submissions are only accepted inside it.
	OpensAt  time.Time `json:"opens_at" gorm:"not null" validate:"required"`
	ClosesAt time.Time `json:"closes_at" gorm:"not null" validate:"required"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Fields      []FieldDefinition `json:"fields" gorm:"foreignKey:CallID"`
	Submissions []Submission      `json:"-" gorm:"foreignKey:CallID"`
}

func (Call) TableName() string {
	return "calls"
}

// IsWindowOpen reports whether the enrollment window contains now.
func (c *Call) IsWindowOpen(now time.Time) bool {
	return !now.Before(c.OpensAt) && !now.After(c.ClosesAt)
}
