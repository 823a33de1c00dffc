package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionActive    SubmissionStatus = "Active"
	SubmissionCancelled SubmissionStatus = "Cancelled"
)

// Submission is one applicant's enrollment in one call. At most one Active
// submission may exist per (applicant, call); the postgres layer backs this
// with a partial unique index so concurrent creates cannot both win.
type Submission struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	CallID      uint             `json:"call_id" gorm:"not null;index"`
	ApplicantID string           `json:"applicant_id" gorm:"not null;size:255;index"`
	Status      SubmissionStatus `json:"status" gorm:"not null;default:Active;index"`

	// Set by admin cancellation only; self-cancel removes the row instead.
	CancelNote *string `json:"cancel_note" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Call    Call     `json:"call" gorm:"foreignKey:CallID"`
	Answers []Answer `json:"answers" gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

func (Submission) TableName() string {
	return "submissions"
}

// Answer holds one applicant value for one field. File fields store a
// human-readable summary here; the payloads live in Attachments.
type Answer struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	SubmissionID uint   `json:"submission_id" gorm:"not null;index:idx_answers_submission_field,priority:1"`
	FieldID      uint   `json:"field_id" gorm:"not null;index:idx_answers_submission_field,priority:2"`
	Value        string `json:"value" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Field       FieldDefinition `json:"field" gorm:"foreignKey:FieldID"`
	Attachments []Attachment    `json:"attachments" gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE"`
}

func (Answer) TableName() string {
	return "answers"
}

// Attachment is one uploaded file tied to an answered File field. The bytes
// live in the blob store; StorageKey is the opaque handle to them.
type Attachment struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	AnswerID     uint   `json:"answer_id" gorm:"not null;index"`
	SubmissionID uint   `json:"submission_id" gorm:"not null;index"`
	FieldID      uint   `json:"field_id" gorm:"not null;index"`
	OriginalName string `json:"original_name" gorm:"not null;size:255"`
	StorageKey   string `json:"-" gorm:"not null;size:500"`
	Size         int64  `json:"size" gorm:"not null"`
	MimeType     string `json:"mime_type" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}
