package models

import (
	"time"

	"gorm.io/datatypes"
)

type LogAction string

const (
	ActionEnroll      LogAction = "Enroll"
	ActionSelfCancel  LogAction = "SelfCancel"
	ActionAdminCancel LogAction = "AdminCancel"
)

// EnrollmentLog is one append-only record of a submission state change.
//
// The six Encrypted* fields hold personal data and are written only in
// encrypted form ("hex(iv):hex(ciphertext)"); CreatedAt is the single
// attribute the store can filter on, so it stays in clear together with the
// non-sensitive call title/code. Rows are never updated or deleted.
type EnrollmentLog struct {
	ID     uint      `json:"id" gorm:"primaryKey"`
	Action LogAction `json:"action" gorm:"not null;size:20"`

	// Applicant whose submission changed state.
	EncryptedApplicantID   string `json:"-" gorm:"column:applicant_id;type:text"`
	EncryptedApplicantCPF  string `json:"-" gorm:"column:applicant_cpf;type:text"`
	EncryptedApplicantName string `json:"-" gorm:"column:applicant_name;type:text"`

	// Actor who performed the action (the applicant themselves on Enroll and
	// SelfCancel, an administrator otherwise).
	EncryptedActorID   string `json:"-" gorm:"column:actor_id;type:text"`
	EncryptedActorCPF  string `json:"-" gorm:"column:actor_cpf;type:text"`
	EncryptedActorName string `json:"-" gorm:"column:actor_name;type:text"`

	CallTitle string `json:"call_title" gorm:"size:200"`
	CallCode  string `json:"call_code" gorm:"size:50"`

	Metadata datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (EnrollmentLog) TableName() string {
	return "enrollment_logs"
}

// LogEntry is the decrypted view returned to administrators; it never touches
// the database.
type LogEntry struct {
	ID            uint      `json:"id"`
	Action        LogAction `json:"action"`
	ApplicantID   string    `json:"applicant_id"`
	ApplicantCPF  string    `json:"applicant_cpf"`
	ApplicantName string    `json:"applicant_name"`
	ActorID       string    `json:"actor_id"`
	ActorCPF      string    `json:"actor_cpf"`
	ActorName     string    `json:"actor_name"`
	CallTitle     string    `json:"call_title"`
	CallCode      string    `json:"call_code"`
	CreatedAt     time.Time `json:"created_at"`
}
