package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/portal-editais/edital-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type CallFilters struct {
	Status    *models.CallStatus `json:"status"`
	CreatedBy *string            `json:"created_by"`
	OpenAt    *time.Time         `json:"open_at"` // calls whose window contains this instant
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "title", "opens_at"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	Status      *models.SubmissionStatus `json:"status"`
	CallID      *uint                    `json:"call_id"`
	ApplicantID *string                  `json:"applicant_id"`
	DateFrom    *time.Time               `json:"date_from"`
	DateTo      *time.Time               `json:"date_to"`
	Limit       int                      `json:"limit"`
	Offset      int                      `json:"offset"`
}

// LogFilters carries only what the store can filter on: the date range over
// the unencrypted created_at column. Free-text and action filtering happen
// after decryption, in the service.
type LogFilters struct {
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ===== AGGREGATE =====

// Repository bundles the per-entity repositories behind one handle so
// services can run several of them inside a single transaction.
type Repository interface {
	Call() CallRepository
	Field() FieldRepository
	Submission() SubmissionRepository
	EnrollmentLog() EnrollmentLogRepository
	User() UserRepository

	// WithTransaction runs fn against a Repository bound to one database
	// transaction; fn returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
}

// IsNotFoundError reports whether err is the store's missing-row error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a uniqueness violation, such as the
// partial unique index guarding one Active submission per (applicant, call).
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
