package repositories

import (
	"context"

	"github.com/portal-editais/edital-service/internal/models"
)

// SubmissionRepository persists submissions, answers and attachment rows.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error

	// HardDelete removes the submission row together with its answers and
	// attachment rows (the self-cancel path).
	HardDelete(ctx context.Context, id uint) error

	List(ctx context.Context, filters SubmissionFilters) ([]*models.Submission, int64, error)

	// GetByApplicantAndCall returns the submission for the pair regardless of
	// status, or a not-found error. The partial unique Active index plus the
	// reactivation flow keep this at most one row per pair in practice.
	GetByApplicantAndCall(ctx context.Context, applicantID string, callID uint) (*models.Submission, error)

	// Answer management
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	DeleteAnswers(ctx context.Context, submissionID uint) error
	GetAnswers(ctx context.Context, submissionID uint) ([]*models.Answer, error)

	// Attachment management
	CreateAttachment(ctx context.Context, attachment *models.Attachment) error
	GetAttachments(ctx context.Context, submissionID uint) ([]*models.Attachment, error)
	DeleteAttachments(ctx context.Context, submissionID uint) error

	// BulkCancel marks the given ids Cancelled where they are currently
	// Active and returns how many rows actually changed.
	BulkCancel(ctx context.Context, ids []uint, note *string) (int64, error)

	// GetActiveByIDs loads the pre-cancel snapshots (with call preloaded)
	// for the subset of ids that are currently Active.
	GetActiveByIDs(ctx context.Context, ids []uint) ([]*models.Submission, error)
}

// EnrollmentLogRepository is append-only: no update or delete exists.
type EnrollmentLogRepository interface {
	Append(ctx context.Context, record *models.EnrollmentLog) error

	// ListByDateRange applies the store-side phase of the audit query: the
	// date filter over the clear created_at column, newest first.
	ListByDateRange(ctx context.Context, filters LogFilters) ([]*models.EnrollmentLog, int64, error)
}
