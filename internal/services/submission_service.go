package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/portal-editais/edital-service/internal/events"
	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"github.com/portal-editais/edital-service/internal/storage"
)

// FileUpload is one uploaded document, already read into memory by the
// handler layer.
type FileUpload struct {
	FieldID  uint
	Name     string
	MimeType string
	Data     []byte
}

// EnrollRequest carries the applicant's answer set keyed by field id.
type EnrollRequest struct {
	CallID  uint
	Answers map[uint]string
	Files   []FileUpload
}

// SubmissionService owns the submission lifecycle: enroll, cancel and the
// administrative bulk cancel. Every state change appends an audit record in
// the same transaction and emits an event after commit.
type SubmissionService interface {
	Enroll(ctx context.Context, req *EnrollRequest, applicant models.Principal) (*models.Submission, error)
	GetSubmission(ctx context.Context, id uint, actor models.Principal) (*models.Submission, error)
	ListSubmissions(ctx context.Context, filters repositories.SubmissionFilters, actor models.Principal) ([]*models.Submission, int64, error)

	// SelfCancel removes the submission entirely: the applicant withdrew, so
	// the row and its answers are deleted rather than flagged.
	SelfCancel(ctx context.Context, id uint, applicant models.Principal) error

	// AdminCancel keeps the row and marks it Cancelled with a note, so the
	// applicant can see why and may re-enroll while the window is open.
	AdminCancel(ctx context.Context, id uint, note *string, actor models.Principal) error

	// BulkAdminCancel cancels every currently Active submission among ids in
	// one set-based update and returns how many rows actually changed.
	BulkAdminCancel(ctx context.Context, ids []uint, note *string, actor models.Principal) (int64, error)
}

type submissionService struct {
	repo      repositories.Repository
	forms     FormService
	audit     AuditService
	blobs     storage.Store
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewSubmissionService(
	repo repositories.Repository,
	forms FormService,
	audit AuditService,
	blobs storage.Store,
	publisher events.EventPublisher,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		forms:     forms,
		audit:     audit,
		blobs:     blobs,
		publisher: publisher,
		logger:    logger,
	}
}

// ===== ENROLL =====

func (s *submissionService) Enroll(ctx context.Context, req *EnrollRequest, applicant models.Principal) (*models.Submission, error) {
	s.logger.Info("Enrolling applicant", "call_id", req.CallID, "applicant_id", applicant.ID)

	call, err := s.repo.Call().GetByIDWithFields(ctx, req.CallID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	now := time.Now()
	if call.Status != models.CallOpen || !call.IsWindowOpen(now) {
		return nil, ErrOutsideWindow
	}

	// A cancelled submission for the pair is reactivated in place so the
	// applicant keeps the same submission id across re-enrollments.
	var reactivate *models.Submission
	var staleBlobs []string
	existing, err := s.repo.Submission().GetByApplicantAndCall(ctx, applicant.ID, req.CallID)
	switch {
	case err == nil && existing.Status == models.SubmissionActive:
		return nil, ErrDuplicateActive
	case err == nil:
		reactivate = existing
		oldAttachments, err := s.repo.Submission().GetAttachments(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load previous attachments: %w", err)
		}
		for _, a := range oldAttachments {
			staleBlobs = append(staleBlobs, a.StorageKey)
		}
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to check existing submission: %w", err)
	}

	filesByField := make(map[uint][]FileUpload)
	for _, f := range req.Files {
		filesByField[f.FieldID] = append(filesByField[f.FieldID], f)
	}
	if err := s.forms.ValidateAnswerSet(call, req.Answers, filesByField); err != nil {
		return nil, err
	}

	// Blobs are written before the transaction opens; if the transaction
	// fails they are deleted again.
	stored, err := s.storeUploads(ctx, req.Files)
	if err != nil {
		return nil, err
	}

	var submission *models.Submission
	txErr := s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		if reactivate != nil {
			if err := r.Submission().DeleteAttachments(ctx, reactivate.ID); err != nil {
				return fmt.Errorf("failed to clear previous attachments: %w", err)
			}
			if err := r.Submission().DeleteAnswers(ctx, reactivate.ID); err != nil {
				return fmt.Errorf("failed to clear previous answers: %w", err)
			}
			reactivate.Status = models.SubmissionActive
			reactivate.CancelNote = nil
			if err := r.Submission().Update(ctx, reactivate); err != nil {
				return fmt.Errorf("failed to reactivate submission: %w", err)
			}
			submission = reactivate
		} else {
			submission = &models.Submission{
				CallID:      req.CallID,
				ApplicantID: applicant.ID,
				Status:      models.SubmissionActive,
			}
			if err := r.Submission().Create(ctx, submission); err != nil {
				if repositories.IsDuplicateError(err) {
					return ErrDuplicateActive
				}
				return fmt.Errorf("failed to create submission: %w", err)
			}
		}

		if err := s.persistAnswers(ctx, r, submission.ID, call, req.Answers, filesByField, stored); err != nil {
			return err
		}

		return s.audit.Record(ctx, r, RecordParams{
			Action:    models.ActionEnroll,
			Applicant: applicant,
			Actor:     applicant,
			CallTitle: call.Title,
			CallCode:  call.Code,
			Metadata: map[string]interface{}{
				"submission_id": submission.ID,
				"reactivated":   reactivate != nil,
			},
		})
	})
	if txErr != nil {
		s.discardBlobs(ctx, storedKeys(stored))
		return nil, txErr
	}

	// Attachments of the cancelled round are unreachable once the
	// transaction commits; removal is best effort.
	s.discardBlobs(ctx, staleBlobs)

	s.publish(ctx, models.ActionEnroll, events.SubmissionEnrolledEvent{
		SubmissionID: submission.ID,
		CallID:       call.ID,
		CallTitle:    call.Title,
		ApplicantID:  applicant.ID,
		Reactivated:  reactivate != nil,
		EnrolledAt:   now,
	})

	s.logger.Info("Applicant enrolled",
		"submission_id", submission.ID,
		"call_id", call.ID,
		"reactivated", reactivate != nil,
	)
	return submission, nil
}

// ===== READS =====

func (s *submissionService) GetSubmission(ctx context.Context, id uint, actor models.Principal) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if !actor.IsAdmin && submission.ApplicantID != actor.ID {
		return nil, NewPermissionError(actor.ID, id, "submission", "read", "not the submission owner")
	}
	return submission, nil
}

func (s *submissionService) ListSubmissions(ctx context.Context, filters repositories.SubmissionFilters, actor models.Principal) ([]*models.Submission, int64, error) {
	if !actor.IsAdmin {
		// Applicants only ever see their own submissions.
		filters.ApplicantID = &actor.ID
	}
	submissions, total, err := s.repo.Submission().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

// ===== CANCELLATION =====

func (s *submissionService) SelfCancel(ctx context.Context, id uint, applicant models.Principal) error {
	s.logger.Info("Self-cancelling submission", "submission_id", id, "applicant_id", applicant.ID)

	submission, err := s.repo.Submission().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to get submission: %w", err)
	}
	if submission.ApplicantID != applicant.ID && !applicant.IsAdmin {
		return NewPermissionError(applicant.ID, id, "submission", "cancel", "not the submission owner")
	}
	if submission.Call.Status != models.CallOpen || !submission.Call.IsWindowOpen(time.Now()) {
		return ErrWindowClosed
	}

	attachments, err := s.repo.Submission().GetAttachments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}
	blobs := make([]string, 0, len(attachments))
	for _, a := range attachments {
		blobs = append(blobs, a.StorageKey)
	}

	call := submission.Call
	txErr := s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		if err := r.Submission().HardDelete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete submission: %w", err)
		}
		return s.audit.Record(ctx, r, RecordParams{
			Action:    models.ActionSelfCancel,
			Applicant: applicant,
			Actor:     applicant,
			CallTitle: call.Title,
			CallCode:  call.Code,
			Metadata:  map[string]interface{}{"submission_id": id},
		})
	})
	if txErr != nil {
		return txErr
	}

	s.discardBlobs(ctx, blobs)
	s.publish(ctx, models.ActionSelfCancel, events.SubmissionCancelledEvent{
		SubmissionID: id,
		CallID:       call.ID,
		CallTitle:    call.Title,
		ApplicantID:  applicant.ID,
		ActorID:      applicant.ID,
		CancelledAt:  time.Now(),
	})

	s.logger.Info("Submission self-cancelled and removed", "submission_id", id)
	return nil
}

func (s *submissionService) AdminCancel(ctx context.Context, id uint, note *string, actor models.Principal) error {
	s.logger.Info("Admin-cancelling submission", "submission_id", id, "actor_id", actor.ID)

	if !actor.IsAdmin {
		return NewPermissionError(actor.ID, id, "submission", "admin_cancel", "administrator role required")
	}

	submission, err := s.repo.Submission().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to get submission: %w", err)
	}
	if submission.Status != models.SubmissionActive {
		return ErrSubmissionCancelled
	}

	applicant := s.applicantPrincipal(ctx, submission.ApplicantID)
	call := submission.Call

	txErr := s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		submission.Status = models.SubmissionCancelled
		submission.CancelNote = note
		if err := r.Submission().Update(ctx, submission); err != nil {
			return fmt.Errorf("failed to cancel submission: %w", err)
		}
		return s.audit.Record(ctx, r, RecordParams{
			Action:    models.ActionAdminCancel,
			Applicant: applicant,
			Actor:     actor,
			CallTitle: call.Title,
			CallCode:  call.Code,
			Metadata:  metadataWithNote(submission.ID, note),
		})
	})
	if txErr != nil {
		return txErr
	}

	s.publish(ctx, models.ActionAdminCancel, events.SubmissionCancelledEvent{
		SubmissionID: submission.ID,
		CallID:       call.ID,
		CallTitle:    call.Title,
		ApplicantID:  submission.ApplicantID,
		ActorID:      actor.ID,
		Note:         note,
		CancelledAt:  time.Now(),
	})
	return nil
}

func (s *submissionService) BulkAdminCancel(ctx context.Context, ids []uint, note *string, actor models.Principal) (int64, error) {
	s.logger.Info("Bulk-cancelling submissions", "count", len(ids), "actor_id", actor.ID)

	if !actor.IsAdmin {
		return 0, NewPermissionError(actor.ID, 0, "submission", "bulk_cancel", "administrator role required")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	// Snapshots are taken before the update flips the rows; they feed the
	// audit records and the events for exactly the rows that were Active.
	snapshots, err := s.repo.Submission().GetActiveByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot submissions: %w", err)
	}

	var affected int64
	txErr := s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		affected, err = r.Submission().BulkCancel(ctx, ids, note)
		if err != nil {
			return fmt.Errorf("failed to bulk cancel: %w", err)
		}
		if affected != int64(len(snapshots)) {
			s.logger.Warn("Bulk cancel affected a different row count than snapshotted",
				"affected", affected, "snapshotted", len(snapshots))
		}
		for _, snap := range snapshots {
			applicant := s.applicantPrincipal(ctx, snap.ApplicantID)
			if err := s.audit.Record(ctx, r, RecordParams{
				Action:    models.ActionAdminCancel,
				Applicant: applicant,
				Actor:     actor,
				CallTitle: snap.Call.Title,
				CallCode:  snap.Call.Code,
				Metadata:  metadataWithNote(snap.ID, note),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}

	for _, snap := range snapshots {
		s.publish(ctx, models.ActionAdminCancel, events.SubmissionCancelledEvent{
			SubmissionID: snap.ID,
			CallID:       snap.CallID,
			CallTitle:    snap.Call.Title,
			ApplicantID:  snap.ApplicantID,
			ActorID:      actor.ID,
			Note:         note,
			CancelledAt:  time.Now(),
		})
	}

	s.logger.Info("Bulk cancel finished", "affected", affected)
	return affected, nil
}

// ===== HELPERS =====

type storedUpload struct {
	upload FileUpload
	key    string
}

func (s *submissionService) storeUploads(ctx context.Context, files []FileUpload) ([]storedUpload, error) {
	stored := make([]storedUpload, 0, len(files))
	for _, f := range files {
		key, err := s.blobs.Put(ctx, f.Data, f.Name)
		if err != nil {
			s.discardBlobs(ctx, storedKeys(stored))
			return nil, fmt.Errorf("failed to store upload %q: %w", f.Name, err)
		}
		stored = append(stored, storedUpload{upload: f, key: key})
	}
	return stored, nil
}

// persistAnswers writes one answer row per answered field. File fields get a
// human-readable summary as their value and one attachment row per upload.
func (s *submissionService) persistAnswers(
	ctx context.Context,
	r repositories.Repository,
	submissionID uint,
	call *models.Call,
	answers map[uint]string,
	filesByField map[uint][]FileUpload,
	stored []storedUpload,
) error {
	keyByUpload := make(map[uint][]storedUpload)
	for _, su := range stored {
		keyByUpload[su.upload.FieldID] = append(keyByUpload[su.upload.FieldID], su)
	}

	for _, field := range call.Fields {
		if field.Type == models.FieldFile {
			uploads := keyByUpload[field.ID]
			if len(uploads) == 0 {
				continue
			}
			answer := &models.Answer{
				SubmissionID: submissionID,
				FieldID:      field.ID,
				Value:        fileSummary(uploads),
			}
			if err := r.Submission().CreateAnswer(ctx, answer); err != nil {
				return fmt.Errorf("failed to create file answer: %w", err)
			}
			for _, su := range uploads {
				attachment := &models.Attachment{
					SubmissionID: submissionID,
					AnswerID:     answer.ID,
					FieldID:      field.ID,
					OriginalName: su.upload.Name,
					StorageKey:   su.key,
					Size:         int64(len(su.upload.Data)),
					MimeType:     su.upload.MimeType,
				}
				if err := r.Submission().CreateAttachment(ctx, attachment); err != nil {
					return fmt.Errorf("failed to create attachment: %w", err)
				}
			}
			continue
		}

		value, ok := answers[field.ID]
		if !ok || value == "" {
			continue
		}
		answer := &models.Answer{
			SubmissionID: submissionID,
			FieldID:      field.ID,
			Value:        value,
		}
		if err := r.Submission().CreateAnswer(ctx, answer); err != nil {
			return fmt.Errorf("failed to create answer: %w", err)
		}
	}
	return nil
}

// fileSummary renders the stored value of a File answer; the documents
// themselves live in the blob store. A single upload shows its filename, a
// batch shows the count.
func fileSummary(uploads []storedUpload) string {
	if len(uploads) == 1 {
		return uploads[0].upload.Name
	}
	return fmt.Sprintf("%d arquivos anexados", len(uploads))
}

// applicantPrincipal resolves the applicant's identity for audit records on
// administrative actions. A missing user row degrades to the bare id.
func (s *submissionService) applicantPrincipal(ctx context.Context, applicantID string) models.Principal {
	user, err := s.repo.User().GetByID(ctx, applicantID)
	if err != nil {
		s.logger.Warn("Applicant user record not found for audit", "applicant_id", applicantID)
		return models.Principal{ID: applicantID}
	}
	return models.Principal{ID: user.ID, Name: user.FullName, CPF: user.CPF, IsAdmin: user.IsAdmin()}
}

func (s *submissionService) discardBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to remove blob", "key", key, "error", err)
		}
	}
}

func storedKeys(stored []storedUpload) []string {
	keys := make([]string, 0, len(stored))
	for _, su := range stored {
		keys = append(keys, su.key)
	}
	return keys
}

func metadataWithNote(submissionID uint, note *string) map[string]interface{} {
	md := map[string]interface{}{"submission_id": submissionID}
	if note != nil {
		md["note"] = *note
	}
	return md
}

// publish emits the wire event for the audit action just recorded. The event
// type is derived from the action so the two streams cannot drift apart.
func (s *submissionService) publish(ctx context.Context, action models.LogAction, data interface{}) {
	if s.publisher == nil {
		return
	}
	event := events.NewEnrollmentEvent(events.ActionEventType(action), data)
	if err := s.publisher.PublishEnrollmentEvent(ctx, event); err != nil {
		// State is already committed; delivery failures must not surface to
		// the applicant.
		s.logger.Error("Failed to publish enrollment event", "event_type", event.Type, "error", err)
	}
}
