package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/portal-editais/edital-service/internal/cache"
	"github.com/portal-editais/edital-service/internal/crypto"
	"github.com/portal-editais/edital-service/internal/events"
	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/validator"
)

func newTestStack(t *testing.T) (*MockRepository, *events.MockEventPublisher, *memoryStore, SubmissionService) {
	t.Helper()

	repo := newMockRepository()
	logger := testLogger()
	cipher, err := crypto.NewFieldCipher("test-secret")
	require.NoError(t, err)

	forms := NewFormService(repo, cache.NoopSchemaCache{}, logger, validator.New())
	audit := NewAuditService(repo, cipher, logger)
	publisher := events.NewMockEventPublisher(logger)
	blobs := newMemoryStore()
	svc := NewSubmissionService(repo, forms, audit, blobs, publisher, logger)

	return repo, publisher, blobs, svc
}

func openCall(fields ...models.FieldDefinition) *models.Call {
	now := time.Now()
	return &models.Call{
		ID:       10,
		Title:    "Monitoria 2026",
		Code:     "ED-2026-01",
		Status:   models.CallOpen,
		OpensAt:  now.Add(-24 * time.Hour),
		ClosesAt: now.Add(24 * time.Hour),
		Fields:   fields,
	}
}

func applicant() models.Principal {
	return models.Principal{ID: "user-1", Name: "Ana Souza", CPF: "111.222.333-44"}
}

func admin() models.Principal {
	return models.Principal{ID: "admin-1", Name: "Carlos Lima", CPF: "555.666.777-88", IsAdmin: true}
}

func TestSubmissionService_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("successful enrollment persists answers and audit record", func(t *testing.T) {
		repo, publisher, _, svc := newTestStack(t)

		call := openCall(
			models.FieldDefinition{ID: 1, CallID: 10, Label: "Nome completo", Type: models.FieldShortText, Required: true, Order: 1},
			models.FieldDefinition{ID: 2, CallID: 10, Label: "Documentos", Type: models.FieldFile, Required: true, Order: 2},
		)
		repo.callRepo.On("GetByIDWithFields", mock.Anything, uint(10)).Return(call, nil)
		repo.submissionRepo.On("GetByApplicantAndCall", mock.Anything, "user-1", uint(10)).
			Return(nil, gorm.ErrRecordNotFound)
		repo.submissionRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Submission")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*models.Submission).ID = 77
			}).Return(nil)
		repo.submissionRepo.On("CreateAnswer", mock.Anything, mock.AnythingOfType("*models.Answer")).Return(nil)
		repo.submissionRepo.On("CreateAttachment", mock.Anything, mock.AnythingOfType("*models.Attachment")).Return(nil)
		repo.logRepo.On("Append", mock.Anything, mock.MatchedBy(func(rec *models.EnrollmentLog) bool {
			return rec.Action == models.ActionEnroll && rec.CallCode == "ED-2026-01"
		})).Return(nil)

		submission, err := svc.Enroll(ctx, &EnrollRequest{
			CallID:  10,
			Answers: map[uint]string{1: "Ana Souza"},
			Files: []FileUpload{
				{FieldID: 2, Name: "rg.pdf", MimeType: "application/pdf", Data: []byte("pdf-bytes")},
			},
		}, applicant())

		require.NoError(t, err)
		assert.Equal(t, uint(77), submission.ID)
		assert.Equal(t, models.SubmissionActive, submission.Status)

		// One answer per field: text value plus the file summary.
		answerCalls := 0
		var fileAnswer *models.Answer
		for _, c := range repo.submissionRepo.Calls {
			if c.Method == "CreateAnswer" {
				answerCalls++
				if a := c.Arguments.Get(1).(*models.Answer); a.FieldID == 2 {
					fileAnswer = a
				}
			}
		}
		assert.Equal(t, 2, answerCalls)
		require.NotNil(t, fileAnswer)
		assert.Equal(t, "rg.pdf", fileAnswer.Value)

		published := publisher.PublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventSubmissionEnrolled, published[0].Type)
	})

	t.Run("file answer shows the filename or the count", func(t *testing.T) {
		one := []storedUpload{{upload: FileUpload{Name: "rg.pdf"}}}
		three := []storedUpload{
			{upload: FileUpload{Name: "a.pdf"}},
			{upload: FileUpload{Name: "b.pdf"}},
			{upload: FileUpload{Name: "c.pdf"}},
		}
		assert.Equal(t, "rg.pdf", fileSummary(one))
		assert.Equal(t, "3 arquivos anexados", fileSummary(three))
	})

	t.Run("second active enrollment is rejected", func(t *testing.T) {
		repo, publisher, _, svc := newTestStack(t)

		call := openCall()
		repo.callRepo.On("GetByIDWithFields", mock.Anything, uint(10)).Return(call, nil)
		repo.submissionRepo.On("GetByApplicantAndCall", mock.Anything, "user-1", uint(10)).
			Return(&models.Submission{ID: 5, CallID: 10, ApplicantID: "user-1", Status: models.SubmissionActive}, nil)

		_, err := svc.Enroll(ctx, &EnrollRequest{CallID: 10}, applicant())

		assert.ErrorIs(t, err, ErrDuplicateActive)
		assert.Empty(t, publisher.PublishedEvents())
	})

	t.Run("enrollment outside the window is rejected", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		call := openCall()
		call.ClosesAt = time.Now().Add(-time.Hour)
		repo.callRepo.On("GetByIDWithFields", mock.Anything, uint(10)).Return(call, nil)

		_, err := svc.Enroll(ctx, &EnrollRequest{CallID: 10}, applicant())

		assert.ErrorIs(t, err, ErrOutsideWindow)
	})

	t.Run("draft call rejects enrollment even inside the window", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		call := openCall()
		call.Status = models.CallDraft
		repo.callRepo.On("GetByIDWithFields", mock.Anything, uint(10)).Return(call, nil)

		_, err := svc.Enroll(ctx, &EnrollRequest{CallID: 10}, applicant())

		assert.ErrorIs(t, err, ErrOutsideWindow)
	})

	t.Run("missing required answer names the field", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		call := openCall(
			models.FieldDefinition{ID: 1, CallID: 10, Label: "Justificativa", Type: models.FieldLongText, Required: true, Order: 1},
		)
		repo.callRepo.On("GetByIDWithFields", mock.Anything, uint(10)).Return(call, nil)
		repo.submissionRepo.On("GetByApplicantAndCall", mock.Anything, "user-1", uint(10)).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Enroll(ctx, &EnrollRequest{CallID: 10, Answers: map[uint]string{}}, applicant())

		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, uint(1), missing.FieldID)
		assert.Equal(t, "Justificativa", missing.FieldLabel)
	})

	t.Run("cancelled submission is reactivated in place", func(t *testing.T) {
		repo, publisher, _, svc := newTestStack(t)

		call := openCall(
			models.FieldDefinition{ID: 1, CallID: 10, Label: "Nome", Type: models.FieldShortText, Required: true, Order: 1},
		)
		note := "cancelado pela coordenacao"
		cancelled := &models.Submission{
			ID: 42, CallID: 10, ApplicantID: "user-1",
			Status: models.SubmissionCancelled, CancelNote: &note,
		}
		repo.callRepo.On("GetByIDWithFields", mock.Anything, uint(10)).Return(call, nil)
		repo.submissionRepo.On("GetByApplicantAndCall", mock.Anything, "user-1", uint(10)).Return(cancelled, nil)
		repo.submissionRepo.On("GetAttachments", mock.Anything, uint(42)).Return([]*models.Attachment{}, nil)
		repo.submissionRepo.On("DeleteAttachments", mock.Anything, uint(42)).Return(nil)
		repo.submissionRepo.On("DeleteAnswers", mock.Anything, uint(42)).Return(nil)
		repo.submissionRepo.On("Update", mock.Anything, mock.MatchedBy(func(s *models.Submission) bool {
			return s.ID == 42 && s.Status == models.SubmissionActive && s.CancelNote == nil
		})).Return(nil)
		repo.submissionRepo.On("CreateAnswer", mock.Anything, mock.AnythingOfType("*models.Answer")).Return(nil)
		repo.logRepo.On("Append", mock.Anything, mock.AnythingOfType("*models.EnrollmentLog")).Return(nil)

		submission, err := svc.Enroll(ctx, &EnrollRequest{
			CallID:  10,
			Answers: map[uint]string{1: "Ana Souza"},
		}, applicant())

		require.NoError(t, err)
		assert.Equal(t, uint(42), submission.ID)
		repo.submissionRepo.AssertCalled(t, "DeleteAnswers", mock.Anything, uint(42))

		published := publisher.PublishedEvents()
		require.Len(t, published, 1)
		data := published[0].Data.(events.SubmissionEnrolledEvent)
		assert.True(t, data.Reactivated)
	})

	t.Run("losing a create race maps the unique violation", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		call := openCall()
		repo.callRepo.On("GetByIDWithFields", mock.Anything, uint(10)).Return(call, nil)
		repo.submissionRepo.On("GetByApplicantAndCall", mock.Anything, "user-1", uint(10)).
			Return(nil, gorm.ErrRecordNotFound)
		repo.submissionRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Submission")).
			Return(gorm.ErrDuplicatedKey)

		_, err := svc.Enroll(ctx, &EnrollRequest{CallID: 10}, applicant())

		assert.ErrorIs(t, err, ErrDuplicateActive)
	})
}

func TestSubmissionService_SelfCancel(t *testing.T) {
	ctx := context.Background()

	activeSubmission := func() *models.Submission {
		return &models.Submission{
			ID: 42, CallID: 10, ApplicantID: "user-1",
			Status: models.SubmissionActive, Call: *openCall(),
		}
	}

	t.Run("owner self-cancel hard deletes and cleans blobs", func(t *testing.T) {
		repo, publisher, blobs, svc := newTestStack(t)

		key, err := blobs.Put(ctx, []byte("pdf"), "rg.pdf")
		require.NoError(t, err)

		repo.submissionRepo.On("GetByID", mock.Anything, uint(42)).Return(activeSubmission(), nil)
		repo.submissionRepo.On("GetAttachments", mock.Anything, uint(42)).
			Return([]*models.Attachment{{ID: 1, SubmissionID: 42, StorageKey: key}}, nil)
		repo.submissionRepo.On("HardDelete", mock.Anything, uint(42)).Return(nil)
		repo.logRepo.On("Append", mock.Anything, mock.MatchedBy(func(rec *models.EnrollmentLog) bool {
			return rec.Action == models.ActionSelfCancel
		})).Return(nil)

		err = svc.SelfCancel(ctx, 42, applicant())

		require.NoError(t, err)
		repo.submissionRepo.AssertCalled(t, "HardDelete", mock.Anything, uint(42))
		assert.Empty(t, blobs.blobs)

		published := publisher.PublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventSubmissionSelfCancel, published[0].Type)
	})

	t.Run("non-owner cannot self-cancel", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		repo.submissionRepo.On("GetByID", mock.Anything, uint(42)).Return(activeSubmission(), nil)

		err := svc.SelfCancel(ctx, 42, models.Principal{ID: "user-2"})

		var perm *PermissionError
		assert.ErrorAs(t, err, &perm)
	})

	t.Run("self-cancel after the window closed is rejected", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		submission := activeSubmission()
		submission.Call.ClosesAt = time.Now().Add(-time.Hour)
		repo.submissionRepo.On("GetByID", mock.Anything, uint(42)).Return(submission, nil)

		err := svc.SelfCancel(ctx, 42, applicant())

		assert.ErrorIs(t, err, ErrWindowClosed)
		repo.submissionRepo.AssertNotCalled(t, "HardDelete", mock.Anything, uint(42))
	})

	t.Run("unknown submission", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		repo.submissionRepo.On("GetByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		err := svc.SelfCancel(ctx, 99, applicant())

		assert.ErrorIs(t, err, ErrSubmissionNotFound)
	})
}

func TestSubmissionService_AdminCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("admin cancel keeps the row with a note", func(t *testing.T) {
		repo, publisher, _, svc := newTestStack(t)

		submission := &models.Submission{
			ID: 42, CallID: 10, ApplicantID: "user-1",
			Status: models.SubmissionActive, Call: *openCall(),
		}
		repo.submissionRepo.On("GetByID", mock.Anything, uint(42)).Return(submission, nil)
		repo.userRepo.On("GetByID", mock.Anything, "user-1").
			Return(&models.User{ID: "user-1", FullName: "Ana Souza", CPF: "111.222.333-44"}, nil)
		repo.submissionRepo.On("Update", mock.Anything, mock.MatchedBy(func(s *models.Submission) bool {
			return s.Status == models.SubmissionCancelled && s.CancelNote != nil && *s.CancelNote == "documentos ilegiveis"
		})).Return(nil)
		repo.logRepo.On("Append", mock.Anything, mock.MatchedBy(func(rec *models.EnrollmentLog) bool {
			return rec.Action == models.ActionAdminCancel
		})).Return(nil)

		note := "documentos ilegiveis"
		err := svc.AdminCancel(ctx, 42, &note, admin())

		require.NoError(t, err)
		repo.submissionRepo.AssertNotCalled(t, "HardDelete", mock.Anything, uint(42))

		published := publisher.PublishedEvents()
		require.Len(t, published, 1)
		data := published[0].Data.(events.SubmissionCancelledEvent)
		assert.Equal(t, "admin-1", data.ActorID)
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		_, _, _, svc := newTestStack(t)

		err := svc.AdminCancel(ctx, 42, nil, applicant())

		var perm *PermissionError
		assert.ErrorAs(t, err, &perm)
	})

	t.Run("already cancelled submission is rejected", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		submission := &models.Submission{
			ID: 42, CallID: 10, ApplicantID: "user-1",
			Status: models.SubmissionCancelled, Call: *openCall(),
		}
		repo.submissionRepo.On("GetByID", mock.Anything, uint(42)).Return(submission, nil)

		err := svc.AdminCancel(ctx, 42, nil, admin())

		assert.ErrorIs(t, err, ErrSubmissionCancelled)
	})
}

func TestSubmissionService_BulkAdminCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels the active subset and audits each row", func(t *testing.T) {
		repo, publisher, _, svc := newTestStack(t)

		call := openCall()
		snapshots := []*models.Submission{
			{ID: 1, CallID: 10, ApplicantID: "user-1", Status: models.SubmissionActive, Call: *call},
			{ID: 3, CallID: 10, ApplicantID: "user-3", Status: models.SubmissionActive, Call: *call},
		}
		ids := []uint{1, 2, 3}
		note := "edital suspenso"

		repo.submissionRepo.On("GetActiveByIDs", mock.Anything, ids).Return(snapshots, nil)
		repo.submissionRepo.On("BulkCancel", mock.Anything, ids, &note).Return(int64(2), nil)
		repo.userRepo.On("GetByID", mock.Anything, mock.AnythingOfType("string")).
			Return(nil, gorm.ErrRecordNotFound)
		repo.logRepo.On("Append", mock.Anything, mock.MatchedBy(func(rec *models.EnrollmentLog) bool {
			return rec.Action == models.ActionAdminCancel
		})).Return(nil)

		affected, err := svc.BulkAdminCancel(ctx, ids, &note, admin())

		require.NoError(t, err)
		assert.Equal(t, int64(2), affected)
		repo.logRepo.AssertNumberOfCalls(t, "Append", 2)
		assert.Len(t, publisher.PublishedEvents(), 2)
	})

	t.Run("empty id list is a no-op", func(t *testing.T) {
		repo, _, _, svc := newTestStack(t)

		affected, err := svc.BulkAdminCancel(ctx, nil, nil, admin())

		require.NoError(t, err)
		assert.Zero(t, affected)
		repo.submissionRepo.AssertNotCalled(t, "BulkCancel", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		_, _, _, svc := newTestStack(t)

		_, err := svc.BulkAdminCancel(ctx, []uint{1}, nil, applicant())

		var perm *PermissionError
		assert.ErrorAs(t, err, &perm)
	})
}
