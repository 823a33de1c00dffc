package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/portal-editais/edital-service/internal/crypto"
	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
)

// AuditService writes and reads the append-only enrollment log. Personal data
// goes through the field cipher on the way in and out; only the timestamp and
// the call title/code are stored in clear.
type AuditService interface {
	// Record appends one log row through the given repository handle, so a
	// caller inside a transaction passes its transactional repository and the
	// record commits or rolls back with the state change it describes.
	Record(ctx context.Context, r repositories.Repository, p RecordParams) error

	Query(ctx context.Context, q LogQuery, actor models.Principal) ([]*models.LogEntry, int64, error)
}

// RecordParams carries the clear-text attributes of one log record.
type RecordParams struct {
	Action    models.LogAction
	Applicant models.Principal
	Actor     models.Principal
	CallTitle string
	CallCode  string
	Metadata  map[string]interface{}
}

// LogQuery narrows the audit listing. DateFrom/DateTo filter store-side;
// FreeText and Action can only be applied after decryption.
type LogQuery struct {
	DateFrom *time.Time
	DateTo   *time.Time
	FreeText string
	Action   *models.LogAction
	Page     int
	PageSize int
}

type auditService struct {
	repo   repositories.Repository
	cipher *crypto.FieldCipher
	logger *slog.Logger
}

func NewAuditService(repo repositories.Repository, cipher *crypto.FieldCipher, logger *slog.Logger) AuditService {
	return &auditService{repo: repo, cipher: cipher, logger: logger}
}

func (s *auditService) Record(ctx context.Context, r repositories.Repository, p RecordParams) error {
	// Every person attribute must encrypt before anything is written; a
	// failed IV draw must not leave a partially clear row behind.
	var encErr error
	encrypt := func(plaintext string) string {
		if encErr != nil {
			return ""
		}
		value, err := s.cipher.Encrypt(plaintext)
		if err != nil {
			encErr = err
		}
		return value
	}

	record := &models.EnrollmentLog{
		Action:                 p.Action,
		EncryptedApplicantID:   encrypt(p.Applicant.ID),
		EncryptedApplicantCPF:  encrypt(p.Applicant.CPF),
		EncryptedApplicantName: encrypt(p.Applicant.Name),
		EncryptedActorID:       encrypt(p.Actor.ID),
		EncryptedActorCPF:      encrypt(p.Actor.CPF),
		EncryptedActorName:     encrypt(p.Actor.Name),
		CallTitle:              p.CallTitle,
		CallCode:               p.CallCode,
	}
	if encErr != nil {
		return fmt.Errorf("failed to encrypt log record: %w", encErr)
	}

	if len(p.Metadata) > 0 {
		raw, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal log metadata: %w", err)
		}
		record.Metadata = datatypes.JSON(raw)
	}

	if err := r.EnrollmentLog().Append(ctx, record); err != nil {
		return fmt.Errorf("failed to append enrollment log: %w", err)
	}
	return nil
}

// Query runs in two phases. The store can only filter on created_at, so the
// date range and the page window are applied there; the fetched page is then
// decrypted and the free-text and action filters run in memory. Totals are
// recomputed from the filtered page, which means a page can come back shorter
// than PageSize while later pages still hold matches. That mirrors the
// long-standing behavior of the portal this service replaced and the
// administrative UI depends on it.
func (s *auditService) Query(ctx context.Context, q LogQuery, actor models.Principal) ([]*models.LogEntry, int64, error) {
	if !actor.IsAdmin {
		return nil, 0, NewPermissionError(actor.ID, 0, "enrollment_log", "read", "administrator role required")
	}

	s.logger.Info("Querying enrollment logs",
		"actor_id", actor.ID,
		"page", q.Page,
		"has_free_text", q.FreeText != "",
	)

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	records, total, err := s.repo.EnrollmentLog().ListByDateRange(ctx, repositories.LogFilters{
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollment logs: %w", err)
	}

	entries := make([]*models.LogEntry, 0, len(records))
	for _, record := range records {
		entry := decryptLog(s.cipher, record)
		if !matchesQuery(entry, q) {
			continue
		}
		entries = append(entries, entry)
	}

	if q.FreeText != "" || q.Action != nil {
		total = int64(len(entries))
		if len(entries) > pageSize {
			entries = entries[:pageSize]
		}
	}

	return entries, total, nil
}

func decryptLog(cipher *crypto.FieldCipher, record *models.EnrollmentLog) *models.LogEntry {
	return &models.LogEntry{
		ID:            record.ID,
		Action:        record.Action,
		ApplicantID:   cipher.Decrypt(record.EncryptedApplicantID),
		ApplicantCPF:  cipher.Decrypt(record.EncryptedApplicantCPF),
		ApplicantName: cipher.Decrypt(record.EncryptedApplicantName),
		ActorID:       cipher.Decrypt(record.EncryptedActorID),
		ActorCPF:      cipher.Decrypt(record.EncryptedActorCPF),
		ActorName:     cipher.Decrypt(record.EncryptedActorName),
		CallTitle:     record.CallTitle,
		CallCode:      record.CallCode,
		CreatedAt:     record.CreatedAt,
	}
}

// matchesQuery applies the in-memory phase over a decrypted entry. Free text
// is matched case-insensitively across every person field plus the call
// title/code.
func matchesQuery(entry *models.LogEntry, q LogQuery) bool {
	if q.Action != nil && entry.Action != *q.Action {
		return false
	}
	if q.FreeText == "" {
		return true
	}
	needle := strings.ToLower(q.FreeText)
	for _, hay := range []string{
		entry.ApplicantID, entry.ApplicantCPF, entry.ApplicantName,
		entry.ActorID, entry.ActorCPF, entry.ActorName,
		entry.CallTitle, entry.CallCode,
	} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}
