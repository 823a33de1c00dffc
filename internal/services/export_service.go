package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/portal-editais/edital-service/internal/crypto"
	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
)

// exportBatchSize bounds one xlsx export; the admin UI narrows by date range
// before exporting.
const exportBatchSize = 10000

// ExportService renders decrypted enrollment logs as a spreadsheet for the
// administrative office.
type ExportService interface {
	ExportLogsToExcel(ctx context.Context, q LogQuery, actor models.Principal) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	cipher *crypto.FieldCipher
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, cipher *crypto.FieldCipher, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, cipher: cipher, logger: logger}
}

func (s *exportService) ExportLogsToExcel(ctx context.Context, q LogQuery, actor models.Principal) ([]byte, error) {
	if !actor.IsAdmin {
		return nil, NewPermissionError(actor.ID, 0, "enrollment_log", "export", "administrator role required")
	}

	s.logger.Info("Exporting enrollment logs", "actor_id", actor.ID)

	records, _, err := s.repo.EnrollmentLog().ListByDateRange(ctx, repositories.LogFilters{
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Limit:    exportBatchSize,
		Offset:   0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollment logs: %w", err)
	}

	entries := make([]*models.LogEntry, 0, len(records))
	for _, record := range records {
		entry := decryptLog(s.cipher, record)
		if !matchesQuery(entry, q) {
			continue
		}
		entries = append(entries, entry)
	}

	f := excelize.NewFile()
	sheetName := "Logs"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Date", "Action", "Applicant ID", "Applicant CPF", "Applicant Name",
		"Actor ID", "Actor CPF", "Actor Name", "Call Title", "Call Code",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, entry := range entries {
		row := []interface{}{
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			string(entry.Action),
			entry.ApplicantID,
			entry.ApplicantCPF,
			entry.ApplicantName,
			entry.ActorID,
			entry.ActorCPF,
			entry.ActorName,
			entry.CallTitle,
			entry.CallCode,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Enrollment log export finished", "rows", len(entries))
	return buf.Bytes(), nil
}
