package postgres

import (
	"context"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).Preload("Call").First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Preload("Call").
		Preload("Answers").
		Preload("Answers.Field").
		Preload("Answers.Attachments").
		First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) Update(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Save(submission).Error
}

func (s *SubmissionPostgreSQL) HardDelete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Submission{}, id).Error
	})
}

func (s *SubmissionPostgreSQL) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	var submissions []*models.Submission
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Submission{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CallID != nil {
		query = query.Where("call_id = ?", *filters.CallID)
	}
	if filters.ApplicantID != nil {
		query = query.Where("applicant_id = ?", *filters.ApplicantID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Call").Find(&submissions).Error; err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) GetByApplicantAndCall(ctx context.Context, applicantID string, callID uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Where("applicant_id = ? AND call_id = ?", applicantID, callID).
		Order("created_at DESC").
		First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// ===== ANSWERS =====

func (s *SubmissionPostgreSQL) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	return s.db.WithContext(ctx).Create(answer).Error
}

func (s *SubmissionPostgreSQL) DeleteAnswers(ctx context.Context, submissionID uint) error {
	return s.db.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&models.Answer{}).Error
}

func (s *SubmissionPostgreSQL) GetAnswers(ctx context.Context, submissionID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	if err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Preload("Field").
		Preload("Attachments").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

// ===== ATTACHMENTS =====

func (s *SubmissionPostgreSQL) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return s.db.WithContext(ctx).Create(attachment).Error
}

func (s *SubmissionPostgreSQL) GetAttachments(ctx context.Context, submissionID uint) ([]*models.Attachment, error) {
	var attachments []*models.Attachment
	if err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func (s *SubmissionPostgreSQL) DeleteAttachments(ctx context.Context, submissionID uint) error {
	return s.db.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&models.Attachment{}).Error
}

// ===== BULK OPERATIONS =====

// BulkCancel is one set-based UPDATE restricted to Active rows; ids that are
// missing or already Cancelled simply do not match.
func (s *SubmissionPostgreSQL) BulkCancel(ctx context.Context, ids []uint, note *string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	updates := map[string]interface{}{"status": models.SubmissionCancelled}
	if note != nil {
		updates["cancel_note"] = *note
	}

	result := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id IN ? AND status = ?", ids, models.SubmissionActive).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (s *SubmissionPostgreSQL) GetActiveByIDs(ctx context.Context, ids []uint) ([]*models.Submission, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var submissions []*models.Submission
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, models.SubmissionActive).
		Preload("Call").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
