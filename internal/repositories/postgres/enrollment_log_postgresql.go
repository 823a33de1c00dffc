package postgres

import (
	"context"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"gorm.io/gorm"
)

// EnrollmentLogPostgreSQL is insert-only; nothing here updates or deletes.
type EnrollmentLogPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentLogPostgreSQL(db *gorm.DB) repositories.EnrollmentLogRepository {
	return &EnrollmentLogPostgreSQL{db: db}
}

func (l *EnrollmentLogPostgreSQL) Append(ctx context.Context, record *models.EnrollmentLog) error {
	return l.db.WithContext(ctx).Create(record).Error
}

func (l *EnrollmentLogPostgreSQL) ListByDateRange(ctx context.Context, filters repositories.LogFilters) ([]*models.EnrollmentLog, int64, error) {
	var records []*models.EnrollmentLog
	var total int64

	// created_at is the only clear, indexable attribute; everything else is
	// filtered after decryption by the service.
	query := l.db.WithContext(ctx).Model(&models.EnrollmentLog{})
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

	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
