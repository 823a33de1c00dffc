package postgres

import (
	"context"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"gorm.io/gorm"
)

type CallPostgreSQL struct {
	db *gorm.DB
}

func NewCallPostgreSQL(db *gorm.DB) repositories.CallRepository {
	return &CallPostgreSQL{db: db}
}

func (c *CallPostgreSQL) Create(ctx context.Context, call *models.Call) error {
	return c.db.WithContext(ctx).Create(call).Error
}

func (c *CallPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Call, error) {
	var call models.Call
	if err := c.db.WithContext(ctx).First(&call, id).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

func (c *CallPostgreSQL) GetByIDWithFields(ctx context.Context, id uint) (*models.Call, error) {
	var call models.Call
	if err := c.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("field_definitions.\"order\" ASC")
		}).
		First(&call, id).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

func (c *CallPostgreSQL) Update(ctx context.Context, call *models.Call) error {
	return c.db.WithContext(ctx).Save(call).Error
}

func (c *CallPostgreSQL) Delete(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Delete(&models.Call{}, id).Error
}

func (c *CallPostgreSQL) List(ctx context.Context, filters repositories.CallFilters) ([]*models.Call, int64, error) {
	var calls []*models.Call
	var total int64

	query := c.db.WithContext(ctx).Model(&models.Call{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.OpenAt != nil {
		query = query.Where("opens_at <= ? AND closes_at >= ?", *filters.OpenAt, *filters.OpenAt)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&calls).Error; err != nil {
		return nil, 0, err
	}

	return calls, total, nil
}

func (c *CallPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.CallStatus) error {
	return c.db.WithContext(ctx).Model(&models.Call{}).Where("id = ?", id).Update("status", status).Error
}

// applyPaginationAndSort applies the shared sorting whitelist plus
// limit/offset; unknown sort columns fall back to created_at.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	switch sortBy {
	case "title", "opens_at", "closes_at", "created_at":
	default:
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
