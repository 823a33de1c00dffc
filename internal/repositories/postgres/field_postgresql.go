package postgres

import (
	"context"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"gorm.io/gorm"
)

type FieldPostgreSQL struct {
	db *gorm.DB
}

func NewFieldPostgreSQL(db *gorm.DB) repositories.FieldRepository {
	return &FieldPostgreSQL{db: db}
}

func (f *FieldPostgreSQL) Create(ctx context.Context, field *models.FieldDefinition) error {
	return f.db.WithContext(ctx).Create(field).Error
}

func (f *FieldPostgreSQL) GetByID(ctx context.Context, id uint) (*models.FieldDefinition, error) {
	var field models.FieldDefinition
	if err := f.db.WithContext(ctx).First(&field, id).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

func (f *FieldPostgreSQL) GetByCall(ctx context.Context, callID uint) ([]*models.FieldDefinition, error) {
	var fields []*models.FieldDefinition
	if err := f.db.WithContext(ctx).
		Where("call_id = ?", callID).
		Order("\"order\" ASC").
		Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

func (f *FieldPostgreSQL) Update(ctx context.Context, field *models.FieldDefinition) error {
	return f.db.WithContext(ctx).Save(field).Error
}

// Delete cascades to the answers recorded against the field (and their
// attachments) before renumbering the remaining fields densely.
func (f *FieldPostgreSQL) Delete(ctx context.Context, id uint) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var field models.FieldDefinition
		if err := tx.First(&field, id).Error; err != nil {
			return err
		}

		if err := tx.Where("field_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("field_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.FieldDefinition{}, id).Error; err != nil {
			return err
		}

		return renumberFields(tx, field.CallID)
	})
}

func (f *FieldPostgreSQL) Swap(ctx context.Context, a, b *models.FieldDefinition) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.FieldDefinition{}).
			Where("id = ?", a.ID).Update("order", b.Order).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.FieldDefinition{}).
			Where("id = ?", b.ID).Update("order", a.Order).Error; err != nil {
			return err
		}
		return renumberFields(tx, a.CallID)
	})
}

func (f *FieldPostgreSQL) NextOrder(ctx context.Context, callID uint) (int, error) {
	var count int64
	if err := f.db.WithContext(ctx).
		Model(&models.FieldDefinition{}).
		Where("call_id = ?", callID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

// renumberFields rewrites order values as 1..n preserving the current
// relative order, so gaps left by deletes and swaps never survive.
func renumberFields(tx *gorm.DB, callID uint) error {
	var fields []*models.FieldDefinition
	if err := tx.Where("call_id = ?", callID).
		Order("\"order\" ASC, id ASC").
		Find(&fields).Error; err != nil {
		return err
	}

	for i, field := range fields {
		want := i + 1
		if field.Order == want {
			continue
		}
		if err := tx.Model(&models.FieldDefinition{}).
			Where("id = ?", field.ID).Update("order", want).Error; err != nil {
			return err
		}
	}
	return nil
}
