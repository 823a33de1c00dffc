package repositories

import (
	"context"

	"github.com/portal-editais/edital-service/internal/models"
)

// CallRepository covers the edital records and their enrollment windows.
type CallRepository interface {
	Create(ctx context.Context, call *models.Call) error
	GetByID(ctx context.Context, id uint) (*models.Call, error)
	GetByIDWithFields(ctx context.Context, id uint) (*models.Call, error) // fields ordered by "order"
	Update(ctx context.Context, call *models.Call) error
	Delete(ctx context.Context, id uint) error // soft delete

	List(ctx context.Context, filters CallFilters) ([]*models.Call, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.CallStatus) error
}

// FieldRepository maintains the ordered field definitions of one call.
// Every mutation leaves order values dense starting at 1.
type FieldRepository interface {
	Create(ctx context.Context, field *models.FieldDefinition) error
	GetByID(ctx context.Context, id uint) (*models.FieldDefinition, error)
	GetByCall(ctx context.Context, callID uint) ([]*models.FieldDefinition, error)
	Update(ctx context.Context, field *models.FieldDefinition) error

	// Delete removes the field, cascades to its answers and attachments
	// (the administrator owns this consequence), and renumbers the rest.
	Delete(ctx context.Context, id uint) error

	// Swap exchanges the order values of two fields of the same call.
	Swap(ctx context.Context, a, b *models.FieldDefinition) error

	NextOrder(ctx context.Context, callID uint) (int, error)
}

// UserRepository resolves identities recorded by the auth provider.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}
