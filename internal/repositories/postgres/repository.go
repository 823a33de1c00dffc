package postgres

import (
	"context"
	"fmt"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository is the gorm-backed aggregate. A second instance bound to a
// transaction handle is created by WithTransaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Call() repositories.CallRepository {
	return &CallPostgreSQL{db: r.db}
}

func (r *Repository) Field() repositories.FieldRepository {
	return &FieldPostgreSQL{db: r.db}
}

func (r *Repository) Submission() repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: r.db}
}

func (r *Repository) EnrollmentLog() repositories.EnrollmentLogRepository {
	return &EnrollmentLogPostgreSQL{db: r.db}
}

func (r *Repository) User() repositories.UserRepository {
	return &UserPostgreSQL{db: r.db}
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates the schema plus the constraints gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Call{},
		&models.FieldDefinition{},
		&models.Submission{},
		&models.Answer{},
		&models.Attachment{},
		&models.EnrollmentLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// At most one Active submission per (applicant, call). The check in the
	// service and this index are both needed: the index decides races.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_one_active
		 ON submissions (call_id, applicant_id) WHERE status = 'Active'`,
	).Error; err != nil {
		return fmt.Errorf("create active-submission index: %w", err)
	}

	return nil
}
