package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
)

// MockCallRepository is a mock implementation of CallRepository
type MockCallRepository struct {
	mock.Mock
}

func (m *MockCallRepository) Create(ctx context.Context, call *models.Call) error {
	args := m.Called(ctx, call)
	return args.Error(0)
}

func (m *MockCallRepository) GetByID(ctx context.Context, id uint) (*models.Call, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Call), args.Error(1)
}

func (m *MockCallRepository) GetByIDWithFields(ctx context.Context, id uint) (*models.Call, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Call), args.Error(1)
}

func (m *MockCallRepository) Update(ctx context.Context, call *models.Call) error {
	args := m.Called(ctx, call)
	return args.Error(0)
}

func (m *MockCallRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCallRepository) List(ctx context.Context, filters repositories.CallFilters) ([]*models.Call, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Call), args.Get(1).(int64), args.Error(2)
}

func (m *MockCallRepository) UpdateStatus(ctx context.Context, id uint, status models.CallStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockFieldRepository is a mock implementation of FieldRepository
type MockFieldRepository struct {
	mock.Mock
}

func (m *MockFieldRepository) Create(ctx context.Context, field *models.FieldDefinition) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockFieldRepository) GetByID(ctx context.Context, id uint) (*models.FieldDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FieldDefinition), args.Error(1)
}

func (m *MockFieldRepository) GetByCall(ctx context.Context, callID uint) ([]*models.FieldDefinition, error) {
	args := m.Called(ctx, callID)
	return args.Get(0).([]*models.FieldDefinition), args.Error(1)
}

func (m *MockFieldRepository) Update(ctx context.Context, field *models.FieldDefinition) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockFieldRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFieldRepository) Swap(ctx context.Context, a, b *models.FieldDefinition) error {
	args := m.Called(ctx, a, b)
	return args.Error(0)
}

func (m *MockFieldRepository) NextOrder(ctx context.Context, callID uint) (int, error) {
	args := m.Called(ctx, callID)
	return args.Int(0), args.Error(1)
}

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) HardDelete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubmissionRepository) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) GetByApplicantAndCall(ctx context.Context, applicantID string, callID uint) (*models.Submission, error) {
	args := m.Called(ctx, applicantID, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockSubmissionRepository) DeleteAnswers(ctx context.Context, submissionID uint) error {
	args := m.Called(ctx, submissionID)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetAnswers(ctx context.Context, submissionID uint) ([]*models.Answer, error) {
	args := m.Called(ctx, submissionID)
	return args.Get(0).([]*models.Answer), args.Error(1)
}

func (m *MockSubmissionRepository) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetAttachments(ctx context.Context, submissionID uint) ([]*models.Attachment, error) {
	args := m.Called(ctx, submissionID)
	return args.Get(0).([]*models.Attachment), args.Error(1)
}

func (m *MockSubmissionRepository) DeleteAttachments(ctx context.Context, submissionID uint) error {
	args := m.Called(ctx, submissionID)
	return args.Error(0)
}

func (m *MockSubmissionRepository) BulkCancel(ctx context.Context, ids []uint, note *string) (int64, error) {
	args := m.Called(ctx, ids, note)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubmissionRepository) GetActiveByIDs(ctx context.Context, ids []uint) ([]*models.Submission, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.Submission), args.Error(1)
}

// MockEnrollmentLogRepository is a mock implementation of EnrollmentLogRepository
type MockEnrollmentLogRepository struct {
	mock.Mock
}

func (m *MockEnrollmentLogRepository) Append(ctx context.Context, record *models.EnrollmentLog) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockEnrollmentLogRepository) ListByDateRange(ctx context.Context, filters repositories.LogFilters) ([]*models.EnrollmentLog, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.EnrollmentLog), args.Get(1).(int64), args.Error(2)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRepository bundles the entity mocks; WithTransaction hands fn the same
// aggregate so expectations set on the entity mocks cover transactional calls
// too.
type MockRepository struct {
	callRepo       *MockCallRepository
	fieldRepo      *MockFieldRepository
	submissionRepo *MockSubmissionRepository
	logRepo        *MockEnrollmentLogRepository
	userRepo       *MockUserRepository

	txErr error
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		callRepo:       &MockCallRepository{},
		fieldRepo:      &MockFieldRepository{},
		submissionRepo: &MockSubmissionRepository{},
		logRepo:        &MockEnrollmentLogRepository{},
		userRepo:       &MockUserRepository{},
	}
}

func (m *MockRepository) Call() repositories.CallRepository             { return m.callRepo }
func (m *MockRepository) Field() repositories.FieldRepository           { return m.fieldRepo }
func (m *MockRepository) Submission() repositories.SubmissionRepository { return m.submissionRepo }
func (m *MockRepository) EnrollmentLog() repositories.EnrollmentLogRepository {
	return m.logRepo
}
func (m *MockRepository) User() repositories.UserRepository { return m.userRepo }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }

// memoryStore is an in-memory blob store for tests.
type memoryStore struct {
	blobs map[string][]byte
	next  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{blobs: make(map[string][]byte)}
}

func (s *memoryStore) Put(_ context.Context, data []byte, name string) (string, error) {
	s.next++
	key := fmt.Sprintf("blob-%d-%s", s.next, name)
	s.blobs[key] = data
	return key, nil
}

func (s *memoryStore) Get(_ context.Context, handle string) ([]byte, error) {
	data, ok := s.blobs[handle]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", handle)
	}
	return data, nil
}

func (s *memoryStore) Delete(_ context.Context, handle string) error {
	delete(s.blobs, handle)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
