package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/portal-editais/edital-service/internal/cache"
	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"github.com/portal-editais/edital-service/internal/validator"
)

// MoveDirection selects the neighbor a field swaps places with.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// FormService manages calls and their dynamic form schemas.
type FormService interface {
	CreateCall(ctx context.Context, req *CreateCallRequest, actor models.Principal) (*models.Call, error)
	UpdateCall(ctx context.Context, id uint, req *UpdateCallRequest, actor models.Principal) (*models.Call, error)
	GetCall(ctx context.Context, id uint) (*models.Call, error)
	ListCalls(ctx context.Context, filters repositories.CallFilters) ([]*models.Call, int64, error)
	UpdateCallStatus(ctx context.Context, id uint, status models.CallStatus, actor models.Principal) error

	AddField(ctx context.Context, callID uint, req *FieldRequest, actor models.Principal) (*models.FieldDefinition, error)
	UpdateField(ctx context.Context, fieldID uint, req *FieldRequest, actor models.Principal) (*models.FieldDefinition, error)
	DeleteField(ctx context.Context, fieldID uint, actor models.Principal) error
	MoveField(ctx context.Context, fieldID uint, direction MoveDirection, actor models.Principal) error

	// ValidateAnswerSet checks that every required field of the call's form
	// has an answer; for File fields presence means at least one payload.
	ValidateAnswerSet(call *models.Call, answers map[uint]string, files map[uint][]FileUpload) error
}

// ===== REQUEST STRUCTS =====

type CreateCallRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Code        string    `json:"code" validate:"required,max=50"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	OpensAt     time.Time `json:"opens_at" validate:"required"`
	ClosesAt    time.Time `json:"closes_at" validate:"required,gtfield=OpensAt"`
}

type UpdateCallRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	OpensAt     *time.Time `json:"opens_at"`
	ClosesAt    *time.Time `json:"closes_at"`
}

type FieldRequest struct {
	Label     string           `json:"label" validate:"required,min=1,max=500"`
	Type      models.FieldType `json:"type" validate:"required,field_type"`
	Required  bool             `json:"required"`
	Category  string           `json:"category" validate:"omitempty,max=100"`
	MaxLength *int             `json:"max_length" validate:"omitempty,min=1,max=10000"`

	// Radio/Select option list; for Checkbox a single-element slice holding
	// the affirmation text.
	Options []string `json:"options"`
}

type formService struct {
	repo      repositories.Repository
	cache     cache.SchemaCache
	logger    *slog.Logger
	validator *validator.Validator
}

func NewFormService(repo repositories.Repository, schemaCache cache.SchemaCache, logger *slog.Logger, v *validator.Validator) FormService {
	return &formService{
		repo:      repo,
		cache:     schemaCache,
		logger:    logger,
		validator: v,
	}
}

// ===== CALL OPERATIONS =====

func (s *formService) CreateCall(ctx context.Context, req *CreateCallRequest, actor models.Principal) (*models.Call, error) {
	s.logger.Info("Creating call", "actor_id", actor.ID, "code", req.Code)

	if !actor.IsAdmin {
		return nil, NewPermissionError(actor.ID, 0, "call", "create", "administrator role required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	call := &models.Call{
		Title:       req.Title,
		Code:        req.Code,
		Description: req.Description,
		Status:      models.CallDraft,
		OpensAt:     req.OpensAt,
		ClosesAt:    req.ClosesAt,
		CreatedBy:   actor.ID,
	}

	if err := s.repo.Call().Create(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to create call: %w", err)
	}

	s.logger.Info("Call created successfully", "call_id", call.ID)
	return call, nil
}

func (s *formService) UpdateCall(ctx context.Context, id uint, req *UpdateCallRequest, actor models.Principal) (*models.Call, error) {
	s.logger.Info("Updating call", "call_id", id, "actor_id", actor.ID)

	if !actor.IsAdmin {
		return nil, NewPermissionError(actor.ID, id, "call", "update", "administrator role required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	call, err := s.repo.Call().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	if req.Title != nil {
		call.Title = *req.Title
	}
	if req.Description != nil {
		call.Description = req.Description
	}
	if req.OpensAt != nil {
		call.OpensAt = *req.OpensAt
	}
	if req.ClosesAt != nil {
		call.ClosesAt = *req.ClosesAt
	}
	if !call.ClosesAt.After(call.OpensAt) {
		return nil, NewValidationError("closes_at", "must be after opens_at", call.ClosesAt)
	}

	if err := s.repo.Call().Update(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to update call: %w", err)
	}

	s.invalidateSchema(ctx, id)
	return call, nil
}

// GetCall returns the call with its ordered fields, read through the cache.
func (s *formService) GetCall(ctx context.Context, id uint) (*models.Call, error) {
	if call, err := s.cache.GetCall(ctx, id); err == nil {
		return call, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Schema cache unavailable, reading through", "call_id", id, "error", err)
	}

	call, err := s.repo.Call().GetByIDWithFields(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	if err := s.cache.SetCall(ctx, call); err != nil {
		s.logger.Warn("Failed to populate schema cache", "call_id", id, "error", err)
	}
	return call, nil
}

func (s *formService) ListCalls(ctx context.Context, filters repositories.CallFilters) ([]*models.Call, int64, error) {
	calls, total, err := s.repo.Call().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list calls: %w", err)
	}
	return calls, total, nil
}

func (s *formService) UpdateCallStatus(ctx context.Context, id uint, status models.CallStatus, actor models.Principal) error {
	s.logger.Info("Updating call status", "call_id", id, "new_status", status, "actor_id", actor.ID)

	if !actor.IsAdmin {
		return NewPermissionError(actor.ID, id, "call", "update_status", "administrator role required")
	}

	if err := s.repo.Call().UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update call status: %w", err)
	}

	s.invalidateSchema(ctx, id)
	return nil
}

// ===== FIELD OPERATIONS =====

func (s *formService) AddField(ctx context.Context, callID uint, req *FieldRequest, actor models.Principal) (*models.FieldDefinition, error) {
	s.logger.Info("Adding field", "call_id", callID, "actor_id", actor.ID, "type", req.Type)

	if !actor.IsAdmin {
		return nil, NewPermissionError(actor.ID, callID, "field", "create", "administrator role required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	call, err := s.repo.Call().GetByID(ctx, callID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	// Fields may change while the call is draft or open, never after close.
	if call.Status == models.CallClosed {
		return nil, ErrCallNotEditable
	}

	field := &models.FieldDefinition{
		CallID:   callID,
		Label:    req.Label,
		Type:     req.Type,
		Required: req.Required,
		Category: req.Category,
	}
	if err := applyFieldPayload(field, req); err != nil {
		return nil, err
	}

	order, err := s.repo.Field().NextOrder(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute field order: %w", err)
	}
	field.Order = order

	if err := s.repo.Field().Create(ctx, field); err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}

	s.invalidateSchema(ctx, callID)
	s.logger.Info("Field added successfully", "call_id", callID, "field_id", field.ID, "order", field.Order)
	return field, nil
}

func (s *formService) UpdateField(ctx context.Context, fieldID uint, req *FieldRequest, actor models.Principal) (*models.FieldDefinition, error) {
	s.logger.Info("Updating field", "field_id", fieldID, "actor_id", actor.ID)

	if !actor.IsAdmin {
		return nil, NewPermissionError(actor.ID, fieldID, "field", "update", "administrator role required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	field, err := s.repo.Field().GetByID(ctx, fieldID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFieldNotFound
		}
		return nil, fmt.Errorf("failed to get field: %w", err)
	}

	field.Label = req.Label
	field.Type = req.Type
	field.Required = req.Required
	field.Category = req.Category
	if err := applyFieldPayload(field, req); err != nil {
		return nil, err
	}

	if err := s.repo.Field().Update(ctx, field); err != nil {
		return nil, fmt.Errorf("failed to update field: %w", err)
	}

	s.invalidateSchema(ctx, field.CallID)
	return field, nil
}

// DeleteField removes the field and every answer recorded against it; the
// remaining fields are renumbered densely.
func (s *formService) DeleteField(ctx context.Context, fieldID uint, actor models.Principal) error {
	s.logger.Info("Deleting field", "field_id", fieldID, "actor_id", actor.ID)

	if !actor.IsAdmin {
		return NewPermissionError(actor.ID, fieldID, "field", "delete", "administrator role required")
	}

	field, err := s.repo.Field().GetByID(ctx, fieldID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrFieldNotFound
		}
		return fmt.Errorf("failed to get field: %w", err)
	}

	if err := s.repo.Field().Delete(ctx, fieldID); err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}

	s.invalidateSchema(ctx, field.CallID)
	s.logger.Info("Field deleted with its answers", "field_id", fieldID, "call_id", field.CallID)
	return nil
}

func (s *formService) MoveField(ctx context.Context, fieldID uint, direction MoveDirection, actor models.Principal) error {
	s.logger.Info("Moving field", "field_id", fieldID, "direction", direction, "actor_id", actor.ID)

	if !actor.IsAdmin {
		return NewPermissionError(actor.ID, fieldID, "field", "move", "administrator role required")
	}

	field, err := s.repo.Field().GetByID(ctx, fieldID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrFieldNotFound
		}
		return fmt.Errorf("failed to get field: %w", err)
	}

	siblings, err := s.repo.Field().GetByCall(ctx, field.CallID)
	if err != nil {
		return fmt.Errorf("failed to load call fields: %w", err)
	}

	neighbor := neighborOf(siblings, field.ID, direction)
	if neighbor == nil {
		// Already at the edge; nothing to swap with.
		return nil
	}

	if err := s.repo.Field().Swap(ctx, field, neighbor); err != nil {
		return fmt.Errorf("failed to swap fields: %w", err)
	}

	s.invalidateSchema(ctx, field.CallID)
	return nil
}

// ===== ANSWER SET VALIDATION =====

func (s *formService) ValidateAnswerSet(call *models.Call, answers map[uint]string, files map[uint][]FileUpload) error {
	for _, field := range call.Fields {
		if !field.Required {
			continue
		}

		if field.Type == models.FieldFile {
			present := false
			for _, f := range files[field.ID] {
				if len(f.Data) > 0 {
					present = true
					break
				}
			}
			if !present {
				return &MissingFieldError{FieldID: field.ID, FieldLabel: field.Label}
			}
			continue
		}

		if answers[field.ID] == "" {
			return &MissingFieldError{FieldID: field.ID, FieldLabel: field.Label}
		}
	}
	return nil
}

// ===== HELPERS =====

// applyFieldPayload enforces the per-type attribute rules and stores the
// options payload: a comma list for Radio/Select, the affirmation text for
// Checkbox, nothing otherwise. File fields carry neither payload nor
// MaxLength.
func applyFieldPayload(field *models.FieldDefinition, req *FieldRequest) error {
	field.MaxLength = nil
	field.OptionsPayload = ""

	switch {
	case field.Type.HasOptions():
		if len(req.Options) == 0 {
			return NewValidationError("options", "at least one option is required", req.Options)
		}
		for _, opt := range req.Options {
			if opt == "" || strings.Contains(opt, ",") {
				return NewValidationError("options", "options must be non-empty and comma-free", opt)
			}
		}
		field.OptionsPayload = strings.Join(req.Options, ",")
	case field.Type == models.FieldCheckbox:
		if len(req.Options) != 1 || req.Options[0] == "" {
			return NewValidationError("options", "checkbox fields take exactly one affirmation text", req.Options)
		}
		field.OptionsPayload = req.Options[0]
	case field.Type == models.FieldFile:
		if req.MaxLength != nil || len(req.Options) > 0 {
			return ErrFieldFileOptions
		}
	case field.Type.IsText():
		field.MaxLength = req.MaxLength
	}
	return nil
}

func neighborOf(fields []*models.FieldDefinition, fieldID uint, direction MoveDirection) *models.FieldDefinition {
	for i, f := range fields {
		if f.ID != fieldID {
			continue
		}
		if direction == MoveUp && i > 0 {
			return fields[i-1]
		}
		if direction == MoveDown && i < len(fields)-1 {
			return fields[i+1]
		}
		return nil
	}
	return nil
}

func (s *formService) invalidateSchema(ctx context.Context, callID uint) {
	if err := s.cache.InvalidateCall(ctx, callID); err != nil {
		s.logger.Warn("Failed to invalidate schema cache", "call_id", callID, "error", err)
	}
}
