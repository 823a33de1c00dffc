package services

import (
	"errors"
	"fmt"

	apperrors "github.com/portal-editais/edital-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Call specific errors
	ErrCallNotFound     = errors.New("call not found")
	ErrCallNotEditable  = errors.New("call form cannot be edited after closing")
	ErrFieldNotFound    = errors.New("field not found")
	ErrFieldFileOptions = errors.New("file fields carry neither options nor max length")

	// Submission specific errors
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrOutsideWindow       = errors.New("call is outside its enrollment window")
	ErrWindowClosed        = errors.New("enrollment window has closed")
	ErrDuplicateActive     = errors.New("an active submission already exists for this call")
	ErrSubmissionCancelled = errors.New("submission is already cancelled")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// MissingFieldError names the first required field absent from an answer set.
type MissingFieldError struct {
	FieldID    uint   `json:"field_id"`
	FieldLabel string `json:"field_label"`
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field not answered: %s", e.FieldLabel)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCallNotFound) ||
		errors.Is(err, ErrFieldNotFound) ||
		errors.Is(err, ErrSubmissionNotFound)
}

// IsForbidden checks if error represents an authorization failure
func IsForbidden(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var mfe *MissingFieldError
	if errors.As(err, &mfe) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsTemporalEligibility checks if error comes from the enrollment window
func IsTemporalEligibility(err error) bool {
	return errors.Is(err, ErrOutsideWindow) || errors.Is(err, ErrWindowClosed)
}
