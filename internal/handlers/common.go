package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/portal-editais/edital-service/internal/auth"
	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/services"
	"github.com/portal-editais/edital-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PaginatedResponse wraps list payloads with their totals.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int64       `json:"total_pages"`
}

func NewPaginatedResponse(data interface{}, total int64, page, pageSize int) PaginatedResponse {
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetHeader("X-Request-ID"),
	}
	if principal, ok := auth.PrincipalFrom(c); ok {
		fields = append(fields, "user_id", principal.ID)
	}
	fields = append(fields, additionalFields...)

	h.logger.Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.LogError(err, message, fields...)
}

// principal returns the authenticated caller or aborts with 401.
func (h *BaseHandler) principal(c *gin.Context) (models.Principal, bool) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return models.Principal{}, false
	}
	return principal, true
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationError,
		})
		return
	}

	var missingField *services.MissingFieldError
	if errors.As(err, &missingField) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Required field not answered",
			Details: missingField,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrCallNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Call not found"})
	case errors.Is(err, services.ErrFieldNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Field not found"})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Submission not found"})
	case errors.Is(err, services.ErrCallNotEditable):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Call form can no longer be edited"})
	case errors.Is(err, services.ErrFieldFileOptions):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "File fields carry neither options nor max length"})
	case errors.Is(err, services.ErrOutsideWindow):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "Call is outside its enrollment window"})
	case errors.Is(err, services.ErrWindowClosed):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: "Enrollment window has closed"})
	case errors.Is(err, services.ErrDuplicateActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "An active submission already exists for this call"})
	case errors.Is(err, services.ErrSubmissionCancelled):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Submission is already cancelled"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden"})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
