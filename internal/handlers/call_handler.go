package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"github.com/portal-editais/edital-service/internal/services"
	"github.com/portal-editais/edital-service/internal/utils"
)

// CallHandler exposes call management and form schema editing.
type CallHandler struct {
	BaseHandler
	formService services.FormService
}

func NewCallHandler(formService services.FormService, logger utils.Logger) *CallHandler {
	return &CallHandler{
		BaseHandler: NewBaseHandler(logger),
		formService: formService,
	}
}

// CreateCall creates a new call in draft status
// @Router /calls [post]
func (h *CallHandler) CreateCall(c *gin.Context) {
	var req services.CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	call, err := h.formService.CreateCall(c.Request.Context(), &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, call)
}

// UpdateCall updates call metadata and its enrollment window
// @Router /calls/{id} [put]
func (h *CallHandler) UpdateCall(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	call, err := h.formService.UpdateCall(c.Request.Context(), id, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, call)
}

// GetCall returns the call with its ordered form fields
// @Router /calls/{id} [get]
func (h *CallHandler) GetCall(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	call, err := h.formService.GetCall(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, call)
}

// ListCalls lists calls with optional status filter
// @Router /calls [get]
func (h *CallHandler) ListCalls(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 10)

	filters := repositories.CallFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if status := c.Query("status"); status != "" {
		callStatus := models.CallStatus(status)
		filters.Status = &callStatus
	}

	calls, total, err := h.formService.ListCalls(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(calls, total, page, size))
}

// UpdateCallStatus transitions the call between Draft, Open and Closed
// @Router /calls/{id}/status [put]
func (h *CallHandler) UpdateCallStatus(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req struct {
		Status models.CallStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	if err := h.formService.UpdateCallStatus(c.Request.Context(), id, req.Status, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Call status updated"})
}

// ===== FIELD OPERATIONS =====

// AddField appends a field to the call's form
// @Router /calls/{id}/fields [post]
func (h *CallHandler) AddField(c *gin.Context) {
	callID := parseIDParam(c, "id")
	if callID == 0 {
		return
	}

	var req services.FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	field, err := h.formService.AddField(c.Request.Context(), callID, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, field)
}

// UpdateField rewrites a field definition
// @Router /fields/{id} [put]
func (h *CallHandler) UpdateField(c *gin.Context) {
	fieldID := parseIDParam(c, "id")
	if fieldID == 0 {
		return
	}

	var req services.FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	field, err := h.formService.UpdateField(c.Request.Context(), fieldID, &req, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, field)
}

// DeleteField removes a field and every answer recorded against it
// @Router /fields/{id} [delete]
func (h *CallHandler) DeleteField(c *gin.Context) {
	fieldID := parseIDParam(c, "id")
	if fieldID == 0 {
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting form field", "field_id", fieldID)

	if err := h.formService.DeleteField(c.Request.Context(), fieldID, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Field deleted"})
}

// MoveField swaps the field with its neighbor in the given direction
// @Router /fields/{id}/move [put]
func (h *CallHandler) MoveField(c *gin.Context) {
	fieldID := parseIDParam(c, "id")
	if fieldID == 0 {
		return
	}

	var req struct {
		Direction services.MoveDirection `json:"direction" binding:"required,oneof=up down"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: "direction must be \"up\" or \"down\"",
		})
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	if err := h.formService.MoveField(c.Request.Context(), fieldID, req.Direction, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Field moved"})
}
