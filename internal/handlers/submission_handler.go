package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
	"github.com/portal-editais/edital-service/internal/services"
	"github.com/portal-editais/edital-service/internal/utils"
)

// maxUploadBytes bounds a single attachment.
const maxUploadBytes = 10 << 20

// SubmissionHandler exposes the submission lifecycle.
type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// enrollPayload is the JSON part of the multipart enrollment request; file
// parts are named "file_<fieldID>" and may repeat.
type enrollPayload struct {
	CallID  uint              `json:"call_id" binding:"required"`
	Answers map[string]string `json:"answers"`
}

// Enroll submits an answer set for a call
// @Router /submissions [post]
func (h *SubmissionHandler) Enroll(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	payloadStr := c.PostForm("data")
	if payloadStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: "multipart field \"data\" with the enrollment JSON is required",
		})
		return
	}

	var payload enrollPayload
	if err := json.Unmarshal([]byte(payloadStr), &payload); err != nil || payload.CallID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: "enrollment JSON is malformed",
		})
		return
	}

	answers := make(map[uint]string, len(payload.Answers))
	for key, value := range payload.Answers {
		fieldID, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: fmt.Sprintf("answer key %q is not a field id", key),
			})
			return
		}
		answers[uint(fieldID)] = value
	}

	files, err := h.collectUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid upload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Enrollment received", "call_id", payload.CallID, "files", len(files))

	submission, err := h.submissionService.Enroll(c.Request.Context(), &services.EnrollRequest{
		CallID:  payload.CallID,
		Answers: answers,
		Files:   files,
	}, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// GetSubmission returns one submission with its answers
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	submission, err := h.submissionService.GetSubmission(c.Request.Context(), id, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListSubmissions lists submissions; applicants only see their own
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 10)

	filters := repositories.SubmissionFilters{
		Limit:    size,
		Offset:   (page - 1) * size,
		DateFrom: parseDateQuery(c, "date_from"),
		DateTo:   parseDateQuery(c, "date_to"),
	}
	if status := c.Query("status"); status != "" {
		submissionStatus := models.SubmissionStatus(status)
		filters.Status = &submissionStatus
	}
	if callIDStr := c.Query("call_id"); callIDStr != "" {
		if callID, err := strconv.ParseUint(callIDStr, 10, 32); err == nil {
			id := uint(callID)
			filters.CallID = &id
		}
	}

	submissions, total, err := h.submissionService.ListSubmissions(c.Request.Context(), filters, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(submissions, total, page, size))
}

// SelfCancel lets the applicant withdraw while the window is open
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) SelfCancel(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	principal, ok := h.principal(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Self-cancel requested", "submission_id", id)

	if err := h.submissionService.SelfCancel(c.Request.Context(), id, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Submission cancelled and removed"})
}

// AdminCancel marks the submission cancelled with an optional note
// @Router /submissions/{id}/cancel [post]
func (h *SubmissionHandler) AdminCancel(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req struct {
		Note *string `json:"note"`
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

	if err := h.submissionService.AdminCancel(c.Request.Context(), id, req.Note, principal); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Submission cancelled"})
}

// BulkCancel cancels every active submission among the given ids
// @Router /submissions/bulk-cancel [post]
func (h *SubmissionHandler) BulkCancel(c *gin.Context) {
	var req struct {
		SubmissionIDs []uint  `json:"submission_ids" binding:"required,min=1"`
		Note          *string `json:"note"`
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

	h.LogRequest(c, "Bulk cancel requested", "count", len(req.SubmissionIDs))

	affected, err := h.submissionService.BulkAdminCancel(c.Request.Context(), req.SubmissionIDs, req.Note, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Bulk cancel finished",
		Data:    gin.H{"cancelled": affected, "requested": len(req.SubmissionIDs)},
	})
}

// collectUploads reads every "file_<fieldID>" part into memory.
func (h *SubmissionHandler) collectUploads(c *gin.Context) ([]services.FileUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("request is not valid multipart: %w", err)
	}

	var uploads []services.FileUpload
	for key, headers := range form.File {
		idStr, found := strings.CutPrefix(key, "file_")
		if !found {
			continue
		}
		fieldID, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("file part %q does not name a field id", key)
		}

		for _, header := range headers {
			if header.Size > maxUploadBytes {
				return nil, fmt.Errorf("file %q exceeds the %d MB limit", header.Filename, maxUploadBytes>>20)
			}
			file, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open upload %q: %w", header.Filename, err)
			}
			data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
			file.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read upload %q: %w", header.Filename, err)
			}
			if int64(len(data)) > maxUploadBytes {
				return nil, fmt.Errorf("file %q exceeds the %d MB limit", header.Filename, maxUploadBytes>>20)
			}
			uploads = append(uploads, services.FileUpload{
				FieldID:  uint(fieldID),
				Name:     header.Filename,
				MimeType: header.Header.Get("Content-Type"),
				Data:     data,
			})
		}
	}
	return uploads, nil
}
