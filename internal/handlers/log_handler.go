package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/services"
	"github.com/portal-editais/edital-service/internal/utils"
)

// LogHandler exposes the enrollment audit trail to administrators.
type LogHandler struct {
	BaseHandler
	auditService  services.AuditService
	exportService services.ExportService
}

func NewLogHandler(auditService services.AuditService, exportService services.ExportService, logger utils.Logger) *LogHandler {
	return &LogHandler{
		BaseHandler:   NewBaseHandler(logger),
		auditService:  auditService,
		exportService: exportService,
	}
}

func (h *LogHandler) parseLogQuery(c *gin.Context) services.LogQuery {
	q := services.LogQuery{
		DateFrom: parseDateQuery(c, "date_from"),
		DateTo:   parseDateQuery(c, "date_to"),
		FreeText: c.Query("q"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "size", 20),
	}
	if actionStr := c.Query("action"); actionStr != "" {
		action := models.LogAction(actionStr)
		q.Action = &action
	}
	return q
}

// ListLogs returns decrypted log entries, newest first
// @Router /enrollment-logs [get]
func (h *LogHandler) ListLogs(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	q := h.parseLogQuery(c)
	entries, total, err := h.auditService.Query(c.Request.Context(), q, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(entries, total, q.Page, q.PageSize))
}

// ExportLogs streams the filtered log as an xlsx workbook
// @Router /enrollment-logs/export [get]
func (h *LogHandler) ExportLogs(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Enrollment log export requested")

	q := h.parseLogQuery(c)
	data, err := h.exportService.ExportLogsToExcel(c.Request.Context(), q, principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("enrollment-logs-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
