package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/portal-editais/edital-service/internal/auth"
	"github.com/portal-editais/edital-service/internal/repositories"
	"github.com/portal-editais/edital-service/internal/services"
	"github.com/portal-editais/edital-service/internal/utils"
)

type HandlerManager struct {
	callHandler       *CallHandler
	submissionHandler *SubmissionHandler
	logHandler        *LogHandler

	authenticator *auth.Authenticator
	repo          repositories.Repository
}

func NewHandlerManager(
	formService services.FormService,
	submissionService services.SubmissionService,
	auditService services.AuditService,
	exportService services.ExportService,
	authenticator *auth.Authenticator,
	repo repositories.Repository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		callHandler:       NewCallHandler(formService, logger),
		submissionHandler: NewSubmissionHandler(submissionService, logger),
		logHandler:        NewLogHandler(auditService, exportService, logger),
		authenticator:     authenticator,
		repo:              repo,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authenticator.Middleware())
	{
		calls := v1.Group("/calls")
		{
			calls.GET("", hm.callHandler.ListCalls)
			calls.GET("/:id", hm.callHandler.GetCall)

			admin := calls.Group("", auth.RequireAdmin())
			{
				admin.POST("", hm.callHandler.CreateCall)
				admin.PUT("/:id", hm.callHandler.UpdateCall)
				admin.PUT("/:id/status", hm.callHandler.UpdateCallStatus)
				admin.POST("/:id/fields", hm.callHandler.AddField)
			}
		}

		fields := v1.Group("/fields", auth.RequireAdmin())
		{
			fields.PUT("/:id", hm.callHandler.UpdateField)
			fields.DELETE("/:id", hm.callHandler.DeleteField)
			fields.PUT("/:id/move", hm.callHandler.MoveField)
		}

		submissions := v1.Group("/submissions")
		{
			submissions.POST("", hm.submissionHandler.Enroll)
			submissions.GET("", hm.submissionHandler.ListSubmissions)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.DELETE("/:id", hm.submissionHandler.SelfCancel)

			admin := submissions.Group("", auth.RequireAdmin())
			{
				admin.POST("/:id/cancel", hm.submissionHandler.AdminCancel)
				admin.POST("/bulk-cancel", hm.submissionHandler.BulkCancel)
			}
		}

		logs := v1.Group("/enrollment-logs", auth.RequireAdmin())
		{
			logs.GET("", hm.logHandler.ListLogs)
			logs.GET("/export", hm.logHandler.ExportLogs)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "degraded",
			"service": "edital-service",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "edital-service",
	})
}
