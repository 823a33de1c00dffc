package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// parseIDParam reads a positive numeric path parameter; 0 means the response
// has already been written.
func parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0
	}
	return uint(id)
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 1 {
		return defaultValue
	}
	return value
}

// parseDateQuery accepts RFC 3339 timestamps or plain dates.
func parseDateQuery(c *gin.Context, param string) *time.Time {
	valueStr := c.Query(param)
	if valueStr == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, valueStr); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", valueStr); err == nil {
		return &t
	}
	return nil
}
