package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty collection", func(t *testing.T) {
		var ve ValidationErrors
		assert.Equal(t, "validation failed", ve.Error())
	})

	t.Run("single error names the field", func(t *testing.T) {
		ve := ValidationErrors{{Field: "title", Message: "is required"}}
		assert.Equal(t, "validation failed: title is required", ve.Error())
	})

	t.Run("multiple errors report the count", func(t *testing.T) {
		ve := ValidationErrors{
			{Field: "title", Message: "is required"},
			{Field: "code", Message: "is required"},
		}
		assert.Equal(t, "validation failed: 2 field errors", ve.Error())
	})
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("opens_at", "is required", nil)
	assert.Equal(t, "opens_at", err.Field)
	assert.Contains(t, err.Error(), "opens_at")
}
