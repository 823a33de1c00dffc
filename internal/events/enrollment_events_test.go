package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/portal-editais/edital-service/internal/models"
)

func TestActionEventType(t *testing.T) {
	assert.Equal(t, EventSubmissionEnrolled, ActionEventType(models.ActionEnroll))
	assert.Equal(t, EventSubmissionSelfCancel, ActionEventType(models.ActionSelfCancel))
	assert.Equal(t, EventSubmissionAdminCancel, ActionEventType(models.ActionAdminCancel))
}
