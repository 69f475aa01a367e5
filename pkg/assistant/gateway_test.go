package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatusTerminal(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
	}{
		{RunStatusQueued, false},
		{RunStatusInProgress, false},
		{RunStatusCancelling, false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
		{RunStatusCancelled, true},
		{RunStatusExpired, true},
		{RunStatusIncomplete, true},
		{RunStatusRequiresAction, true},
		{RunStatus("something_new"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	assert.Equal(t, "assistant api: status 500", (&APIError{StatusCode: 500}).Error())
	assert.Equal(t, "assistant api: status 404: No thread found", (&APIError{StatusCode: 404, Message: "No thread found"}).Error())
}
