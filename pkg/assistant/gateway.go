package assistant

import (
	"context"
	"fmt"
)

// RunStatus mirrors the backend's run lifecycle values.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusIncomplete     RunStatus = "incomplete"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether polling can stop. requires_action counts as
// terminal because personas are provisioned without callable functions,
// so nothing would ever submit the tool outputs.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusCancelling:
		return false
	default:
		return true
	}
}

type Run struct {
	ID          string
	ThreadID    string
	AssistantID string
	Status      RunStatus
	LastError   string
	Usage       *Usage
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Message struct {
	ID    string
	Role  string
	Text  string
	RunID string
}

// AssistantSpec describes a persona registered with the backend.
type AssistantSpec struct {
	Name         string
	Description  string
	Instructions string
	Model        string
	Tools        []string
}

// Gateway is the hosted assistant service: threads hold the conversation,
// runs execute a persona against a thread.
type Gateway interface {
	CreateThread(ctx context.Context) (string, error)
	AppendMessage(ctx context.Context, threadID, role, text string) error
	StartRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	// AwaitRun blocks until the run is terminal or ctx is done.
	AwaitRun(ctx context.Context, threadID, runID string) (*Run, error)
	RunAndAwait(ctx context.Context, threadID, assistantID string) (*Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	// LatestMessage returns the newest message on the thread, or nil when
	// the thread is empty.
	LatestMessage(ctx context.Context, threadID string) (*Message, error)
	CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error)
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("assistant api: status %d: %s", e.StatusCode, e.Message)
}
