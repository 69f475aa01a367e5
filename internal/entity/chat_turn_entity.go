package entity

import "time"

type ChatTurnStatus string

const (
	ChatTurnStatusSubmitted      ChatTurnStatus = "submitted"
	ChatTurnStatusThreadAppended ChatTurnStatus = "thread_appended"
	ChatTurnStatusRunStarted     ChatTurnStatus = "run_started"
	ChatTurnStatusCompleted      ChatTurnStatus = "completed"
	ChatTurnStatusUpstreamError  ChatTurnStatus = "upstream_error"
)

// ChatTurn traces one submitted user message through the backend run.
// Terminal run statuses other than completed are stored verbatim.
type ChatTurn struct {
	Id                 uint
	ChatId             uint
	UserMessageId      uint
	AssistantMessageId *uint
	RunId              string
	Status             ChatTurnStatus
	Details            map[string]interface{}
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	CompletedAt        *time.Time
}
