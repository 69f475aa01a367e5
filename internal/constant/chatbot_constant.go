package constant

import "time"

const (
	ChatPlaceholderTitle = "New Chat"
	ChatTitleMaxRunes    = 50
	ChatTitleEllipsis    = "..."

	// Persona handles are created with the interpreter tool enabled.
	AssistantToolCodeInterpreter = "code_interpreter"

	PersonaCacheTTL = 10 * time.Minute

	// Used when ASSISTANT_RUN_TIMEOUT is unset or not positive.
	DefaultRunTimeout = 2 * time.Minute

	// Wait budget for cancelling a run after the turn gave up on it.
	RunCancelTimeout = 5 * time.Second
)

// Activity event types.
const (
	EventChatCreated   = "CHAT_CREATED"
	EventTurnCompleted = "TURN_COMPLETED"
	EventTurnFailed    = "TURN_FAILED"
)

// Fiber Locals keys.
const (
	LocalsUserID     = "user_id"
	LocalsSessionKey = "session_key"
	LocalsOwner      = "owner"
)
