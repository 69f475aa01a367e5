package entity

import "time"

type ChatMessageRole string

const (
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
)

func (r ChatMessageRole) Valid() bool {
	return r == ChatMessageRoleUser || r == ChatMessageRoleAssistant
}

type ChatMessage struct {
	Id        uint
	ChatId    uint
	Role      ChatMessageRole
	Content   string
	CreatedAt time.Time
}
