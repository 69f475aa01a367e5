package dto

import (
	"time"

	"ai-chatbot-be/internal/entity"
)

type SendChatRequest struct {
	ChatId  uint   `json:"chat_id" validate:"required,gt=0"`
	Message string `json:"message" validate:"required"`
}

type SendChatResponse struct {
	Reply string `json:"reply"`
}

type PersonaSummary struct {
	ModeId      string `json:"mode_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Mode        string `json:"mode"`
}

type ChatSummary struct {
	Id           uint            `json:"id"`
	Title        string          `json:"title"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	LastActivity time.Time       `json:"last_activity"`
	Persona      *PersonaSummary `json:"persona,omitempty"`
}

type ChatMessageResponse struct {
	Id        uint      `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatViewResponse is what the chat page renders.
type ChatViewResponse struct {
	Chat     ChatSummary           `json:"chat"`
	Messages []ChatMessageResponse `json:"messages"`
}

func NewPersonaSummary(a *entity.Assistant) *PersonaSummary {
	if a == nil {
		return nil
	}
	return &PersonaSummary{
		ModeId:      a.ModeId,
		Name:        a.Name,
		Description: a.Description,
		Mode:        a.Mode,
	}
}

func NewChatSummary(c *entity.Chat) ChatSummary {
	return ChatSummary{
		Id:           c.Id,
		Title:        c.Title,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		LastActivity: c.LastActivity,
		Persona:      NewPersonaSummary(c.Assistant),
	}
}

func NewChatViewResponse(c *entity.Chat, msgs []*entity.ChatMessage) ChatViewResponse {
	res := ChatViewResponse{
		Chat:     NewChatSummary(c),
		Messages: make([]ChatMessageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		res.Messages = append(res.Messages, ChatMessageResponse{
			Id:        m.Id,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return res
}
