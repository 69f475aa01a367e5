package mapper

import (
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct {
	assistantMapper *AssistantMapper
}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{assistantMapper: NewAssistantMapper()}
}

// Chat Mappers

// ChatToEntity fails only when the stored row breaks the owner invariant.
func (m *ChatMapper) ChatToEntity(c *model.Chat) (*entity.Chat, error) {
	if c == nil {
		return nil, nil
	}

	owner, err := entity.OwnerFromColumns(c.UserId, c.SessionKey)
	if err != nil {
		return nil, err
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Chat{
		Id:           c.Id,
		AssistantId:  c.AssistantId,
		Owner:        owner,
		ThreadId:     c.ThreadId,
		Title:        c.Title,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    updatedAt,
		LastActivity: c.LastActivity,
		Assistant:    m.assistantMapper.AssistantToEntity(c.Assistant),
	}, nil
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}

	userId, sessionKey := c.Owner.Columns()

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Chat{
		Id:           c.Id,
		AssistantId:  c.AssistantId,
		UserId:       userId,
		SessionKey:   sessionKey,
		ThreadId:     c.ThreadId,
		Title:        c.Title,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    updatedAt,
		LastActivity: c.LastActivity,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      entity.ChatMessageRole(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessagesToEntities(msgs []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.ChatMessageToEntity(msg)
	}
	return entities
}

// Turn Mappers

func (m *ChatMapper) ChatTurnToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		updatedAt = &u
	}

	details := map[string]interface{}(t.Details)
	if details == nil {
		details = map[string]interface{}{}
	}

	return &entity.ChatTurn{
		Id:                 t.Id,
		ChatId:             t.ChatId,
		UserMessageId:      t.UserMessageId,
		AssistantMessageId: t.AssistantMessageId,
		RunId:              t.RunId,
		Status:             entity.ChatTurnStatus(t.Status),
		Details:            details,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          updatedAt,
		CompletedAt:        t.CompletedAt,
	}
}

func (m *ChatMapper) ChatTurnToModel(t *entity.ChatTurn) *model.ChatTurn {
	if t == nil {
		return nil
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	details := datatypes.JSONMap{}
	for k, v := range t.Details {
		details[k] = v
	}

	return &model.ChatTurn{
		Id:                 t.Id,
		ChatId:             t.ChatId,
		UserMessageId:      t.UserMessageId,
		AssistantMessageId: t.AssistantMessageId,
		RunId:              t.RunId,
		Status:             string(t.Status),
		Details:            details,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          updatedAt,
		CompletedAt:        t.CompletedAt,
	}
}
