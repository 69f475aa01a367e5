package mapper

import (
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
)

type AssistantMapper struct{}

func NewAssistantMapper() *AssistantMapper {
	return &AssistantMapper{}
}

func (m *AssistantMapper) AssistantToEntity(a *model.Assistant) *entity.Assistant {
	if a == nil {
		return nil
	}

	var handle string
	if a.Handle != nil {
		handle = *a.Handle
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	return &entity.Assistant{
		Id:           a.Id,
		ModeId:       a.ModeId,
		Handle:       handle,
		Name:         a.Name,
		Description:  a.Description,
		SystemPrompt: a.SystemPrompt,
		Mode:         a.Mode,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *AssistantMapper) AssistantToModel(a *entity.Assistant) *model.Assistant {
	if a == nil {
		return nil
	}

	// Empty handle is stored as NULL so the unique index ignores it.
	var handle *string
	if a.Handle != "" {
		h := a.Handle
		handle = &h
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	return &model.Assistant{
		Id:           a.Id,
		ModeId:       a.ModeId,
		Handle:       handle,
		Name:         a.Name,
		Description:  a.Description,
		SystemPrompt: a.SystemPrompt,
		Mode:         a.Mode,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}
