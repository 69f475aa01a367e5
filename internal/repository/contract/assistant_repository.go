package contract

import (
	"context"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"
)

type AssistantRepository interface {
	Create(ctx context.Context, assistant *entity.Assistant) error
	Update(ctx context.Context, assistant *entity.Assistant) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Assistant, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Assistant, error)
}
