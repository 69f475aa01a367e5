package contract

import (
	"context"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	Update(ctx context.Context, chat *entity.Chat) error
	Delete(ctx context.Context, id uint) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error)
	// FindLatestByOwnerAndAssistant returns the most recently created chat, or nil.
	FindLatestByOwnerAndAssistant(ctx context.Context, owner entity.Owner, assistantId uint) (*entity.Chat, error)
	DeactivateIdle(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
