package unitofwork

import (
	"context"

	"ai-chatbot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AssistantRepository() contract.AssistantRepository
	ChatRepository() contract.ChatRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ChatTurnRepository() contract.ChatTurnRepository
}
