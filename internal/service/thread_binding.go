package service

import (
	"context"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/assistant"
)

// ThreadBinding decides which backend thread a new chat is bound to: the
// thread of the owner's latest chat with the same persona, or a fresh one.
type ThreadBinding struct {
	gateway assistant.Gateway
	logger  logger.ILogger
}

func NewThreadBinding(gateway assistant.Gateway, log logger.ILogger) *ThreadBinding {
	return &ThreadBinding{
		gateway: gateway,
		logger:  log,
	}
}

// Bind returns the thread handle and whether it was reused.
func (b *ThreadBinding) Bind(ctx context.Context, uow unitofwork.UnitOfWork, owner entity.Owner, persona *entity.Assistant) (string, bool, error) {
	prior, err := uow.ChatRepository().FindLatestByOwnerAndAssistant(ctx, owner, persona.Id)
	if err != nil {
		return "", false, err
	}
	if prior != nil && prior.ThreadId != "" {
		return prior.ThreadId, true, nil
	}

	threadId, err := b.gateway.CreateThread(ctx)
	if err != nil {
		b.logger.Error("THREAD_BINDING", "Failed to create backend thread", map[string]interface{}{
			"owner":   owner.String(),
			"persona": persona.ModeId,
			"error":   err.Error(),
		})
		return "", false, upstream("create thread", err)
	}

	return threadId, false, nil
}
