package service

import (
	"context"
	"fmt"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
)

// MessageLedger is the append-only turn history of a chat. It works inside
// whatever unit of work the caller hands it, so appends can share a
// transaction with the chat update.
type MessageLedger struct {
	now func() time.Time
}

func NewMessageLedger() *MessageLedger {
	return &MessageLedger{now: time.Now}
}

// Append stores one turn. Its timestamp never precedes the newest message
// already in the chat, which keeps created_at order equal to turn order.
func (l *MessageLedger) Append(ctx context.Context, uow unitofwork.UnitOfWork, chatId uint, role entity.ChatMessageRole, text string) (*entity.ChatMessage, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("append message: invalid role %q", role)
	}

	repo := uow.ChatMessageRepository()
	createdAt := l.now()

	last, err := repo.FindOne(ctx, specification.ByChatID{ChatID: chatId}, specification.Newest{})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if last != nil && last.CreatedAt.After(createdAt) {
		createdAt = last.CreatedAt
	}

	msg := &entity.ChatMessage{
		ChatId:    chatId,
		Role:      role,
		Content:   text,
		CreatedAt: createdAt,
	}
	if err := repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

func (l *MessageLedger) ListOrdered(ctx context.Context, uow unitofwork.UnitOfWork, chatId uint) ([]*entity.ChatMessage, error) {
	return uow.ChatMessageRepository().FindAllByChatOrdered(ctx, chatId)
}

func (l *MessageLedger) HasAssistantTurn(ctx context.Context, uow unitofwork.UnitOfWork, chatId uint) (bool, error) {
	n, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.ByRole{Role: entity.ChatMessageRoleAssistant},
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
