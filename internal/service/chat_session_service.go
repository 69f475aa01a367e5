package service

import (
	"context"
	"fmt"

	"ai-chatbot-be/internal/constant"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/keylock"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/events"
)

type IChatSessionService interface {
	ResolveOrCreateChat(ctx context.Context, owner entity.Owner, modeId string) (*entity.Chat, error)
	LoadChatForOwner(ctx context.Context, chatId uint, owner entity.Owner) (*entity.Chat, error)
	// History loads an owned chat together with its ordered messages.
	History(ctx context.Context, chatId uint, owner entity.Owner) (*entity.Chat, []*entity.ChatMessage, error)
	// ListForOwner pages through the owner's chats, most recently active first.
	ListForOwner(ctx context.Context, owner entity.Owner, page specification.Pagination) ([]*entity.Chat, error)
}

// ChatSessionService owns Chat records: creation, ownership checks, titles
// and activity stamps.
type ChatSessionService struct {
	uowFactory unitofwork.RepositoryFactory
	personas   IPersonaService
	binding    *ThreadBinding
	ledger     *MessageLedger
	locker     keylock.Locker
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewChatSessionService(
	uowFactory unitofwork.RepositoryFactory,
	personas IPersonaService,
	binding *ThreadBinding,
	ledger *MessageLedger,
	locker keylock.Locker,
	publisher IPublisherService,
	log logger.ILogger,
) *ChatSessionService {
	return &ChatSessionService{
		uowFactory: uowFactory,
		personas:   personas,
		binding:    binding,
		ledger:     ledger,
		locker:     locker,
		publisher:  publisher,
		logger:     log,
	}
}

// ResolveOrCreateChat always records a new chat. Its thread is shared with
// the owner's latest chat for the persona when one exists.
func (s *ChatSessionService) ResolveOrCreateChat(ctx context.Context, owner entity.Owner, modeId string) (*entity.Chat, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	persona, err := s.personas.Find(ctx, modeId)
	if err != nil {
		return nil, err
	}

	// Two first requests must not both mint a thread.
	unlock, err := s.locker.Lock(ctx, keylock.ChatCreateKey(owner.Key(), persona.ModeId))
	if err != nil {
		return nil, fmt.Errorf("lock chat creation: %w", err)
	}
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	threadId, reused, err := s.binding.Bind(ctx, uow, owner, persona)
	if err != nil {
		return nil, err
	}

	chat := &entity.Chat{
		AssistantId: persona.Id,
		Owner:       owner,
		ThreadId:    threadId,
		Title:       constant.ChatPlaceholderTitle,
		IsActive:    true,
	}
	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	chat.Assistant = persona

	s.logger.Info("CHAT_SESSION", "Chat created", map[string]interface{}{
		"chat_id":       chat.Id,
		"owner":         owner.String(),
		"persona":       persona.ModeId,
		"thread_reused": reused,
	})
	s.publish(ctx, events.New(constant.EventChatCreated, map[string]interface{}{
		"chat_id":       chat.Id,
		"persona":       persona.ModeId,
		"owner_kind":    ownerKind(owner),
		"thread_reused": reused,
	}))

	return chat, nil
}

func (s *ChatSessionService) LoadChatForOwner(ctx context.Context, chatId uint, owner entity.Owner) (*entity.Chat, error) {
	return s.loadChatForOwner(ctx, s.uowFactory.NewUnitOfWork(ctx), chatId, owner)
}

func (s *ChatSessionService) loadChatForOwner(ctx context.Context, uow unitofwork.UnitOfWork, chatId uint, owner entity.Owner) (*entity.Chat, error) {
	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.WithAssistant{},
	)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.OwnedBy(owner) {
		return nil, ErrAccessDenied
	}
	return chat, nil
}

func (s *ChatSessionService) History(ctx context.Context, chatId uint, owner entity.Owner) (*entity.Chat, []*entity.ChatMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	chat, err := s.loadChatForOwner(ctx, uow, chatId, owner)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.ledger.ListOrdered(ctx, uow, chat.Id)
	if err != nil {
		return nil, nil, err
	}
	return chat, messages, nil
}

func (s *ChatSessionService) ListForOwner(ctx context.Context, owner entity.Owner, page specification.Pagination) ([]*entity.Chat, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatRepository().FindAll(ctx,
		specification.OwnedBy{Owner: owner},
		specification.WithAssistant{},
		specification.OrderBy{Field: "last_activity", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		page,
	)
}

// SetTitleFromFirstTurn only changes the in-memory chat; Touch persists it.
func (s *ChatSessionService) SetTitleFromFirstTurn(chat *entity.Chat, text string) {
	chat.Title = TitleFromText(text)
}

// Touch saves the chat, which refreshes last_activity. A touched chat is
// active again even if the sweeper had retired it.
func (s *ChatSessionService) Touch(ctx context.Context, uow unitofwork.UnitOfWork, chat *entity.Chat) error {
	chat.IsActive = true
	return uow.ChatRepository().Update(ctx, chat)
}

// TitleFromText keeps the first 50 characters and marks the cut.
func TitleFromText(text string) string {
	runes := []rune(text)
	if len(runes) <= constant.ChatTitleMaxRunes {
		return text
	}
	return string(runes[:constant.ChatTitleMaxRunes]) + constant.ChatTitleEllipsis
}

func (s *ChatSessionService) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("CHAT_SESSION", "Failed to publish activity event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}

func ownerKind(owner entity.Owner) string {
	if owner.IsUser() {
		return "user"
	}
	return "anonymous"
}
