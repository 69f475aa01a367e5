package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-chatbot-be/internal/constant"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/keylock"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/assistant"
	"ai-chatbot-be/pkg/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errNoReply = errors.New("assistant returned no reply")

type IChatTurnService interface {
	// SubmitTurn relays one user message and waits for the persona's reply.
	SubmitTurn(ctx context.Context, owner entity.Owner, chatId uint, text string) (*TurnResult, error)
}

type TurnResult struct {
	ChatId           uint
	Title            string
	Reply            string
	UserMessage      *entity.ChatMessage
	AssistantMessage *entity.ChatMessage
}

type ChatTurnService struct {
	uowFactory unitofwork.RepositoryFactory
	sessions   *ChatSessionService
	ledger     *MessageLedger
	gateway    assistant.Gateway
	locker     keylock.Locker
	publisher  IPublisherService
	logger     logger.ILogger
	runTimeout time.Duration
	tracer     trace.Tracer
}

func NewChatTurnService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *ChatSessionService,
	ledger *MessageLedger,
	gateway assistant.Gateway,
	locker keylock.Locker,
	publisher IPublisherService,
	log logger.ILogger,
	runTimeout time.Duration,
) *ChatTurnService {
	if runTimeout <= 0 {
		runTimeout = constant.DefaultRunTimeout
	}
	return &ChatTurnService{
		uowFactory: uowFactory,
		sessions:   sessions,
		ledger:     ledger,
		gateway:    gateway,
		locker:     locker,
		publisher:  publisher,
		logger:     log,
		runTimeout: runTimeout,
		tracer:     otel.Tracer("ai-chatbot-be/internal/service"),
	}
}

func (s *ChatTurnService) SubmitTurn(ctx context.Context, owner entity.Owner, chatId uint, text string) (*TurnResult, error) {
	ctx, span := s.tracer.Start(ctx, "ChatTurnService.SubmitTurn",
		trace.WithAttributes(attribute.Int64("chat.id", int64(chatId))),
	)
	defer span.End()

	result, err := s.submitTurn(ctx, owner, chatId, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (s *ChatTurnService) submitTurn(ctx context.Context, owner entity.Owner, chatId uint, text string) (*TurnResult, error) {
	if chatId == 0 {
		return nil, &ValidationError{Field: "chat_id", Reason: "is required"}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "message", Reason: "must not be empty"}
	}

	chat, err := s.sessions.LoadChatForOwner(ctx, chatId, owner)
	if err != nil {
		return nil, err
	}
	if chat.Assistant == nil || !chat.Assistant.IsProvisioned() {
		return nil, ErrPersonaNotFound
	}

	unlock, err := s.locker.Lock(ctx, keylock.ThreadTurnKey(chat.ThreadId))
	if err != nil {
		return nil, fmt.Errorf("lock thread %s: %w", chat.ThreadId, err)
	}
	defer unlock()

	// The copy loaded above may predate a turn that held the lock.
	chat, err = s.sessions.LoadChatForOwner(ctx, chatId, owner)
	if err != nil {
		return nil, err
	}

	turn, userMsg, err := s.recordUserTurn(ctx, chat, text)
	if err != nil {
		return nil, err
	}

	reply, run, err := s.runTurn(ctx, chat, turn, text)
	if err != nil {
		return nil, err
	}

	assistantMsg, err := s.recordReply(ctx, chat, turn, run, reply)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(constant.EventTurnCompleted, map[string]interface{}{
		"chat_id": chat.Id,
		"turn_id": turn.Id,
		"run_id":  turn.RunId,
		"persona": chat.Assistant.ModeId,
	}))

	return &TurnResult{
		ChatId:           chat.Id,
		Title:            chat.Title,
		Reply:            assistantMsg.Content,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// recordUserTurn stores the user's words before the backend is contacted,
// so they survive any later failure.
func (s *ChatTurnService) recordUserTurn(ctx context.Context, chat *entity.Chat, text string) (*entity.ChatTurn, *entity.ChatMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer uow.Rollback()

	hasReply, err := s.ledger.HasAssistantTurn(ctx, uow, chat.Id)
	if err != nil {
		return nil, nil, err
	}

	userMsg, err := s.ledger.Append(ctx, uow, chat.Id, entity.ChatMessageRoleUser, text)
	if err != nil {
		return nil, nil, err
	}

	if !hasReply {
		s.sessions.SetTitleFromFirstTurn(chat, text)
	}
	if err := s.sessions.Touch(ctx, uow, chat); err != nil {
		return nil, nil, err
	}

	turn := &entity.ChatTurn{
		ChatId:        chat.Id,
		UserMessageId: userMsg.Id,
		Status:        entity.ChatTurnStatusSubmitted,
		Details:       map[string]interface{}{},
	}
	if err := uow.ChatTurnRepository().Create(ctx, turn); err != nil {
		return nil, nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, err
	}
	return turn, userMsg, nil
}

// runTurn drives the backend: append, run, await, fetch the reply.
func (s *ChatTurnService) runTurn(ctx context.Context, chat *entity.Chat, turn *entity.ChatTurn, text string) (string, *assistant.Run, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	threadId := chat.ThreadId

	if err := s.gateway.AppendMessage(runCtx, threadId, string(entity.ChatMessageRoleUser), text); err != nil {
		return "", nil, s.failTurn(ctx, chat, turn, entity.ChatTurnStatusUpstreamError, upstream("append message", err))
	}
	s.advance(ctx, turn, entity.ChatTurnStatusThreadAppended)

	run, err := s.gateway.StartRun(runCtx, threadId, chat.Assistant.Handle)
	if err != nil {
		return "", nil, s.failTurn(ctx, chat, turn, entity.ChatTurnStatusUpstreamError, upstream("start run", err))
	}
	turn.RunId = run.ID
	s.advance(ctx, turn, entity.ChatTurnStatusRunStarted)

	if !run.Status.Terminal() {
		awaited, err := s.awaitRun(runCtx, threadId, run.ID)
		if err != nil {
			if runCtx.Err() != nil {
				s.cancelRun(ctx, threadId, run.ID)
			}
			return "", nil, s.failTurn(ctx, chat, turn, entity.ChatTurnStatusUpstreamError, upstream("await run", err))
		}
		run = awaited
	}
	if run.Usage != nil {
		turn.Details["total_tokens"] = run.Usage.TotalTokens
		turn.Details["prompt_tokens"] = run.Usage.PromptTokens
		turn.Details["completion_tokens"] = run.Usage.CompletionTokens
	}

	if run.Status != assistant.RunStatusCompleted {
		return "", nil, s.failTurn(ctx, chat, turn, entity.ChatTurnStatus(run.Status),
			&RunNotCompletedError{Status: string(run.Status), Reason: run.LastError})
	}

	msg, err := s.gateway.LatestMessage(runCtx, threadId)
	if err != nil {
		return "", nil, s.failTurn(ctx, chat, turn, entity.ChatTurnStatusUpstreamError, upstream("latest message", err))
	}
	if !isReplyFor(msg, run.ID) {
		return "", nil, s.failTurn(ctx, chat, turn, entity.ChatTurnStatusUpstreamError, upstream("latest message", errNoReply))
	}

	return msg.Text, run, nil
}

func (s *ChatTurnService) awaitRun(ctx context.Context, threadId, runId string) (*assistant.Run, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.AwaitRun",
		trace.WithAttributes(attribute.String("run.id", runId)),
	)
	defer span.End()

	run, err := s.gateway.AwaitRun(ctx, threadId, runId)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("run.status", string(run.Status)))
	return run, nil
}

func isReplyFor(msg *assistant.Message, runId string) bool {
	if msg == nil || msg.Role != string(entity.ChatMessageRoleAssistant) {
		return false
	}
	if msg.RunID != "" && msg.RunID != runId {
		return false
	}
	return strings.TrimSpace(msg.Text) != ""
}

func (s *ChatTurnService) recordReply(ctx context.Context, chat *entity.Chat, turn *entity.ChatTurn, run *assistant.Run, reply string) (*entity.ChatMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	assistantMsg, err := s.ledger.Append(ctx, uow, chat.Id, entity.ChatMessageRoleAssistant, reply)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(ctx, uow, chat); err != nil {
		return nil, err
	}

	now := time.Now()
	turn.Status = entity.ChatTurnStatusCompleted
	turn.AssistantMessageId = &assistantMsg.Id
	turn.CompletedAt = &now
	turn.Details["run_status"] = string(run.Status)
	if err := uow.ChatTurnRepository().Update(ctx, turn); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return assistantMsg, nil
}

// advance records progress on the audit row. Failures are logged only.
func (s *ChatTurnService) advance(ctx context.Context, turn *entity.ChatTurn, status entity.ChatTurnStatus) {
	turn.Status = status
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatTurnRepository().Update(context.WithoutCancel(ctx), turn); err != nil {
		s.logger.Warn("CHAT_TURN", "Failed to update turn status", map[string]interface{}{
			"turn_id": turn.Id,
			"status":  string(status),
			"error":   err.Error(),
		})
	}
}

// failTurn closes the audit row and reports cause. It writes with a
// detached context so a disconnected client still leaves a record.
func (s *ChatTurnService) failTurn(ctx context.Context, chat *entity.Chat, turn *entity.ChatTurn, status entity.ChatTurnStatus, cause error) error {
	now := time.Now()
	turn.Status = status
	turn.CompletedAt = &now
	turn.Details["error"] = cause.Error()

	detached := context.WithoutCancel(ctx)
	uow := s.uowFactory.NewUnitOfWork(detached)
	if err := uow.ChatTurnRepository().Update(detached, turn); err != nil {
		s.logger.Warn("CHAT_TURN", "Failed to record turn failure", map[string]interface{}{
			"turn_id": turn.Id,
			"error":   err.Error(),
		})
	}

	s.logger.Error("CHAT_TURN", "Turn failed", map[string]interface{}{
		"chat_id": chat.Id,
		"turn_id": turn.Id,
		"run_id":  turn.RunId,
		"status":  string(status),
		"error":   cause.Error(),
	})
	s.publish(detached, events.New(constant.EventTurnFailed, map[string]interface{}{
		"chat_id": chat.Id,
		"turn_id": turn.Id,
		"status":  string(status),
	}))

	return cause
}

// cancelRun is best effort: the turn has already given up on the run.
func (s *ChatTurnService) cancelRun(ctx context.Context, threadId, runId string) {
	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constant.RunCancelTimeout)
	defer cancel()

	if err := s.gateway.CancelRun(cancelCtx, threadId, runId); err != nil {
		s.logger.Warn("CHAT_TURN", "Failed to cancel abandoned run", map[string]interface{}{
			"thread_id": threadId,
			"run_id":    runId,
			"error":     err.Error(),
		})
	}
}

func (s *ChatTurnService) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("CHAT_TURN", "Failed to publish activity event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}
