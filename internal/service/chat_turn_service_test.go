package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/constant"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/pkg/keylock"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) newChat(t *testing.T, owner entity.Owner) *entity.Chat {
	t.Helper()
	chat, err := f.sessions.ResolveOrCreateChat(context.Background(), owner, "teacher_tutor")
	require.NoError(t, err)
	return chat
}

func (f *fixture) turnRows(t *testing.T, chatId uint) []*model.ChatTurn {
	t.Helper()
	var rows []*model.ChatTurn
	require.NoError(t, f.db.Where("chat_id = ?", chatId).Order("id").Find(&rows).Error)
	return rows
}

func TestSubmitTurnCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := entity.UserOwner(7)
	chat := f.newChat(t, owner)

	result, err := f.turns.SubmitTurn(ctx, owner, chat.Id, "Explain gravity")
	require.NoError(t, err)

	assert.Equal(t, "Gravity is...", result.Reply)
	assert.Equal(t, "Explain gravity", result.Title)
	assert.Equal(t, chat.Id, result.ChatId)

	msgs := f.messages(t, chat.Id)
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.ChatMessageRoleUser, msgs[0].Role)
	assert.Equal(t, "Explain gravity", msgs[0].Content)
	assert.Equal(t, entity.ChatMessageRoleAssistant, msgs[1].Role)
	assert.Equal(t, "Gravity is...", msgs[1].Content)
	assert.False(t, msgs[1].CreatedAt.Before(msgs[0].CreatedAt))

	stored, err := f.sessions.LoadChatForOwner(ctx, chat.Id, owner)
	require.NoError(t, err)
	assert.Equal(t, "Explain gravity", stored.Title)
	assert.False(t, stored.LastActivity.Before(chat.LastActivity))

	snap := f.gateway.snapshot()
	assert.Equal(t, []string{chat.ThreadId + "|user|Explain gravity"}, snap.appended)
	assert.Empty(t, snap.cancelled)

	turns := f.turnRows(t, chat.Id)
	require.Len(t, turns, 1)
	assert.Equal(t, string(entity.ChatTurnStatusCompleted), turns[0].Status)
	assert.Equal(t, "run_1", turns[0].RunId)
	assert.Equal(t, msgs[0].Id, turns[0].UserMessageId)
	require.NotNil(t, turns[0].AssistantMessageId)
	assert.Equal(t, msgs[1].Id, *turns[0].AssistantMessageId)
	assert.NotNil(t, turns[0].CompletedAt)
	// JSON columns read numbers back as json.Number.
	assert.Equal(t, "20", fmt.Sprint(turns[0].Details["total_tokens"]))

	assert.Equal(t, []string{constant.EventChatCreated, constant.EventTurnCompleted}, f.publisher.types())
}

func TestSubmitTurnKeepsFirstTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := entity.AnonymousOwner("sess-1")
	chat := f.newChat(t, owner)

	first, err := f.turns.SubmitTurn(ctx, owner, chat.Id, "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hi", first.Title)

	second, err := f.turns.SubmitTurn(ctx, owner, chat.Id, "Now tell me about the French Revolution in detail")
	require.NoError(t, err)
	assert.Equal(t, "Hi", second.Title)

	assert.Len(t, f.messages(t, chat.Id), 4)
}

func TestSubmitTurnRetitlesUntilFirstReply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := entity.UserOwner(7)
	chat := f.newChat(t, owner)

	f.gateway.set(func(g *fakeGateway) { g.runStatus = assistant.RunStatusFailed })
	_, err := f.turns.SubmitTurn(ctx, owner, chat.Id, "First try")
	require.Error(t, err)

	f.gateway.set(func(g *fakeGateway) { g.runStatus = assistant.RunStatusCompleted })
	long := "Please summarise the causes of the first world war for me"
	result, err := f.turns.SubmitTurn(ctx, owner, chat.Id, long)
	require.NoError(t, err)
	assert.Equal(t, TitleFromText(long), result.Title)
	assert.Len(t, []rune(result.Title), constant.ChatTitleMaxRunes+len(constant.ChatTitleEllipsis))
}

func TestSubmitTurnRunNotCompleted(t *testing.T) {
	statuses := []assistant.RunStatus{
		assistant.RunStatusFailed,
		assistant.RunStatusCancelled,
		assistant.RunStatusExpired,
		assistant.RunStatusIncomplete,
		assistant.RunStatusRequiresAction,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			owner := entity.UserOwner(7)
			chat := f.newChat(t, owner)
			f.gateway.set(func(g *fakeGateway) {
				g.runStatus = status
				g.runError = "rate_limit_exceeded"
			})

			result, err := f.turns.SubmitTurn(ctx, owner, chat.Id, "Explain gravity")
			assert.Nil(t, result)
			require.ErrorIs(t, err, ErrRunNotCompleted)

			var notCompleted *RunNotCompletedError
			require.True(t, errors.As(err, &notCompleted))
			assert.Equal(t, string(status), notCompleted.Status)
			assert.Equal(t, "rate_limit_exceeded", notCompleted.Reason)

			msgs := f.messages(t, chat.Id)
			require.Len(t, msgs, 1)
			assert.Equal(t, entity.ChatMessageRoleUser, msgs[0].Role)

			turns := f.turnRows(t, chat.Id)
			require.Len(t, turns, 1)
			assert.Equal(t, string(status), turns[0].Status)
			assert.Nil(t, turns[0].AssistantMessageId)
			assert.NotNil(t, turns[0].CompletedAt)

			assert.Contains(t, f.publisher.types(), constant.EventTurnFailed)
		})
	}
}

func TestSubmitTurnUpstreamFailures(t *testing.T) {
	boom := errors.New("502 bad gateway")

	tests := []struct {
		name      string
		setup     func(g *fakeGateway)
		wantCause error
		wantRunId string
	}{
		{
			name:      "append fails",
			setup:     func(g *fakeGateway) { g.appendErr = boom },
			wantCause: boom,
		},
		{
			name:      "start run fails",
			setup:     func(g *fakeGateway) { g.startErr = boom },
			wantCause: boom,
		},
		{
			name:      "latest message fails",
			setup:     func(g *fakeGateway) { g.latestErr = boom },
			wantCause: boom,
			wantRunId: "run_1",
		},
		{
			name:      "no message at all",
			setup:     func(g *fakeGateway) { g.noReply = true },
			wantCause: errNoReply,
			wantRunId: "run_1",
		},
		{
			name:      "latest message is the user's own",
			setup:     func(g *fakeGateway) { g.reply = &assistant.Message{ID: "msg_u", Role: "user", Text: "Explain gravity"} },
			wantCause: errNoReply,
			wantRunId: "run_1",
		},
		{
			name:      "latest reply has no text",
			setup:     func(g *fakeGateway) { g.reply = &assistant.Message{ID: "msg_a", Role: "assistant", Text: "  ", RunID: "run_1"} },
			wantCause: errNoReply,
			wantRunId: "run_1",
		},
		{
			name:      "latest reply belongs to another run",
			setup:     func(g *fakeGateway) { g.reply = &assistant.Message{ID: "msg_a", Role: "assistant", Text: "old", RunID: "run_0"} },
			wantCause: errNoReply,
			wantRunId: "run_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			owner := entity.UserOwner(7)
			chat := f.newChat(t, owner)
			f.gateway.set(tt.setup)

			_, err := f.turns.SubmitTurn(ctx, owner, chat.Id, "Explain gravity")
			require.ErrorIs(t, err, ErrUpstream)
			assert.ErrorIs(t, err, tt.wantCause)
			assert.NotErrorIs(t, err, ErrRunNotCompleted)

			msgs := f.messages(t, chat.Id)
			require.Len(t, msgs, 1)
			assert.Equal(t, "Explain gravity", msgs[0].Content)

			turns := f.turnRows(t, chat.Id)
			require.Len(t, turns, 1)
			assert.Equal(t, string(entity.ChatTurnStatusUpstreamError), turns[0].Status)
			assert.Equal(t, tt.wantRunId, turns[0].RunId)
			assert.NotEmpty(t, turns[0].Details["error"])
		})
	}
}

func TestSubmitTurnTimeoutCancelsRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.turns.runTimeout = 50 * time.Millisecond
	owner := entity.UserOwner(7)
	chat := f.newChat(t, owner)
	f.gateway.set(func(g *fakeGateway) { g.awaitBlock = true })

	_, err := f.turns.SubmitTurn(ctx, owner, chat.Id, "Explain gravity")
	require.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, []string{"run_1"}, f.gateway.snapshot().cancelled)
	assert.Len(t, f.messages(t, chat.Id), 1)
}

func TestSubmitTurnRejectedBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		chatId  func(chat *entity.Chat) uint
		owner   entity.Owner
		text    string
		wantErr error
	}{
		{name: "empty message", chatId: func(c *entity.Chat) uint { return c.Id }, owner: entity.UserOwner(7), text: "", wantErr: ErrValidation},
		{name: "blank message", chatId: func(c *entity.Chat) uint { return c.Id }, owner: entity.UserOwner(7), text: " \n\t", wantErr: ErrValidation},
		{name: "missing chat id", chatId: func(*entity.Chat) uint { return 0 }, owner: entity.UserOwner(7), text: "Hi", wantErr: ErrValidation},
		{name: "unknown chat", chatId: func(c *entity.Chat) uint { return c.Id + 99 }, owner: entity.UserOwner(7), text: "Hi", wantErr: ErrChatNotFound},
		{name: "someone else's chat", chatId: func(c *entity.Chat) uint { return c.Id }, owner: entity.UserOwner(8), text: "Hi", wantErr: ErrAccessDenied},
		{name: "anonymous caller on a user chat", chatId: func(c *entity.Chat) uint { return c.Id }, owner: entity.AnonymousOwner("x"), text: "Hi", wantErr: ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			chat := f.newChat(t, entity.UserOwner(7))

			_, err := f.turns.SubmitTurn(ctx, tt.owner, tt.chatId(chat), tt.text)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, int64(0), f.countRows(t, &model.ChatMessage{}))
			assert.Equal(t, int64(0), f.countRows(t, &model.ChatTurn{}))
			snap := f.gateway.snapshot()
			assert.Empty(t, snap.appended)
			assert.Zero(t, snap.runs)
		})
	}
}

func TestSubmitTurnValidationNamesField(t *testing.T) {
	f := newFixture(t)

	_, err := f.turns.SubmitTurn(context.Background(), entity.UserOwner(7), 3, "")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "message", verr.Field)
}

func TestSubmitTurnSerializesPerChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := entity.UserOwner(7)
	chat := f.newChat(t, owner)
	f.gateway.set(func(g *fakeGateway) { g.awaitDelay = 10 * time.Millisecond })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.turns.SubmitTurn(ctx, owner, chat.Id, "ping")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := f.gateway.snapshot()
	assert.Equal(t, 4, snap.runs)
	assert.Equal(t, 1, snap.maxInflight)

	msgs := f.messages(t, chat.Id)
	require.Len(t, msgs, 8)
	for i, msg := range msgs {
		want := entity.ChatMessageRoleUser
		if i%2 == 1 {
			want = entity.ChatMessageRoleAssistant
		}
		assert.Equal(t, want, msg.Role, "message %d", i)
	}
}

func TestSubmitTurnSerializesPerThread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := entity.UserOwner(1)
	first := f.newChat(t, owner)
	second := f.newChat(t, owner)
	require.NotEqual(t, first.Id, second.Id)
	require.Equal(t, first.ThreadId, second.ThreadId)
	f.gateway.set(func(g *fakeGateway) { g.awaitDelay = 20 * time.Millisecond })

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		for _, chat := range []*entity.Chat{first, second} {
			wg.Add(1)
			go func(chatId uint) {
				defer wg.Done()
				_, err := f.turns.SubmitTurn(ctx, owner, chatId, "ping")
				assert.NoError(t, err)
			}(chat.Id)
		}
	}
	wg.Wait()

	snap := f.gateway.snapshot()
	assert.Equal(t, 6, snap.runs)
	assert.Equal(t, 1, snap.maxInflight)
	assert.Len(t, f.messages(t, first.Id), 6)
	assert.Len(t, f.messages(t, second.Id), 6)
}

// lateLocker waits before taking the lock so concurrent callers all load
// the chat before any of them holds it.
type lateLocker struct {
	keylock.Locker
	delay time.Duration
}

func (l lateLocker) Lock(ctx context.Context, key string) (keylock.Unlock, error) {
	time.Sleep(l.delay)
	return l.Locker.Lock(ctx, key)
}

func TestSubmitTurnConcurrentFirstTurnsKeepTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.turns.locker = lateLocker{Locker: keylock.NewMemoryLocker(), delay: 50 * time.Millisecond}
	owner := entity.AnonymousOwner("sess-race")
	chat := f.newChat(t, owner)
	texts := []string{"Explain gravity", "Explain magnetism"}

	var wg sync.WaitGroup
	for _, text := range texts {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := f.turns.SubmitTurn(ctx, owner, chat.Id, text)
			assert.NoError(t, err)
		}(text)
	}
	wg.Wait()

	stored, err := f.sessions.LoadChatForOwner(ctx, chat.Id, owner)
	require.NoError(t, err)
	assert.NotEqual(t, constant.ChatPlaceholderTitle, stored.Title)
	assert.Contains(t, texts, stored.Title)

	msgs := f.messages(t, chat.Id)
	require.Len(t, msgs, 4)
	assert.Equal(t, stored.Title, msgs[0].Content)
}

func TestNewChatTurnServiceDefaultsRunTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{name: "zero", timeout: 0, want: constant.DefaultRunTimeout},
		{name: "negative", timeout: -time.Second, want: constant.DefaultRunTimeout},
		{name: "configured", timeout: 45 * time.Second, want: 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewChatTurnService(nil, nil, nil, nil, nil, nil, logger.NewNopLogger(), tt.timeout)
			assert.Equal(t, tt.want, svc.runTimeout)
		})
	}
}
