package service

import (
	"context"
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageLedgerAppend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t, entity.UserOwner(7))
	uow := f.uowFactory.NewUnitOfWork(ctx)

	t.Run("rejects unknown roles", func(t *testing.T) {
		_, err := f.ledger.Append(ctx, uow, chat.Id, entity.ChatMessageRole("system"), "hello")
		assert.Error(t, err)
	})

	t.Run("timestamps never go backwards", func(t *testing.T) {
		ledger := NewMessageLedger()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		ledger.now = func() time.Time { return base }
		first, err := ledger.Append(ctx, uow, chat.Id, entity.ChatMessageRoleUser, "Explain gravity")
		require.NoError(t, err)

		// Clock steps back a minute between the two writes.
		ledger.now = func() time.Time { return base.Add(-time.Minute) }
		second, err := ledger.Append(ctx, uow, chat.Id, entity.ChatMessageRoleAssistant, "Gravity is...")
		require.NoError(t, err)

		assert.True(t, second.CreatedAt.Equal(first.CreatedAt))

		msgs, err := ledger.ListOrdered(ctx, uow, chat.Id)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, first.Id, msgs[0].Id)
		assert.Equal(t, second.Id, msgs[1].Id)
	})

	t.Run("clamps to the newest message, not the oldest", func(t *testing.T) {
		other := f.newChat(t, entity.UserOwner(9))
		ledger := NewMessageLedger()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		ledger.now = func() time.Time { return base }
		_, err := ledger.Append(ctx, uow, other.Id, entity.ChatMessageRoleUser, "first")
		require.NoError(t, err)

		ledger.now = func() time.Time { return base.Add(2 * time.Minute) }
		second, err := ledger.Append(ctx, uow, other.Id, entity.ChatMessageRoleAssistant, "second")
		require.NoError(t, err)

		ledger.now = func() time.Time { return base.Add(time.Minute) }
		third, err := ledger.Append(ctx, uow, other.Id, entity.ChatMessageRoleUser, "third")
		require.NoError(t, err)

		assert.True(t, third.CreatedAt.Equal(second.CreatedAt))

		msgs, err := ledger.ListOrdered(ctx, uow, other.Id)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, []string{"first", "second", "third"},
			[]string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
	})

	t.Run("detects an assistant turn", func(t *testing.T) {
		other := f.newChat(t, entity.UserOwner(8))

		has, err := f.ledger.HasAssistantTurn(ctx, uow, other.Id)
		require.NoError(t, err)
		assert.False(t, has)

		_, err = f.ledger.Append(ctx, uow, other.Id, entity.ChatMessageRoleUser, "Hi")
		require.NoError(t, err)
		has, err = f.ledger.HasAssistantTurn(ctx, uow, other.Id)
		require.NoError(t, err)
		assert.False(t, has)

		_, err = f.ledger.Append(ctx, uow, other.Id, entity.ChatMessageRoleAssistant, "Hello!")
		require.NoError(t, err)
		has, err = f.ledger.HasAssistantTurn(ctx, uow, other.Id)
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestMessageLedgerRollsBackWithUnitOfWork(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	chat := f.newChat(t, entity.UserOwner(7))

	uow := f.uowFactory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	_, err := f.ledger.Append(ctx, uow, chat.Id, entity.ChatMessageRoleUser, "never stored")
	require.NoError(t, err)
	require.NoError(t, uow.Rollback())

	assert.Empty(t, f.messages(t, chat.Id))
}
