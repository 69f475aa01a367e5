package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/pkg/keylock"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/implementation"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/assistant"
	"ai-chatbot-be/pkg/catalog"
	"ai-chatbot-be/pkg/database"
	"ai-chatbot-be/pkg/events"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeGateway scripts the hosted assistant service.
type fakeGateway struct {
	mu sync.Mutex

	createThreadErr error
	appendErr       error
	startErr        error
	latestErr       error
	createAsstErr   map[string]error

	runStatus  assistant.RunStatus
	runError   string
	reply      *assistant.Message
	noReply    bool
	awaitDelay time.Duration
	awaitBlock bool

	threads      int
	runs         int
	inflight     int
	maxInflight  int
	assistants   int
	appended     []string
	cancelled    []string
	createdSpecs []assistant.AssistantSpec
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{runStatus: assistant.RunStatusCompleted}
}

func (g *fakeGateway) CreateThread(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createThreadErr != nil {
		return "", g.createThreadErr
	}
	g.threads++
	return fmt.Sprintf("thread_%d", g.threads), nil
}

func (g *fakeGateway) AppendMessage(ctx context.Context, threadID, role, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.appendErr != nil {
		return g.appendErr
	}
	g.appended = append(g.appended, threadID+"|"+role+"|"+text)
	return nil
}

func (g *fakeGateway) StartRun(ctx context.Context, threadID, assistantID string) (*assistant.Run, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.startErr != nil {
		return nil, g.startErr
	}
	g.runs++
	g.inflight++
	if g.inflight > g.maxInflight {
		g.maxInflight = g.inflight
	}
	return &assistant.Run{
		ID:          fmt.Sprintf("run_%d", g.runs),
		ThreadID:    threadID,
		AssistantID: assistantID,
		Status:      assistant.RunStatusQueued,
	}, nil
}

func (g *fakeGateway) AwaitRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	defer func() {
		g.mu.Lock()
		g.inflight--
		g.mu.Unlock()
	}()

	g.mu.Lock()
	block, delay := g.awaitBlock, g.awaitDelay
	status, lastErr := g.runStatus, g.runError
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &assistant.Run{
		ID:        runID,
		ThreadID:  threadID,
		Status:    status,
		LastError: lastErr,
		Usage:     &assistant.Usage{PromptTokens: 12, CompletionTokens: 8, TotalTokens: 20},
	}, nil
}

func (g *fakeGateway) RunAndAwait(ctx context.Context, threadID, assistantID string) (*assistant.Run, error) {
	run, err := g.StartRun(ctx, threadID, assistantID)
	if err != nil {
		return nil, err
	}
	return g.AwaitRun(ctx, threadID, run.ID)
}

func (g *fakeGateway) CancelRun(ctx context.Context, threadID, runID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, runID)
	return nil
}

func (g *fakeGateway) LatestMessage(ctx context.Context, threadID string) (*assistant.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latestErr != nil {
		return nil, g.latestErr
	}
	if g.noReply {
		return nil, nil
	}
	if g.reply != nil {
		cp := *g.reply
		return &cp, nil
	}
	return &assistant.Message{
		ID:    "msg_reply",
		Role:  "assistant",
		Text:  "Gravity is...",
		RunID: fmt.Sprintf("run_%d", g.runs),
	}, nil
}

func (g *fakeGateway) CreateAssistant(ctx context.Context, spec assistant.AssistantSpec) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.createAsstErr[spec.Name]; ok {
		return "", err
	}
	g.assistants++
	g.createdSpecs = append(g.createdSpecs, spec)
	return fmt.Sprintf("asst_%d", g.assistants), nil
}

func (g *fakeGateway) set(fn func(g *fakeGateway)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g)
}

type gatewayCalls struct {
	threads     int
	runs        int
	maxInflight int
	appended    []string
	cancelled   []string
}

func (g *fakeGateway) snapshot() gatewayCalls {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gatewayCalls{
		threads:     g.threads,
		runs:        g.runs,
		maxInflight: g.maxInflight,
		appended:    append([]string(nil), g.appended...),
		cancelled:   append([]string(nil), g.cancelled...),
	}
}

// recordingPublisher keeps every published activity event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	uowFactory unitofwork.RepositoryFactory
	gateway    *fakeGateway
	publisher  *recordingPublisher
	personas   IPersonaService
	ledger     *MessageLedger
	sessions   *ChatSessionService
	turns      *ChatTurnService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteMemoryDB()
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	assistants := implementation.NewAssistantRepository(db)
	seed := []*entity.Assistant{
		{ModeId: "teacher_tutor", Handle: "asst_teacher", Name: "AI Teacher/Tutor", SystemPrompt: "teach", Mode: "professional"},
		{ModeId: "poet_storyteller", Handle: "asst_poet", Name: "AI Poet/Storyteller", SystemPrompt: "rhyme", Mode: "creative"},
		{ModeId: "designer", Name: "AI Designer", SystemPrompt: "design", Mode: "creative"},
	}
	for _, a := range seed {
		require.NoError(t, assistants.Create(ctx, a))
	}

	cat, err := catalog.Default()
	require.NoError(t, err)

	log := logger.NewNopLogger()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	gateway := newFakeGateway()
	publisher := &recordingPublisher{}
	locker := keylock.NewMemoryLocker()

	personas := NewPersonaService(uowFactory, cat, memory.NewPersonaCache(time.Minute))
	ledger := NewMessageLedger()
	binding := NewThreadBinding(gateway, log)
	sessions := NewChatSessionService(uowFactory, personas, binding, ledger, locker, publisher, log)
	turns := NewChatTurnService(uowFactory, sessions, ledger, gateway, locker, publisher, log, 2*time.Second)

	return &fixture{
		db:         db,
		uowFactory: uowFactory,
		gateway:    gateway,
		publisher:  publisher,
		personas:   personas,
		ledger:     ledger,
		sessions:   sessions,
		turns:      turns,
	}
}

func (f *fixture) messages(t *testing.T, chatId uint) []*entity.ChatMessage {
	t.Helper()
	ctx := context.Background()
	msgs, err := f.ledger.ListOrdered(ctx, f.uowFactory.NewUnitOfWork(ctx), chatId)
	require.NoError(t, err)
	return msgs
}

func (f *fixture) countRows(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}
