package service

import (
	"context"
	"fmt"
	"time"

	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/unitofwork"

	"github.com/robfig/cron/v3"
)

type IChatSweeper interface {
	// Sweep retires chats idle longer than the configured window.
	Sweep(ctx context.Context) (int64, error)
	// Run schedules Sweep until ctx is done.
	Run(ctx context.Context) error
}

type chatSweeper struct {
	uowFactory unitofwork.RepositoryFactory
	schedule   string
	idleAfter  time.Duration
	logger     logger.ILogger
	now        func() time.Time
}

func NewChatSweeper(uowFactory unitofwork.RepositoryFactory, schedule string, idleAfter time.Duration, log logger.ILogger) IChatSweeper {
	return &chatSweeper{
		uowFactory: uowFactory,
		schedule:   schedule,
		idleAfter:  idleAfter,
		logger:     log,
		now:        time.Now,
	}
}

func (s *chatSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.idleAfter)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	n, err := uow.ChatRepository().DeactivateIdle(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate idle chats: %w", err)
	}
	return n, nil
}

func (s *chatSweeper) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		n, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Error("CHAT_SWEEPER", "Sweep failed", map[string]interface{}{"error": err.Error()})
			return
		}
		if n > 0 {
			s.logger.Info("CHAT_SWEEPER", "Deactivated idle chats", map[string]interface{}{
				"count":      n,
				"idle_after": s.idleAfter.String(),
			})
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", s.schedule, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
