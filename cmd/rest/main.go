package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ai-chatbot-be/internal/bootstrap"
	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/server"
	"ai-chatbot-be/internal/tracer"
	"ai-chatbot-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	srv := server.New(cfg, container)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Run server and background services until one fails or we are signalled
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Println("Background: Starting Activity Relay...")
		return container.ActivityRelay.Run(ctx)
	})

	if container.ChatSweeper != nil {
		g.Go(func() error {
			log.Printf("Background: Starting Chat Sweeper (%s)...", cfg.Sweeper.Schedule)
			return container.ChatSweeper.Run(ctx)
		})
	}

	g.Go(srv.Run)

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Assistant.RunTimeout+5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
