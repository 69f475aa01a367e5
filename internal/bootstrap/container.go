package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/constant"
	"ai-chatbot-be/internal/controller"
	"ai-chatbot-be/internal/pkg/keylock"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/internal/service"
	"ai-chatbot-be/pkg/assistant/openai"
	"ai-chatbot-be/pkg/catalog"

	pktNats "ai-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	PersonaController controller.IPersonaController

	// Background Services (Exposed for main.go to run)
	ActivityRelay service.IActivityRelay
	ChatSweeper   service.IChatSweeper

	// Used by cmd/provision
	PersonaProvisioner service.IPersonaProvisioner
	PersonaService     service.IPersonaService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger

	personaCatalog, err := catalog.Default()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load persona catalog: %v", err)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })
	publisher := service.NewPublisherService(cfg.Events.Topic, pubSub)

	// 3. Infrastructure
	// NATS is optional; without it activity is only logged.
	var forwarder service.EventForwarder
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	locker := newLocker(cfg.Lock, c)

	// Gateway traffic goes to its own file.
	gatewayLogger := logger.NewIsolatedLogger(cfg.App.GatewayLogFilePath)
	gateway := openai.NewClient(openai.Config{
		APIKey:          cfg.Assistant.APIKey,
		BaseURL:         cfg.Assistant.BaseURL,
		RequestTimeout:  cfg.Assistant.RequestTimeout,
		PollInterval:    cfg.Assistant.PollInterval,
		MaxPollInterval: cfg.Assistant.MaxPollInterval,
	}, gatewayLogger)
	if cfg.Assistant.APIKey == "" {
		log.Printf("[WARN] OPENAI_API_KEY is not set; chat turns will fail upstream")
	}

	// 4. Services
	personaService := service.NewPersonaService(uowFactory, personaCatalog, memory.NewPersonaCache(constant.PersonaCacheTTL))
	ledger := service.NewMessageLedger()
	binding := service.NewThreadBinding(gateway, sysLogger)
	sessionService := service.NewChatSessionService(uowFactory, personaService, binding, ledger, locker, publisher, sysLogger)
	turnService := service.NewChatTurnService(uowFactory, sessionService, ledger, gateway, locker, publisher, sysLogger, cfg.Assistant.RunTimeout)

	c.PersonaService = personaService
	c.PersonaProvisioner = service.NewPersonaProvisioner(uowFactory, personaCatalog, gateway, cfg.Assistant.Model, sysLogger)
	c.ActivityRelay = service.NewActivityRelay(pubSub, cfg.Events.Topic, forwarder, sysLogger)
	if cfg.Sweeper.Enabled {
		c.ChatSweeper = service.NewChatSweeper(uowFactory, cfg.Sweeper.Schedule, cfg.Sweeper.IdleAfter, sysLogger)
	}

	// 5. Controllers
	c.ChatController = controller.NewChatController(sessionService, turnService)
	c.PersonaController = controller.NewPersonaController(personaService)

	return c
}

// newLocker picks the turn lock backend. A redis outage at startup falls
// back to in-process locks, which is only safe for a single replica.
func newLocker(cfg config.LockConfig, c *Container) keylock.Locker {
	if cfg.Backend != "redis" {
		return keylock.NewMemoryLocker()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisLocker, err := keylock.NewRedisLockerFromURL(ctx, cfg.RedisURL, cfg.TTL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Using in-process locks", err)
		return keylock.NewMemoryLocker()
	}
	c.closers = append(c.closers, func() { redisLocker.Close() })
	return redisLocker
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
}
