package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"buddy-tutor-be/internal/config"
	"buddy-tutor-be/internal/controller"
	"buddy-tutor-be/internal/metrics"
	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/internal/pkg/serverutils"
	"buddy-tutor-be/internal/repository/memory"
	"buddy-tutor-be/internal/service"
	"buddy-tutor-be/internal/websocket"
	"buddy-tutor-be/pkg/cache"
	"buddy-tutor-be/pkg/events"
	"buddy-tutor-be/pkg/llm"
	"buddy-tutor-be/pkg/llm/factory"
	"buddy-tutor-be/pkg/rag/history"
	"buddy-tutor-be/pkg/rag/mode"
	"buddy-tutor-be/pkg/rag/orchestrator"
	"buddy-tutor-be/pkg/rag/retrieval"
	"buddy-tutor-be/pkg/rag/suggest"
	"buddy-tutor-be/pkg/translate"

	pktNats "buddy-tutor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const Version = "1.0.0"

type Container struct {
	// Controllers
	TutorController     controller.ITutorController
	TranslateController controller.ITranslateController
	TestController      controller.ITestController
	HealthController    controller.IHealthController

	AuthMiddleware fiber.Handler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Metrics *metrics.Metrics
	Logger  logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger
	c.Metrics = metrics.New()

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	bus := events.NewBus(pubSub, cfg.App.EventTopic)

	// 3. Infrastructure
	var forwarder events.Publisher
	if cfg.Nats.Enabled {
		natsPub, err := pktNats.NewPublisher(cfg.Nats.URL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var remoteCache cache.Store
	if cfg.Redis.Enabled {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.Redis.URL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			_ = rdb.Close()
		} else {
			remoteCache = cache.NewRedisStore(rdb, "tutor:")
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	embedder, err := NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	store, err := NewPassageStore(ctx, cfg.Retrieval, embedder, !cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	// 4. Generation
	baseProvider, err := factory.NewLLMProvider(ctx, factory.ProviderConfig{
		Type:      cfg.Generation.Provider,
		APIKey:    cfg.Generation.APIKey,
		BaseURL:   cfg.Generation.BaseURL,
		ModelName: cfg.Generation.DetailedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s", cfg.Generation.Provider)

	provider := llm.WithFallback(
		llm.WithRetry(baseProvider, llm.RetryConfig{
			MaxAttempts: cfg.Generation.RetryAttempts,
			Backoff:     cfg.Generation.RetryBackoff,
		}),
		cfg.Generation.AdvancedModel,
		cfg.Generation.FallbackModel,
	)

	policies, err := mode.NewTable(mode.DefaultPolicies(mode.Models{
		Textbook: cfg.Generation.TextbookModel,
		Detailed: cfg.Generation.DetailedModel,
		Advanced: cfg.Generation.AdvancedModel,
	}))
	if err != nil {
		return nil, err
	}

	// 5. Caches
	suggestCache, err := cache.NewSized(256, remoteCache)
	if err != nil {
		return nil, err
	}
	translateCache, err := cache.NewSized(cfg.Translation.CacheSize, remoteCache)
	if err != nil {
		return nil, err
	}

	suggester := suggest.NewGenerator(provider, cfg.Generation.SuggestionModel, sysLogger,
		suggest.WithCache(suggestCache),
	)

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.MaxOutputTokens = cfg.Generation.MaxOutputTokens
	orchCfg.GenerationTimeout = cfg.Generation.GenerationTimeout
	orchCfg.HistoryTurns = cfg.Generation.HistoryTurns
	orchCfg.SourceFilter = retrieval.SourceFilter(cfg.Retrieval.SourceFilter)

	orch := orchestrator.New(policies, store, provider, suggester, sysLogger, orchCfg,
		orchestrator.WithPublisher(bus),
		orchestrator.WithRecorder(c.Metrics),
	)

	// 6. Services
	tutorService := service.NewTutorService(orch, store, history.NewStore(cfg.App.ChatExportDir),
		service.TutorServiceConfig{
			ProviderName: cfg.Generation.Provider,
			StoreName:    cfg.Retrieval.Store,
			SourceFilter: orchCfg.SourceFilter,
		},
		sysLogger,
	)

	translator := translate.NewTranslator(cfg.Translation.Provider, provider, cfg.Translation.Model,
		cfg.Translation.LibreEndpoint, cfg.Translation.LibreAPIKey)
	translateService := translate.NewService(translator, translateCache, sysLogger,
		translate.WithObserver(c.Metrics),
		translate.WithChunkTimeout(cfg.Generation.GenerationTimeout),
	)

	testService := service.NewTestService(memory.NewTestSessionRepository(24*time.Hour), c.Metrics, sysLogger)

	c.ConsumerService = service.NewAnswerEventConsumer(pubSub, cfg.App.EventTopic, forwarder, sysLogger)

	// 7. Controllers
	hub := websocket.NewHub(sysLogger)
	go hub.Run(ctx)
	c.TutorController = controller.NewTutorController(tutorService, hub, sysLogger)
	c.TranslateController = controller.NewTranslateController(translateService, cfg.Translation.RateLimit)
	c.TestController = controller.NewTestController(testService)
	c.HealthController = controller.NewHealthController(Version)

	c.AuthMiddleware = serverutils.NewJwtMiddleware(cfg.App.JwtSecret)

	return c, nil
}

// Close releases broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
