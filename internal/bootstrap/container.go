package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-scholarmatch-be/internal/collaborator"
	"ai-scholarmatch-be/internal/config"
	"ai-scholarmatch-be/internal/controller"
	"ai-scholarmatch-be/internal/pkg/logger"
	"ai-scholarmatch-be/internal/pkg/mailer"
	"ai-scholarmatch-be/internal/repository/memory"
	"ai-scholarmatch-be/internal/repository/rediscache"
	"ai-scholarmatch-be/internal/repository/unitofwork"
	"ai-scholarmatch-be/internal/service"
	"ai-scholarmatch-be/pkg/embedding"
	"ai-scholarmatch-be/pkg/index"
	"ai-scholarmatch-be/pkg/llm/factory"
	"ai-scholarmatch-be/pkg/match"
	pktNats "ai-scholarmatch-be/pkg/nats"
	"ai-scholarmatch-be/pkg/stage"
	"ai-scholarmatch-be/pkg/workflow"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	RunController controller.IRunController

	// Services exposed for main.go (background consumer, startup recovery)
	ConsumerService service.IConsumerService
	RunService      service.IRunService

	Logger logger.ILogger

	natsPub *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Providers
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	default:
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	log.Printf("[INFO] Using Embedding Provider: %s", cfg.Ai.EmbeddingProvider)

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 2.5 Infrastructure
	// Watermill in-process queue for run execution
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Status caching disabled", err)
		rdb = nil
	}
	statusCache := rediscache.NewStatusCache(rdb, 30*time.Second)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 3. Domain wiring
	indexProvider := index.NewProvider(uowFactory.NewUnitOfWork(context.Background()).ProfileChunkRepository(), embeddingProvider)
	matcher := match.NewEngine(cfg.Match.GapThreshold, cfg.Match.MatchThreshold, appLogger)

	collaborators := collaborator.NewLLMCollaborators(llmProvider, appLogger)
	invoker := stage.NewInvoker(collaborators,
		time.Duration(cfg.Workflow.StageTimeoutSeconds)*time.Second, appLogger)

	hooks := service.NewLifecycleHooks(natsPub, emailService, statusCache, appLogger)

	engine := workflow.NewEngine(
		uowFactory,
		invoker,
		matcher,
		indexProvider,
		hooks,
		appLogger,
		workflow.Config{GenerationRetries: cfg.Workflow.GenerationRetries},
	)

	// 4. Services
	runRegistry := memory.NewRunRegistry()
	publisherService := service.NewPublisherService(cfg.Keys.RunTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Keys.RunTopic, engine, runRegistry)
	runService := service.NewRunService(uowFactory, publisherService, statusCache, indexProvider, natsPub, appLogger)

	// 5. Controllers
	runController := controller.NewRunController(runService)

	return &Container{
		RunController:   runController,
		ConsumerService: consumerService,
		RunService:      runService,
		Logger:          appLogger,
		natsPub:         natsPub,
	}
}

// Close releases long-lived connections. Safe to call once at shutdown.
func (c *Container) Close() {
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
