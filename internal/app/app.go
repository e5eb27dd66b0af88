package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/handlers"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/services/agents"
	"github.com/ternarybob/ostendo/internal/services/cache"
	"github.com/ternarybob/ostendo/internal/services/documents"
	"github.com/ternarybob/ostendo/internal/services/events"
	"github.com/ternarybob/ostendo/internal/services/extraction"
	"github.com/ternarybob/ostendo/internal/services/generator"
	"github.com/ternarybob/ostendo/internal/services/llm"
	"github.com/ternarybob/ostendo/internal/services/tasks"
	"github.com/ternarybob/ostendo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB *badger.BadgerDB

	// Core services
	CacheService interfaces.CacheService
	EventService interfaces.EventService
	TaskService  interfaces.TaskService
	LLMService   interfaces.LLMService

	// Pipeline services
	Processor     *documents.Processor
	Extractor     *extraction.Extractor
	PlanningAgent interfaces.PlanningAgent
	ContentAgent  interfaces.ContentAgent
	Generator     *generator.Service

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	GenerationHandler *handlers.GenerationHandler
	WSHandler         *handlers.WebSocketHandler

	cron *cron.Cron
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.startPurgeJob(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to start purge job: %w", err)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Msg("Application initialized")

	return app, nil
}

// initStorage opens the Badger database when the durable cache tier is
// enabled. Memory-only deployments skip it entirely.
func (a *App) initStorage() error {
	if !a.Config.Cache.UseDurable {
		a.Logger.Info().Msg("Durable cache tier disabled, skipping database")
		return nil
	}

	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db

	return nil
}

// initServices wires the service graph
func (a *App) initServices() error {
	var durable interfaces.CacheStorage
	if a.DB != nil {
		durable = badger.NewCacheStorage(a.DB, a.Logger)
	}

	a.CacheService = cache.NewService(&a.Config.Cache, durable, a.Logger)
	a.EventService = events.NewService(a.Logger)

	taskManager := tasks.NewManager(a.Config.Tasks.MaxWorkers, a.EventService, a.Logger)
	taskManager.Start()
	a.TaskService = taskManager

	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return err
	}
	a.LLMService = llmService

	a.Processor = documents.NewProcessor(a.Logger)
	a.Extractor = extraction.NewExtractor(a.Logger)
	a.PlanningAgent = agents.NewPlanningAgent(a.LLMService, a.Config.Generation.MaxSlides, a.Logger)
	a.ContentAgent = agents.NewContentAgent(a.LLMService, a.Logger)

	a.Generator = generator.NewService(
		&a.Config.Generation,
		a.Processor,
		a.Extractor,
		a.PlanningAgent,
		a.ContentAgent,
		a.CacheService,
		a.TaskService,
		a.EventService,
		a.Logger,
	)

	return nil
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.LLMService, a.Logger)
	a.GenerationHandler = handlers.NewGenerationHandler(a.Generator, a.TaskService, a.Config.Generation.MaxUploadBytes, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.TaskService, a.EventService, a.Logger)
}

// startPurgeJob schedules periodic removal of old terminal tasks
func (a *App) startPurgeJob() error {
	schedule := a.Config.Tasks.PurgeSchedule
	if schedule == "" {
		return nil
	}

	maxAge := common.ParseDurationOr(a.Config.Tasks.PurgeMaxAge, time.Hour)

	a.cron = cron.New()
	_, err := a.cron.AddFunc(schedule, func() {
		if removed := a.TaskService.Purge(maxAge); removed > 0 {
			a.Logger.Info().Int("removed", removed).Msg("Purged old tasks")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}

	a.cron.Start()

	a.Logger.Debug().
		Str("schedule", schedule).
		Str("max_age", maxAge.String()).
		Msg("Task purge job scheduled")

	return nil
}

// Close shuts down all application components in reverse dependency order
func (a *App) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}

	if a.TaskService != nil {
		a.TaskService.Stop()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close database")
		}
	}

	a.Logger.Info().Msg("Application closed")
}
