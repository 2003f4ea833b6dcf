package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"ContentRefresher/internal/api"
	"ContentRefresher/internal/config"
	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/infrastructure/llm"
	"ContentRefresher/internal/infrastructure/memory"
	"ContentRefresher/internal/infrastructure/parser"
	"ContentRefresher/internal/infrastructure/redisstore"
	"ContentRefresher/internal/infrastructure/scheduler"
	"ContentRefresher/internal/infrastructure/search"
	"ContentRefresher/internal/infrastructure/storage"
	"ContentRefresher/internal/infrastructure/telegram"
	"ContentRefresher/internal/logging"
	"ContentRefresher/internal/metrics"
	"ContentRefresher/internal/ports"
	"ContentRefresher/internal/usecase"
)

// Version is reported by GET /status.
const Version = "1.0.0"

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	Store    ports.ArticleStore
	Pipeline *usecase.Pipeline
	Batch    *usecase.BatchRunner
	Jobs     *usecase.JobRunner
	Metrics  *metrics.Metrics

	scheduler *usecase.Scheduler
	closers   []func() error
}

// New builds every adapter selected by cfg. Missing search or model credentials
// degrade the pipeline; an unreachable store, database or Redis is an error.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger, Metrics: metrics.New()}

	for _, warning := range cfg.Warnings() {
		baseLogger.Warn("configuration incomplete", "detail", warning)
	}

	store, err := a.buildStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	locker, jobStore, err := a.buildCoordination(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	finder, err := search.NewGoogleFinder(ctx, cfg.Search, baseLogger.With("component", "search"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build search finder: %w", err)
	}

	extractor := parser.NewExtractor(
		&http.Client{Timeout: cfg.Scraper.Timeout},
		cfg.Scraper.UserAgent,
		baseLogger.With("component", "extractor"),
	)

	var chat ports.ChatClient
	chatClient, err := llm.NewChatGPTClient(cfg.ChatGPT)
	switch {
	case err == nil:
		chat = chatClient
	case errors.Is(err, domain.ErrConfiguration):
		baseLogger.Info("generative backend disabled", "reason", err)
	default:
		a.Close()
		return nil, fmt.Errorf("build chat client: %w", err)
	}

	a.Pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Store:            store,
		Finder:           finder,
		Extractor:        extractor,
		Synthesizer:      usecase.NewSynthesizer(chat, a.Metrics, baseLogger.With("component", "synthesizer")),
		Locker:           locker,
		Metrics:          a.Metrics,
		Logger:           baseLogger,
		MaxSearchResults: cfg.Search.MaxResults,
		ScrapeDelay:      cfg.Scraper.Delay,
	})

	a.Batch = usecase.NewBatchRunner(a.Pipeline, store, usecase.BatchOptions{
		Delay:    cfg.Pipeline.BatchDelay,
		PageSize: cfg.Pipeline.PageSize,
	}, baseLogger)

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	a.Jobs = usecase.NewJobRunner(usecase.JobRunnerDeps{
		Batch:     a.Batch,
		Store:     jobStore,
		Notifier:  notifier,
		Metrics:   a.Metrics,
		Logger:    baseLogger,
		QueueSize: cfg.Pipeline.QueueSize,
	})

	if cfg.Scheduler.CronExpression != "" {
		driver, err := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("build scheduler: %w", err)
		}
		a.scheduler = usecase.NewScheduler(driver, a.Jobs, domain.StatusScraped, baseLogger)
	}

	return a, nil
}

// Config returns the configuration the application was built with.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Serve runs the HTTP API, the job worker and the optional scheduler until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	group, gctx := errgroup.WithContext(ctx)

	a.Jobs.Start(gctx)

	if a.scheduler != nil {
		if err := a.scheduler.Start(gctx); err != nil {
			a.Jobs.Close()
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("scheduled refresh enabled", "cron", a.cfg.Scheduler.CronExpression)
	}

	handler := api.NewHandler(a.Pipeline, a.Batch, a.Jobs, a.statusConfig(), Version)
	router := api.NewRouter(handler, a.Metrics.Handler(), a.logger)
	server := api.NewServer(a.cfg.Server.Addr, router, a.logger)

	group.Go(func() error {
		return server.Run(gctx)
	})

	err := group.Wait()

	if a.scheduler != nil {
		if stopErr := a.scheduler.Stop(context.WithoutCancel(ctx)); stopErr != nil {
			a.logger.Warn("scheduler stop failed", "error", stopErr)
		}
	}
	a.Jobs.Close()
	return err
}

// Close releases database and Redis connections.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *Application) buildStore(ctx context.Context) (ports.ArticleStore, error) {
	switch a.cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := sql.Open("postgres", a.cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		a.logger.Info("article store ready", "driver", config.StoreDriverPostgres)
		return storage.NewPostgresRepository(db), nil
	case config.StoreDriverAPI, "":
		a.logger.Info("article store ready", "driver", config.StoreDriverAPI, "url", a.cfg.Store.APIURL)
		return storage.NewAPIClient(a.cfg.Store.APIURL, a.cfg.Store.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q: %w", a.cfg.Store.Driver, domain.ErrConfiguration)
	}
}

func (a *Application) buildCoordination(ctx context.Context) (ports.Locker, ports.JobStore, error) {
	if a.cfg.Redis.Addr == "" {
		return memory.NewLocker(), memory.NewJobStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	a.logger.Info("redis coordination enabled", "addr", a.cfg.Redis.Addr)
	return redisstore.NewLocker(client, a.cfg.Redis.LockTTL, a.logger.With("component", "lease")),
		redisstore.NewJobStore(client, a.cfg.Redis.JobTTL),
		nil
}

func (a *Application) statusConfig() api.StatusConfig {
	status := api.StatusConfig{
		StoreDriver:      a.cfg.Store.Driver,
		OpenAIModel:      a.cfg.ChatGPT.Model,
		MaxSearchResults: a.cfg.Search.MaxResults,
		RefreshInterval:  a.cfg.Scheduler.CronExpression,
		HasGoogleAPIKey:  a.cfg.Search.APIKey != "",
		HasOpenAIKey:     a.cfg.ChatGPT.APIKey != "",
		RedisEnabled:     a.cfg.Redis.Addr != "",
	}
	if a.cfg.Store.Driver != config.StoreDriverPostgres {
		status.ArticleAPIURL = a.cfg.Store.APIURL
	}
	return status
}
