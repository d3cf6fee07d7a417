// Command blog-thumbs serves per-post thumbs up/down counters for the blog.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	infraconfig "github.com/jameskolean/blog-thumbs/infrastructure/config"
	infragin "github.com/jameskolean/blog-thumbs/infrastructure/gin"
	"github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/infrastructure/profiling"
	infraredis "github.com/jameskolean/blog-thumbs/infrastructure/redis"
	"github.com/jameskolean/blog-thumbs/infrastructure/retry"
	"github.com/jameskolean/blog-thumbs/infrastructure/sse"
	"github.com/jameskolean/blog-thumbs/internal/api"
	"github.com/jameskolean/blog-thumbs/internal/config"
	"github.com/jameskolean/blog-thumbs/internal/content"
	"github.com/jameskolean/blog-thumbs/internal/service"
	"github.com/jameskolean/blog-thumbs/internal/storage"
	"github.com/jameskolean/blog-thumbs/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// Start profiling (if enabled)
	profiling.StartPprofServer(log)
	pyro, err := profiling.StartPyroscope(cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", logger.Error(err))
	}
	defer func() { _ = pyro.Stop() }()

	ctx := context.Background()

	// Open the counter repository
	repo, healthCheck, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open repository", logger.Error(err))
		return 1
	}
	defer closeRepo()

	return runServer(ctx, cfg, log, repo, healthCheck)
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := infraconfig.GetConfigPath(infraconfig.DefaultConfigPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// startupRetry waits for Postgres or Redis to come up alongside the service.
func startupRetry(log logger.Logger, target string) retry.Config {
	cfg := retry.DefaultConfig()
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn("Dependency not ready, retrying",
			logger.String("target", target),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
	}
	return cfg
}

// openRepository connects the configured storage driver.
func openRepository(
	ctx context.Context,
	cfg *config.Config,
	log logger.Logger,
) (storage.Repository, api.HealthCheck, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		var db *sqlx.DB
		err := retry.Retry(ctx, startupRetry(log, "postgres"), func(ctx context.Context) error {
			var connErr error
			db, connErr = storage.NewPostgresConnection(ctx, cfg.Database)
			return connErr
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect database: %w", err)
		}
		log.Info("Database connected",
			logger.String("host", cfg.Database.Host),
			logger.Int("port", cfg.Database.Port),
			logger.String("database", cfg.Database.Database),
		)
		check := func(b *infragin.ServerBuilder) *infragin.ServerBuilder {
			return b.WithDatabaseHealthCheck(db.PingContext)
		}
		return storage.NewPostgresRepository(db), check, func() { _ = db.Close() }, nil

	case config.DriverRedis:
		var client *goredis.Client
		err := retry.Retry(ctx, startupRetry(log, "redis"), func(ctx context.Context) error {
			var connErr error
			client, connErr = infraredis.NewClient(ctx, infraredis.Config{
				Address:  cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			return connErr
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("Redis connected", logger.String("address", cfg.Redis.Address))
		check := func(b *infragin.ServerBuilder) *infragin.ServerBuilder {
			return b.WithRedisHealthCheck(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
		}
		return storage.NewRedisRepository(client), check, func() { _ = client.Close() }, nil

	default:
		log.Warn("Using in-memory storage, counts are lost on restart")
		check := func(b *infragin.ServerBuilder) *infragin.ServerBuilder { return b }
		return storage.NewMemoryRepository(), check, func() {}, nil
	}
}

// openContent loads the markdown source and starts hot reload when enabled.
func openContent(ctx context.Context, cfg *config.Config, log logger.Logger) (*content.Source, func(), error) {
	if cfg.Content.Dir == "" {
		return nil, func() {}, nil
	}

	source, err := content.NewSource(cfg.Content.Dir, content.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	c := source.Catalog()
	log.Info("Content loaded",
		logger.String("dir", cfg.Content.Dir),
		logger.Int("posts", len(c.Posts())),
		logger.Int("tags", len(c.Tags())),
	)

	if !cfg.Content.Watch {
		return source, func() {}, nil
	}

	watcher, err := content.NewWatcher(source, log)
	if err != nil {
		return nil, nil, fmt.Errorf("create content watcher: %w", err)
	}
	if startErr := watcher.Start(ctx); startErr != nil {
		watcher.Stop()
		return nil, nil, fmt.Errorf("start content watcher: %w", startErr)
	}
	return source, watcher.Stop, nil
}

// runServer creates all dependencies and starts the HTTP server.
func runServer(
	ctx context.Context,
	cfg *config.Config,
	log logger.Logger,
	repo storage.Repository,
	healthCheck api.HealthCheck,
) int {
	source, stopContent, err := openContent(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to load content", logger.Error(err))
		return 1
	}
	defer stopContent()

	// SSE broker for thumbs:updated
	broker := sse.NewBroker(log, sse.WithMaxClients(cfg.Events.MaxClients))
	if startErr := broker.Start(ctx); startErr != nil {
		log.Error("Failed to start SSE broker", logger.Error(startErr))
		return 1
	}
	defer func() { _ = broker.Stop() }()

	// Create vote buffer, service and flusher
	buf := storage.NewBuffer(cfg.Service.BufferSize)
	metrics := telemetry.New(buf.Len)

	opts := []service.Option{
		service.WithPublisher(broker),
		service.WithRecorder(metrics),
	}
	if source != nil {
		opts = append(opts, service.WithContent(source, cfg.Content.RequireKnownSlug))
	}
	svc := service.NewThumbService(repo, buf, log, opts...)

	flusher := storage.NewFlusher(repo, buf, log,
		storage.WithFlushInterval(cfg.Service.FlushInterval),
		storage.WithFlushThreshold(cfg.Service.FlushThreshold),
		storage.WithFlushObserver(metrics),
		storage.WithOnFlush(svc.PublishUpdates),
	)
	svc.AttachFlusher(flusher)
	flusher.Start()
	defer flusher.Stop()

	// done channel signals background goroutines (rate limiter) on shutdown
	done := make(chan struct{})
	defer close(done)

	server := api.NewServer(cfg, api.Deps{
		Service: svc,
		Broker:  broker,
		Metrics: metrics,
		Logger:  log,
		Done:    done,
	}, healthCheck)

	log.Info("Blog-thumbs starting",
		logger.Int("port", cfg.Service.Port),
		logger.String("storage", cfg.Storage.Driver),
	)

	if err := server.RunWithGracefulShutdown(ctx); err != nil {
		log.Error("Server error", logger.Error(err))
		return 1
	}

	log.Info("Blog-thumbs exited cleanly")
	return 0
}
