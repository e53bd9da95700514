package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ShortKey/config"
	"github.com/sifan077/ShortKey/internal/app/keygen"
	appmodel "github.com/sifan077/ShortKey/internal/app/model"
	"github.com/sifan077/ShortKey/internal/app/probe"
	apprepository "github.com/sifan077/ShortKey/internal/app/repository"
	appserver "github.com/sifan077/ShortKey/internal/app/server"
	appservice "github.com/sifan077/ShortKey/internal/app/service"
	"github.com/sifan077/ShortKey/internal/infra/database"
	"github.com/sifan077/ShortKey/internal/infra/logger"
	infraNATS "github.com/sifan077/ShortKey/internal/infra/nats"
	infraPrometheus "github.com/sifan077/ShortKey/internal/infra/prometheus"
	infraRedis "github.com/sifan077/ShortKey/internal/infra/redis"
	"go.uber.org/zap"
)

const (
	shutdownTimeout    = 10 * time.Second
	bloomFalsePositive = 0.001
	bloomMinCapacity   = 100_000
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.MustInit(logger.ConfigFromEnv())
	defer func() { _ = logger.Sync() }()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("base_url", cfg.App.BaseURL),
		zap.String("addr", cfg.App.Addr),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("prometheus_enabled", cfg.Prometheus.Enabled),
		zap.Duration("probe_timeout", cfg.Probe.Timeout),
	)

	db, err := database.Open(ctx, cfg, log, &appmodel.Link{})
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	log.Info("Connected to database successfully", zap.String("driver", cfg.Database.Driver))

	var links apprepository.LinkRepository = apprepository.NewLinkRepository(db.DB)

	issued, err := seedIssuedFilter(ctx, links)
	if err != nil {
		log.Fatal("Failed to load issued keys", zap.Error(err))
	}

	if cfg.Redis.Enabled {
		redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		links = apprepository.NewCachedLinkRepository(links, redisClient, cfg.Redis.CacheTTL, log.Named("cache"))
		log.Info("Connected to Redis successfully", zap.Duration("cache_ttl", cfg.Redis.CacheTTL))
	}

	var events appservice.EventSink
	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS, log.Named("nats"))
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		if err := infraNATS.EnsureStream(js, &nats.StreamConfig{
			Name:     appmodel.LinkStreamName,
			Subjects: []string{appmodel.LinkStreamSubjects},
			MaxBytes: appmodel.LinkStreamMaxBytes,
		}); err != nil {
			log.Fatal("Failed to prepare link event stream", zap.Error(err))
		}
		if err := appservice.NewEventConsumer(js, log).Start(ctx); err != nil {
			log.Fatal("Failed to start link event consumer", zap.Error(err))
		}
		events = appservice.NewEventPublisher(js)
		log.Info("Connected to NATS successfully", zap.String("stream", appmodel.LinkStreamName))
	}

	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	linkService := appservice.NewLinkService(appservice.Deps{
		Logger: log.Named("links"),
		Links:  links,
		Keys: keygen.NewGenerator(keygen.Options{
			PublicLength: cfg.Keys.PublicLength,
			SecretLength: cfg.Keys.SecretLength,
			Issued:       issued,
		}),
		Prober:      probe.NewHTTPProber(cfg.Probe.Timeout, cfg.Probe.MaxRedirects),
		Events:      events,
		MaxAttempts: cfg.Keys.MaxAttempts,
	})

	server := appserver.New(appserver.Dependencies{
		Logger:   log,
		BaseURL:  cfg.App.BaseURL,
		Links:    linkService,
		Database: db.Pinger,
	})

	go func() {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting HTTP server", zap.String("addr", cfg.App.Addr))
	if err := server.Listen(cfg.App.Addr); err != nil {
		log.Error("Fiber server exited", zap.Error(err))
	}
}

// seedIssuedFilter loads every stored public key into a bloom filter sized
// for growth well beyond the current table.
func seedIssuedFilter(ctx context.Context, links apprepository.LinkRepository) (*keygen.IssuedFilter, error) {
	keys, err := links.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	capacity := uint(len(keys)) * 4
	if capacity < bloomMinCapacity {
		capacity = bloomMinCapacity
	}
	filter := keygen.NewIssuedFilter(capacity, bloomFalsePositive)
	for _, key := range keys {
		filter.Add(key)
	}
	return filter, nil
}
