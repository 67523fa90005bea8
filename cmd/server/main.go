package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/config"
	"github.com/richardliu001/bloglite/internal/content"
	"github.com/richardliu001/bloglite/internal/dispatcher"
	"github.com/richardliu001/bloglite/internal/logger"
	"github.com/richardliu001/bloglite/internal/model"
	"github.com/richardliu001/bloglite/internal/projector"
	"github.com/richardliu001/bloglite/internal/repo"
	"github.com/richardliu001/bloglite/internal/service"
	httptransport "github.com/richardliu001/bloglite/internal/transport/http"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	flag.Parse()

	// 1. load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. postgres
	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{PrepareStmt: true, TranslateError: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil && cfg.Postgres.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if err := repo.Migrate(gdb); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}
	repository := repo.NewRepository(gdb, log)
	categories := make([]model.Category, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories = append(categories, model.Category{ID: c.ID, DisplayName: c.Name})
	}
	if err := repository.UpsertCategories(ctx, categories); err != nil {
		log.Fatalf("seed categories: %v", err)
	}

	// 4. redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("redis ping: %v, rendering without cache hits until it is back", err)
	}
	renderer := newRenderer(cfg.Render, rdb, log)

	// 5. services & router
	factory := article.NewContentFactory(content.FrontMatterParser{}, content.SHA256Hasher{}, renderer)
	handler := httptransport.NewHandler(
		service.NewArticleService(repository, factory, log),
		service.NewQueryService(repository, log),
		log,
	)
	router := httptransport.NewRouter(handler, cfg, log)

	// 6. embedded dispatcher
	var sched *dispatcher.Scheduler
	if cfg.Outbox.Embedded {
		var w dispatcher.MessageWriter
		if kw := newKafkaWriter(cfg.Kafka); kw != nil {
			defer kw.Close()
			w = kw
		}
		sched, err = dispatcher.NewScheduler(cfg.Outbox.Interval, log,
			projector.Consumers(repository, renderer, w, outboxConfig(cfg.Outbox), log)...)
		if err != nil {
			log.Fatalf("dispatcher: %v", err)
		}
		sched.Start()
	}

	// 7. serve
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		log.Infof("bloglite server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("listen: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Errorf("dispatcher stop: %v", err)
		}
	}
}

func newRenderer(cfg config.RenderConfig, rdb *redis.Client, log *zap.SugaredLogger) article.Renderer {
	var next article.Renderer = content.NewMarkdownRenderer()
	if cfg.Engine == "github" {
		next = content.NewGithubRenderer(cfg.GithubToken, cfg.Timeout)
	}
	return content.NewCachedRenderer(cfg.Engine, next, rdb, cfg.CacheTTL, log)
}

func newKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func outboxConfig(cfg config.OutboxConfig) dispatcher.Config {
	return dispatcher.Config{
		BatchSize:         cfg.BatchSize,
		MaxRetries:        *cfg.MaxRetries,
		MaxBatchesPerTick: cfg.MaxBatchesPerTick,
	}
}
