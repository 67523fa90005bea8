package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/config"
	"github.com/richardliu001/bloglite/internal/content"
	"github.com/richardliu001/bloglite/internal/dispatcher"
	"github.com/richardliu001/bloglite/internal/logger"
	"github.com/richardliu001/bloglite/internal/projector"
	"github.com/richardliu001/bloglite/internal/repo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// poller runs the outbox dispatcher on its own. Several instances may share
// one database; SKIP LOCKED keeps their batches apart.
func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{PrepareStmt: true, TranslateError: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := repo.Migrate(gdb); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var next article.Renderer = content.NewMarkdownRenderer()
	if cfg.Render.Engine == "github" {
		next = content.NewGithubRenderer(cfg.Render.GithubToken, cfg.Render.Timeout)
	}
	renderer := content.NewCachedRenderer(cfg.Render.Engine, next, rdb, cfg.Render.CacheTTL, log)

	var w dispatcher.MessageWriter
	if len(cfg.Kafka.Brokers) > 0 {
		kw := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
		defer kw.Close()
		w = kw
	}

	consumers := projector.Consumers(repo.NewRepository(gdb, log), renderer, w, dispatcher.Config{
		BatchSize:         cfg.Outbox.BatchSize,
		MaxRetries:        *cfg.Outbox.MaxRetries,
		MaxBatchesPerTick: cfg.Outbox.MaxBatchesPerTick,
	}, log)
	sched, err := dispatcher.NewScheduler(cfg.Outbox.Interval, log, consumers...)
	if err != nil {
		log.Fatalf("dispatcher: %v", err)
	}

	log.Infow("bloglite poller started", "interval", cfg.Outbox.Interval.String(), "consumers", len(consumers))
	sched.Start()
	<-ctx.Done()

	// the running batch is allowed to finish; give up after the shutdown timeout
	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		log.Errorf("dispatcher stop: %v", err)
	}
}
