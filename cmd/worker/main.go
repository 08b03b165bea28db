package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/andretaki/simurgh/internal/audit"
	"github.com/andretaki/simurgh/internal/cache"
	"github.com/andretaki/simurgh/internal/config"
	"github.com/andretaki/simurgh/internal/database"
	"github.com/andretaki/simurgh/internal/extraction"
	"github.com/andretaki/simurgh/internal/mail"
	"github.com/andretaki/simurgh/internal/order"
	"github.com/andretaki/simurgh/internal/queue"
	"github.com/andretaki/simurgh/internal/queue/workers"
	"github.com/andretaki/simurgh/internal/rfq"
	"github.com/andretaki/simurgh/internal/samgov"
	"github.com/andretaki/simurgh/internal/storage"
	"github.com/andretaki/simurgh/internal/webhook"
	"github.com/andretaki/simurgh/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := cache.NewClient(cfg.Redis)
	defer rdb.Close()

	// Shared services
	store := storage.NewObjectStorage(cfg.Storage)
	auditSvc := audit.NewService(db)
	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()
	dispatcher := webhook.NewDispatcher(db)
	webhookSvc := webhook.NewService(db, dispatcher)

	gateway := extraction.NewGateway(cfg.LLM)
	extractor := extraction.NewExtractor(gateway, auditSvc)

	workflowStore := workflow.NewStore(db)
	linker := workflow.NewLinker(workflowStore)
	rfqSvc := rfq.NewService(db, store, queueClient, webhookSvc, extractor)
	orderSvc := order.NewService(db, store, queueClient, webhookSvc, workflowStore, extractor)

	samStore := samgov.NewDBStore(db)
	samClient := samgov.NewClient(cfg.Sam)
	samSvc := samgov.NewService(samStore, samClient)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	})

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeRfqExtract, asynq.HandlerFunc(workers.NewRfqWorker(rfqSvc).ProcessTask))
	registry.Register(queue.TypeOrderExtract, asynq.HandlerFunc(workers.NewOrderWorker(orderSvc).ProcessTask))
	registry.Register(queue.TypeSamSync, asynq.HandlerFunc(workers.NewSamSyncWorker(samSvc).ProcessTask))
	registry.Register(queue.TypeLinkRepair, asynq.HandlerFunc(workers.NewLinkRepairWorker(linker).ProcessTask))

	scheduler := asynq.NewScheduler(redisOpt, nil)

	if cfg.Mail.TenantID != "" && cfg.Mail.Mailbox != "" {
		graphClient := mail.NewGraphClient(cfg.Mail)
		poller := mail.NewPoller(graphClient, cache.NewCache(rdb), rfqSvc, cfg.Mail.PollMax)
		registry.Register(queue.TypeMailPoll, asynq.HandlerFunc(workers.NewMailWorker(poller).ProcessTask))

		if _, err := scheduler.Register("@every 5m", asynq.NewTask(queue.TypeMailPoll, nil)); err != nil {
			slog.Error("failed to schedule mail poll", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("mailbox polling disabled, Graph credentials not configured")
	}

	if cfg.Sam.APIKey != "" {
		if _, err := scheduler.Register("@every 6h", asynq.NewTask(queue.TypeSamSync, nil, asynq.Queue("low"))); err != nil {
			slog.Error("failed to schedule opportunity sync", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("opportunity sync disabled, SAM API key not configured")
	}

	if _, err := scheduler.Register("@every 15m", asynq.NewTask(queue.TypeLinkRepair, nil, asynq.Queue("low"))); err != nil {
		slog.Error("failed to schedule link repair", "error", err)
		os.Exit(1)
	}

	if err := scheduler.Start(); err != nil {
		slog.Error("scheduler error", "error", err)
		os.Exit(1)
	}
	defer scheduler.Shutdown()

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
