package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/habitloop/coachmem/internal/api"
	"github.com/habitloop/coachmem/internal/completion"
	"github.com/habitloop/coachmem/internal/config"
	"github.com/habitloop/coachmem/internal/conversation"
	"github.com/habitloop/coachmem/internal/database"
	"github.com/habitloop/coachmem/internal/identity"
	"github.com/habitloop/coachmem/internal/ingest"
	"github.com/habitloop/coachmem/internal/memory"
	mw "github.com/habitloop/coachmem/internal/middleware"
	inats "github.com/habitloop/coachmem/internal/nats"
	iredis "github.com/habitloop/coachmem/internal/redis"
	"github.com/habitloop/coachmem/internal/server"
	"github.com/habitloop/coachmem/internal/summarizer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Migrations
	if err := database.RunMigrations(cfg.DB.DSN(), "migrations"); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS
	natsClient, err := inats.NewClient(ctx, cfg.NATS)
	if err != nil {
		slog.Error("connecting to nats", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	publisher := inats.NewPublisher(natsClient.JetStream())
	consumerMgr := inats.NewConsumerManager(natsClient.JetStream())

	// Conversation buffer
	buffer := conversation.NewBuffer(redisClient, cfg.Memory.TurnBufferMax, cfg.Memory.TurnBufferTTL)

	// Completion client. Without an API key the model-assisted tier and
	// the summarizer stay off; heuristic extraction still runs.
	var completionClient completion.Client
	if cfg.Completion.APIKey != "" {
		completionClient = completion.NewAnthropicClient(cfg.Completion)
	}

	// Memory
	repo := memory.NewPostgresRepository(pool)
	extractor := memory.NewExtractor(completionClient, cfg.Memory.ExtractionEnabled)
	gate := memory.NewGate(repo)
	composer := memory.NewComposer(repo)
	tracker := memory.NewHitTracker()
	memSvc := memory.NewService(extractor, gate, composer, tracker, repo)
	memHandler := memory.NewHandler(memSvc, cfg.Memory.RelevantLimit)

	// Identity
	verifier := identity.NewVerifier(cfg.JWT.Secret)
	resolver := identity.NewResolver(pool)

	// Turn intake and async extraction
	ingestHandler := ingest.NewHandler(buffer, publisher)
	consumer := ingest.NewConsumer(memSvc, buffer, consumerMgr)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("ingest consumer stopped", "error", err)
		}
	}()

	// Daily summarizer
	summ := summarizer.New(repo, buffer, completionClient, identity.NewOwnerLister(pool))
	go summ.Run(ctx, cfg.Memory.SummaryHour)

	// Rate limiter for turn intake
	turnLimiter := mw.NewRateLimiter(redisClient, cfg.Memory.TurnRateMax, cfg.Memory.TurnRateWindowSec)

	// Router
	router := api.NewRouter(pool, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		TurnRateLimiter:    turnLimiter.Middleware,
	}, api.HandlerSet{
		MemoryContext:  memHandler.Context,
		RelevantMemory: memHandler.Relevant,
		Remember:       memHandler.Remember,
		MemoryHits:     memHandler.Hits,
		ListMemories:   memHandler.List,

		SubmitTurn: ingestHandler.Submit,

		AuthMiddleware: identity.Middleware(verifier, resolver),
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
