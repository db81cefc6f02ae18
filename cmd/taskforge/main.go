package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/TaskForge/internal/adapter/gcal"
	"github.com/Strob0t/TaskForge/internal/adapter/gmail"
	tfhttp "github.com/Strob0t/TaskForge/internal/adapter/http"
	"github.com/Strob0t/TaskForge/internal/adapter/hubspot"
	"github.com/Strob0t/TaskForge/internal/adapter/litellm"
	tfnats "github.com/Strob0t/TaskForge/internal/adapter/nats"
	"github.com/Strob0t/TaskForge/internal/adapter/otel"
	"github.com/Strob0t/TaskForge/internal/adapter/postgres"
	"github.com/Strob0t/TaskForge/internal/adapter/retrieval"
	"github.com/Strob0t/TaskForge/internal/adapter/ristretto"
	"github.com/Strob0t/TaskForge/internal/config"
	"github.com/Strob0t/TaskForge/internal/logger"
	"github.com/Strob0t/TaskForge/internal/port/messagequeue"
	"github.com/Strob0t/TaskForge/internal/resilience"
	"github.com/Strob0t/TaskForge/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"planner_model", cfg.Planner.Model,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	otelShutdown, err := otel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := tfnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	snippetCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer snippetCache.Close()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Adapters ---

	newBreaker := func() *resilience.Breaker {
		return resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	}

	store := postgres.NewStore(pool)
	creds := postgres.NewTokenSource(store)

	llmClient := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey)
	llmClient.SetBreaker(newBreaker())
	plan := litellm.NewPlanner(llmClient, cfg.Planner.Model, cfg.Planner.MaxTokens, log)

	lookup := retrieval.NewClient(cfg.Retrieval.URL, cfg.Retrieval.TopK, cfg.Retrieval.CacheTTL, snippetCache, log)
	lookup.SetBreaker(newBreaker())

	mailClient := gmail.NewClient(cfg.Google.APIBase, creds, store, log)
	mailClient.SetBreaker(newBreaker())
	calClient := gcal.NewClient(cfg.Google.APIBase, creds, store, log)
	calClient.SetBreaker(newBreaker())
	crmClient := hubspot.NewClient(cfg.HubSpot.APIBase, creds, store, log)
	crmClient.SetBreaker(newBreaker())

	toolset, err := service.NewToolset(mailClient, calClient, crmClient)
	if err != nil {
		return fmt.Errorf("toolset: %w", err)
	}

	// --- Services ---

	agentSvc := service.NewAgentService(store, plan, toolset, lookup, metrics, log)
	taskSvc := service.NewTaskService(store, queue, log)
	insSvc := service.NewInstructionService(store, log)
	proactiveSvc := service.NewProactiveService(store, taskSvc, agentSvc, log)
	syncSvc := service.NewSyncService(store, mailClient, crmClient, cfg.Sync.MaxMessages, cfg.Sync.MaxContacts, log)

	// Background execution: pick up freshly created tasks off the queue.
	cancelTasks, err := queue.Subscribe(ctx, messagequeue.SubjectTaskCreated,
		func(ctx context.Context, _ string, data []byte) error {
			var payload messagequeue.TaskCreatedPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("decode task created: %w", err)
			}
			if _, err := agentSvc.ProcessTask(ctx, payload.OwnerID, payload.TaskID); err != nil {
				return fmt.Errorf("process task %s: %w", payload.TaskID, err)
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("task subscriber: %w", err)
	}
	defer cancelTasks()

	// --- HTTP ---

	handlers := &tfhttp.Handlers{
		Tasks:        taskSvc,
		Instructions: insSvc,
		Agent:        agentSvc,
		Proactive:    proactiveSvc,
		Sync:         syncSvc,
		Logger:       log,
	}

	r := chi.NewRouter()
	r.Use(tfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(tfhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	tfhttp.MountRoutes(r, handlers, cfg.Webhook)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	if err := queue.Drain(); err != nil {
		slog.Warn("queue drain failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
