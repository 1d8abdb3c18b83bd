package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/api/router"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/brand"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/chat"
	appconfig "github.com/LiventyGestion/Liventy-gestion-sub000/internal/config"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leads"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/notify"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/observability/metrics"
	"github.com/LiventyGestion/Liventy-gestion-sub000/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting liventy chat API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		chatStore chat.Store
		leadsRepo leads.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		chatStore = chat.NewPostgresStore(pool)
		leadsRepo = leads.NewPostgresRepository(pool)
		logger.Info("using postgres storage")
	} else {
		chatStore = chat.NewInMemoryStore()
		leadsRepo = leads.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Language model: without an API key the fallback responder answers.
	var llm chat.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := chat.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID, logger)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = gemini.Close() }()
		llm = gemini
		logger.Info("gemini client ready", "model", cfg.GeminiModelID)
	} else {
		logger.Warn("GEMINI_API_KEY not set, answering from canned replies only")
	}

	// Notification fan-out.
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	} else {
		emailSender = notify.NewStubEmailSender(logger)
	}
	webhookSender := notify.NewWebhookSender(notify.WebhookConfig{
		URL:     cfg.LeadWebhookURL,
		Timeout: cfg.NotifyTimeout,
	}, logger)
	notifier := notify.NewService(emailSender, webhookSender, notify.Config{
		Recipients:   cfg.OpsEmailRecipients,
		AdminBaseURL: cfg.AdminBaseURL,
		BrandName:    brand.Default().Name,
	}, logger)

	// Metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.NewChatMetrics(registry)

	chatService := chat.NewService(chatStore, llm, leadsRepo, notifier, chatMetrics, chat.ServiceConfig{
		Brand:       brand.Default(),
		Hours:       chat.NewBusinessHours(cfg.BusinessHoursStart, cfg.BusinessHoursEnd),
		Model:       cfg.GeminiModelID,
		LLMTimeout:  cfg.LLMTimeout,
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Temperature: float32(cfg.LLMTemperature),
	}, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chat.NewHandler(chatService, logger),
		LeadsHandler:       leads.NewHandler(leadsRepo, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
