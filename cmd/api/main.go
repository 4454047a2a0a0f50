// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/config"
	"github.com/tripsync-ai/trip-planning-platform/internal/consensus"
	"github.com/tripsync-ai/trip-planning-platform/internal/events"
	"github.com/tripsync-ai/trip-planning-platform/internal/handler"
	"github.com/tripsync-ai/trip-planning-platform/internal/llm"
	"github.com/tripsync-ai/trip-planning-platform/internal/middleware"
	"github.com/tripsync-ai/trip-planning-platform/internal/places"
	"github.com/tripsync-ai/trip-planning-platform/internal/service"
	"github.com/tripsync-ai/trip-planning-platform/internal/store"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "trip-planning-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the database
	st, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Connect the event bus (optional: empty NATS_URL disables it)
	pub, err := events.Connect(events.Config{
		URL:   cfg.NATSURL,
		Token: cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer pub.Close()

	// Initialize the LLM client. Without an API key the consensus
	// pipeline runs on its deterministic fallbacks.
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == string(llm.ProviderAnthropic) && cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	}
	if err != nil {
		log.Warn("failed to create LLM client, generative features disabled", zap.Error(err))
		llmClient = nil
	}

	// Place photo lookups (optional: empty key means fallback images)
	var photos consensus.PhotoFinder
	if cfg.GooglePlacesAPIKey != "" {
		photos = places.NewClient(cfg.GooglePlacesAPIKey, cfg.PhotoLookupTimeout, log)
	}

	// Consensus engine and services
	engine := consensus.NewEngine(llmClient, photos, st, cfg.MaxConsensusIterations, log)
	tripSvc := service.NewTripService(st, log)
	messageSvc := service.NewMessageService(st, tripSvc, pub, log)
	consensusSvc := service.NewConsensusService(engine, st, tripSvc, pub, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st, pub)
	tripHandler := handler.NewTripHandler(tripSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	consensusHandler := handler.NewConsensusHandler(consensusSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", tripHandler.Create)
			r.Get("/", tripHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", tripHandler.Get)
				r.Put("/", tripHandler.Update)
				r.Delete("/", tripHandler.Delete)

				// Messages
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Post)

				// Consensus
				r.Get("/consensus", consensusHandler.Get)
				r.Post("/consensus", consensusHandler.Run)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
