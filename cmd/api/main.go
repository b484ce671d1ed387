package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/adapters/cache"
	"github.com/zatekoja/transcript-triage/backend/internal/adapters/database"
	"github.com/zatekoja/transcript-triage/backend/internal/adapters/events"
	"github.com/zatekoja/transcript-triage/backend/internal/api/handlers"
	"github.com/zatekoja/transcript-triage/backend/internal/api/routes"
	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/ollama"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
	"github.com/zatekoja/transcript-triage/backend/pkg/config"
)

const cacheNamespace = "triage"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLoggerWithLevel(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Redis is optional: without it the dashboard is computed per request and
	// the lead stream is disabled.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache and event bus")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient, cacheNamespace)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("Redis client initialized")
	}

	transcriptAdapter := database.NewTranscriptAdapter(pgClient)
	artifactAdapter := database.NewArtifactAdapter(pgClient)
	leadAdapter := database.NewLeadAdapter(pgClient)
	auditAdapter := database.NewAuditAdapter(pgClient)
	patientAdapter := database.NewPatientAdapter(pgClient)

	ollamaClient := ollama.NewClient(&cfg.Ollama)
	log.Info().Str("base_url", ollamaClient.BaseURL()).Msg("Ollama client configured")

	auditRecorder := services.NewAuditRecorder(auditAdapter)

	generationService := services.NewGenerationService(
		transcriptAdapter,
		artifactAdapter,
		leadAdapter,
		ollamaClient,
		auditRecorder,
		eventBus,
		services.GenerationConfig{
			GenerateTimeout: cfg.Ollama.GenerateTimeout,
			WarmupTimeout:   cfg.Ollama.WarmupTimeout,
			ProtectWorked:   cfg.Leads.ProtectWorked,
			MinLeadScore:    cfg.Leads.MinLeadScore,
		},
	)
	generationService.SetMetrics(metrics)

	leadService := services.NewLeadService(leadAdapter, auditRecorder, eventBus)
	leadService.SetMetrics(metrics)

	transcriptService := services.NewTranscriptService(transcriptAdapter, artifactAdapter, auditAdapter, auditRecorder)

	patientService := services.NewPatientService(patientAdapter, transcriptAdapter, leadAdapter, auditRecorder)

	dashboardService := services.NewDashboardService(
		transcriptAdapter,
		artifactAdapter,
		leadAdapter,
		auditAdapter,
		cacheProvider,
		cfg.Dashboard.CacheTTL,
	)
	dashboardService.SetMetrics(metrics)

	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(dashboardService, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
			cacheInvalidationService = nil
		}

		go func() {
			warmCtx, warmCancel := context.WithTimeout(ctx, 30*time.Second)
			defer warmCancel()
			if err := services.NewCacheWarmingService(dashboardService).WarmCache(warmCtx); err != nil {
				log.Warn().Err(err).Msg("dashboard cache warming failed")
			}
		}()
	}

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	router := routes.NewRouter(
		handlers.NewTranscriptHandler(transcriptService),
		handlers.NewAIHandler(generationService),
		handlers.NewLeadHandler(leadService),
		handlers.NewDashboardHandler(dashboardService),
		handlers.NewPatientHandler(patientService),
		sseHandler,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// Warmup may take a full minute and the lead stream never finishes,
		// so no write timeout is set.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
