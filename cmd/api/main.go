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

	"github.com/ricky2013dev/pm-bdm/internal/adapters/catalog"
	"github.com/ricky2013dev/pm-bdm/internal/adapters/database"
	"github.com/ricky2013dev/pm-bdm/internal/adapters/events"
	"github.com/ricky2013dev/pm-bdm/internal/api/handlers"
	"github.com/ricky2013dev/pm-bdm/internal/api/routes"
	"github.com/ricky2013dev/pm-bdm/internal/application/services"
	"github.com/ricky2013dev/pm-bdm/internal/domain/providers"
	"github.com/ricky2013dev/pm-bdm/internal/domain/repositories"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/clients/postgres"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/clients/redis"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/clients/stedi"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/observability"
	"github.com/ricky2013dev/pm-bdm/pkg/config"
	apperrors "github.com/ricky2013dev/pm-bdm/pkg/errors"
	"github.com/ricky2013dev/pm-bdm/pkg/secrets"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Vault secrets land in the environment before configuration is read
	vaultResult, err := secrets.Apply(ctx, secrets.LoadVaultConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load secrets from vault: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)
	if len(vaultResult.Loaded) > 0 || len(vaultResult.Skipped) > 0 {
		log.Info().
			Str("path", vaultResult.Path).
			Strs("loaded", vaultResult.Loaded).
			Strs("skipped", vaultResult.Skipped).
			Msg("vault secrets applied")
	}

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
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Procedure catalog, loaded once and immutable afterwards
	var catalogRepo repositories.ProcedureCatalogRepository
	switch cfg.Catalog.Source {
	case config.CatalogSourcePostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		catalogRepo = database.NewProcedureCatalogAdapter(pgClient)
	default:
		catalogRepo = catalog.NewFileRepository(cfg.Catalog.Path)
	}

	procedureCatalog, err := catalog.Load(ctx, catalogRepo)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Catalog.Source).Msg("failed to load procedure catalog")
	}
	if procedureCatalog.Len() == 0 {
		log.Warn().Str("source", cfg.Catalog.Source).Msg("procedure catalog is empty; reports will hold general coverage only")
	}
	log.Info().Int("procedures", procedureCatalog.Len()).Str("source", cfg.Catalog.Source).Msg("procedure catalog loaded")

	// Upstream credential is checked once; requests see the stored error
	var configErr error
	if !cfg.Stedi.HasCredentials() && !cfg.Stedi.MockMode {
		configErr = apperrors.NewConfigurationError("STEDI_API_KEY is not set", nil)
		log.Error().Err(configErr).Msg("eligibility routes will answer 500 until the API key is configured")
	}
	if cfg.Stedi.MockMode {
		log.Warn().Msg("STEDI_MOCK_MODE is on; serving sample coverage data")
	}

	stediClient := stedi.NewClient(&cfg.Stedi, stedi.WithMetrics(metrics))

	eligibilityService := services.NewEligibilityService(stediClient, procedureCatalog, services.EligibilityServiceConfig{
		MaxConcurrency: cfg.Eligibility.MaxConcurrency,
		MockMode:       cfg.Stedi.MockMode,
	})
	eligibilityService.SetMetrics(metrics)

	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize Redis client; degraded events disabled")
		} else {
			eventBus = events.NewRedisEventBus(redisClient)
			eligibilityService.SetEventBus(eventBus)
			log.Info().Str("channel", providers.EventChannelEligibilityDegraded).Msg("degraded event publishing enabled")
		}
	}

	eligibilityHandler := handlers.NewEligibilityHandler(eligibilityService, procedureCatalog, configErr)
	router := routes.NewRouter(eligibilityHandler, cfg.Server.AllowedOrigins, metrics)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // one report can run many upstream calls
		IdleTimeout:  60 * time.Second,
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

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
