// Package main provides the entry point for the research report service HTTP server.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixir/research-report-service/internal/auth"
	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/database"
	"github.com/helixir/research-report-service/internal/llm"
	"github.com/helixir/research-report-service/internal/observability"
	"github.com/helixir/research-report-service/internal/papersources"
	"github.com/helixir/research-report-service/internal/papersources/arxiv"
	"github.com/helixir/research-report-service/internal/pipeline"
	"github.com/helixir/research-report-service/internal/repository"
	httpserver "github.com/helixir/research-report-service/internal/server/http"
	"github.com/helixir/research-report-service/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("research-report-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Upstream clients.
	source := papersources.NewInstrumentedSource(
		arxiv.New(arxiv.Config{
			BaseURL: cfg.PaperSources.ArXiv.BaseURL,
			Timeout: cfg.PaperSources.ArXiv.Timeout,
		}),
		metrics, logger,
	)

	rawCompleter, err := llm.NewCompleter(llm.FactoryConfig{
		Provider: cfg.LLM.Provider,
		Timeout:  cfg.LLM.Timeout,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	})
	if err != nil {
		return fmt.Errorf("create completer: %w", err)
	}
	completer := llm.NewInstrumentedCompleter(rawCompleter, metrics, logger)
	logger.Info().
		Str("provider", rawCompleter.Provider()).
		Str("model", rawCompleter.Model()).
		Msg("completion client configured")

	identity, err := auth.NewIdentityProvider(auth.Config{
		Mode:    cfg.Auth.Mode,
		Timeout: cfg.Auth.Timeout,
		JWT: auth.JWTConfig{
			Secret:   cfg.Auth.JWT.Secret,
			Issuer:   cfg.Auth.JWT.Issuer,
			Audience: cfg.Auth.JWT.Audience,
			Leeway:   cfg.Auth.JWT.Leeway,
		},
		Remote: auth.RemoteConfig{
			BaseURL: cfg.Auth.Remote.BaseURL,
			APIKey:  cfg.Auth.Remote.APIKey,
		},
	})
	if err != nil {
		return fmt.Errorf("create identity provider: %w", err)
	}
	gate := auth.NewGate(identity, metrics, logger)
	logger.Info().Str("mode", identity.Name()).Msg("authentication configured")

	// Repositories and pipelines.
	records := repository.NewPgRecordRepository(db)
	validator := validation.New()

	deps := pipeline.Deps{
		Source:    source,
		Completer: completer,
		Store:     records,
		Metrics:   metrics,
		Logger:    logger,
	}
	pipelineCfg := pipeline.Config{
		ReportMaxResults: cfg.Pipeline.ReportMaxResults,
		SearchMaxResults: cfg.Pipeline.SearchMaxResults,
		MaxConcurrency:   cfg.Pipeline.MaxConcurrency,
	}

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	httpSrv := httpserver.NewServer(httpCfg, httpserver.Services{
		Reports:   pipeline.NewReportPipeline(deps, pipelineCfg),
		Search:    pipeline.NewSearchPipeline(deps, pipelineCfg),
		Refiner:   pipeline.NewRefinementPipeline(deps, validator),
		Analyzer:  pipeline.NewAnalyzer(deps),
		Records:   records,
		Auth:      gate,
		Health:    db,
		Validator: validator,
	}, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.ReadTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP REST API server in background.
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("research-report-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down research-report-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("research-report-service shutdown complete")
	return nil
}
