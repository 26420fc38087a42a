package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/api/handlers"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/api/middleware"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/config"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/engine"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/gcsstore"
	infraBQ "github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/infra/bigquery"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/jobs/inmemory"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/logger"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/offset"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/pipeline"
	"github.com/GalihFt/AUTO-RK-DEPO-SBY/internal/rules"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ./rk.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	ctx := context.Background()

	ruleSet, err := rules.Load(cfg.Rules.File)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Rules.File).Msg("Failed to load rules")
	}
	tolerance, err := cfg.OffsetTolerance()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid offset tolerance")
	}
	eng, err := engine.New(ruleSet, offset.New(offset.WithTolerance(tolerance)), logger.WithComponent(log, "engine"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build engine")
	}

	// Storage and warehouse are optional collaborators.
	var storage pipeline.StorageService
	if cfg.Storage.ReportBucket != "" {
		client, err := gcsstore.NewClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer client.Close()
		storage = client
	} else {
		log.Warn().Msg("No report bucket configured - reports are kept in memory only")
	}

	var repo pipeline.LedgerRepository
	if cfg.BigQuery.Enabled() {
		bq, err := infraBQ.NewBigQueryLedgerRepository(ctx, infraBQ.TableRef{
			Project: cfg.BigQuery.Project,
			Dataset: cfg.BigQuery.Dataset,
			Ledgers: cfg.BigQuery.LedgerTable,
			Runs:    cfg.BigQuery.RunsTable,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create ledger repository")
		}
		defer bq.Close()
		repo = bq
	}

	runner := pipeline.NewRunner(eng, storage, repo, pipeline.Options{
		ReportBucket: cfg.Storage.ReportBucket,
		ReportPrefix: cfg.Storage.ReportPrefix,
	}, logger.WithComponent(log, "pipeline"))

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.Options{
		BufferSize: cfg.Jobs.Buffer,
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
	}, jobStore, logger.WithComponent(log, "jobs"))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, runner.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job queue")
	}

	reconciliations := handlers.NewReconciliationsHandler(jobQueue, jobStore, cfg.Server.MaxUploadMB<<20, log)
	if repo != nil {
		reconciliations.EnableWarehouse()
	}

	mux := http.NewServeMux()
	handlers.Register(mux,
		reconciliations,
		handlers.NewJobsHandler(jobStore, log),
		handlers.NewRulesHandler(ruleSet, log),
	)

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS(cfg.Server.AllowOrigins),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
