package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/export"
	"github.com/joseph-ayodele/interlock-tracker/internal/ingest"
	"github.com/joseph-ayodele/interlock-tracker/internal/jobs"
	"github.com/joseph-ayodele/interlock-tracker/internal/llm"
	"github.com/joseph-ayodele/interlock-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
	"github.com/joseph-ayodele/interlock-tracker/internal/resolve"
	"github.com/joseph-ayodele/interlock-tracker/internal/server"
	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
	"github.com/joseph-ayodele/interlock-tracker/internal/verification"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("interlockd.failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	if err := repository.HealthCheck(ctx, db.DB, 5*time.Second); err != nil {
		return err
	}
	if err := repository.Bootstrap(ctx, db.DB, logger); err != nil {
		return err
	}

	docs := repository.NewDocumentRepository(db.DB, logger)
	zones := repository.NewZoneRepository(db.DB, logger)
	equipment := repository.NewEquipmentRepository(db.DB, logger)
	links := repository.NewLinkRepository(db.DB, logger)
	jobRepo := repository.NewExtractJobRepository(db.DB, logger)

	store, err := ingest.NewStore(cfg.Storage.DocumentDir, docs, int64(cfg.Storage.MaxUploadMB)<<20, logger)
	if err != nil {
		return err
	}
	cache, err := jobs.NewCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var completer llm.Completer
	if cfg.EnrichmentEnabled() {
		completer = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	} else {
		logger.Warn("enrichment.disabled", "reason", "no API key configured")
	}
	enricher := llm.NewEnricher(completer,
		llm.WithChunkChars(cfg.LLM.ChunkChars),
		llm.WithConcurrency(cfg.LLM.MaxConcurrency),
		llm.WithLogger(logger),
	)

	manager := jobs.NewManager(jobs.Deps{
		Store:        jobRepo,
		Documents:    docs,
		Extractor:    textextract.NewService(logger),
		Enricher:     enricher,
		Persister:    resolve.NewResolver(db.DB, zones, equipment, links, logger),
		Cache:        cache,
		Metrics:      jobs.NewMetrics(reg),
		Logger:       logger,
		MinTextChars: cfg.Jobs.MinTextChars,
	})
	if _, err := manager.RecoverInterrupted(ctx); err != nil {
		return err
	}
	queue := jobs.NewQueue(manager, logger,
		jobs.WithWorkers(cfg.Jobs.Workers),
		jobs.WithQueueSize(cfg.Jobs.QueueSize),
		jobs.WithProcessTimeout(cfg.Jobs.ProcessTimeout),
	)
	manager.AttachQueue(queue)

	if cfg.Storage.WatchDir != "" {
		scope := entity.Scope{CompanyID: cfg.Storage.WatchCompanyID, SiteID: cfg.Storage.WatchSiteID}
		if err := watchFolder(ctx, cfg.Storage.WatchDir, scope, store, manager, logger); err != nil {
			return err
		}
	}

	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.Deps{
		DB:           db.DB,
		Store:        store,
		Documents:    docs,
		JobHistory:   jobRepo,
		Jobs:         manager,
		Zones:        zones,
		Equipment:    equipment,
		Links:        links,
		Verification: verification.NewService(repository.NewCampaignRepository(db.DB, logger), repository.NewCheckRepository(db.DB, logger), zones, links, reg, logger),
		Export:       export.NewService(zones, equipment, links, logger),
		Gatherer:     reg,
		CORSOrigins:  strings.Split(cfg.Server.CORSOrigins, ","),
		Logger:       logger,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http.listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	var (
		grpcServer *grpc.Server
		healthSrv  *health.Server
	)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcServer = grpc.NewServer()
		healthSrv = health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)
		healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		go func() {
			logger.Info("grpc.health.listening", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("interlockd.shutdown")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if healthSrv != nil {
		healthSrv.Shutdown()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http.shutdown.failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	return runErr
}

// watchFolder ingests documents dropped into dir and submits a job for each new one.
func watchFolder(ctx context.Context, dir string, scope entity.Scope, store *ingest.Store, manager *jobs.Manager, logger *slog.Logger) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	go func() {
		for range errs {
		}
	}()
	go func() {
		for path := range events {
			res, err := store.IngestPath(ctx, scope, path)
			if err != nil {
				logger.Error("watch.ingest.failed", "path", path, "error", err)
				continue
			}
			if res.Deduplicated {
				continue
			}
			if _, err := manager.Submit(ctx, res.DocumentID, scope); err != nil {
				logger.Error("watch.submit.failed", "path", path, "document_id", res.DocumentID, "error", err)
			}
		}
	}()
	return nil
}
