package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/internal/async"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslip-tracker/internal/pdftext"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	repo "github.com/joseph-ayodele/payslip-tracker/internal/repository"
	"github.com/joseph-ayodele/payslip-tracker/internal/server/grpcapi"
	"github.com/joseph-ayodele/payslip-tracker/internal/server/httpapi"
	"github.com/joseph-ayodele/payslip-tracker/internal/services/slips"
)

func main() {
	cfg, err := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, common.DefaultConfig().Log)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger = common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime.Std(),
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime.Std(),
		DialTimeout:      cfg.Database.DialTimeout.Std(),
		StatementTimeout: cfg.Database.StatementTimeout.Std(),
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	filesRepo := repo.NewFileRepository(store, logger)
	slipsRepo := repo.NewSalarySlipRepository(store, logger)
	jobsRepo := repo.NewExtractJobRepository(store, logger)

	p := pipeline.New(
		pipeline.Config{DevPlaceholder: cfg.Extraction.DevPlaceholder},
		nil,
		logger,
		pdftext.DefaultChain(cfg.Extraction.Pdftotext, logger)...,
	)
	ingestor := ingest.NewFSIngestor(cfg.Storage.UploadDir, filesRepo, logger)
	service := slips.NewService(ingestor, p, slipsRepo, logger, slips.Options{
		Timeout:  cfg.Extraction.Timeout.Std(),
		AutoSave: true,
		Jobs:     jobsRepo,
	})

	queue := async.NewProcessorQueue(service, logger,
		async.WithWorkers(cfg.Extraction.Workers),
		async.WithQueueSize(cfg.Extraction.QueueSize),
		async.WithProcessTimeout(cfg.Extraction.Timeout.Std()+10*time.Second),
	)

	if cfg.Storage.WatchDir != "" {
		if err := watch(ctx, cfg.Storage.WatchDir, ingestor, queue, logger); err != nil {
			logger.Error("failed to start watcher", "dir", cfg.Storage.WatchDir, "error", err)
			os.Exit(1)
		}
	}

	// gRPC
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer, healthServer := grpcapi.NewServer(service, logger)
	go func() {
		logger.Info("payslipd grpc listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	// HTTP
	health := func(ctx context.Context) error { return store.HealthCheck(ctx, 2*time.Second) }
	httpServer := httpapi.NewServer(cfg.Server.HTTPAddr, httpapi.NewHandler(service, health, logger), false, logger)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

// watch ingests every PDF that appears under dir and queues it for extraction.
func watch(ctx context.Context, dir string, ingestor ingest.Ingestor, queue async.Queue, logger *slog.Logger) error {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watcher error", "error", err)
			case path, ok := <-paths:
				if !ok {
					return
				}
				res, err := ingestor.IngestPath(ctx, path)
				if err != nil {
					logger.Warn("watcher ingest failed", "path", path, "error", err)
					continue
				}
				_, traceID := common.EnsureRequestID(ctx)
				if err := queue.Enqueue(ctx, async.Job{FileID: res.FileID, Source: "watcher:" + path, TraceID: traceID}); err != nil {
					logger.Warn("watcher enqueue failed", "file_id", res.FileID, "error", err)
				}
			}
		}
	}()
	return nil
}
