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
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/server"
)

func main() {
	if err := common.LoadDotEnv(); err != nil {
		app.NewLogger("info").Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("docextractd exited", "error", err)
		os.Exit(1)
	}
}

// run owns every deferred cleanup; only main exits.
func run(cfg *common.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer a.Close()

	var pinger server.Pinger
	if a.DB != nil {
		if err := a.DB.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
			return fmt.Errorf("db health: %w", err)
		}
		logger.Info("DB health OK")
		pinger = a.DB
	}

	srv := server.New(server.Config{
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		RequestTimeout: cfg.Server.WriteTimeout,
	}, a.Processor, a.Repo, export.NewService(a.Repo, logger), pinger, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	// gRPC health for orchestrators
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("docextract.Extraction", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	errCh := make(chan error, 2)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen on %s: %w", cfg.Server.GRPCAddr, err)
		}
		logger.Info("gRPC health serving", "addr", cfg.Server.GRPCAddr)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	go func() {
		logger.Info("HTTP serving",
			"addr", cfg.Server.HTTPAddr,
			"provider", a.Provider.Name(),
			"mode", cfg.Extract.Mode,
			"task", a.Task.Name,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("stopped")
	return serveErr
}
