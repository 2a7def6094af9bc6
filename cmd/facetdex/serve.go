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

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/metrics"
	chiTransport "github.com/kailas-cloud/facetdex/internal/transport/chi"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the HTTP API (default command)",
		Long: heredoc.Doc(`
			Start the HTTP API. On a primary node every configured index is
			created at startup when missing.
		`),
		Example: heredoc.Doc(`
			$ facetdex serve
			$ ENV=prod facetdex serve
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, env, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, env)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	metrics.Register()

	if err := a.schema.EnsureAll(ctx, cfg.Search.Indexes); err != nil {
		logger.Error("Failed to ensure indexes at startup", zap.Error(err))
	}

	server := chiTransport.NewServer(a.search, a.indexing, a.schema, a.presets, a.health, cfg.Search.Indexes, logger)
	router := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
