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

	"github.com/hubauth/jwtauthenticator/app"
	"github.com/hubauth/jwtauthenticator/internal/observability"
	"github.com/hubauth/jwtauthenticator/routes"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load configLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hub login, logout and user endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd.Context())
			if err != nil {
				return err
			}

			logger, err := observability.NewZap(observability.Config{
				Level:  cfg.Observability.LogLevel,
				Format: cfg.Observability.LogFormat,
			})
			if err != nil {
				return err
			}

			if cfg.IsProduction() && !cfg.Session.Secure {
				logger.Warn("session cookies are not marked Secure in production")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := app.NewDependencies(ctx, cfg, logger)
			if err != nil {
				_ = logger.Sync()
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           routes.SetupRoutes(deps),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("hub authenticator listening",
					zap.String("addr", addr),
					zap.String("environment", cfg.Environment))
				errCh <- srv.ListenAndServe()
			}()

			var serveErr error
			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					serveErr = fmt.Errorf("server error: %w", err)
				}
			case <-ctx.Done():
				logger.Info("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown failed", zap.Error(err))
			}
			if err := deps.Close(shutdownCtx); err != nil && serveErr == nil {
				serveErr = err
			}
			return serveErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOrDefault("HTTP_ADDR", ":8080"), "Listen address")
	return cmd
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
