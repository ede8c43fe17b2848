// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/veriauth/veriauth/internal/account"
	accountpg "github.com/veriauth/veriauth/internal/account/postgres"
	"github.com/veriauth/veriauth/internal/logging"
	"github.com/veriauth/veriauth/internal/mail"
	"github.com/veriauth/veriauth/internal/observability"
	"github.com/veriauth/veriauth/internal/store"
	"github.com/veriauth/veriauth/internal/token"
	"github.com/veriauth/veriauth/internal/web"
)

// serveConfig holds configuration for the serve command.
// Flag values come from the command line; secrets come from the
// environment (optionally loaded from a .env file).
type serveConfig struct {
	httpAddr    string
	metricsAddr string
	smtpAddr    string
	mailFrom    string
	logFormat   string

	databaseURL  string
	smtpUser     string
	smtpPassword string
	tokenSecret  string
}

// Validate checks that the configuration is valid.
func (cfg *serveConfig) Validate() error {
	if cfg.httpAddr == "" {
		return fmt.Errorf("http-addr is required")
	}
	if cfg.logFormat != "json" && cfg.logFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", cfg.logFormat)
	}
	if cfg.databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.smtpAddr == "" {
		return fmt.Errorf("smtp-addr is required")
	}
	if cfg.smtpUser == "" {
		return fmt.Errorf("SMTP_USER environment variable is required")
	}
	if cfg.smtpPassword == "" {
		return fmt.Errorf("SMTP_PASSWORD environment variable is required")
	}
	if cfg.tokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET environment variable is required")
	}
	return nil
}

// loadEnv fills the environment-sourced fields.
func (cfg *serveConfig) loadEnv() {
	cfg.databaseURL = os.Getenv("DATABASE_URL")
	cfg.smtpUser = os.Getenv("SMTP_USER")
	cfg.smtpPassword = os.Getenv("SMTP_PASSWORD")
	cfg.tokenSecret = os.Getenv("TOKEN_SECRET")
}

// Default values for serve command flags.
const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultSMTPAddr    = "smtp.gmail.com:587"
	defaultLogFormat   = "json"

	shutdownTimeout = 15 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. Runs pending database migrations,
then serves the /auth API until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().StringVar(&cfg.httpAddr, "http-addr", defaultHTTPAddr, "HTTP API listen address")
	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().StringVar(&cfg.smtpAddr, "smtp-addr", defaultSMTPAddr, "SMTP server address for outgoing mail")
	cmd.Flags().StringVar(&cfg.mailFrom, "mail-from", "", "From address for outgoing mail (default: SMTP_USER)")
	cmd.Flags().StringVar(&cfg.logFormat, "log-format", defaultLogFormat, "log format (json or text)")

	return cmd
}

func runServe(ctx context.Context, cfg *serveConfig, cmd *cobra.Command) error {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()
	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetDefault("veriauth", version, cfg.logFormat)

	slog.Info("starting server",
		"http_addr", cfg.httpAddr,
		"log_format", cfg.logFormat,
	)

	pool, err := store.Connect(ctx, cfg.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	migrator, err := store.NewMigrator(cfg.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := migrator.Close(); err != nil {
		return fmt.Errorf("failed to close migrator: %w", err)
	}

	slog.Info("migrations applied")

	issuer, err := token.NewIssuer([]byte(cfg.tokenSecret))
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.smtpAddr, cfg.smtpUser, cfg.smtpPassword, cfg.mailFrom)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}

	svc, err := account.NewServiceWithLogger(
		accountpg.NewAccountRepository(pool),
		account.NewArgon2Hasher(),
		issuer,
		mailer,
		slog.Default(),
	)
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured
	var obsServer *observability.Server
	var metrics web.Metrics
	if cfg.metricsAddr != "" {
		obsServer = observability.NewServer(cfg.metricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		obsErrChan, obsErr := obsServer.Start()
		if obsErr != nil {
			return fmt.Errorf("failed to start observability server: %w", obsErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
	}

	webServer := web.NewServer(svc, slog.Default(), metrics)

	httpSrv := &http.Server{
		Addr:              cfg.httpAddr,
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpSrv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			errChan <- serveErr
		}
	}()

	cmd.Println("Server started")
	slog.Info("server ready", "http_addr", cfg.httpAddr)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("error stopping HTTP server", "error", err)
	}

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error so a failing sidecar server takes the process down
// gracefully. It exits when an error is received, the channel is closed,
// or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
