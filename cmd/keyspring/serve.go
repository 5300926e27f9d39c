// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/keyspring/keyspring/internal/auth"
	authpg "github.com/keyspring/keyspring/internal/auth/postgres"
	"github.com/keyspring/keyspring/internal/config"
	"github.com/keyspring/keyspring/internal/httpapi"
	"github.com/keyspring/keyspring/internal/logging"
	"github.com/keyspring/keyspring/internal/observability"
	"github.com/keyspring/keyspring/internal/store"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth service",
		Long: `Start the auth HTTP API and the observability endpoints. The
database URL and signing key are read from the DATABASE_URL and
KEYSPRING_JWT_SECRET environment variables.`,
		RunE: runServe,
	}

	// Flag defaults mirror config.Defaults(): an unchanged flag merges
	// its default into keys the config file leaves unset, so an empty
	// default would blank out the built-in value.
	def := config.Defaults()
	cmd.Flags().String("listen_addr", def.ListenAddr, "API listen address")
	cmd.Flags().String("metrics_addr", def.MetricsAddr, "metrics/health HTTP address")
	cmd.Flags().String("log_format", def.LogFormat, "log format (json or text)")
	cmd.Flags().Bool("auto_migrate", def.AutoMigrate, "run pending migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("keyspring", version, cfg.LogFormat)

	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", config.EnvDatabaseURL)
	}
	if cfg.SigningKey == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", config.EnvSigningKey)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting keyspring",
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	if cfg.AutoMigrate {
		migrator, err := store.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close() //nolint:errcheck // migration error takes precedence
			return err
		}
		if err := migrator.Close(); err != nil {
			return err
		}
		slog.Info("migrations applied")
	}

	tokens, err := auth.NewTokenService(cfg.SigningKey)
	if err != nil {
		return err
	}

	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:    cfg.Argon2.Time,
		Memory:  cfg.Argon2.Memory,
		Threads: cfg.Argon2.Threads,
	})

	accounts := authpg.NewAccountRepository(pool)

	service, err := auth.NewService(accounts, hasher, tokens)
	if err != nil {
		return err
	}
	service.SetTokenLifetime(cfg.TokenLifetime)

	var metrics *observability.Metrics
	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			return pool.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()
	}

	apiServer, err := httpapi.NewServer(cfg.ListenAddr, service, tokens, metrics)
	if err != nil {
		return err
	}

	apiErrCh, err := apiServer.Start()
	if err != nil {
		return err
	}

	var obsErrCh <-chan error
	if obsServer != nil {
		obsErrCh, err = obsServer.Start()
		if err != nil {
			stopServers(apiServer, nil)
			return err
		}
	}

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		if serveErr != nil {
			stopServers(nil, obsServer)
			return oops.With("server", "api").Wrap(serveErr)
		}
	case serveErr := <-obsErrCh:
		if serveErr != nil {
			stopServers(apiServer, nil)
			return oops.With("server", "observability").Wrap(serveErr)
		}
	}

	stopServers(apiServer, obsServer)
	return nil
}

// stopServers shuts down the given servers, logging failures. Either
// argument may be nil.
func stopServers(api *httpapi.Server, obs *observability.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if api != nil {
		if err := api.Stop(ctx); err != nil {
			slog.Error("api server shutdown failed", "error", err)
		}
	}
	if obs != nil {
		if err := obs.Stop(ctx); err != nil {
			slog.Error("observability server shutdown failed", "error", err)
		}
	}
}
