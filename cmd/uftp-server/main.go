package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/uftp-network/uftp-engine/internal/config"
	_ "github.com/uftp-network/uftp-engine/internal/docs"
	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/server"
	"github.com/uftp-network/uftp-engine/internal/version"
	"github.com/uftp-network/uftp-engine/sql/schema"
)

//	@title			uftp-server
//	@description	uftp-server receives and sends signed UFTP (Shapeshifter) messages for one participant (AGR, DSO or CRO).
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	## Request Limits
//	@description	The message endpoints are protected by:
//	@description	- **Rate limiting**: Configurable requests per second (see env vars) - default 100 rps (set to 0 to disable)
//	@description	- **Request size limits**: Configurable (see env vars) - default 1MB
//	@description
//	@description	## Authentication
//	@description	Messages posted to the UFTP endpoint are authenticated by their Ed25519 seal:
//	@description	the sender's public key is taken from the participant registry. Unknown senders and invalid seals are rejected.
//	@description
//	@description	The application API (/api/v1) is unauthenticated and must only be reachable by local systems.
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@tag.name			UFTP
//	@tag.description	UFTP message endpoints

//	@tag.name			Common
//	@tag.description	Server API endpoints (jwks, health, readiness, version, etc.)

func main() {
	cmd := &cobra.Command{
		Use:   "uftp-server",
		Short: "UFTP participant server",
		Long:  `uftp-server implements the UFTP message endpoint for one participant and sends the responses it produces`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations",
		Long:  `Apply all pending database migrations (embedded in the binary) and exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate()
		},
	}
	cmd.AddCommand(migrateCmd)

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and connects to the database
func setup() (*config.ServerEnvironment, *slog.Logger, *pgxpool.Pool) {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("PARTICIPANT_DOMAIN", cfg.ParticipantDomain),
		slog.String("PARTICIPANT_ROLE", cfg.ParticipantRole),
		slog.String("REGISTRY_PATH", cfg.RegistryPath),
		slog.String("MANUAL_KEYS_DIR", cfg.ManualKeysDir),
		slog.String("ISP_DURATION", cfg.ISPDuration),
		slog.Any("SUPPORTED_VERSIONS", cfg.SupportedVersions),
	)

	dbCtx, dbCancel := context.WithTimeout(context.Background(), cfg.DatabasePingTimeout)
	defer dbCancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		appLogger.Error("Failed to parse database URL", slog.String("error", err.Error()))
		os.Exit(1)
	}

	poolConfig.MaxConns = cfg.DBMaxConnections
	poolConfig.MinConns = cfg.DBMinConnections
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(dbCtx, poolConfig)
	if err != nil {
		appLogger.Error("Unable to create connection pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err = pool.Ping(dbCtx); err != nil {
		appLogger.Error("Error pinging database via pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("connected to PostgreSQL")
	return cfg, appLogger, pool
}

func run() error {
	cfg, appLogger, pool := setup()

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// configure the server
	server, err := server.NewServer(
		ctx,
		pool,
		cfg,
		appLogger,
	)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		pool.Close()
		os.Exit(1)
	}

	defer server.DatabaseShutdown()

	// start the server
	if err := server.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}

func migrate() error {
	_, appLogger, pool := setup()
	defer pool.Close()

	ctx := context.Background()
	if err := schema.Migrate(ctx, pool); err != nil {
		appLogger.Error("Migration failed", slog.String("error", err.Error()))
		return err
	}

	current, err := schema.Version(ctx, pool)
	if err != nil {
		return err
	}
	appLogger.Info("database migrated", slog.Int64("version", current))
	return nil
}
