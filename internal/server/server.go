package server

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/uftp-network/uftp-engine/internal/config"
	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/database"
	"github.com/uftp-network/uftp-engine/internal/directory"
	"github.com/uftp-network/uftp-engine/internal/dispatch"
	"github.com/uftp-network/uftp-engine/internal/duplicate"
	"github.com/uftp-network/uftp-engine/internal/isptime"
	"github.com/uftp-network/uftp-engine/internal/metrics"
	"github.com/uftp-network/uftp-engine/internal/receiving"
	"github.com/uftp-network/uftp-engine/internal/sending"
	"github.com/uftp-network/uftp-engine/internal/server/handlers"
	appmiddleware "github.com/uftp-network/uftp-engine/internal/server/middleware"
	"github.com/uftp-network/uftp-engine/internal/store"
	"github.com/uftp-network/uftp-engine/internal/uftp"
	"github.com/uftp-network/uftp-engine/internal/validation"
	"github.com/uftp-network/uftp-engine/internal/version"
)

type Server struct {
	pool    *pgxpool.Pool
	queries *database.Queries
	config  *config.ServerEnvironment
	logger  *slog.Logger
	router  *chi.Mux

	self       uftp.Participant
	signingKey string
	jwkSet     jwk.Set

	directory  *directory.Directory
	sealer     *crypto.Sealer
	metrics    *metrics.Metrics
	store      *store.Store
	dispatcher *dispatch.Dispatcher
	processor  *receiving.Processor
	sender     *sending.Sender
	outbox     *Outbox
}

// NewServer builds the protocol components from cfg. ctx bounds the lifetime of the remote key cache.
func NewServer(
	ctx context.Context,
	pool *pgxpool.Pool,
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
) (*Server, error) {
	role, err := uftp.ParseRole(cfg.ParticipantRole)
	if err != nil {
		return nil, err
	}

	server := &Server{
		pool:    pool,
		queries: database.New(pool),
		config:  cfg,
		logger:  logger,
		router:  chi.NewRouter(),
		self:    uftp.Participant{Domain: cfg.ParticipantDomain, Role: role},
	}

	if err := server.initSigningKey(); err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	if err := server.initDirectory(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize participant directory: %w", err)
	}

	if err := server.initPipelines(); err != nil {
		return nil, err
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server, nil
}

// initSigningKey loads this participant's private key and publishes the matching public key as a JWK set.
func (s *Server) initSigningKey() error {
	privateKey, err := crypto.LoadSigningKey(s.config.SigningKeyPath)
	if err != nil {
		return err
	}
	s.signingKey = crypto.EncodePrivateKeyBase64(privateKey)

	publicKey := privateKey.Public().(ed25519.PublicKey)
	keyID, err := crypto.GenerateKeyIDFromEd25519Key(publicKey)
	if err != nil {
		return err
	}
	key, err := crypto.Ed25519PublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return err
	}

	s.jwkSet = jwk.NewSet()
	if err := s.jwkSet.AddKey(key); err != nil {
		return fmt.Errorf("failed to add key to JWK set: %w", err)
	}

	s.logger.Info("signing key loaded",
		slog.String("participant", s.self.String()),
		slog.String("kid", keyID))
	return nil
}

func (s *Server) initDirectory(ctx context.Context) error {
	dirConfig := directory.Config{
		RegistryPath:               s.config.RegistryPath,
		ManualKeysDir:              s.config.ManualKeysDir,
		SkipJWKCache:               s.config.SkipJWKCache,
		JWKCacheMinRefreshInterval: s.config.JWKCacheMinRefresh,
		JWKCacheMaxRefreshInterval: s.config.JWKCacheMaxRefresh,
	}

	dir, err := directory.New(ctx, dirConfig, s.logger)
	if err != nil {
		return err
	}

	s.directory = dir
	s.logger.Info("participant directory initialized",
		slog.String("registry", s.config.RegistryPath),
		slog.Int("participants", len(dir.Participants())))
	return nil
}

// initPipelines wires the receive and send pipelines.
func (s *Server) initPipelines() error {
	ispDuration, err := isptime.ParseDuration(s.config.ISPDuration)
	if err != nil {
		return fmt.Errorf("invalid ISP_DURATION: %w", err)
	}

	sealer, err := crypto.NewSealer(s.config.SealPoolSize)
	if err != nil {
		return fmt.Errorf("failed to create sealer: %w", err)
	}
	s.sealer = sealer

	s.metrics = metrics.New()
	s.metrics.RegisterSealPool(sealer.PoolStats)

	s.store = store.New(s.queries)

	chain := validation.NewDefaultChain(validation.Options{
		Store:             s.store,
		SupportedVersions: s.config.SupportedVersions,
		ISPDuration:       ispDuration,
		HostedDomains:     []string{s.self.Domain},
	})

	s.sender = sending.NewSender(sealer, s.directory, chain, sending.Config{
		ConnectTimeout:  s.config.SendConnectTimeout,
		ResponseTimeout: s.config.SendResponseTimeout,
	}, sending.WithMetrics(s.metrics))

	s.outbox = NewOutbox(s.config.OutboxSize, s.sender, s.directory, s.store, s.signingKey, s.metrics, s.logger)
	s.dispatcher = dispatch.New(s.outbox)

	s.processor = receiving.NewProcessor(
		duplicate.NewDetector(s.store),
		chain,
		s.dispatcher,
		receiving.LogSink{},
		s.self.Role,
		receiving.WithMetrics(s.metrics),
	)

	s.logger.Info("pipelines initialized",
		slog.Int("validators", len(chain.Validators())),
		slog.String("isp_duration", isptime.FormatDuration(ispDuration)),
		slog.Int("seal_pool_size", int(s.config.SealPoolSize)))
	return nil
}

// Dispatcher returns the dispatcher so business handlers can be registered before Start.
func (s *Server) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(appmiddleware.RequestLogging(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(appmiddleware.SecurityHeaders(s.config.Environment))
}

func (s *Server) registerRoutes() {
	receive := handlers.NewReceiveMessageHandler(s.directory, s.sealer, s.processor, s.store, receiving.LogSink{})
	submit := handlers.NewSubmitMessageHandler(s.sender, s.directory, s.store, s.self, s.signingKey)
	info := version.Get()

	// protocol and application API: rate limited and size limited
	s.router.Group(func(r chi.Router) {
		r.Use(appmiddleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
		r.Use(appmiddleware.RequestSizeLimit(s.config.MaxRequestSize))

		r.Post("/shapeshifter/api/v3/message", receive.HandleReceiveMessage)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/messages", submit.HandleSubmitMessage)
			r.Get("/status", handlers.HandleStatus(s.self.String(), s.store))
		})
	})

	s.router.Get("/health/live", handlers.HandleHealth)
	s.router.Get("/health/ready", handlers.HandleReadiness(s.queries))
	s.router.Get("/version", handlers.HandleVersion(info.Version, info.BuildDate, info.GitCommit))
	s.router.Get("/.well-known/jwks.json", handlers.HandleJWKS(s.jwkSet))
	s.router.Get("/docs/openapi.json", handlers.HandleOpenAPI)
	s.router.Handle("/metrics", s.metrics.Handler())
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	// the outbox outlives ctx: it stops once the HTTP server stopped accepting and answering requests
	outboxCtx, cancelOutbox := context.WithCancel(context.Background())
	outboxDone := make(chan struct{})
	go func() {
		defer close(outboxDone)
		s.outbox.Run(outboxCtx)
	}()
	defer func() {
		cancelOutbox()
		<-outboxDone
	}()

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("participant", s.self.String()),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	s.stopOutbox(cancelOutbox, outboxDone)
	s.sealer.Close()
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// stopOutbox stops the outbox worker and sends the responses queued by the last requests.
func (s *Server) stopOutbox(stop context.CancelFunc, done <-chan struct{}) {
	stop()
	<-done

	drainCtx, cancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer cancel()
	s.outbox.Drain(drainCtx)
	s.logger.Info("outbox drained")
}

func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}
