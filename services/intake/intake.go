// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package intake provides the classification intake service for Gangway.
//
// This package contains the main service type that coordinates all
// components of the intake API: the taxonomy provider with hot reload,
// wizard session storage, HTTP routing, rate limiting, and the
// observability stack.
//
// # Usage
//
//	cfg := intake.Config{
//	    Port:        12240,
//	    DatasetPath: "./data/naics_2022.json",
//	}
//	svc, err := intake.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/gangway/pkg/logging"
	"github.com/AleutianAI/gangway/services/intake/middleware"
	"github.com/AleutianAI/gangway/services/intake/routes"
	"github.com/AleutianAI/gangway/services/intake/session"
	"github.com/AleutianAI/gangway/services/intake/storage/badger"
	"github.com/AleutianAI/gangway/services/intake/telemetry"
	"github.com/AleutianAI/gangway/services/taxonomy/events"
	"github.com/AleutianAI/gangway/services/taxonomy/loader"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the intake service.
//
// # Description
//
// Service abstracts the intake lifecycle, enabling testing and alternative
// implementations. Only essential lifecycle methods are exposed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	//
	// # Outputs
	//
	//   - error: Non-nil if the server fails to start or encounters a
	//     fatal error. Cleanup is automatic on return.
	Run() error

	// Router returns the underlying Gin engine for testing.
	//
	// The router must not be modified after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds intake service configuration options.
//
// All fields except DatasetPath are optional with defaults applied by New().
type Config struct {
	// Port is the HTTP server port. Default: 12240
	Port int

	// DatasetPath is the classification dataset file (.json or .yaml).
	// Required; New fails without it.
	DatasetPath string

	// WatchDataset enables the fsnotify watcher that hot-reloads the
	// dataset when the file changes. Default: false; the serve command
	// turns it on.
	WatchDataset bool

	// SessionDir is the directory for the Badger-backed session store.
	// Ignored when InMemorySessions is true. Default: "./data/sessions"
	SessionDir string

	// InMemorySessions keeps wizard sessions in memory only. Sessions
	// then die with the process. Useful for tests and ephemeral runs.
	InMemorySessions bool

	// SessionTTL is how long an untouched wizard session survives.
	// Zero uses the store default; negative disables expiry.
	SessionTTL time.Duration

	// RateLimitRPS is the per-client request budget for /v1 routes.
	// Default: middleware.DefaultRequestsPerSecond
	RateLimitRPS float64

	// RateLimitBurst is the per-client burst allowance for /v1 routes.
	// Default: middleware.DefaultBurst
	RateLimitBurst int

	// GinMode sets the Gin framework mode: "debug", "release", "test".
	// Empty leaves the GIN_MODE environment setting in effect.
	GinMode string

	// Telemetry configures tracing and metrics. The zero value uses
	// telemetry.DefaultConfig().
	Telemetry telemetry.Config
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// All fields are read-only after New() returns. The provider carries its
// own swap synchronization; everything else is wiring.
type service struct {
	config            Config
	router            *gin.Engine
	logger            *logging.Logger
	provider          *loader.Provider
	watcher           *loader.Watcher
	db                *badger.DB
	store             session.Store
	emitter           *events.Emitter
	metrics           *telemetry.Metrics
	limiter           *middleware.RateLimiter
	nodeCountReg      metric.Registration
	telemetryShutdown func(context.Context) error
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new intake Service with the given configuration.
//
// # Description
//
// New initializes all intake components in order:
//  1. Applies default configuration for missing values
//  2. Initializes the telemetry stack (tracing, metrics, propagation)
//  3. Loads the classification dataset and builds the first index
//  4. Starts the dataset watcher when enabled
//  5. Opens the Badger session store
//  6. Sets up HTTP routes with rate limiting
//
// On failure every component initialized so far is torn down before the
// error is returned.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults; DatasetPath
//     is required.
//
// # Outputs
//
//   - Service: Ready-to-run intake service
//   - error: Non-nil if initialization fails
func New(cfg Config) (Service, error) {
	cfg = applyConfigDefaults(cfg)
	if cfg.DatasetPath == "" {
		return nil, fmt.Errorf("intake: dataset path is required")
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	s := &service{
		config: cfg,
		logger: logging.Default().With("service", "intake"),
	}

	ctx := context.Background()

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	s.telemetryShutdown = shutdown

	meter := otel.Meter("gangway.intake")
	s.metrics, err = telemetry.NewMetrics(meter)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	// Event wiring: every component that emits shares this emitter, and
	// the logging handler turns the stream into structured logs.
	s.emitter = events.NewEmitter()
	s.emitter.Subscribe(events.NewLoggingHandler(s.logger))
	s.emitter.Subscribe(func(*events.Event) {
		s.metrics.DatasetReloadsTotal.Add(context.Background(), 1)
	}, events.TypeDatasetReloaded)

	if err := s.initProvider(ctx, meter); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to load classification dataset: %w", err)
	}

	if err := s.initSessionStore(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	s.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting intake server",
		"port", s.config.Port,
		"dataset", s.provider.Source(),
		"dataset_version", s.provider.Version(),
	)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12240
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = "./data/sessions"
	}
	if cfg.Telemetry == (telemetry.Config{}) {
		cfg.Telemetry = telemetry.DefaultConfig()
	}
	return cfg
}

// initProvider loads the dataset, registers the node count gauge, and
// starts the hot-reload watcher when configured.
func (s *service) initProvider(ctx context.Context, meter metric.Meter) error {
	provider, err := loader.NewProvider(ctx, s.config.DatasetPath,
		loader.WithLogger(s.logger),
		loader.WithEmitter(s.emitter),
	)
	if err != nil {
		return err
	}
	s.provider = provider

	reg, err := s.metrics.RegisterDatasetNodeCount(meter, func() int64 {
		return int64(s.provider.Index().Len())
	})
	if err != nil {
		slog.Warn("Failed to register dataset node count gauge", "error", err)
	} else {
		s.nodeCountReg = reg
	}

	if !s.config.WatchDataset {
		return nil
	}

	watcher, err := loader.NewWatcher(provider, loader.WithWatcherLogger(s.logger))
	if err != nil {
		// Not fatal - the dataset simply stays pinned until restart.
		slog.Warn("Dataset watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Start(context.Background()); err != nil {
		slog.Warn("Dataset watcher failed to start", "error", err)
		return nil
	}
	s.watcher = watcher
	slog.Info("Watching dataset for changes", "path", s.config.DatasetPath)

	return nil
}

// initSessionStore opens BadgerDB and the session store on top of it.
func (s *service) initSessionStore() error {
	bcfg := badger.DefaultConfig()
	bcfg.Path = s.config.SessionDir
	bcfg.Logger = s.logger.Slog()
	if s.config.InMemorySessions {
		bcfg = badger.InMemoryConfig()
	}

	db, err := badger.OpenDB(bcfg)
	if err != nil {
		return err
	}
	s.db = db

	opts := []session.StoreOption{session.WithStoreLogger(s.logger.Slog())}
	if s.config.SessionTTL != 0 {
		opts = append(opts, session.WithTTL(s.config.SessionTTL))
	}

	store, err := session.NewBadgerStore(db, opts...)
	if err != nil {
		return err
	}
	s.store = store

	return nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware(s.config.Telemetry.ServiceName))
	s.router.Use(telemetry.MetricsMiddleware(s.metrics))

	routes.SetupRoutes(s.router, s.provider, s.store, s.metrics, s.emitter, s.limiter)
}

// cleanup releases all resources held by the service.
//
// Called when Run() exits or on initialization failure; tolerates
// partially initialized state.
func (s *service) cleanup() {
	if s.watcher != nil {
		s.watcher.Stop()
	}

	if s.nodeCountReg != nil {
		if err := s.nodeCountReg.Unregister(); err != nil {
			slog.Warn("Node count gauge unregister error", "error", err)
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("Session store close error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Warn("Session database close error", "error", err)
		}
	}

	if s.telemetryShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.telemetryShutdown(ctx); err != nil {
			slog.Warn("Telemetry shutdown error", "error", err)
		}
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
