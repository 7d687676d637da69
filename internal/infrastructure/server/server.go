package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/xilef-bot/evalbot/internal/api/http"
	"github.com/xilef-bot/evalbot/internal/api/middleware"
	"github.com/xilef-bot/evalbot/internal/capability"
	"github.com/xilef-bot/evalbot/internal/directive"
	"github.com/xilef-bot/evalbot/internal/dispatch"
	"github.com/xilef-bot/evalbot/internal/gateway/telegram"
	"github.com/xilef-bot/evalbot/internal/infrastructure/config"
	"github.com/xilef-bot/evalbot/internal/infrastructure/logging"
	"github.com/xilef-bot/evalbot/internal/infrastructure/monitoring"
	"github.com/xilef-bot/evalbot/internal/infrastructure/resilience"
	"github.com/xilef-bot/evalbot/internal/sandbox"
)

// shutdownTimeout bounds draining in-flight requests.
const shutdownTimeout = 10 * time.Second

// Server wires the sandbox, the dispatcher and every surface.
type Server struct {
	config       *config.Config
	logger       *logging.Logger
	registry     *prometheus.Registry
	metrics      *monitoring.Metrics
	pool         *sandbox.Pool
	capabilities *capability.Registry
	dispatcher   *dispatch.Dispatcher
	router       *gin.Engine
	bot          *telegram.Bot
	version      string
}

// NewServer creates a new server instance. The Telegram bot authorizes
// against the API here when enabled.
func NewServer(cfg *config.Config, logger *logging.Logger, version string) (*Server, error) {
	logger.Info("Initializing evalbot",
		zap.String("version", version),
		zap.String("port", cfg.Server.Port),
		zap.Int("max_concurrent", cfg.Sandbox.MaxConcurrent),
		zap.Strings("allowed_modules", cfg.Sandbox.AllowedModules),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)

	pool := sandbox.NewPool(cfg.Sandbox.MaxConcurrent, cfg.Sandbox.AcquireTimeout())
	caps, err := NewCapabilities(cfg, pool, version, logger)
	if err != nil {
		return nil, err
	}
	dispatcher := NewDispatcher(cfg, pool, caps, logger, metrics)

	s := &Server{
		config:       cfg,
		logger:       logger,
		registry:     registry,
		metrics:      metrics,
		pool:         pool,
		capabilities: caps,
		dispatcher:   dispatcher,
		version:      version,
	}
	s.router = s.newRouter()

	if cfg.Telegram.Enabled {
		api, err := telegram.NewAPI(cfg.Telegram.Token, cfg.Telegram.PollTimeout, logger)
		if err != nil {
			return nil, err
		}
		s.bot = telegram.NewBot(api, dispatcher, telegram.Options{
			Operators:   cfg.Telegram.Operators,
			PollTimeout: cfg.Telegram.PollTimeout,
			Limiter:     resilience.NewKeyedLimiter(float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, 0),
			Breaker: resilience.New(telegram.Surface, resilience.Settings{
				Threshold: 5,
				Cooldown:  30 * time.Second,
				Ignore:    telegram.IsRejected,
				OnStateChange: func(name string, from, to resilience.State) {
					logger.Warn("circuit breaker state changed",
						zap.String("breaker", name),
						zap.Stringer("from", from),
						zap.Stringer("to", to),
					)
				},
			}),
			Logger:   logger,
			Recorder: metrics,
		})
	}

	logger.Info("Server initialized successfully",
		zap.Strings("capabilities", caps.Names()),
		zap.Bool("http", cfg.Server.Enabled),
		zap.Bool("telegram", s.bot != nil),
	)
	return s, nil
}

// NewCapabilities builds the capability registry: host information, pool
// statistics and the optional capability file.
func NewCapabilities(cfg *config.Config, pool *sandbox.Pool, version string, logger *logging.Logger) (*capability.Registry, error) {
	caps := capability.NewRegistry()
	if err := caps.Register(capability.Host(version, time.Now())); err != nil {
		return nil, err
	}
	if err := caps.Register(capability.Func("pool", "evaluation slot statistics", func() any {
		return pool.Stats()
	})); err != nil {
		return nil, err
	}

	if path := cfg.Sandbox.CapabilityFile; path != "" {
		names, err := caps.RegisterFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading capability file: %w", err)
		}
		logger.Info("Loaded capability file", zap.String("path", path), zap.Strings("names", names))
	}
	return caps, nil
}

// NewDispatcher creates the dispatcher shared by every surface.
func NewDispatcher(cfg *config.Config, pool *sandbox.Pool, caps *capability.Registry, logger *logging.Logger, recorder dispatch.Recorder) *dispatch.Dispatcher {
	return dispatch.New(dispatch.Options{
		Directives: directive.Default(),
		Pool:       pool,
		Sandbox: sandbox.Options{
			AllowedModules: cfg.Sandbox.AllowedModules,
			Timeout:        cfg.Sandbox.Timeout(),
			AwaitLimit:     cfg.Sandbox.AwaitLimit(),
			MaxCallStack:   cfg.Sandbox.MaxCallStack,
		},
		Catalog:  caps.Catalog,
		Budget:   cfg.Pager.Budget,
		Logger:   logger.Named("dispatch"),
		Recorder: recorder,
	})
}

func (s *Server) newRouter() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: float64(s.config.RateLimit.RequestsPerSecond),
			Burst:             s.config.RateLimit.Burst,
			OnLimited: func(string) {
				s.metrics.RecordRateLimited("http")
			},
		}))
	}

	handlers := apihttp.NewHandlers(s.dispatcher, s.capabilities, s.pool, s.metrics, s.version)
	handlers.Register(router)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	return router
}

// Dispatcher returns the shared dispatcher.
func (s *Server) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// Handler returns the HTTP handler with response compression.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}

// Run serves every enabled surface until ctx is canceled or one of them
// fails, then shuts the others down.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if s.config.Server.Enabled {
		addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			s.logger.Info("Starting HTTP server", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if s.bot != nil {
		g.Go(func() error {
			return s.bot.Run(ctx)
		})
	}

	err := g.Wait()
	s.Close()
	return err
}

// Close releases the sandbox pool and flushes the logger.
func (s *Server) Close() {
	s.logger.Info("Shutting down server...")
	if err := s.pool.Close(); err != nil {
		s.logger.Error("Failed to close sandbox pool", zap.Error(err))
	}
	_ = s.logger.Sync()
}
