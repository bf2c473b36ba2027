package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/cart"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/catalog"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/config"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/gateway"
	handler "github.com/Sahilbhanushali/GharGrocerProd/internal/handler/http"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror/memory"
	mirrorredis "github.com/Sahilbhanushali/GharGrocerProd/internal/mirror/redis"
	mirrorsqlite "github.com/Sahilbhanushali/GharGrocerProd/internal/mirror/sqlite"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/session"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/wishlist"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/database"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/health"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/httpclient"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/middleware"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	mirror         mirror.Store
	session        *session.Provider
	cart           *cart.Store
	httpServer     *http.Server
	stopBackground context.CancelFunc
	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing.
	tracingCfg := tracing.DefaultConfig(serviceName)
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracingCfg.Enabled = cfg.OTELEnabled
	shutdownTracer, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Mirror.
	database.SetSlowOpLogging(100*time.Millisecond, logger)
	store, err := openMirror(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return nil, err
	}

	// Commerce backend.
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.RemoteTimeout
	clientCfg.MaxRetries = cfg.RemoteMaxRetries
	cbCfg := httpclient.DefaultCircuitBreakerConfig("commerce-backend")
	cbCfg.Timeout = cfg.BreakerTimeout
	cbCfg.FailureRatio = cfg.BreakerRatio
	doer := httpclient.NewCircuitBreakerClient(httpclient.New(clientCfg), cbCfg, logger).
		WithFallback(gateway.CircuitOpenFallback)
	backend := gateway.NewBackend(doer, cfg.BackendURL, logger)
	remote := gateway.NewHTTPClient(backend)
	products := catalog.NewClient(backend, logger)

	// Build the dependency graph.
	sess, err := session.New(ctx, store, remote, logger)
	if err != nil {
		_ = store.Close()
		_ = shutdownTracer(context.Background())
		return nil, fmt.Errorf("init session: %w", err)
	}
	cartStore := cart.New(store, remote, sess, logger, cart.WithRemoteTimeout(cfg.RemoteTimeout))
	wishlistStore, err := wishlist.New(ctx, store, logger)
	if err != nil {
		_ = store.Close()
		_ = shutdownTracer(context.Background())
		return nil, fmt.Errorf("init wishlist: %w", err)
	}

	// Ending a session clears everything tied to the customer.
	sess.OnLogout(cartStore.ResetCart)
	sess.OnLogout(wishlistStore.Clear)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("mirror", store.Ping)
	healthHandler.RegisterOptional("commerce_backend", backend.Ping)

	// HTTP router.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	h := handler.NewHandler(cartStore, wishlistStore, sess, products, logger)
	router := handler.NewRouter(bgCtx, h, healthHandler, handler.RouterConfig{
		CORS:           middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins},
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		PprofCIDRs:     cfg.PprofCIDRs,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		mirror:         store,
		session:        sess,
		cart:           cartStore,
		httpServer:     httpServer,
		stopBackground: stopBackground,
		shutdownTracer: shutdownTracer,
	}, nil
}

// openMirror connects the configured mirror backend.
func openMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) (mirror.Store, error) {
	switch cfg.MirrorBackend {
	case config.MirrorRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPass
		redisCfg.DB = cfg.RedisDB
		rdb, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return mirrorredis.New(rdb, cfg.MirrorNamespace, cfg.MirrorTTL), nil

	case config.MirrorSQLite:
		store, err := mirrorsqlite.Open(ctx, database.DefaultSQLiteConfig(cfg.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("open sqlite mirror: %w", err)
		}
		logger.Info("opened SQLite mirror", slog.String("path", cfg.SQLitePath))
		return store, nil

	default:
		logger.Warn("using in-memory mirror, cart and session will not survive a restart")
		return memory.New(), nil
	}
}

// Start validates a restored session and hydrates the cart once.
func (a *App) Start(ctx context.Context) {
	if a.cfg.ValidateSession && a.session.IsAuthenticated() {
		if _, err := a.session.Validate(ctx); err != nil {
			a.logger.WarnContext(ctx, "could not validate restored session", slog.String("error", err.Error()))
		}
	}
	a.cart.Hydrate(ctx)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.Start(ctx)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components. In-flight cart writes get until
// the shutdown deadline to reach the backend.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.stopBackground()

	if err := a.cart.Wait(shutdownCtx); err != nil {
		a.logger.Warn("abandoning in-flight cart writes", slog.String("error", err.Error()))
	}

	if err := a.mirror.Close(); err != nil {
		a.logger.Error("mirror close error", slog.String("error", err.Error()))
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
