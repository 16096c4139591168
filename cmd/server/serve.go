package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HanTheDev/personality-gateway/internal/admin"
	"github.com/HanTheDev/personality-gateway/internal/auth"
	"github.com/HanTheDev/personality-gateway/internal/backend"
	"github.com/HanTheDev/personality-gateway/internal/config"
	"github.com/HanTheDev/personality-gateway/internal/db"
	"github.com/HanTheDev/personality-gateway/internal/httpx"
	"github.com/HanTheDev/personality-gateway/internal/logging"
	"github.com/HanTheDev/personality-gateway/internal/metrics"
	"github.com/HanTheDev/personality-gateway/internal/proxy"
	"github.com/HanTheDev/personality-gateway/internal/ratelimit"
)

const version = "1.0.0"

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Resolved per request; checked here only to warn early.
	resolver := backend.NewEnvResolver()
	if base, err := resolver.BackendURL(); err != nil {
		logger.Warn("Backend URL not configured, proxied calls will fail until it is set", zap.Error(err))
	} else {
		logger.Info("Backend URL resolved", zap.String("backend_url", base))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	opts := proxy.Options{
		ChatLimit: cfg.ChatRateLimitPerHour,
		Metrics:   collector,
		Logger:    logger,
	}

	var adminHandler *admin.AdminHandler
	if cfg.DatabaseURL != "" {
		database, err := db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return err
		}
		opts.AccessLog = database

		adminHandler = admin.NewAdminHandler(database, cfg.AdminAPIKey, logger)
		logger.Info("Access log enabled, admin API available at /admin/*")
	}

	var revoker auth.Revoker
	if cfg.RedisURL != "" {
		client, err := ratelimit.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		opts.Limiter = ratelimit.NewRateLimiter(client, "send-message")
		revoker = auth.NewRedisRevoker(client)
		logger.Info("Redis enabled", zap.Int("chat_rate_limit_per_hour", cfg.ChatRateLimitPerHour))
	}

	var sessions *auth.Middleware
	if cfg.SessionSecret != "" {
		issuer := auth.NewIssuer(cfg.SessionSecret, cfg.SessionTTL)
		opts.Sessions = issuer
		sessions = auth.NewMiddleware(issuer, revoker, logger)
	}

	proxyHandler := proxy.NewHandler(backend.NewClient(resolver, cfg.BackendTimeout), opts)
	router := newRouter(collector, proxyHandler, sessions, adminHandler)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("Shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRouter wires the public surface. Session tokens are only read under /api.
// sessions and adminHandler may be nil.
func newRouter(collector *metrics.Collector, proxyHandler *proxy.Handler, sessions *auth.Middleware, adminHandler *admin.AdminHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(httpx.RequestID)

	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.Handle("/metrics", collector.Handler()).Methods("GET")

	if adminHandler != nil {
		adminHandler.RegisterRoutes(router)
	}

	api := router.PathPrefix("/api").Subrouter()
	if sessions != nil {
		api.Use(sessions.Attach)
		api.HandleFunc("/session", sessions.Current).Methods("GET")
		api.HandleFunc("/session", sessions.Logout).Methods("DELETE")
	}
	proxyHandler.RegisterRoutes(api)

	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version,
	})
}
