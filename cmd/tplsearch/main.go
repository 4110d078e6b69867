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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tplsearch/internal/config"
	dbRedis "github.com/kailas-cloud/tplsearch/internal/db/redis"
	"github.com/kailas-cloud/tplsearch/internal/domain/catalogue"
	logpkg "github.com/kailas-cloud/tplsearch/internal/logger"
	"github.com/kailas-cloud/tplsearch/internal/metrics"
	"github.com/kailas-cloud/tplsearch/internal/repository/replycache"
	chiTransport "github.com/kailas-cloud/tplsearch/internal/transport/chi"
	"github.com/kailas-cloud/tplsearch/internal/transport/openai"
	"github.com/kailas-cloud/tplsearch/internal/transport/symphony"
	"github.com/kailas-cloud/tplsearch/internal/transport/web"
	"github.com/kailas-cloud/tplsearch/internal/usecase/discover"
	healthuc "github.com/kailas-cloud/tplsearch/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/tplsearch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/tplsearch/internal/usecase/search"
	"github.com/kailas-cloud/tplsearch/internal/version"
)

const cacheReadinessTimeout = 5 * time.Second

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tplsearch server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalogue_url", cfg.Catalogue.BaseURL),
		zap.Bool("catalogue_disabled", cfg.Catalogue.Disabled),
		zap.String("model", cfg.Model.Model),
		zap.Bool("model_configured", cfg.Model.APIKey != ""),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register upstream metrics explicitly (no init())
	metrics.RegisterUpstreamMetrics()

	cat, err := catalogue.Default()
	if err != nil {
		logger.Fatal("Failed to load fallback catalogue", zap.Error(err))
	}

	// Live catalogue client. Left as a nil interface when disabled so search
	// serves the fallback and health reports "disabled".
	var (
		live    searchuc.LiveCatalogue
		breaker healthuc.CatalogueBreaker
	)
	if !cfg.Catalogue.Disabled {
		client := symphony.New(&symphony.Config{
			BaseURL:          cfg.Catalogue.BaseURL,
			SiteURL:          cfg.Catalogue.SiteURL,
			UserAgent:        cfg.Catalogue.UserAgent,
			Timeout:          time.Duration(cfg.Catalogue.TimeoutSec) * time.Second,
			ResultLimit:      cfg.Catalogue.ResultLimit,
			FailureThreshold: cfg.Catalogue.Breaker.FailureThreshold,
			OpenTimeout:      time.Duration(cfg.Catalogue.Breaker.OpenTimeoutSec) * time.Second,
			HalfOpenRequests: cfg.Catalogue.Breaker.HalfOpenRequests,
			RPS:              cfg.Catalogue.RateLimit.RPS,
			Burst:            cfg.Catalogue.RateLimit.Burst,
			Logger:           logger,
		})
		live, breaker = client, client
	}

	searchSvc := searchuc.New(live, cat, searchuc.Config{
		ResultLimit:       cfg.Catalogue.ResultLimit,
		SiteURL:           cfg.Catalogue.SiteURL,
		Seed:              cfg.Fallback.Seed,
		ScoreDescriptions: cfg.Fallback.ScoreDescriptions,
	})

	// Model client chain: OpenAI-compatible -> reply cache (optional)
	base := openai.NewCompleter(&openai.Config{
		APIKey:    cfg.Model.APIKey,
		BaseURL:   cfg.Model.BaseURL,
		Model:     cfg.Model.Model,
		MaxTokens: cfg.Model.MaxTokens,
		Timeout:   time.Duration(cfg.Model.TimeoutSec) * time.Second,
		Logger:    logger,
	})
	var completer recommenduc.Completer = base

	var cachePinger healthuc.CachePinger
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(context.Background(), cacheReadinessTimeout); err != nil {
			// The cache is optional: replies are simply not cached while it is down.
			logger.Warn("Reply cache not ready", zap.Error(err))
		} else {
			logger.Info("Connected to reply cache", zap.Strings("addrs", cfg.Cache.Addrs))
		}

		completer = replycache.New(base, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.ReplyCacheTotal, logger)
		cachePinger = store
	}

	recommendSvc := recommenduc.New(completer)
	discoverSvc := discover.New(searchSvc, recommendSvc)
	healthSvc := healthuc.New(breaker, base, cachePinger)

	apiServer := chiTransport.NewServer(searchSvc, recommendSvc, healthSvc, logger)
	pages, err := web.New(discoverSvc, logger)
	if err != nil {
		logger.Fatal("Failed to load web templates", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	apiServer.Register(r,
		chiTransport.CORS(cfg.API.CORSAllowedOrigins),
		chiTransport.RateLimit(cfg.API.RateLimitRequests, time.Duration(cfg.API.RateLimitWindowSec)*time.Second),
	)
	pages.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
