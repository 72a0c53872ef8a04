package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kanko-labs/tabisearch/internal/cache"
	"github.com/kanko-labs/tabisearch/internal/config"
	"github.com/kanko-labs/tabisearch/internal/domain"
	logpkg "github.com/kanko-labs/tabisearch/internal/logger"
	"github.com/kanko-labs/tabisearch/internal/metrics"
	chunkrepo "github.com/kanko-labs/tabisearch/internal/repository/chunk"
	"github.com/kanko-labs/tabisearch/internal/repository/embcache"
	"github.com/kanko-labs/tabisearch/internal/transport/httpapi"
	openaiEmb "github.com/kanko-labs/tabisearch/internal/transport/openai"
	expansionuc "github.com/kanko-labs/tabisearch/internal/usecase/expansion"
	searchuc "github.com/kanko-labs/tabisearch/internal/usecase/search"
	"github.com/kanko-labs/tabisearch/internal/variant"
)

func main() {
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tabisearch retrieval service",
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
	)

	ctx := context.Background()

	// Chunk corpus connection pool.
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Invalid database URL", zap.Error(err))
	}
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.ConnConfig.ConnectTimeout = time.Duration(cfg.Database.ConnectTimeoutSec) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.Int("min_conns", cfg.Database.MinConns),
		zap.Int("max_conns", cfg.Database.MaxConns),
	)

	// Result cache backend. Absence degrades to always-miss, never an error.
	var store cache.Store = cache.NoopStore{}
	if cfg.Cache.Enabled() {
		redisStore, err := cache.NewRedisStore(cache.RedisConfig{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Warn("Cache backend unavailable, degrading to no cache", zap.Error(err))
		} else if err := redisStore.Ping(ctx); err != nil {
			logger.Warn("Cache backend not responding, degrading to no cache", zap.Error(err))
			redisStore.Close()
		} else {
			store = redisStore
			logger.Info("Result cache enabled",
				zap.Int("ttl_sec", cfg.Cache.TTLSec),
				zap.String("key_prefix", cfg.Cache.KeyPrefix),
			)
		}
	}
	defer store.Close()

	// Variant generation config: missing file applies defaults, malformed
	// JSON fails startup loudly.
	variantCfg, err := variant.LoadConfig(cfg.Expansion.ConfigPath)
	if err != nil {
		logger.Fatal("Failed to load variant config", zap.Error(err))
	}

	metrics.RegisterRetrievalMetrics()

	embedder := buildEmbedder(ctx, cfg, store, logger)

	resultCache := cache.New(
		store,
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		cfg.Cache.KeyPrefix,
		metrics.ResultCacheTotal,
		logger,
	)

	repo := chunkrepo.New(pool)
	searchSvc := searchuc.New(repo, embedder, resultCache, logger)
	expansionSvc := expansionuc.New(searchSvc, variant.NewGenerator(variantCfg), resultCache, logger)

	server := httpapi.NewServer(searchSvc, expansionSvc, pool, store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Handle("/metrics", promhttp.Handler())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// buildEmbedder assembles the decorator chain: OpenAI-compatible provider -> cache.
// The provider is probed once at startup; an unreachable provider is a warning,
// not a boot failure, since it may come up after this service.
func buildEmbedder(ctx context.Context, cfg config.Config, store cache.Store, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := base.HealthCheck(probeCtx); err != nil {
		logger.Warn("Embedding provider not reachable at startup", zap.Error(err))
	}

	return embcache.New(base, store, cfg.Cache.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
