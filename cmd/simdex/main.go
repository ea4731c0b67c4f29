package main

import (
	"context"
	"encoding/json"
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

	"github.com/kailas-cloud/simdex/internal/config"
	"github.com/kailas-cloud/simdex/internal/db"
	dbRedis "github.com/kailas-cloud/simdex/internal/db/redis"
	"github.com/kailas-cloud/simdex/internal/domain"
	logpkg "github.com/kailas-cloud/simdex/internal/logger"
	"github.com/kailas-cloud/simdex/internal/metrics"
	snapshotrepo "github.com/kailas-cloud/simdex/internal/repository/snapshot"
	"github.com/kailas-cloud/simdex/internal/tokenizer"
	chiTransport "github.com/kailas-cloud/simdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	"github.com/kailas-cloud/simdex/internal/usecase/similarity"
	trainuc "github.com/kailas-cloud/simdex/internal/usecase/train"
	"github.com/kailas-cloud/simdex/internal/version"
)

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

	logger.Info("Starting simdex API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("db_enabled", cfg.Database.Enabled),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterTrainingMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()

	// Snapshot storage is optional. Both drivers speak RESP, so one client serves either.
	var store db.Store
	var snapshots trainuc.SnapshotStore
	if cfg.Database.Enabled {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer redisStore.Close()

		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		repo := snapshotrepo.New(redisStore, cfg.Storage.KeyPrefix)
		if names, err := repo.List(ctx); err != nil {
			logger.Warn("Failed to list snapshots", zap.Error(err))
		} else {
			logger.Info("Snapshots available", zap.Strings("names", names))
		}
		store = redisStore
		snapshots = repo
	}

	opts, err := cfg.Recommender.Options()
	if err != nil {
		logger.Fatal("Invalid recommender options", zap.Error(err))
	}

	// Tokenizer chain: base -> LRU cache
	var stopwords []string
	if len(cfg.Tokenizer.Stopwords) > 0 {
		stopwords = tokenizer.WithStopwords(cfg.Tokenizer.Stopwords...)
	}
	tok, err := tokenizer.NewCached(tokenizer.New(tokenizer.Config{
		NGramMax:       cfg.Tokenizer.NGramMax,
		MinTokenLength: cfg.Tokenizer.MinTokenLength,
		Stopwords:      stopwords,
	}), cfg.Tokenizer.CacheSize, metrics.TokenizerCacheTotal)
	if err != nil {
		logger.Fatal("Failed to create tokenizer", zap.Error(err))
	}

	engine := similarity.New(cfg.Recommender.Workers)
	logger.Info("Recommender configured",
		zap.Int("max_vector_size", opts.MaxVectorSize()),
		zap.Int("max_similar_documents", opts.MaxSimilarDocuments()),
		zap.Float64("min_score", opts.MinScore()),
		zap.Int("workers", engine.Workers()),
		zap.Int("tokenizer_cache_size", cfg.Tokenizer.CacheSize),
	)

	recommender, err := trainuc.New(trainuc.Config{
		Options:      opts,
		Tokenizer:    tok,
		Engine:       engine,
		Store:        snapshots,
		SnapshotName: cfg.Storage.SnapshotName,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Failed to create recommender", zap.Error(err))
	}

	// Warm start from the last persisted snapshot
	if snapshots != nil {
		switch err := recommender.Restore(ctx); {
		case err == nil:
			logger.Info("Snapshot restored", zap.String("name", cfg.Storage.SnapshotName))
		case errors.Is(err, domain.ErrSnapshotNotFound):
			logger.Info("No snapshot to restore", zap.String("name", cfg.Storage.SnapshotName))
		default:
			logger.Warn("Failed to restore snapshot", zap.Error(err))
		}
	}

	// Pass nil interface (not typed nil pointer) when storage is disabled.
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, recommender)

	server := chiTransport.NewServer(recommender, healthSvc, logger).
		WithTrainTimeout(time.Duration(cfg.Recommender.TrainTimeoutSec) * time.Second).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

	logger.Info("Server stopped gracefully", zap.Int("tokenizer_cache_entries", tok.Len()))
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

// wideEventMiddleware emits one log line per request and echoes X-Request-ID.
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
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
