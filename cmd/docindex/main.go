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
	"go.uber.org/zap"

	"github.com/kailas-cloud/docindex/internal/config"
	dbRedis "github.com/kailas-cloud/docindex/internal/db/redis"
	logpkg "github.com/kailas-cloud/docindex/internal/logger"
	"github.com/kailas-cloud/docindex/internal/metrics"
	blobrepo "github.com/kailas-cloud/docindex/internal/repository/blob"
	documentrepo "github.com/kailas-cloud/docindex/internal/repository/document"
	indexrepo "github.com/kailas-cloud/docindex/internal/repository/index"
	chiTransport "github.com/kailas-cloud/docindex/internal/transport/chi"
	kafkaTransport "github.com/kailas-cloud/docindex/internal/transport/kafka"
	openaiTransport "github.com/kailas-cloud/docindex/internal/transport/openai"
	extractuc "github.com/kailas-cloud/docindex/internal/usecase/extract"
	ingestuc "github.com/kailas-cloud/docindex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/docindex/internal/usecase/query"
	"github.com/kailas-cloud/docindex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docindex",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.Register()

	// Model gateway: one client serves both extraction and embedding.
	model := openaiTransport.NewClient(&openaiTransport.Config{
		APIKey:          cfg.Model.APIKey,
		BaseURL:         cfg.Model.BaseURL,
		CompletionModel: cfg.Model.CompletionModel,
		EmbeddingModel:  cfg.Model.EmbeddingModel,
		MaxAttempts:     cfg.Model.MaxAttempts,
		BaseDelay:       time.Duration(cfg.Model.BaseDelayMs) * time.Millisecond,
		Logger:          logger,
	})

	// Repositories
	blobs := blobrepo.New(store)
	docs := documentrepo.New(store)
	index := indexrepo.New(store, indexrepo.Config{
		Name:        cfg.Index.Name,
		Dimensions:  cfg.Index.Dimensions,
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})

	if err := index.Ensure(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}
	logger.Info("Vector index ready", zap.String("index", cfg.Index.Name))

	// Use case services
	extractSvc := extractuc.New(model, logger)
	ingestSvc := ingestuc.New(blobs, extractSvc, model, docs, index, cfg.Pipeline.ProcessedBucket)
	querySvc := queryuc.New(model, index, cfg.Index.TopK)

	// Ingest event source
	consumer := kafkaTransport.NewConsumer(kafkaTransport.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.ConsumerGroup,
	}, ingestSvc, logger)
	defer func() { _ = consumer.Close() }()

	consumerCtx, stopConsumer := context.WithCancel(logpkg.WithContext(ctx, logger))
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(consumerCtx); err != nil {
			logger.Error("Consumer stopped with error", zap.Error(err))
		}
	}()

	// Query API
	server := chiTransport.NewServer(querySvc, store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Mount(r)

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	stopConsumer()
	<-consumerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
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
						"error": "internal error",
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
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
