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
	"golang.org/x/sync/errgroup"

	"github.com/jobdex/adsearch/internal/config"
	dbRedis "github.com/jobdex/adsearch/internal/db/redis"
	"github.com/jobdex/adsearch/internal/domain/concept"
	"github.com/jobdex/adsearch/internal/index"
	logpkg "github.com/jobdex/adsearch/internal/logger"
	"github.com/jobdex/adsearch/internal/metrics"
	"github.com/jobdex/adsearch/internal/ontology"
	"github.com/jobdex/adsearch/internal/taxonomy"
	chiTransport "github.com/jobdex/adsearch/internal/transport/chi"
	bulkuc "github.com/jobdex/adsearch/internal/usecase/bulk"
	searchuc "github.com/jobdex/adsearch/internal/usecase/search"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting adsearch API server",
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_url", cfg.Index.URL),
		zap.String("ad_index", cfg.Index.AdIndex),
	)

	idx, err := index.New(index.Options{
		URL:        cfg.Index.URL,
		Username:   cfg.Index.Username,
		Password:   cfg.Index.Password,
		Timeout:    time.Duration(cfg.Index.TimeoutSec) * time.Second,
		MaxRetries: cfg.Index.MaxRetries,
	}, logger, metrics.IndexObserver{})
	if err != nil {
		logger.Fatal("Failed to create index client", zap.Error(err))
	}

	stoplist, err := config.LoadStoplist(cfg.Ontology.StoplistPath)
	if err != nil {
		logger.Fatal("Failed to load stoplist", zap.Error(err))
	}

	store := ontology.NewStore(idx, cfg.Index.OntologyIndex, ontology.LoadOptions{
		Stoplist:          stoplist,
		ConceptType:       concept.Type(cfg.Ontology.ConceptType),
		IncludeMisspelled: cfg.Ontology.IncludeMisspelled,
	}, logger)

	// Taxonomy labels, optionally cached in redis.
	var labels taxonomy.Labeler = taxonomy.NewRepo(idx, cfg.Index.TaxonomyIndex)
	var cacheStore *dbRedis.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()
		labels = taxonomy.NewCachedLabeler(
			labels,
			cacheStore,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.TaxonomyCacheCounter(),
			logger,
		)
	}

	// Warm up: vocabulary load and cache readiness in parallel.
	ctx := context.Background()
	g, warmCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return store.Refresh(warmCtx)
	})
	if cacheStore != nil {
		g.Go(func() error {
			return cacheStore.WaitForReady(warmCtx, 10*time.Second)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("Startup failed", zap.Error(err))
	}
	logger.Info("Vocabulary ready", zap.Int("terms", store.Matcher().Len()))

	refreshCtx, stopRefresh := context.WithCancel(ctx)
	defer stopRefresh()
	if cfg.Ontology.RefreshIntervalMin > 0 {
		store.StartRefresher(refreshCtx, time.Duration(cfg.Ontology.RefreshIntervalMin)*time.Minute)
	}

	searchSvc := searchuc.New(idx, cfg.Index.AdIndex, store, labels, cfg.Ontology.TypeaheadLimit, logger)
	bulkSvc := bulkuc.New(idx, cfg.Index.AdIndex, bulkuc.Metrics{ExportedAds: metrics.CountExportedAds}, logger)

	server := chiTransport.NewServer(searchSvc, bulkSvc, idx, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.APIKeyMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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
	stopRefresh()

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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
