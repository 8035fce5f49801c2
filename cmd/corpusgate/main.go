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

	"github.com/corpusgate/corpusgate/internal/config"
	"github.com/corpusgate/corpusgate/internal/db"
	logpkg "github.com/corpusgate/corpusgate/internal/logger"
	"github.com/corpusgate/corpusgate/internal/metrics"
	"github.com/corpusgate/corpusgate/internal/registry"
	corpusrepo "github.com/corpusgate/corpusgate/internal/repository/corpus"
	ledgerrepo "github.com/corpusgate/corpusgate/internal/repository/ledger"
	chiTransport "github.com/corpusgate/corpusgate/internal/transport/chi"
	adminuc "github.com/corpusgate/corpusgate/internal/usecase/admin"
	healthuc "github.com/corpusgate/corpusgate/internal/usecase/health"
	searchuc "github.com/corpusgate/corpusgate/internal/usecase/search"
	"github.com/corpusgate/corpusgate/internal/vault"
	"github.com/corpusgate/corpusgate/internal/version"
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

	logger.Info("Starting corpusgate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("corpora", len(cfg.Corpora)),
	)

	v := vault.New(cfg.Vault.Secret)
	reg := registry.New(v, logger)
	defer reg.CloseAll()

	ctx := context.Background()

	// The identity store holds the ledger; without it nothing works.
	if err := reg.ConnectIdentity(ctx, cfg.Identity); err != nil {
		logger.Fatal("Failed to connect identity store", zap.Error(err))
	}
	logger.Info("Connected to identity store")

	// Corpora connect best-effort; a dead corpus degrades search instead of
	// blocking startup.
	for _, corpusCfg := range cfg.Corpora {
		if !corpusCfg.Enabled {
			continue
		}
		if err := reg.ConnectCorpus(ctx, corpusCfg); err != nil {
			logger.Warn("Corpus connect failed",
				zap.String("corpus", corpusCfg.ID), zap.Error(err))
		}
	}

	metrics.RegisterSearchMetrics()

	provider := &registryProvider{reg: reg}
	led := ledgerrepo.New(&identityKV{reg: reg})

	searchSvc := searchuc.New(provider, led, searchuc.Options{
		FeeEnabled:    cfg.Billing.Enabled,
		CostPerSearch: cfg.Billing.CostPerSearch,
	})
	adminSvc := adminuc.New(reg)
	healthSvc := healthuc.New(reg)

	server := chiTransport.NewServer(searchSvc, adminSvc, healthSvc, logger)

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

// registryProvider adapts the connection registry to the search
// coordinator's corpus view, one repo per connected slot.
type registryProvider struct {
	reg *registry.Registry
}

func (p *registryProvider) Corpora(_ context.Context) ([]searchuc.Corpus, error) {
	refs := p.reg.Corpora()
	metrics.CorpusConnectedGauge.Set(float64(len(refs)))

	out := make([]searchuc.Corpus, 0, len(refs))
	for _, ref := range refs {
		out = append(out, corpusrepo.New(ref.ID, ref.Database, ref.Store))
	}
	return out, nil
}

// identityKV resolves the identity store on every call so the ledger
// follows reconnects.
type identityKV struct {
	reg *registry.Registry
}

func (k *identityKV) Get(ctx context.Context, key string) ([]byte, error) {
	store, err := k.reg.Identity()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, key)
}

func (k *identityKV) Set(ctx context.Context, key string, value []byte) error {
	store, err := k.reg.Identity()
	if err != nil {
		return err
	}
	return store.Set(ctx, key, value)
}

func (k *identityKV) Exists(ctx context.Context, key string) (bool, error) {
	store, err := k.reg.Identity()
	if err != nil {
		return false, err
	}
	return store.Exists(ctx, key)
}

var _ db.KVStore = (*identityKV)(nil)

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
