package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tesig/console/internal/config"
	"tesig/console/internal/gateway"
	"tesig/console/internal/httpapi"
	"tesig/console/internal/search"
	"tesig/console/internal/session"
	"tesig/console/internal/session/memory"
	"tesig/console/internal/session/postgres"
	"tesig/console/internal/session/redis"
	"tesig/console/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	sweepInterval = 5 * time.Minute
	searchIdle    = 10 * time.Minute
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracing := telemetry.Setup(telemetry.Options{
		ServiceName:    "tesig-console",
		ServiceVersion: version,
		Environment:    cfg.Environment,
		APIBaseURL:     cfg.APIBaseURL,
		SampleRatio:    cfg.TraceSampleRatio,
	}, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	api := gateway.New(gateway.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout()}, gateway.WithLogger(logger))

	store, closeStore, err := openSessionStore(cfg)
	if err != nil {
		logger.Fatal("session store", zap.String("backend", cfg.SessionBackend), zap.Error(err))
	}
	defer closeStore()

	sessions := session.NewManager(store, api, session.Options{TTL: cfg.SessionTTL(), Logger: logger})
	handler := httpapi.NewHandler(api, sessions, httpapi.Options{
		PageSize:       cfg.PageSize,
		SearchDebounce: cfg.SearchDebounce(),
		CookieSecure:   cfg.CookieSecure,
		LoginLimit: httpapi.RateLimitConfig{
			IPPerMinute: cfg.LoginRateLimitPerMinute,
			IPBurst:     cfg.LoginRateLimitBurst,
			TrustProxy:  cfg.TrustProxy,
		},
		Sequencer: search.NewSequencer(searchIdle),
		Logger:    logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(handler.Routes(), "tesig-console"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("console listening", zap.String("addr", server.Addr), zap.String("api", cfg.APIBaseURL), zap.String("sessions", cfg.SessionBackend))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			count, err := sessions.Sweep(ctx)
			cancel()
			if err != nil {
				logger.Warn("session sweep error", zap.Error(err))
			} else if count > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", count))
			}
			if pruned := handler.Prune(); pruned > 0 {
				logger.Debug("client state pruned", zap.Int("count", pruned))
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func openSessionStore(cfg config.Config) (session.Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.SessionBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStore(client), func() { _ = client.Close() }, nil
	default:
		return memory.NewStore(), func() {}, nil
	}
}

func newLogger(level, format string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zapCfg.Build()
}
