package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"housing/internal/httpapi"
	"housing/internal/notify"
	"housing/pkg/config"
	"housing/pkg/db"
	"housing/pkg/logger"
	"housing/pkg/metrics"
	"housing/pkg/supabase"
)

func main() {
	cfg := config.Load()

	log, err := logger.Init(logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.AppEnv,
		ServiceName: "housing-api",
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The identity cache degrades to direct lookups.
			log.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Mail.Enabled {
		ses, err := notify.NewSES(ctx, cfg.Mail.Region, cfg.Mail.From)
		if err != nil {
			log.Fatal("ses client", zap.Error(err))
		}
		notifier = ses
	}

	router, err := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:    cfg,
		DB:     conn,
		Logger: log,
		Redis:  rdb,
		Supabase: supabase.New(supabase.Options{
			BaseURL:        cfg.Supabase.URL,
			AnonKey:        cfg.Supabase.AnonKey,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		}),
		Notifier: notifier,
		Metrics:  metrics.NewHTTPMetrics("housing-api"),
	})
	if err != nil {
		log.Fatal("router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}
