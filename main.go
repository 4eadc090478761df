package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"site-config-dashboard/internal/config"
	apphttp "site-config-dashboard/internal/http"
	"site-config-dashboard/internal/metrics"
	"site-config-dashboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config failed")
	}
	logger := newLogger(cfg)

	if cfg.AppTimezone != "" {
		if loc, err := time.LoadLocation(cfg.AppTimezone); err != nil {
			logger.Warn().Err(err).Str("timezone", cfg.AppTimezone).Msg("load timezone failed")
		} else {
			time.Local = loc
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := apphttp.Deps{Logger: logger}

	if cfg.MysqlDSN != "" {
		db, err := store.NewMySQL(cfg.MysqlDSN)
		if err != nil {
			logger.Error().Err(err).Msg("mysql connect failed")
		} else {
			deps.DB = db
			if err := store.ApplyMigrations(ctx, db, logger); err != nil {
				logger.Error().Err(err).Msg("apply migrations failed")
			}
		}
	} else {
		logger.Warn().Msg("MYSQL_DSN not set, skip mysql connection")
	}

	redisClient, err := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn().Err(err).Msg("redis connect failed, global config cache disabled")
	} else {
		deps.Redis = redisClient
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics, err = metrics.NewPrometheusMetrics(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("register metrics failed")
	}
	deps.Gatherer = reg

	router := apphttp.NewRouter(cfg, &deps)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if deps.Redis != nil {
		_ = deps.Redis.Close()
	}
	if deps.DB != nil {
		_ = deps.DB.Close()
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "site-config-dashboard").Logger()
}
