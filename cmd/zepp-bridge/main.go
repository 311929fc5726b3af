package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zepp-bridge/internal/config"
	"zepp-bridge/internal/errlog"
	"zepp-bridge/internal/httpapi"
	"zepp-bridge/internal/mqtt"
	"zepp-bridge/internal/observability"
	"zepp-bridge/internal/publish"
	"zepp-bridge/internal/ratelimit"
	"zepp-bridge/internal/realtime"
	"zepp-bridge/internal/store"
	"zepp-bridge/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()

	db, err := store.OpenPostgres(
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.SSLMode,
	)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}

	repo, err := store.New(db)
	if err != nil {
		slog.Error("db init failed", "error", err)
		os.Exit(1)
	}

	shutdownObs, promHandler, tracer := observability.Setup()
	defer shutdownObs()

	limitCfg := ratelimit.Config{Requests: cfg.RateLimitRequests, Window: cfg.RateLimitWindow}
	var limiter ratelimit.Limiter
	var cache telemetry.SnapshotCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		limiter = ratelimit.NewRedis(rdb, "zepp:ratelimit", limitCfg)
		cache = store.NewStateCache(rdb)
		slog.Info("redis enabled", "addr", cfg.RedisAddr)
	} else {
		limiter = ratelimit.NewMemory(limitCfg)
	}
	snapshots := telemetry.NewSnapshots(cache)

	var publisher *publish.Publisher
	var broker *mqtt.Client
	if cfg.MQTTBrokerURL != "" {
		broker, err = mqtt.New(cfg.MQTTBrokerURL, "zepp-bridge")
		if err != nil {
			slog.Error("mqtt connect failed", "broker", cfg.MQTTBrokerURL, "error", err)
			os.Exit(1)
		}
		publisher = publish.New(broker, cfg.DiscoveryPrefix)
		slog.Info("mqtt enabled", "broker", cfg.MQTTBrokerURL, "discovery_prefix", cfg.DiscoveryPrefix)
	}

	errors := errlog.New()
	hub := realtime.NewHub()
	srv := httpapi.NewServer(repo, snapshots, errors, limiter, publisher, hub, cfg.BaseURL, cfg.HistoryEnabled)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promHandler)
	srv.Register(mux)

	handler := observability.MetricsAndTracingMiddleware(tracer)(mux)
	httpSrv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	// Re-announce discovery for known devices so a wiped broker
	// repopulates without manual intervention.
	devices, err := repo.ListDevices(context.Background())
	if err != nil {
		slog.Warn("failed to list devices at startup", "error", err)
	} else if publisher != nil {
		for i := range devices {
			publisher.PublishDiscovery(&devices[i])
		}
		slog.Info("republished discovery", "devices", len(devices))
	}

	var retention *cron.Cron
	if cfg.HistoryEnabled {
		retention = cron.New()
		_, err := retention.AddFunc("@hourly", func() {
			cutoff := time.Now().Add(-cfg.HistoryRetention)
			removed, err := repo.PruneTelemetry(context.Background(), cutoff)
			if err != nil {
				slog.Warn("history prune failed", "error", err)
				return
			}
			if removed > 0 {
				slog.Info("pruned telemetry history", "removed", removed, "cutoff", cutoff)
			}
		})
		if err != nil {
			slog.Error("failed to schedule retention job", "error", err)
			os.Exit(1)
		}
		retention.Start()
	}

	go func() {
		slog.Info("zepp-bridge started", "port", cfg.Port, "base_url", cfg.BaseURL)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if retention != nil {
		retention.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "error", err)
	}

	if publisher != nil {
		// Re-list so devices registered after startup also go offline.
		all, err := repo.ListDevices(context.Background())
		if err != nil {
			slog.Warn("failed to list devices for offline publish", "error", err)
			all = devices
		}
		for i := range all {
			publisher.PublishAvailability(&all[i], false)
		}
	}
	if broker != nil {
		broker.Disconnect(250)
	}

	slog.Info("zepp-bridge stopped")
}
