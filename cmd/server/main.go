package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rosterbridge/internal/jwtauth"
	"rosterbridge/internal/platform/config"
	"rosterbridge/internal/platform/httpserver"
	"rosterbridge/internal/platform/kafka/consumer"
	"rosterbridge/internal/platform/logger"
	"rosterbridge/internal/platform/middleware"
	platformredis "rosterbridge/internal/platform/redis"
	"rosterbridge/internal/roster/authority"
	"rosterbridge/internal/roster/command"
	"rosterbridge/internal/roster/events"
	"rosterbridge/internal/roster/handler"
	"rosterbridge/internal/roster/integrity"
	"rosterbridge/internal/roster/project"
	"rosterbridge/internal/roster/project/cache"
	projectmetrics "rosterbridge/internal/roster/project/metrics"
	"rosterbridge/internal/roster/reconcile"
	reconcilemetrics "rosterbridge/internal/roster/reconcile/metrics"
	"rosterbridge/internal/roster/store"
	"rosterbridge/internal/roster/store/member"
	"rosterbridge/internal/roster/store/player"
	"rosterbridge/internal/roster/store/team"
)

// main wires dependencies and owns the process lifecycle. Business logic lives
// in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: PostgreSQL when a DSN is configured, in-memory otherwise.
	var (
		members store.MemberStore
		players store.PlayerStore
		teams   store.TeamStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		if err := store.Migrate(ctx, db); err != nil {
			log.Error("migrate schema", "error", err)
			os.Exit(1)
		}
		members = member.NewPostgres(db)
		players = player.NewPostgres(db)
		teams = team.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		members = member.NewInMemory()
		players = player.NewInMemory()
		teams = team.NewInMemory()
		log.Info("using in-memory stores")
	}

	// Role cache: shared via Redis when configured, per-process otherwise.
	var roleCache cache.RoleCache = cache.NewInMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		roleCache = cache.NewRedis(redisClient.Client)
		log.Info("using redis role cache")
	}

	guild := authority.NewRetrying(authority.NewDiscord(cfg.Discord), log)
	projector := project.New(players, teams, guild, log,
		project.WithCache(roleCache),
		project.WithMetrics(projectmetrics.New()),
	)
	reconciler := reconcile.New(members, players,
		integrity.New(members, players, log),
		projector, log,
		reconcile.WithMetrics(reconcilemetrics.New()),
	)

	// Replay membership missed while the service was down, then keep the
	// orphan sweep running in the background.
	if cfg.Discord.BotToken != "" {
		snapshot, err := guild.FetchMembers(ctx)
		if err != nil {
			log.Error("fetch membership snapshot", "error", err)
		} else if err := reconciler.SyncSnapshot(ctx, snapshot); err != nil {
			log.Error("snapshot sync", "error", err)
		}
	}
	go runSweep(ctx, reconciler, cfg.OrphanSweepInterval, log)

	if len(cfg.Kafka.Brokers) > 0 {
		eventsHandler := events.NewHandler(reconciler, log)
		cons, err := consumer.New(consumer.Config{
			Brokers: cfg.Kafka.Brokers,
			Group:   cfg.Kafka.Group,
			Topics:  []string{cfg.Kafka.Topic},
		}, eventsHandler, log)
		if err != nil {
			log.Error("create kafka consumer", "error", err)
			os.Exit(1)
		}
		defer cons.Close()
		if err := cons.EnsureTopic(ctx, cfg.Kafka.Topic); err != nil {
			log.Error("ensure kafka topic", "topic", cfg.Kafka.Topic, "error", err)
			os.Exit(1)
		}
		go func() {
			if err := cons.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("kafka consumer stopped", "error", err)
			}
		}()
		log.Info("consuming guild events", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.Group)
	} else {
		log.Warn("no kafka brokers configured, guild events disabled")
	}

	commands := command.New(guild, players, projector, log)
	h := handler.New(commands, log)
	jwtService := jwtauth.New(cfg.JWTSigningKey)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RequestTime,
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.Timeout(30*time.Second),
	)
	router.Get("/", h.HandleLiveness)
	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService, log))
		h.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("rosterbridge listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// runSweep repairs stale member links on a fixed interval until shutdown.
func runSweep(ctx context.Context, r *reconcile.Reconciler, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				log.ErrorContext(ctx, "orphan sweep failed", "error", err)
			}
		}
	}
}
