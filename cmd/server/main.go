package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/api"
	"github.com/playmatatu/eightball/internal/arena"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/database"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/history"
	"github.com/playmatatu/eightball/internal/middleware"
	"github.com/playmatatu/eightball/internal/migrations"
	"github.com/playmatatu/eightball/internal/redis"
	"github.com/playmatatu/eightball/internal/ws"
)

const snapshotInterval = 50 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := arena.NewRunner(cfg, log)
	if err != nil {
		log.Fatalf("Failed to create arena: %v", err)
	}

	hub := ws.NewHub(log)
	go hub.Run(ctx)
	go hub.StreamSnapshots(ctx, runner.Snapshot, snapshotInterval)

	// Match events reach spectators through redis when it is configured so
	// every instance relays the same stream.
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		publisher := ws.NewRedisPublisher(rdb, cfg.EventsChannel, log)
		go publisher.Run(ctx)
		runner.Subscribe(publisher.Publish)
		ws.StartRelay(ctx, rdb, cfg.EventsChannel, hub)
	} else {
		log.Info("REDIS_URL not set; broadcasting events directly")
		runner.Subscribe(func(ev game.Event) { hub.Broadcast(ws.EventMessage(ev)) })
	}

	var recorder *history.Recorder
	if cfg.DatabaseURL != "" {
		var db *sqlx.DB
		db, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Info("running database migrations")
			if err := migrations.RunMigrations(cfg.DatabaseURL, log); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		recorder = history.NewRecorder(db, log)
		go recorder.Run(ctx)
		runner.Subscribe(recorder.Handle)
	} else {
		log.Info("DATABASE_URL not set; match history disabled")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	deps := api.Deps{
		Table:     runner,
		WebSocket: ws.NewHandler(hub, runner, middleware.WebSocketOriginCheck(cfg)).Gin,
	}
	if recorder != nil {
		deps.History = recorder
	}
	api.SetupRoutes(router, cfg, log, deps)

	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("arena stopped unexpectedly")
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("server shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":       cfg.Port,
		"mode":       cfg.Match.Mode,
		"difficulty": cfg.Match.Difficulty,
		"autoplay":   cfg.Autoplay,
	}).Info("starting eightball arena")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
