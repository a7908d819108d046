package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/gukii/tanStartMultiUserAgent/internal/app"
	httpx "github.com/gukii/tanStartMultiUserAgent/internal/http"
	store "github.com/gukii/tanStartMultiUserAgent/internal/store"
	ws "github.com/gukii/tanStartMultiUserAgent/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional submission archive
	var pg *store.Postgres
	if cfg.PGURL != "" {
		var err error
		pg, err = store.NewPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Error("postgres connect", "err", err)
			log.Fatal(err)
		}
		defer pg.Close()
		if err := store.RunMigrations(ctx, pg, logger); err != nil {
			logger.Error("migrations", "err", err)
			log.Fatal(err)
		}
	} else {
		logger.Info("submission archive disabled, PG_URL not set")
	}

	// Optional redis relay for multi-instance fanout
	var bus *ws.RedisBus
	if cfg.RedisAddr != "" {
		var err error
		bus, err = ws.NewRedisBus(ctx, cfg, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer bus.Close()
	} else {
		logger.Info("cross-instance relay disabled, REDIS_ADDR not set")
	}

	// Room hub
	hub := ws.NewHub(logger, bus, cfg.RoomSweepInterval, cfg.RoomEmptyGrace)
	go hub.Run(ctx)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, hub, pg)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
