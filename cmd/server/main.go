package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/bot"
	"github.com/DoyleJ11/card-table-backend/internal/clock"
	"github.com/DoyleJ11/card-table-backend/internal/config"
	"github.com/DoyleJ11/card-table-backend/internal/httpapi"
	"github.com/DoyleJ11/card-table-backend/internal/hub"
	"github.com/DoyleJ11/card-table-backend/internal/janitor"
	"github.com/DoyleJ11/card-table-backend/internal/lobby"
	"github.com/DoyleJ11/card-table-backend/internal/logging"
	"github.com/DoyleJ11/card-table-backend/internal/users"
	"github.com/DoyleJ11/card-table-backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var registry hub.Users = users.NewMemory()
	if cfg.Database.DSN != "" {
		store, err := users.Open(ctx, cfg.Database.DSN, log)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		registry = store
		log.Info("user registry on postgres")
	}

	dir := lobby.NewDirectory()
	sink := lobby.Fanout{dir}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, lobby mirror will retry per write", zap.Error(err))
		}
		mirror := lobby.NewMirror(context.Background(), rdb, cfg.Redis.LobbyKey, cfg.Redis.LobbyChannel, log)
		defer mirror.Close()
		sink = append(sink, mirror)
	}

	sockets := ws.NewServer(log)
	auth := ws.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if !auth.Enabled() {
		log.Warn("auth.jwt_secret is empty; websocket identities are unauthenticated")
	}

	// Tables outlive the signal context so Shutdown can still close them cleanly.
	root := context.Background()
	var h *hub.Hub
	h = hub.New(root, hub.Deps{
		Transport: sockets,
		Lobby:     sink,
		Users:     registry,
		Clock:     clock.Real{},
		Logger:    log,
		Bots: func(tableID, connID, seatID string) hub.Agent {
			return bot.NewAgent(root, h, connID, seatID, cfg.Bot.ThinkDelay, log.With(zap.String("table_id", tableID)))
		},
	}, hub.Options{
		DealInterval:   cfg.Table.DealInterval,
		ReconnectGrace: cfg.Table.ReconnectGrace,
		InboxSize:      cfg.Table.InboxSize,
		IdleTTL:        cfg.Table.IdleTTL,
	})

	sweeper, err := janitor.New(h, cfg.Table.SweepSpec, log)
	if err != nil {
		return err
	}
	sweeper.Start()

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Tables: h,
			Lobby:  dir,
			Auth:   auth,
			Socket: ws.Handler(sockets, h, auth, log),
			Logger: log,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	sweeper.Stop(shutdownCtx)
	h.Shutdown(shutdownCtx)
	sockets.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
