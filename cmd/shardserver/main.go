package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/moulgo/internal/auth"
	"github.com/udisondev/moulgo/internal/config"
	"github.com/udisondev/moulgo/internal/db"
	"github.com/udisondev/moulgo/internal/filesrv"
	"github.com/udisondev/moulgo/internal/game"
	"github.com/udisondev/moulgo/internal/gate"
	"github.com/udisondev/moulgo/internal/lobby"
	"github.com/udisondev/moulgo/internal/sdl"
	"github.com/udisondev/moulgo/internal/status"
)

func main() {
	configPath := pflag.String("config", "moulgo.ini", "path to the settings file")
	pflag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.Info("shard server starting", "lobby", cfg.LobbyAddr, "port", cfg.LobbyPort)

	// State descriptors must parse before any service comes up.
	sdlDb := sdl.NewDescriptorDb()
	if err := sdlDb.LoadDirectory(cfg.SDLPath); err != nil {
		return fmt.Errorf("loading SDL descriptors: %w", err)
	}

	database, err := db.New(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, cfg.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	authDaemon, err := auth.NewDaemon(ctx, cfg, database)
	if err != nil {
		return fmt.Errorf("starting auth daemon: %w", err)
	}

	authService := auth.NewService(cfg, authDaemon)
	gateService := gate.NewService(cfg)
	fileService := filesrv.NewService(cfg)
	gameService, err := game.NewService(cfg, database, authDaemon.Channel(), sdlDb)
	if err != nil {
		return fmt.Errorf("starting game service: %w", err)
	}

	lobbyAddr := fmt.Sprintf("%s:%d", cfg.LobbyAddr, cfg.LobbyPort)
	statusAddr := fmt.Sprintf("%s:%d", cfg.StatusAddr, cfg.StatusPort)
	dispatcher := lobby.New(lobbyAddr, authService, gameService, fileService, gateService)
	statusServer := status.New(statusAddr, cfg.WelcomeMsg)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		authDaemon.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		return dispatcher.Run(groupCtx)
	})
	group.Go(func() error {
		return statusServer.Run(groupCtx)
	})
	group.Go(func() error {
		// Two-phase drain: close the listeners, then each service closes
		// its clients and waits for the workers to exit.
		<-groupCtx.Done()
		dispatcher.Close()
		gameService.Shutdown()
		gateService.Shutdown()
		fileService.Shutdown()
		authService.Shutdown()
		return nil
	})
	return group.Wait()
}
