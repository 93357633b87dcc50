package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/1broseidon/tessera/internal/compositor"
	"github.com/1broseidon/tessera/internal/config"
	"github.com/1broseidon/tessera/internal/daemon"
	"github.com/1broseidon/tessera/internal/hotkeys"
	"github.com/1broseidon/tessera/internal/ipc"
	"github.com/1broseidon/tessera/internal/logging"
	"github.com/1broseidon/tessera/internal/platform"
)

func runCompositor(args []string) int {
	fs, socket := newFlagSet("run", "Usage: tessera run [--config PATH] [--socket PATH]\n\nStart the compositor in the foreground.")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/tessera/config.yaml)")
	logLevel := fs.String("log-level", "", "Override log_level (debug, info, warning, error)")
	envFile := fs.String("env-file", ".env", "Load environment variables from this file when present")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		return 1
	}

	if *logLevel != "" {
		os.Setenv(logging.EnvLevel, *logLevel)
	}

	load := func() (*config.LoadResult, error) { return loadConfig(*configPath) }
	res, err := load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	levelVar, err := logging.Init(res.Config.LogLevel)
	if err != nil {
		slog.Warn("invalid log level, using info", "error", err)
	}
	logger := slog.Default()
	sessionID := uuid.NewString()
	logger.Info("configuration loaded", "path", res.Path, "files", len(res.Files), "session", sessionID)

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer backend.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var keys *hotkeys.Handler
	comp, err := compositor.New(compositor.Options{
		Config:     res.Config,
		ConfigPath: res.Path,
		Load:       load,
		Backend:    backend,
		Spawner:    daemon.NewSpawner([]string{"TESSERA_SESSION=" + sessionID}, logger.With("component", "spawn")),
		SessionID:  sessionID,
		LogLevel:   levelVar,
		OnConfig: func(cfg *config.Config) {
			if keys == nil {
				return
			}
			if err := keys.Bind(cfg.BindingKeys()); err != nil {
				logger.Warn("some key bindings could not be grabbed", "error", err)
			}
		},
		Logger: logger.With("component", "compositor"),
	})
	if err != nil {
		logger.Error("failed to create compositor", "error", err)
		return 1
	}
	backend.OnRedraw(func() { logger.Debug("redraw requested") })

	keys = hotkeys.NewHandler(backend, func(key string) {
		if err := comp.Post(ctx, compositor.KeyBinding{Key: key}); err != nil {
			logger.Debug("dropped key binding", "key", key, "error", err)
		}
	}, logger.With("component", "hotkeys"))
	if err := keys.Bind(res.Config.BindingKeys()); err != nil {
		logger.Warn("some key bindings could not be grabbed", "error", err)
	}

	ipcServer, err := ipc.NewServer(comp, ipc.ServerConfig{
		SocketPath: *socket,
		Logger:     logger.With("component", "ipc"),
	})
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}

	changes := make(chan string, 1)
	super := daemon.NewSupervisor("tessera", logger)
	daemon.Add(super, ipcServer)
	daemon.Add(super, config.NewWatcher(res.Path, changes, logger.With("component", "config")))
	daemon.Add(super, daemon.NewServiceFunc("config-reloader", func(ctx context.Context) error {
		comp.WatchReloads(ctx, changes)
		return ctx.Err()
	}))
	daemon.Add(super, daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: reconcileInterval(res.Config),
		Logger:   logger.With("component", "reconciler"),
	}, backend, func(ctx context.Context, outputs []platform.Output) error {
		return comp.Post(ctx, compositor.OutputsSnapshot{Outputs: outputs})
	}))
	superErr := super.ServeBackground(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading configuration")
					_ = comp.Reload(ctx)
					continue
				}
				logger.Info("shutting down", "signal", sig.String())
				cancel()
				return
			}
		}
	}()

	conn := backend.Connection()
	go conn.EventLoop()

	runErr := comp.Run(ctx)
	cancel()
	conn.Quit()
	if err := <-superErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("supervisor stopped", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("compositor stopped", "error", runErr)
		return 1
	}
	logger.Info("compositor exited")
	return 0
}

func reconcileInterval(cfg *config.Config) time.Duration {
	if cfg.ReconcileInterval > 0 {
		return cfg.ReconcileInterval
	}
	return 5 * time.Second
}
