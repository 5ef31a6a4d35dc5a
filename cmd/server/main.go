package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"circuitmap/internal/config"
	"circuitmap/internal/handler"
	"circuitmap/internal/hub"
	"circuitmap/internal/loader"
	"circuitmap/internal/logging"
	"circuitmap/internal/metrics"
	"circuitmap/internal/repository/sqlite"
	"circuitmap/internal/routing"
	"circuitmap/internal/service"
	"circuitmap/internal/topology"
	"circuitmap/internal/watcher"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (overrides config)")
	inventory := flag.String("inventory", "", "Comma-separated inventory files to import and watch (overrides config)")
	flag.Parse()

	var (
		cfg    *config.Config
		source string
		err    error
	)
	if *configPath != "" {
		cfg, source, err = config.LoadFromPath(*configPath)
	} else {
		cfg, source, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", source, err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *logLevel != "" {
		cfg.Server.LogLevel = strings.ToLower(*logLevel)
	}
	if *inventory != "" {
		cfg.Inventory.Paths = strings.Split(*inventory, ",")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Server.LogLevel)
	if source != "" {
		log.Info().Str("path", source).Msg("config loaded")
	} else {
		log.Info().Msg("no config file found, using defaults")
	}
	log.Debug().Msg(cfg.Summary())

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	log.Info().Str("path", cfg.Database.Path).Msg("database opened")

	m := metrics.New()
	eventBus := service.NewEventBus()

	router := routing.NewRouter(cfg.Routing, log)
	engineOpts := []topology.Option{topology.WithMetrics(m)}
	for _, s := range cfg.Strategies() {
		engineOpts = append(engineOpts, topology.WithStrategy(s))
	}
	engine := topology.New(router, log, engineOpts...)

	scenes := service.NewSceneService(repo, engine, eventBus, cfg.DefaultMode(), log)
	sessions := service.NewSessionService(scenes, cfg.ViewportOptions(), cfg.Viewport.SessionTTL.Duration(), m, eventBus, log)

	reload := func(ctx context.Context) error {
		inv, err := loader.LoadFiles(cfg.Inventory.Paths)
		if err != nil {
			return err
		}
		if _, err := scenes.ImportInventory(ctx, inv, strings.Join(cfg.Inventory.Paths, ",")); err != nil {
			return err
		}
		_, err = scenes.Refresh(ctx)
		return err
	}

	if len(cfg.Inventory.Paths) > 0 {
		if err := reload(ctx); err != nil {
			return fmt.Errorf("import inventory: %w", err)
		}
	}

	sseHub := hub.New(log)
	h := handler.New(scenes, sessions, sseHub, m, log)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sseHub.Run(gctx) })
	g.Go(func() error { return sseHub.Relay(gctx, eventBus) })
	g.Go(func() error { return sessions.Run(gctx) })

	if len(cfg.Inventory.Paths) > 0 {
		w := watcher.New(cfg.Inventory.Paths, func(path string) {
			if err := reload(gctx); err != nil {
				log.Error().Err(err).Str("path", path).Msg("inventory reload failed, keeping previous inventory")
			}
		}, log).WithDebounce(cfg.Inventory.Debounce.Duration())

		g.Go(func() error {
			if err := w.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watch inventory: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
