package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/haukened/probecache/internal/probe/common/clock"
	"github.com/haukened/probecache/internal/probe/common/log"
	"github.com/haukened/probecache/internal/probe/config"
	"github.com/haukened/probecache/internal/probe/domain"
	"github.com/haukened/probecache/internal/probe/gateways/httpapi"
	"github.com/haukened/probecache/internal/probe/repos/bloom"
	"github.com/haukened/probecache/internal/probe/repos/decision"
	"github.com/haukened/probecache/internal/probe/repos/lists/blacklist"
	boltlist "github.com/haukened/probecache/internal/probe/repos/lists/blacklist/bolt"
	"github.com/haukened/probecache/internal/probe/repos/lists/parsers"
	"github.com/haukened/probecache/internal/probe/repos/lists/whitelist"
	"github.com/haukened/probecache/internal/probe/services/membership"
)

const (
	version = "0.1.0-dev"
	appName = "probecached"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the daemon's components.
type Application struct {
	config  *config.AppConfig
	service *membership.Service
	api     *httpapi.Server
	closers []func() error
}

func main() {
	instancesFlag := pflag.String("instances", "", "path to the instances file (overrides PROBE_INSTANCES_FILE)")
	listenFlag := pflag.String("listen", "", "HTTP API listen address (overrides PROBE_LISTEN)")
	versionFlag := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *versionFlag {
		fmt.Printf("%s %s\n", appName, version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *instancesFlag != "" {
		cfg.InstancesFile = *instancesFlag
	}
	if *listenFlag != "" {
		cfg.Listen = *listenFlag
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":        version,
		"env":            cfg.Env,
		"log_level":      cfg.LogLevel,
		"listen":         cfg.Listen,
		"cache_size":     cfg.CacheSize,
		"data_dir":       cfg.DataDir,
		"instances_file": cfg.InstancesFile,
	}, "Starting probecached")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	if err := app.api.Start(); err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to start HTTP API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	app.shutdown(shutdownCtx)

	log.Info(nil, "probecached stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	svc, err := membership.NewService(membership.Options{
		Factory:           bloom.NewFactory(),
		NewDecisionCache:  decision.New,
		DecisionCacheSize: cfg.CacheSize,
		Clock:             clock.RealClock{},
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build membership service: %w", err)
	}

	app := &Application{
		config:  cfg,
		service: svc,
		api:     httpapi.NewServer(cfg.Listen, svc, logger),
	}

	defs, err := config.LoadInstances(cfg.InstancesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load instance definitions: %w", err)
	}
	for _, def := range defs {
		if err := app.startInstance(def); err != nil {
			return nil, fmt.Errorf("failed to start instance %q: %w", def.Name, err)
		}
	}

	return app, nil
}

// startInstance builds the behavior declared by def and starts it on the
// membership service.
func (app *Application) startInstance(def config.InstanceDef) error {
	seeds, err := loadSeeds(def)
	if err != nil {
		return err
	}

	var behavior membership.Behavior
	switch {
	case def.Kind == config.KindWhitelist:
		behavior = whitelist.New()
	case def.Persist:
		store, err := boltlist.Open(filepath.Join(app.config.DataDir, def.Name+".db"))
		if err != nil {
			return fmt.Errorf("open bolt store: %w", err)
		}
		app.closers = append(app.closers, store.Close)
		behavior = boltlist.NewBehavior(store, clock.RealClock{})
	default:
		behavior = blacklist.New()
	}

	opts := domain.FilterOptions{Capacity: def.Capacity, ErrorRate: def.ErrorRate}.Normalized()
	_, err = app.service.Start(def.Name, behavior, opts, seeds)
	if err != nil {
		return err
	}

	log.Info(map[string]any{
		"instance":   def.Name,
		"kind":       def.Kind,
		"persist":    def.Persist,
		"capacity":   opts.Capacity,
		"error_rate": opts.ErrorRate,
		"seed_keys":  len(seeds),
	}, "Instance started")
	return nil
}

// loadSeeds merges inline seeds with the optional seed file.
func loadSeeds(def config.InstanceDef) ([]string, error) {
	seeds := append([]string(nil), def.Seeds...)
	if def.SeedFile == "" {
		return seeds, nil
	}
	f, err := os.Open(def.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	fileKeys, err := parsers.ParsePlainList(f)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", def.SeedFile, err)
	}
	return append(seeds, fileKeys...), nil
}

func (app *Application) shutdown(ctx context.Context) {
	if err := app.api.Stop(ctx); err != nil {
		log.Error(map[string]any{"error": err.Error()}, "HTTP API shutdown failed")
	}
	app.service.Shutdown()
	for _, closeFn := range app.closers {
		if err := closeFn(); err != nil {
			log.Error(map[string]any{"error": err.Error()}, "Store close failed")
		}
	}
}
