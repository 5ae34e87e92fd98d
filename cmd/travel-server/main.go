// SPDX-License-Identifier: Apache-2.0

// Command travel-server runs the travel & booking multi-agent ARC server:
// four specialized agents behind one dispatch endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/arcprotocol/arc-go/pkg/arc/httpjson"
	"github.com/arcprotocol/arc-go/pkg/arc/server"
	"github.com/arcprotocol/arc-go/pkg/config"
	"github.com/arcprotocol/arc-go/pkg/telemetry"
	"github.com/arcprotocol/arc-go/pkg/travel"
)

const (
	serverID      = "travel-booking-platform"
	serverName    = "Travel & Booking Multi-Agent Server"
	serverVersion = "1.0.0"
	serverDesc    = "Travel booking platform with specialized agents"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "travel-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address, overrides config")
	watch := flag.Bool("watch", false, "reload logging settings on config change")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := telemetry.ConfigureSlog(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	shutdownTelemetry, err := telemetry.InitWithConfig(serverID, serverVersion, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := telemetry.NewDispatchMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	tasks, closeTasks, err := openTaskStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open task store: %w", err)
	}
	defer closeTasks()

	registry := server.NewRegistry()
	if err := travel.Register(registry, logger); err != nil {
		return fmt.Errorf("register agents: %w", err)
	}

	dispatcher := server.NewDispatcher(registry,
		server.WithServerID(serverID),
		server.WithLogger(logger),
		server.WithTaskStore(tasks),
		server.WithDispatchMetrics(metrics),
	)

	handler := httpjson.New(dispatcher,
		httpjson.WithIdentity(serverID, serverName, serverVersion, serverDesc),
		httpjson.WithCORS(cfg.Server.EnableCORS),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *watch && *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, config.WithWatchLogger(logger))
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		watcher.OnChange(func(next *config.Config) {
			telemetry.ConfigureSlog(os.Stdout, next.Log.Level, next.Log.Format)
			slog.Info("logging settings reloaded",
				"level", next.Log.Level, "format", next.Log.Format)
		})
		watcher.Start(ctx)
	}

	printBanner(registry, cfg.Server.Addr)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openTaskStore(cfg config.StorageConfig) (server.TaskStore, func(), error) {
	switch cfg.Driver {
	case "", "memory":
		return server.NewMemoryTaskStore(), func() {}, nil
	case "sqlite":
		store, err := server.OpenSQLiteTaskStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

func printBanner(registry *server.Registry, addr string) {
	agents := registry.Agents()
	ids := make([]string, 0, len(agents))
	totalMethods := 0
	for id, methods := range agents {
		ids = append(ids, id)
		totalMethods += len(methods)
	}
	sort.Strings(ids)

	fmt.Printf("Starting %s\n", serverName)
	fmt.Printf("Server ID: %s\n", serverID)
	fmt.Println("Registered agents:")
	for _, id := range ids {
		fmt.Printf("  - %s: ", id)
		for i, method := range agents[id] {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(method)
		}
		fmt.Println()
	}
	fmt.Printf("Total agents: %d\n", len(agents))
	fmt.Printf("Total methods: %d\n", totalMethods)
	fmt.Printf("Listening at: http://localhost%s/arc\n", addr)
	fmt.Printf("Health check: http://localhost%s/health\n", addr)
	fmt.Printf("Agent info: http://localhost%s/agent-info\n", addr)
	fmt.Println("Press Ctrl+C to stop the server")
}
