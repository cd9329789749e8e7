// Package main runs ontosim: it loads a MeSH ontology into a similarity
// overlay and either answers one query from the command line or serves
// queries over HTTP and NATS.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/ontosim/config"
	"github.com/c360/ontosim/errors"
	gatewayhttp "github.com/c360/ontosim/gateway/http"
	"github.com/c360/ontosim/health"
	"github.com/c360/ontosim/loader/mesh"
	"github.com/c360/ontosim/metric"
	"github.com/c360/ontosim/natsclient"
	"github.com/c360/ontosim/overlay"
	"github.com/c360/ontosim/processor/query"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ontosim"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

// run executes the CLI. Query results go to stdout, logs to stderr.
func run(args []string, stdout, stderr io.Writer) error {
	cli, err := parseFlags(args, stderr)
	if stderrors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateFlags(cli); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cli.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}
	if cli.ShowHelp {
		return nil
	}

	logger := setupLogger(stderr, cli.LogLevel, cli.LogFormat)
	slog.SetDefault(logger)

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if cli.Validate {
		logger.Info("Configuration is valid", "ontology", cfg.Ontology.Path)
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := metric.NewMetricsRegistry()
	ov, err := buildOverlay(ctx, cfg, registry, logger)
	if err != nil {
		return err
	}

	if cli.HasQuery() {
		return runQuery(ctx, ov, cli, stdout)
	}
	return serve(ctx, cfg, ov, registry, logger)
}

// loadConfig layers defaults, the optional config file, environment and the
// --ontology flag.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cli.OntologyPath != "" {
		cfg.Ontology.Path = cli.OntologyPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildOverlay(
	ctx context.Context,
	cfg *config.Config,
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
) (*overlay.Overlay, error) {
	loader := mesh.NewLoader(mesh.WithRoot(cfg.Ontology.Root), mesh.WithLogger(logger))
	ov, err := overlay.New(ctx, cfg.Overlay(), overlay.Dependencies{
		Loader:   overlay.MeSHLoader(loader),
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build overlay: %w", err)
	}
	return ov, nil
}

// serve runs every enabled surface until a signal arrives or one of them
// fails.
func serve(
	ctx context.Context,
	cfg *config.Config,
	ov *overlay.Overlay,
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
) error {
	if !cfg.HTTP.Enabled && !cfg.NATS.Enabled && !cfg.Metrics.Enabled {
		return errors.WrapInvalid(errors.ErrMissingConfig, "main", "serve",
			"enable http, nats or metrics, or pass a query flag")
	}

	monitor := health.NewMonitor()
	stats := ov.Stats()
	monitor.UpdateHealthy("overlay", fmt.Sprintf("%d concepts, %d edges, %d labels",
		stats.Concepts, stats.Edges, stats.Labels))

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		srv := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
			defer cancel()
			return srv.Stop(stopCtx)
		})
		logger.Info("Metrics enabled", "address", srv.Address())
	}

	if cfg.NATS.Enabled {
		if err := startNATS(gctx, g, cfg, ov, registry, monitor, logger); err != nil {
			return err
		}
	}

	if cfg.HTTP.Enabled {
		gw, err := gatewayhttp.NewGateway(ov,
			gatewayhttp.WithMonitor(monitor),
			gatewayhttp.WithMetrics(registry.CoreMetrics()),
			gatewayhttp.WithLogger(logger),
			gatewayhttp.WithMaxRequestBytes(cfg.HTTP.MaxRequestBytes),
			gatewayhttp.WithShutdownTimeout(cfg.HTTP.ShutdownTimeout.Std()),
		)
		if err != nil {
			return err
		}
		g.Go(func() error { return gw.ListenAndServe(gctx, cfg.HTTP.Port) })
	}

	logger.Info("ontosim started",
		"http", cfg.HTTP.Enabled,
		"nats", cfg.NATS.Enabled,
		"metrics", cfg.Metrics.Enabled,
		"concepts", stats.Concepts)

	err := g.Wait()
	logger.Info("ontosim shutdown complete")
	return err
}

func startNATS(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	ov *overlay.Overlay,
	registry *metric.MetricsRegistry,
	monitor *health.Monitor,
	logger *slog.Logger,
) error {
	monitor.UpdateDegraded("nats", "connecting")
	client, err := natsclient.NewClient(cfg.NATS.URLs,
		natsclient.WithClientName(cfg.NATS.Name),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()),
		natsclient.WithMetrics(registry.CoreMetrics()),
		natsclient.WithLogger(logger),
		natsclient.WithHealthChangeCallback(func(healthy bool) {
			if healthy {
				monitor.UpdateHealthy("nats", "connected")
			} else {
				monitor.UpdateUnhealthy("nats", "disconnected")
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}

	proc, err := query.NewProcessor(ov, query.Config{
		SubjectPrefix:     cfg.NATS.SubjectPrefix,
		QueueGroup:        query.DefaultQueueGroup,
		NeighborhoodRate:  cfg.NATS.NeighborhoodRate,
		NeighborhoodBurst: cfg.NATS.NeighborhoodBurst,
		Workers:           cfg.NATS.Workers,
		QueueSize:         cfg.NATS.QueueSize,
	}, registry.CoreMetrics(), logger)
	if err != nil {
		return err
	}

	g.Go(func() error {
		if err := client.ConnectWithRetry(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connect to NATS: %w", err)
		}
		if err := proc.Start(ctx, client); err != nil {
			_ = client.Close(context.Background())
			return err
		}

		<-ctx.Done()
		proc.Stop()
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return client.Close(closeCtx)
	})
	return nil
}
