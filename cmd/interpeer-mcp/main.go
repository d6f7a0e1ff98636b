// Package main runs the interpeer MCP server on stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
	"github.com/richhaase/interpeer/internal/logging"
	"github.com/richhaase/interpeer/internal/observability"
	"github.com/richhaase/interpeer/internal/router"
	"github.com/richhaase/interpeer/internal/server"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	projectRoot string
	logLevel    string
)

// errInterrupted reports shutdown by signal.
var errInterrupted = errors.New("interrupted")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:   "interpeer-mcp",
		Short: "Serve the interpeer_review tool over MCP stdio",
		Long: `Serve the interpeer_review MCP tool on stdin/stdout.

Logs are written to stderr. Set INTERPEER_METRICS_ADDR to expose Prometheus
metrics and INTERPEER_TRACE=stdout to print spans to stderr.`,
		Args:          cobra.NoArgs,
		RunE:          runServer,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Flags().StringVar(&projectRoot, "project-root", ".",
		"Project root for the config file and resource paths")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (env: INTERPEER_LOG_LEVEL)")

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errInterrupted) {
			return domain.ExitInterrupted.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domain.ExitError.Int()
	}
	return domain.ExitOK.Int()
}

// withLogLevel lets the --log-level flag take precedence over the environment.
func withLogLevel(lookup config.LookupFunc, level string) config.LookupFunc {
	if level == "" {
		return lookup
	}
	return func(key string) (string, bool) {
		if key == config.EnvPrefix+"LOG_LEVEL" {
			return level, true
		}
		return lookup(key)
	}
}

// newLogger builds the process logger from the resolved config. A broken
// config still gets a logger; requests will report the config error.
func newLogger(root string, lookup config.LookupFunc) (*zap.Logger, error) {
	res, err := config.Load(root, lookup, config.Overrides{})
	if err != nil {
		env := config.LoadEnvState(lookup)
		level, format := "", ""
		if lg := env.Layer.Logging; lg != nil {
			if lg.Level != nil {
				level = *lg.Level
			}
			if lg.Format != nil {
				format = *lg.Format
			}
		}
		return logging.NewLogger(level, format)
	}
	return logging.FromConfig(res.Config.Logging)
}

func runServer(cmd *cobra.Command, _ []string) error {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	lookup := withLogLevel(config.OSLookup, logLevel)
	env := config.LoadEnvState(lookup)

	logger, err := newLogger(root, lookup)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			interrupted.Store(true)
			cancel()
		case <-ctx.Done():
		}
	}()

	if env.Trace == "stdout" {
		tp, err := observability.NewStdoutTracerProvider("interpeer", version, os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
	} else if env.Trace != "" {
		logger.Warn("unsupported trace exporter, tracing disabled", zap.String("trace", env.Trace))
	}

	metrics := observability.NewMetrics()
	r := router.New(router.Options{
		ProjectRoot: root,
		Lookup:      lookup,
		Logger:      logger,
		Metrics:     metrics,
	})
	if ids, err := r.AgentIDs(); err != nil {
		logger.Error("config error, reviews will fail until it is fixed", zap.Error(err))
	} else {
		logger.Info("interpeer MCP server started",
			zap.String("version", version),
			zap.String("project_root", root),
			zap.Strings("agents", ids))
	}

	g, gctx := errgroup.WithContext(ctx)
	if env.MetricsAddr != "" {
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", env.MetricsAddr))
			if err := metrics.Serve(gctx, env.MetricsAddr); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		err := server.New(r, logger, version).Serve(gctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err = g.Wait()
	if interrupted.Load() {
		return errInterrupted
	}
	return err
}
