package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"github.com/ironsheep/panel-area-mcp/internal/catalog"
	"github.com/ironsheep/panel-area-mcp/internal/config"
	"github.com/ironsheep/panel-area-mcp/internal/history"
	"github.com/ironsheep/panel-area-mcp/internal/logger"
	"github.com/ironsheep/panel-area-mcp/internal/metrics"
	"github.com/ironsheep/panel-area-mcp/internal/server"
	"github.com/ironsheep/panel-area-mcp/internal/service"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("panel-area-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	_ = godotenv.Load()
	cfg := config.Load()

	// Logs go to stderr (stdout is for MCP protocol)
	log := logger.New(cfg.LogLevel, os.Stderr)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "estimate" {
		code := runEstimate(ctx, cfg, log, os.Args[2:])
		stop()
		os.Exit(code)
	}

	log.Debug("panel area MCP server starting",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("commit", GitCommit))

	svc, cleanup, err := buildService(ctx, cfg, log, true)
	if err != nil {
		log.Error("failed to start", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
	defer cleanup()

	srv := server.New(svc, log)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("server error", slog.Any("error", xerrors.New(err)))
		cleanup()
		os.Exit(1)
	}
}

// buildService assembles the service from configuration. The metrics
// listener is only started for the long-running server.
func buildService(ctx context.Context, cfg *config.Config, log *slog.Logger, serveMetrics bool) (*service.Service, func(), error) {
	opts := service.Options{Logger: log, HistoryLimit: cfg.HistoryLimit}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	if cfg.CatalogPath != "" {
		cat, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, cleanup, err
		}
		opts.Catalog = cat
		log.Info("loaded reference catalog", slog.String("path", cfg.CatalogPath))
	}

	if cfg.HistoryDSN != "" {
		store, err := history.Open(cfg.HistoryDSN)
		if err != nil {
			return nil, cleanup, err
		}
		opts.History = store
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				log.Warn("failed to close history", slog.Any("error", xerrors.New(err)))
			}
		})
	}

	if serveMetrics && cfg.MetricsAddr != "" {
		m := metrics.New()
		opts.Metrics = m
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error("metrics listener stopped", slog.Any("error", xerrors.New(err)))
			}
		}()
		log.Info("serving metrics", slog.String("addr", cfg.MetricsAddr))
	}

	return service.New(opts), cleanup, nil
}

func printHelp() {
	fmt.Println("panel-area-mcp - MCP server for display panel area estimation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  panel-area-mcp [options]           Run the MCP server on stdin/stdout")
	fmt.Println("  panel-area-mcp estimate [flags]    Estimate one panel and print the area")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Estimate flags (see 'panel-area-mcp estimate -h'):")
	fmt.Println("  -box x1,y1,x2,y2   Target corners in pixels")
	fmt.Println("  -image PATH        Photo; provides the image size")
	fmt.Println("  -size W,H          Image size when no photo is given")
	fmt.Println("  -detections PATH   JSON array of {\"label\": N, \"bbox\": [cx, cy, w, h]}")
	fmt.Println("  -setting, -category  Venue type for the fallback area")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  AREA_MCP_LOG_LEVEL=debug        Log level (debug, info, warn, error)")
	fmt.Println("  AREA_MCP_CATALOG=PATH           JSON file overriding reference areas and defaults")
	fmt.Println("  AREA_MCP_HISTORY_DB=PATH        SQLite file for estimate history")
	fmt.Println("  AREA_MCP_HISTORY_LIMIT=20       Default number of history entries returned")
	fmt.Println("  AREA_MCP_METRICS_ADDR=:9090     Serve Prometheus metrics on this address")
	fmt.Println()
	fmt.Println("The server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
