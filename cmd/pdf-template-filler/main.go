package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/pdf-template-filler/internal/config"
	"github.com/a3tai/pdf-template-filler/internal/mcp"
	"github.com/a3tai/pdf-template-filler/internal/service"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the logger for the configured mode. In stdio mode
// stdout carries the MCP protocol, so logs go to stderr and only warnings
// and errors are shown unless debug is enabled.
func setupLogging(cfg *config.Config, stdout, stderr io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	out := stdout
	if cfg.IsStdioMode() {
		out = stderr
		if !cfg.IsDebug() && level < slog.LevelWarn {
			level = slog.LevelWarn
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *slog.Logger) int {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Error("server shutdown with error", "error", err)
			return 1
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// runStdioMode handles stdio mode execution. The parent process controls
// the lifecycle by closing stdin.
func runStdioMode(ctx context.Context, server *mcp.Server, logger *slog.Logger) int {
	if err := server.Run(ctx); err != nil {
		logger.Debug("server error", "error", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}

func run() int {
	if isVersionRequest(os.Args[1:]) {
		printVersion()
		return 0
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := setupLogging(cfg, os.Stdout, os.Stderr)
	slog.SetDefault(logger)

	if version != "dev" {
		cfg.Version = version
	}
	logger.Debug("starting", "config", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := service.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open template service", "error", err)
		return 1
	}
	defer svc.Close()

	server, err := mcp.NewServer(cfg, svc, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		return 1
	}

	if cfg.IsServerMode() {
		return runServerMode(ctx, cancel, server, logger)
	}
	return runStdioMode(ctx, server, logger)
}

// isVersionRequest reports whether args ask for the version.
func isVersionRequest(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("PDF Template Filler\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
