// Command mcp-stdio serves MCP over stdin/stdout: one JSON-RPC message per
// line in, one response line per request out. Logs go to a file under the
// user's home directory (stdout carries the protocol and is never logged to).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mediar-ai/mcp-stdio-go/internal/config"
	"github.com/mediar-ai/mcp-stdio-go/internal/logctx"
	"github.com/mediar-ai/mcp-stdio-go/stdio"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "mcp-stdio:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	logW, logPath, closeLog, logFileErr := openLogOutput(cfg)
	defer closeLog()

	log := slog.New(logctx.Handler{
		Handler: slog.NewJSONHandler(logW, &slog.HandlerOptions{Level: levelVar}),
	})
	if logFileErr != nil {
		log.WarnContext(ctx, "main.log_file_unavailable", slog.String("err", logFileErr.Error()))
	} else {
		log.DebugContext(ctx, "main.logging_to_file", slog.String("path", logPath))
	}

	srv := newServerCapabilities(cfg, levelVar, log)

	h := stdio.NewHandler(srv, stdio.WithLogger(log))
	if err := h.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "main.serve_failed", slog.String("err", err.Error()))
		return err
	}
	return nil
}

// openLogOutput opens the configured log file for appending. When the file
// cannot be opened the binary logs to stderr instead and the cause is
// returned for reporting once the logger exists.
func openLogOutput(cfg config.Config) (w io.Writer, path string, closeFn func(), err error) {
	noop := func() {}

	dir, err := cfg.ResolveLogDir()
	if err != nil {
		return os.Stderr, "", noop, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.Stderr, "", noop, err
	}

	path = filepath.Join(dir, config.DefaultLogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr, "", noop, err
	}
	return f, path, func() { _ = f.Close() }, nil
}
