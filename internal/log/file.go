package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/gosimple/slug"
	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps a config level name onto slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// KnownLevel reports whether s names a level ParseLevel understands.
func KnownLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// New builds a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *clog.Logger {
	return clog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetupScenarioLogging tees the context logger into
// <dir>/<runID>/<scenario-slug>.log. With an empty dir it is a no-op. The
// returned function closes the file.
func SetupScenarioLogging(ctx context.Context, dir, runID, scenario string) (context.Context, func()) {
	if dir == "" {
		return ctx, func() {}
	}

	runDir := filepath.Join(dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		Warn(ctx, "failed to create scenario log directory", "path", runDir, Err(err))
		return ctx, func() {}
	}

	name := slug.Make(scenario)
	if name == "" {
		name = "scenario"
	}
	logPath := filepath.Join(runDir, fmt.Sprintf("%s.log", name))

	logFile, err := os.Create(logPath)
	if err != nil {
		Warn(ctx, "failed to create scenario log file", "path", logPath, Err(err))
		return ctx, func() {}
	}

	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler := slogmulti.Fanout(clog.FromContext(ctx).Handler(), fileHandler)

	Info(ctx, "logging scenario output to file", "path", logPath)
	ctx = clog.WithLogger(ctx, clog.New(handler))

	return ctx, func() {
		if err := logFile.Close(); err != nil {
			Warn(ctx, "failed to close scenario log file", "path", logPath, Err(err))
		}
	}
}
