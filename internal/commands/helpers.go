// Package commands implements the CLI subcommands for the guildmetrics binary.
package commands

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dwsmith1983/guildmetrics/pkg/types"
)

// shutdownTimeout bounds the graceful stop of every component.
const shutdownTimeout = 10 * time.Second

// newLogger builds the process logger from the log section.
func newLogger(cfg types.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(cfg.Level)}
	if cfg.Format == types.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func logLevel(l types.LogLevel) slog.Level {
	switch l {
	case types.LogDebug:
		return slog.LevelDebug
	case types.LogWarn:
		return slog.LevelWarn
	case types.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// seconds converts a configured interval to a duration.
func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// redact hides all but the last four characters of a secret.
func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
