// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// Options controls logger construction.
type Options struct {
	Level string    // debug, info, warn, error
	File  string    // base path of the rotated log file; empty disables file output
	Out   io.Writer // console destination; nil means stdout
}

// New builds a JSON slog logger. When File is set, records are written both to
// the console and to a daily rotated file kept for seven days. The returned closer
// releases the file handle. Records logged with a context from WithRequestID carry request_id.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if opts.Out != nil {
		w = opts.Out
	}

	if opts.File != "" {
		rl, err := rotatelogs.New(
			opts.File+".%Y%m%d",
			rotatelogs.WithLinkName(opts.File),
			rotatelogs.WithMaxAge(7*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open rotating log %s: %w", opts.File, err)
		}
		w = io.MultiWriter(w, rl)
		closer = rl
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(contextHandler{handler}), closer, nil
}

// ParseLevel maps a level name to slog.Level, defaulting to Info.
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
