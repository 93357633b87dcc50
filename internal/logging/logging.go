// Package logging configures the process-wide slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phsym/console-slog"
	"golang.org/x/term"
)

// EnvLevel overrides the configured log level when set.
const EnvLevel = "TESSERA_LOG_LEVEL"

// ParseLevel maps a configuration level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// NewHandler returns a console handler writing to w. Colors are disabled
// unless w is a terminal.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return console.NewHandler(w, &console.HandlerOptions{
		Level:   level,
		NoColor: !isTerminal(w),
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Init installs a console handler on stderr as the default logger. The
// returned LevelVar can be adjusted later, e.g. on configuration reload.
// A level from EnvLevel takes precedence over name.
func Init(name string) (*slog.LevelVar, error) {
	if env := os.Getenv(EnvLevel); env != "" {
		name = env
	}
	level, err := ParseLevel(name)
	var lv slog.LevelVar
	lv.Set(level)
	slog.SetDefault(slog.New(NewHandler(os.Stderr, &lv)))
	return &lv, err
}
