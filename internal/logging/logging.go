package logging

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
)

// ParseLevel maps a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// New builds a logger writing to w in the given format ("text" or "json")
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	// slog.DiscardHandler requires go1.24; a never-enabled handler on io.Discard is equivalent
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
}
