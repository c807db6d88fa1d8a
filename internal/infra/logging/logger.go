package logging

import (
	"io"
	"os"

	"eventbooking/internal/config"

	"github.com/hashicorp/go-hclog"
)

const appName = "bookingd"

// New builds the process logger. Unknown levels fall back to info.
func New(cfg config.Config) hclog.Logger {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.Config, w io.Writer) hclog.Logger {
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       appName,
		Level:      level,
		Output:     w,
		JSONFormat: cfg.LogJSON,
	})
}

// OrNull returns logger, or a logger that discards everything when nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
