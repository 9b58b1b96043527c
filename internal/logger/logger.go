package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Log = zerolog.Nop()

// Init initializes the global logger on stdout with the specified level.
// Valid levels: debug, info, warn, error
func Init(level string) {
	InitTo(os.Stdout, level)
}

// InitTo is Init with an explicit destination. The headless CLI logs to
// stderr so stdout carries only JSON lines.
func InitTo(w io.Writer, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	Log = zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// Module returns a logger with a module field for scoped logging.
func Module(name string) zerolog.Logger {
	return Log.With().Str("module", name).Logger()
}
