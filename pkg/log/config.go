package log

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration. Output defaults to stdout.
type Config struct {
	Level       string    `mapstructure:"level"`
	Pretty      bool      `mapstructure:"pretty"`
	Caller      bool      `mapstructure:"caller"`
	ServiceName string    `mapstructure:"service_name"`
	Output      io.Writer `mapstructure:"-"`
}

var (
	mu     sync.RWMutex
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// New creates a configured zerolog.Logger.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	zctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		zctx = zctx.Caller()
	}
	if cfg.ServiceName != "" {
		zctx = zctx.Str(FieldService, cfg.ServiceName)
	}
	return zctx.Logger()
}

// Init replaces the global logger and routes the standard library logger
// through it.
func Init(cfg Config) {
	logger := New(cfg)

	mu.Lock()
	global = logger
	mu.Unlock()

	stdlog.SetFlags(0)
	stdlog.SetOutput(logger.With().Str("source", "stdlog").Logger())
}

// L returns the global logger.
func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// ParseLevel maps a config level name to a zerolog level; unknown names
// fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
