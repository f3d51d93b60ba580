// Package log configures the process-wide zerolog logger.
package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // operator console; defaults to a zerolog.ConsoleWriter on stderr
	File    string    // optional per-session JSON log file
	Session string    // session id attached to every entry
	Task    string    // paradigm name attached to every entry
}

var (
	once sync.Once
	base zerolog.Logger
	file *os.File
)

// Configure initialises the global zerolog logger exactly once.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		} else if env := os.Getenv("EYESYNC_LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339Nano

		writer := cfg.Output
		if writer == nil {
			writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
		}

		var fileErr error
		if cfg.File != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
				fileErr = err
			} else if f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
				fileErr = err
			} else {
				file = f
				writer = zerolog.MultiLevelWriter(writer, f)
			}
		}

		ctx := zerolog.New(writer).With().Timestamp()
		if cfg.Session != "" {
			ctx = ctx.Str("session", cfg.Session)
		}
		if cfg.Task != "" {
			ctx = ctx.Str("task", cfg.Task)
		}
		base = ctx.Logger()

		if fileErr != nil {
			base.Warn().Err(fileErr).Str("path", cfg.File).Msg("session log file unavailable, logging to console only")
		}
	})
}

// Close flushes and closes the session log file, if one was opened.
func Close() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func logger() zerolog.Logger {
	Configure(Config{})
	return base
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str("component", component).Logger()
}

// SessionFile returns the log file path for a session started at t, named the way
// the lab keeps one log per participant run.
func SessionFile(dir, task string, t time.Time) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, task, t.Format("2006-01-02 15-04-05")+".log")
}
