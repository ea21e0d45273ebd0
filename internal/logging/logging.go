package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log lines go
type Config struct {
	Level  string
	File   string
	Format string // "text" (default) or "json"

	// Quiet drops the stderr writer. Used while the TUI owns the terminal.
	Quiet bool
}

// Init configures the global zerolog logger
func Init(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	var format func(w io.Writer, color bool) io.Writer
	switch cfg.Format {
	case "", "text":
		format = func(w io.Writer, color bool) io.Writer {
			return zerolog.ConsoleWriter{Out: w, NoColor: !color}
		}
	case "json":
		format = func(w io.Writer, _ bool) io.Writer { return w }
	default:
		return fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	var writers []io.Writer
	if !cfg.Quiet {
		writers = append(writers, format(os.Stderr, true))
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers, format(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}, false))
	}

	switch len(writers) {
	case 0:
		log.Logger = zerolog.Nop()
	case 1:
		log.Logger = log.Output(writers[0])
	default:
		log.Logger = log.Output(io.MultiWriter(writers...))
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

func parseLevel(s string) (zerolog.Level, error) {
	switch s {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level: %s", s)
}
