// Package logger builds the slog loggers used by the command line and
// examples. The client library itself takes any *slog.Logger.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/binrc/roma-client-go/internal/apierrors"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// OutputFormat represents the log output format
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// Config holds configuration for the logger
type Config struct {
	Level      LogLevel     `mapstructure:"level"`
	Format     OutputFormat `mapstructure:"format"`
	AddSource  bool         `mapstructure:"add_source"`
	TimeFormat string       `mapstructure:"time_format"`
	NoColor    bool         `mapstructure:"no_color"`

	// Output defaults to os.Stderr so command output on stdout stays clean.
	Output io.Writer `mapstructure:"-"`
}

// DefaultConfig returns warn-level colored text on stderr.
func DefaultConfig() Config {
	return Config{
		Level:      LevelWarn,
		Format:     FormatText,
		TimeFormat: time.Kitchen,
	}
}

// New creates a logger from config.
func New(config Config) *slog.Logger {
	return slog.New(createHandler(config, parseLogLevel(config.Level)))
}

// ParseLevel validates a level name from a flag or config file.
func ParseLevel(s string) (LogLevel, error) {
	switch l := LogLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	case "warning":
		return LevelWarn, nil
	default:
		return "", fmt.Errorf("invalid log level %q: want debug, info, warn or error", s)
	}
}

// ParseFormat validates an output format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("invalid log format %q: want text or json", s)
	}
}

// ErrorAttrs returns attributes describing err, including the failure
// kind, code and attempt count of API errors.
func ErrorAttrs(err error) []any {
	if err == nil {
		return nil
	}
	attrs := []any{slog.String("error", err.Error())}

	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		attrs = append(attrs,
			slog.String("error_kind", apiErr.Kind.String()),
			slog.Int("error_code", apiErr.Code),
			slog.Bool("retryable", apiErr.Retryable()),
		)
		if apiErr.Attempts > 0 {
			attrs = append(attrs, slog.Int("attempts", apiErr.Attempts))
		}
	}
	return attrs
}

func parseLogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func createHandler(config Config, level slog.Level) slog.Handler {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	timeFormat := config.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	switch config.Format {
	case FormatText:
		return tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: timeFormat,
			AddSource:  config.AddSource,
			NoColor:    config.NoColor,
		})
	default:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     level,
			AddSource: config.AddSource,
		})
	}
}
