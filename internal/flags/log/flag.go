// Package log wires the logging flags into slog. Logs go to stderr so that
// pass-through output on stdout stays machine-readable.
package log

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"groupsync.dev/cli/internal/flags/enum"
)

const (
	FlagLogLevel  = "loglevel"
	FlagLogFormat = "logformat"
)

// RegisterLoggingFlags adds --loglevel and --logformat.
func RegisterLoggingFlags(flags *pflag.FlagSet) {
	enum.Var(flags, FlagLogLevel, []string{"info", "debug", "warn", "error"}, "set the log level")
	enum.Var(flags, FlagLogFormat, []string{"text", "json"}, "set the log format")
}

// GetBaseLogger builds the logger selected by the command's logging flags.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := GetLoggerLevel(cmd)
	if err != nil {
		return nil, err
	}

	format, err := enum.Get(cmd.Flags(), FlagLogFormat)
	if err != nil {
		return nil, err
	}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return slog.New(handler), nil
}

// GetLoggerLevel resolves the --loglevel flag into a slog.Level.
func GetLoggerLevel(cmd *cobra.Command) (slog.Level, error) {
	logLevel, err := enum.Get(cmd.Flags(), FlagLogLevel)
	if err != nil {
		return slog.LevelInfo, err
	}
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", logLevel)
	}
	return level, nil
}
