package config

import (
	"io"
	"log/slog"

	"git.home.luguber.info/inful/snapfront/internal/foundation/normalization"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var slogLevels = map[LogLevel]slog.Level{
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

var logLevels = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
})

// ParseLogLevel normalizes raw (case-insensitive) into a LogLevel.
func ParseLogLevel(raw string) (LogLevel, error) {
	lvl, ok := logLevels.Normalize(raw)
	if !ok {
		return "", invalidValue("logging.level", raw)
	}
	return lvl, nil
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
})

// ParseLogFormat normalizes raw (case-insensitive) into a LogFormat.
func ParseLogFormat(raw string) (LogFormat, error) {
	f, ok := logFormats.Normalize(raw)
	if !ok {
		return "", invalidValue("logging.format", raw)
	}
	return f, nil
}

// NewLogger builds the slog logger described by the logging section.
// verbose forces debug level.
func (l LoggingConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	lvl, err := ParseLogLevel(l.Level)
	if err != nil {
		lvl = LogLevelInfo
	}
	opts := &slog.HandlerOptions{Level: slogLevels[lvl]}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format, _ := ParseLogFormat(l.Format); format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
