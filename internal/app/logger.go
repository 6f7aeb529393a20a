package app

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the app-wide logger type (slog).
type Logger = *slog.Logger

// NewLogger creates a JSON structured logger with an explicit log level.
// FINBOARD_LOG_FORMAT=pretty switches to the human-oriented dev handler.
func NewLogger(level string) *slog.Logger {
	lvl := parseLogLevel(level)

	var h slog.Handler
	if strings.EqualFold(EnvString("FINBOARD_LOG_FORMAT", "json"), "pretty") {
		h = newPrettyHandler(os.Stdout, lvl, EnvBool("FINBOARD_LOG_COLOR", true))
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: true,
		})
	}

	log := slog.New(h)
	slog.SetDefault(log)
	return log
}

// parseLogLevel maps a level name to slog; unknown values fall back to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
