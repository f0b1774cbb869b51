package logging

import (
	"log/slog"
	"os"
)

// SetupJSON replaces slog's default logger with a JSON handler on
// stdout at the given level. Both binaries call it right after config
// load so every line, including startup errors, is machine-parseable.
func SetupJSON(level slog.Level) {
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	)
	slog.SetDefault(logger)
}
