package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithProject returns a logger with project context attached.
// Use this for all logging within AI orchestration for a project.
func WithProject(projectID string) *slog.Logger {
	return slog.With("project_id", projectID)
}

// WithConversation returns a logger scoped to a conversation within a project.
func WithConversation(logger *slog.Logger, conversationID string) *slog.Logger {
	return logger.With("conversation_id", conversationID)
}
