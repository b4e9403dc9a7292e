package session

import "log/slog"

// Level classifies a session notification, mirroring the severity the UI
// layer renders (toast styling in the browser, log level here).
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Notifier receives session-level progress and failure notifications:
// batch start, per-file failure, batch completion, save outcomes.
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier routes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(level Level, message string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch level {
	case LevelWarn:
		logger.Warn("session.notify", "kind", string(level), "message", message)
	case LevelError:
		logger.Error("session.notify", "kind", string(level), "message", message)
	default:
		logger.Info("session.notify", "kind", string(level), "message", message)
	}
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}
