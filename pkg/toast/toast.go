// Package toast is the user-visible notification surface.
//
// The runtime reports failures and confirmations through a Notifier; the
// presentation (a toast component, a terminal line, a test recorder) is
// supplied by the application. The default notifier logs via slog so no
// failure is silently swallowed.
package toast

import "log/slog"

// Level represents the toast notification type.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notifier receives user-visible notifications.
type Notifier interface {
	Notify(level Level, message string)
}

// Success shows a success toast.
func Success(n Notifier, message string) {
	notify(n, LevelSuccess, message)
}

// Error shows an error toast.
func Error(n Notifier, message string) {
	notify(n, LevelError, message)
}

// Warning shows a warning toast.
func Warning(n Notifier, message string) {
	notify(n, LevelWarning, message)
}

// Info shows an info toast.
func Info(n Notifier, message string) {
	notify(n, LevelInfo, message)
}

func notify(n Notifier, level Level, message string) {
	if n == nil {
		n = defaultNotifier
	}
	n.Notify(level, message)
}

// LogNotifier writes notifications to a slog logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(level Level, message string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch level {
	case LevelError:
		logger.Error("toast", "level", level, "message", message)
	case LevelWarning:
		logger.Warn("toast", "level", level, "message", message)
	default:
		logger.Info("toast", "level", level, "message", message)
	}
}

var defaultNotifier Notifier = &LogNotifier{}
