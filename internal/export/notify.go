package export

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// Level is the severity of a user-facing notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a message for the user about an export.
type Notification struct {
	JobID   uuid.UUID
	Level   Level
	State   model.ExportState
	Message string
}

// Notifier surfaces export outcomes to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch n.Level {
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, n.Message, "job_id", n.JobID, "state", n.State)
}
