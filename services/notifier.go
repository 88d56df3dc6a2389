package services

import (
	"time"

	"go.uber.org/zap"
)

const (
	EventXPGained     = "XP_GAINED"
	EventStreakUpdate = "STREAK_UPDATE"
)

// Notification describes a ledger delta for downstream side-effects
// (Discord, websocket fan-out, ...). Dispatch is strictly after commit and
// strictly fire-and-forget: a dropped notification never surfaces as a
// ledger error.
type Notification struct {
	Event    string    `json:"event"`
	Address  string    `json:"address"`
	Activity string    `json:"activity,omitempty"`
	Points   int64     `json:"points,omitempty"`
	Streak   int       `json:"streak,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier is the outbound side-effect channel. Implementations must not
// block the caller.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier is the default sink: it just logs the event. Real transports
// (Discord webhook, websocket hub) plug in behind the same interface.
type LogNotifier struct {
	Log *zap.Logger
}

func (l *LogNotifier) Notify(n Notification) {
	l.Log.Info("notification",
		zap.String("event", n.Event),
		zap.String("address", n.Address),
		zap.String("activity", n.Activity),
		zap.Int64("points", n.Points),
		zap.Int("streak", n.Streak),
	)
}

// NopNotifier discards everything; used when no sink is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}
