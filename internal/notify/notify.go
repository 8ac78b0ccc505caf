// Package notify provides notification functionality for trading
// events.
package notify

import (
	"context"
	"time"
)

// Notifier sends trading event notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Notification is one event message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationType classifies notifications.
type NotificationType string

const (
	NotificationTrade NotificationType = "trade"
	NotificationRisk  NotificationType = "risk"
	NotificationError NotificationType = "error"
	NotificationInfo  NotificationType = "info"
)

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Send implements Notifier.
func (NopNotifier) Send(context.Context, Notification) error { return nil }
