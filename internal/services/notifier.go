package services

import (
	"context"
	"log/slog"

	"github.com/eventzen/apiserver/internal/metrics"
)

// Notification channels published after successful writes.
const (
	ChannelEventCreated       = "event.created"
	ChannelEventDeleted       = "event.deleted"
	ChannelAttendeeRegistered = "attendee.registered"
)

// Notifier publishes domain notifications to a message broker.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// publish delivers a notification best-effort. A broker failure never fails
// the request that triggered it.
func publish(ctx context.Context, logger *slog.Logger, notifier Notifier, channel string, payload any) {
	if notifier == nil {
		return
	}
	if err := notifier.Publish(ctx, channel, payload); err != nil {
		logger.Error("failed to publish notification", "channel", channel, "error", err)
		metrics.ObserveNotification(channel, "error")
		return
	}
	metrics.ObserveNotification(channel, "ok")
}
