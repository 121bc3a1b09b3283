// Package notify publishes domain notifications (event lifecycle, attendee
// registrations) to a message broker. Backends exist for RabbitMQ and Google
// Cloud Pub/Sub; consumers such as the confirmation worker subscribe to the
// same channels.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Notifier wraps a backend and handles payload encoding.
type Notifier struct {
	backend Backend
}

// New constructs a Notifier for the provided backend.
func New(backend Backend) *Notifier {
	return &Notifier{backend: backend}
}

// Publish encodes the payload as JSON and sends it to the named channel.
func (n *Notifier) Publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	_, err = n.backend.Publish(ctx, channel, data, map[string]string{
		"content-type": "application/json",
	})
	return err
}

// Subscribe consumes messages from the named channel until ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return n.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (n *Notifier) Close() error {
	return n.backend.Close()
}
