// Package events publishes account domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects
const (
	UserRegistered    = "user.registered"
	UserLoggedIn      = "user.logged_in"
	PasswordResetDone = "user.password_reset"
	UserDeleted       = "user.deleted"
	GuestCartMerged   = "cart.guest_merged"
)

// Publisher emits events; implementations must be safe for concurrent use
type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

// UserEvent is the payload of the user.* subjects
type UserEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CartMergedEvent is the payload of cart.guest_merged
type CartMergedEvent struct {
	UserID     string    `json:"user_id"`
	CartID     string    `json:"cart_id"`
	Lines      int       `json:"lines"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NATSPublisher publishes JSON payloads on a NATS connection
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("booknet-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	logrus.WithFields(logrus.Fields{"subject": subject}).Debug("publishing event")
	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// NopPublisher discards events; used when NATS_URL is empty
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }

// New returns a NATS publisher for url, or a NopPublisher when url is empty
func New(url string) (Publisher, error) {
	if url == "" {
		return NopPublisher{}, nil
	}
	return NewNATSPublisher(url)
}

// PublishBestEffort publishes and logs failures without returning them
func PublishBestEffort(ctx context.Context, p Publisher, subject string, data any) {
	if err := p.Publish(ctx, subject, data); err != nil {
		logrus.WithError(err).WithField("subject", subject).Warn("event publish failed")
	}
}
