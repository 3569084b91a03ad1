// Package authevents carries "someone just logged in" notifications from the
// auth widget to whoever in the application cares about them.
package authevents

import (
	"context"
	"log/slog"
	"time"

	"github.com/nfrund/yauth/internal/pubsub"
)

// Authenticated is published after a login submission succeeds.
type Authenticated struct {
	WidgetID string    `json:"widgetId"`
	Email    string    `json:"email"`
	At       time.Time `json:"at"`
}

// TopicAuthenticated is the bus topic for Authenticated events.
var TopicAuthenticated = pubsub.NewEvent[Authenticated](
	"auth.authenticated",
	"A widget completed a successful login",
)

// Notifier publishes Authenticated events.
type Notifier struct {
	pub    pubsub.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewNotifier creates a Notifier on top of pub.
func NewNotifier(pub pubsub.Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, logger: logger, now: time.Now}
}

// Authenticated publishes the event. Publishing failures are logged and
// otherwise ignored; the user is already logged in.
func (n *Notifier) Authenticated(ctx context.Context, widgetID, email string) {
	event := Authenticated{WidgetID: widgetID, Email: email, At: n.now().UTC()}
	if err := pubsub.Publish(ctx, n.pub, TopicAuthenticated, widgetID, event); err != nil {
		n.logger.Error("Failed to publish authenticated event", "widget_id", widgetID, "error", err)
	}
}

// LogAuthenticated subscribes a handler that writes every Authenticated event
// to logger.
func LogAuthenticated(ctx context.Context, sub pubsub.Subscriber, logger *slog.Logger) error {
	return pubsub.Subscribe(ctx, sub, TopicAuthenticated, func(ctx context.Context, key string, e Authenticated) error {
		logger.Info("User authenticated", "widget_id", key, "email", e.Email, "at", e.At)
		return nil
	})
}
