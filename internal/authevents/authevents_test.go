package authevents

import (
	"context"
	"testing"
	"time"

	"github.com/nfrund/yauth/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishesAuthenticated(t *testing.T) {
	bus := pubsub.NewWatermillBridge(nil)
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Authenticated, 1)
	require.NoError(t, pubsub.Subscribe(ctx, bus, TopicAuthenticated, func(ctx context.Context, key string, e Authenticated) error {
		assert.Equal(t, "w1", key)
		got <- e
		return nil
	}))

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := NewNotifier(bus, nil)
	n.now = func() time.Time { return fixed }
	n.Authenticated(ctx, "w1", "a@b.com")

	select {
	case e := <-got:
		assert.Equal(t, Authenticated{WidgetID: "w1", Email: "a@b.com", At: fixed}, e)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
