package widget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/yauth/internal/authflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	tr := authflow.TransportFunc(func(ctx context.Context, op string, params map[string]string) (*authflow.Payload, error) {
		return &authflow.Payload{Message: "ok"}, nil
	})
	opts = append([]Option{WithSweepInterval(0)}, opts...)
	s := NewStore(func(id string) *authflow.Coordinator {
		return authflow.NewCoordinator(tr)
	}, opts...)
	t.Cleanup(s.Shutdown)
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	id, coord := s.Create()
	require.NotEmpty(t, id)

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, coord, got)
	assert.Equal(t, 1, s.Len())

	_, ok = s.Get("missing")
	assert.False(t, ok)
	_, ok = s.Get("")
	assert.False(t, ok)
}

func TestStore_GetOrCreate(t *testing.T) {
	s := newTestStore(t)
	id, coord := s.Create()

	sameID, same := s.GetOrCreate(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, coord, same)

	newID, fresh := s.GetOrCreate("expired")
	assert.NotEqual(t, "expired", newID)
	assert.NotSame(t, coord, fresh)
	assert.Equal(t, authflow.FlowLogin, fresh.Flow())
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.Create()
	s.Remove(id)
	_, ok := s.Get(id)
	assert.False(t, ok)
	s.Remove(id)
}

func TestStore_SweepEvictsIdle(t *testing.T) {
	s := newTestStore(t, WithIdleTTL(time.Minute))
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	idle, _ := s.Create()
	busy, _ := s.Create()

	advance(45 * time.Second)
	_, ok := s.Get(busy)
	require.True(t, ok)
	advance(30 * time.Second)

	assert.Equal(t, 1, s.Sweep())
	_, ok = s.Get(idle)
	assert.False(t, ok)
	_, ok = s.Get(busy)
	assert.True(t, ok)
}

func TestStore_MaxWidgetsEvictsLeastRecentlyUsed(t *testing.T) {
	s := newTestStore(t, WithMaxWidgets(2))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	first, firstCoord := s.Create()
	second, _ := s.Create()
	_, ok := s.Get(first)
	require.True(t, ok)

	third, _ := s.Create()
	assert.Equal(t, 2, s.Len())
	_, ok = s.Get(second)
	assert.False(t, ok, "least recently used widget is evicted")
	_, ok = s.Get(first)
	assert.True(t, ok)
	_, ok = s.Get(third)
	assert.True(t, ok)
	assert.Equal(t, authflow.FlowLogin, firstCoord.Flow())
}
