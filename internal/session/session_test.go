package session

import (
	"context"
	"testing"
	"time"

	"shophub/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogMap map[string]model.Product

func (c catalogMap) Find(id string) (model.Product, bool) {
	p, ok := c[id]
	return p, ok
}

// fakeClock is a controllable time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestManager(idle time.Duration) (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	catalog := catalogMap{"a": {ID: "a", Name: "A", Price: decimal.NewFromInt(10)}}
	m := NewManager(catalog, idle, zerolog.Nop())
	m.now = clock.Now
	return m, clock
}

func TestManager_CreateAndGet(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	s := m.Create()
	require.NotNil(t, s)
	assert.NotEqual(t, uuid.Nil, s.ID)
	require.NotNil(t, s.Cart)
	require.NotNil(t, s.Editor)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	_, ok = m.Get(uuid.New())
	assert.False(t, ok)
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	first := m.Create()
	second := m.Create()
	require.True(t, first.Cart.Add("a"))

	assert.Equal(t, 1, first.Cart.Count())
	assert.Equal(t, 0, second.Cart.Count())
}

func TestManager_Resolve(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	existing := m.Create()

	tests := []struct {
		name          string
		raw           string
		expectCreated bool
	}{
		{name: "Known session", raw: existing.ID.String(), expectCreated: false},
		{name: "Empty cookie", raw: "", expectCreated: true},
		{name: "Malformed cookie", raw: "not-a-uuid", expectCreated: true},
		{name: "Unknown session", raw: uuid.NewString(), expectCreated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, created := m.Resolve(tt.raw)

			require.NotNil(t, s)
			assert.Equal(t, tt.expectCreated, created)
			if !tt.expectCreated {
				assert.Same(t, existing, s)
			}
		})
	}
}

func TestManager_Sweep(t *testing.T) {
	m, clock := newTestManager(30 * time.Minute)

	stale := m.Create()
	clock.now = clock.now.Add(20 * time.Minute)
	fresh := m.Create()
	clock.now = clock.now.Add(15 * time.Minute)

	removed := m.Sweep(clock.now)

	assert.Equal(t, 1, removed)
	_, ok := m.Get(stale.ID)
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)
}

func TestManager_GetKeepsSessionAlive(t *testing.T) {
	m, clock := newTestManager(30 * time.Minute)
	s := m.Create()

	clock.now = clock.now.Add(25 * time.Minute)
	_, ok := m.Get(s.ID)
	require.True(t, ok)

	clock.now = clock.now.Add(25 * time.Minute)
	assert.Equal(t, 0, m.Sweep(clock.now))
	assert.Equal(t, 1, m.Len())
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestContext(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	s := m.Create()

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	got, ok := FromContext(NewContext(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
}
