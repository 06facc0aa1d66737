package kvstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// faultBackend fails every operation once armed.
type faultBackend struct {
	inner  Backend
	broken bool
}

var errBroken = errors.New("backend broken")

func (f *faultBackend) Load(key string) ([]byte, error) {
	if f.broken {
		return nil, errBroken
	}
	return f.inner.Load(key)
}

func (f *faultBackend) Save(key string, value []byte) error {
	if f.broken {
		return errBroken
	}
	return f.inner.Save(key, value)
}

func (f *faultBackend) Delete(key string) error {
	if f.broken {
		return errBroken
	}
	return f.inner.Delete(key)
}

func (f *faultBackend) Keys(prefix string) ([]string, error) {
	if f.broken {
		return nil, errBroken
	}
	return f.inner.Keys(prefix)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := New(NewMemoryBackend(), nil)
	s.Set("k", payload{Name: "eclair", Count: 3})

	got, ok := Get[payload](s, "k")
	require.True(t, ok)
	assert.Equal(t, payload{Name: "eclair", Count: 3}, got)
}

func TestStore_MissingKey(t *testing.T) {
	t.Parallel()

	s := New(NewMemoryBackend(), nil)
	got, ok := Get[payload](s, "absent")
	assert.False(t, ok)
	assert.Zero(t, got)
	assert.NoError(t, s.LastError(), "a missing key is not a failure")
}

// wrappedMissBackend reports missing keys through a wrapped sentinel, the way
// a db-backed implementation annotates its errors.
type wrappedMissBackend struct {
	Backend
}

func (w wrappedMissBackend) Load(key string) ([]byte, error) {
	return nil, fmt.Errorf("row lookup %q: %w", key, ErrNotFound)
}

func TestStore_WrappedNotFoundIsAMiss(t *testing.T) {
	t.Parallel()

	s := New(wrappedMissBackend{Backend: NewMemoryBackend()}, nil)

	got, ok := Get[payload](s, "k")
	assert.False(t, ok)
	assert.Zero(t, got)
	assert.NoError(t, s.LastError(), "a wrapped not-found is still not a failure")
}

func TestStore_Keys(t *testing.T) {
	t.Parallel()

	s := New(NewMemoryBackend(), nil)
	s.Set("cart:guest:a", payload{})
	s.Set("cart:user:alice", payload{})
	s.Set("catalog:products", payload{})

	assert.Equal(t, []string{"cart:guest:a", "cart:user:alice"}, s.Keys("cart:"))
	assert.Empty(t, s.Keys("orders:"))
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	s := New(NewMemoryBackend(), nil)
	s.Set("k", payload{Name: "x"})
	s.Remove("k")

	_, ok := Get[payload](s, "k")
	assert.False(t, ok)

	// removing an absent key is a no-op
	s.Remove("k")
	assert.NoError(t, s.LastError())
}

func TestStore_EnvelopeWritten(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	s := New(backend, nil)
	s.Set("k", payload{Name: "x"})

	raw, err := backend.Load("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"data":{"name":"x","count":0}}`, string(raw))
}

func TestStore_ReadsLegacyUnversionedPayload(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	require.NoError(t, backend.Save("k", []byte(`{"name":"old","count":7}`)))

	s := New(backend, nil)
	got, ok := Get[payload](s, "k")
	require.True(t, ok)
	assert.Equal(t, payload{Name: "old", Count: 7}, got)
}

func TestStore_SwallowsBackendFailures(t *testing.T) {
	t.Parallel()

	fb := &faultBackend{inner: NewMemoryBackend()}
	s := New(fb, nil)
	s.Set("k", payload{Name: "x"})

	fb.broken = true

	// writes silently fail
	s.Set("k", payload{Name: "y"})
	require.Error(t, s.LastError())
	var se *StoreError
	require.ErrorAs(t, s.LastError(), &se)
	assert.Equal(t, "set", se.Op)
	assert.Equal(t, "k", se.Key)

	// reads degrade to null results
	got, ok := Get[payload](s, "k")
	assert.False(t, ok)
	assert.Zero(t, got)

	// removes degrade to no-ops
	s.Remove("k")

	fb.broken = false
	got, ok = Get[payload](s, "k")
	require.True(t, ok)
	assert.Equal(t, "x", got.Name, "the pre-failure value survived the broken writes")
}

func TestStore_UndecodablePayload(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	require.NoError(t, backend.Save("k", []byte(`not json`)))

	s := New(backend, nil)
	_, ok := Get[payload](s, "k")
	assert.False(t, ok)
	assert.Error(t, s.LastError())
}

func TestNotifier_PublishesChanges(t *testing.T) {
	t.Parallel()

	s := New(NewMemoryBackend(), nil)
	ch, cancel := s.Notifier().Subscribe()
	defer cancel()

	s.Set("a", 1)
	s.Remove("a")

	got := <-ch
	assert.Equal(t, Change{Key: "a", Op: OpSet}, got)
	got = <-ch
	assert.Equal(t, Change{Key: "a", Op: OpRemove}, got)
}

func TestNotifier_FailedWriteDoesNotNotify(t *testing.T) {
	t.Parallel()

	fb := &faultBackend{inner: NewMemoryBackend(), broken: true}
	s := New(fb, nil)

	ch, cancel := s.Notifier().Subscribe()
	defer cancel()

	s.Set("a", 1)
	select {
	case c := <-ch:
		t.Fatalf("unexpected change %+v for a failed write", c)
	default:
	}
}

func TestNotifier_CancelClosesChannel(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	ch, cancel := n.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// cancelling twice is safe
	cancel()
}

func TestNotifier_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	_, cancel := n.Subscribe()
	defer cancel()

	// more events than the channel buffers; publish must not block
	for i := 0; i < 100; i++ {
		n.publish(Change{Key: "k", Op: OpSet})
	}
}
