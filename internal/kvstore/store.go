package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/velvetoven/pastry_shop/internal/logging"
)

const schemaVersion = 1

// StoreError records a failed backend or serialization operation. Callers of
// Store never see it directly; it is logged and kept for inspection.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("kvstore: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// envelope wraps every persisted value with a schema version so that a field
// change in a payload type does not silently corrupt older records.
type envelope struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

// Store is the facade the rest of the application talks to. Reads and writes
// never fail from the caller's point of view: a broken backend degrades to
// missing reads and dropped writes, which the shop UI tolerates. The last
// failure stays observable through LastError.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	log      *slog.Logger
	notifier *Notifier
	lastErr  *StoreError
}

func New(backend Backend, log *slog.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		backend:  backend,
		log:      log,
		notifier: NewNotifier(),
	}
}

// Notifier exposes the change feed for this store. Views subscribe to it to
// re-read state written by other actors, the way a browser tab watches
// storage events from its siblings.
func (s *Store) Notifier() *Notifier { return s.notifier }

// LastError reports the most recent swallowed failure, or nil.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr == nil {
		return nil
	}
	return s.lastErr
}

func (s *Store) fail(op, key string, err error) {
	se := &StoreError{Op: op, Key: key, Err: err}
	s.mu.Lock()
	s.lastErr = se
	s.mu.Unlock()
	s.log.Error("store operation failed", "op", op, "key", key, "error", err)
}

// Set persists v under key. Failures are swallowed.
func (s *Store) Set(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.fail("set", key, err)
		return
	}
	raw, err := json.Marshal(envelope{Version: schemaVersion, Data: data})
	if err != nil {
		s.fail("set", key, err)
		return
	}
	if err := s.backend.Save(key, raw); err != nil {
		s.fail("set", key, err)
		return
	}
	s.notifier.publish(Change{Key: key, Op: OpSet})
}

// Keys lists stored keys under prefix, sorted. Failures are swallowed into an
// empty list.
func (s *Store) Keys(prefix string) []string {
	keys, err := s.backend.Keys(prefix)
	if err != nil {
		s.fail("keys", prefix, err)
		return nil
	}
	return keys
}

// Remove deletes key. Failures are swallowed; removing an absent key is a
// no-op.
func (s *Store) Remove(key string) {
	if err := s.backend.Delete(key); err != nil {
		s.fail("remove", key, err)
		return
	}
	s.notifier.publish(Change{Key: key, Op: OpRemove})
}

// Get reads the value under key into T. The second result is false when the
// key is absent, the payload cannot be decoded, or the backend failed.
// Records written before the envelope was introduced are read as version 0
// payloads and decoded directly.
func Get[T any](s *Store, key string) (T, bool) {
	var zero T

	raw, err := s.backend.Load(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.fail("get", key, err)
		}
		return zero, false
	}

	data := legacyOrEnvelope(raw)

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.fail("get", key, err)
		return zero, false
	}
	return v, true
}

func legacyOrEnvelope(raw []byte) json.RawMessage {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Version >= 1 && len(env.Data) > 0 {
		return env.Data
	}
	// Version 0: the bare payload as persisted before versioning.
	return raw
}
