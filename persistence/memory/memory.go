// Package memory is the in-memory reference Persistence backend:
// spec.md §6's "fixed binary codec, concurrent map keyed first by kind
// name then by id bytes."
package memory

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/catalyst-oss/vactor"
	"github.com/catalyst-oss/vactor/persistence"
)

// ErrEncode and ErrDecode wrap gob failures on the way in and out of the
// store, matching spec.md §6's "serialization failures are reported as
// typed errors."
var (
	ErrEncode = errors.New("memory: failed to encode")
	ErrDecode = errors.New("memory: failed to decode")
)

// Store is a concurrent, gob-backed Persistence implementation keyed by
// (ActorKind, ID). It is safe for use by many actors of many kinds
// sharing one Store instance.
type Store[ID comparable, State any] struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// New returns an empty Store.
func New[ID comparable, State any]() *Store[ID, State] {
	return &Store[ID, State]{entries: make(map[string][]byte)}
}

func (s *Store[ID, State]) key(kind vactor.ActorKind, id ID) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(id); err != nil {
		return "", fmt.Errorf("%w: id: %v", ErrEncode, err)
	}
	return string(kind) + "\x00" + buf.String(), nil
}

// Load implements persistence.Persistence.
func (s *Store[ID, State]) Load(
	_ context.Context, kind vactor.ActorKind, id ID,
) (fn.Option[State], error) {

	var none fn.Option[State]

	key, err := s.key(kind, id)
	if err != nil {
		return none, err
	}

	s.mu.RLock()
	raw, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return none, nil
	}

	var state State
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return none, fmt.Errorf("%w: state: %v", ErrDecode, err)
	}

	return fn.Some(state), nil
}

// Save implements persistence.Persistence.
func (s *Store[ID, State]) Save(
	_ context.Context, kind vactor.ActorKind, id ID, state State,
) error {

	key, err := s.key(kind, id)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return fmt.Errorf("%w: state: %v", ErrEncode, err)
	}

	s.mu.Lock()
	s.entries[key] = buf.Bytes()
	s.mu.Unlock()

	return nil
}

// Clear implements persistence.Persistence.
func (s *Store[ID, State]) Clear(_ context.Context, kind vactor.ActorKind, id ID) error {
	key, err := s.key(kind, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	return nil
}

var _ persistence.Persistence[int, struct{}] = (*Store[int, struct{}])(nil)
