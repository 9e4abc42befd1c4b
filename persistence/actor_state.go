package persistence

import (
	"context"
	"fmt"

	"github.com/catalyst-oss/vactor"
)

// ActorState is the runtime-supplied handle spec.md §6 describes: it wraps
// (id, persistence, state) and exposes Save/Clear. Unlike the original
// Rust implementation's ActorState::load, which reads from persistence
// eagerly inside the factory, Load here is deferred to EnsureLoaded's
// first call so a virtual actor's BeforeMessageHook can drive it on the
// actor's first message rather than on every activation regardless of
// whether it ever receives one.
//
// An ActorState is only ever touched from the virtual actor loop that owns
// it (Receive and the Before/AfterMessage hooks all run on that actor's
// own goroutine, never concurrently), so it carries no lock of its own.
type ActorState[ID comparable, State any] struct {
	kind   vactor.ActorKind
	id     ID
	store  Persistence[ID, State]
	state  State
	loaded bool
}

// NewActorState returns a handle over store for (kind, id), unloaded.
func NewActorState[ID comparable, State any](
	store Persistence[ID, State], kind vactor.ActorKind, id ID,
) *ActorState[ID, State] {
	return &ActorState[ID, State]{kind: kind, id: id, store: store}
}

// EnsureLoaded reads the persisted state on its first call and is a no-op
// on every later call. An id with nothing ever saved leaves State at its
// zero value.
func (s *ActorState[ID, State]) EnsureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	opt, err := s.store.Load(ctx, s.kind, s.id)
	if err != nil {
		return fmt.Errorf("actor state: loading %s/%v: %w", s.kind, s.id, err)
	}
	if opt.IsSome() {
		s.state = opt.UnwrapOr(s.state)
	}
	s.loaded = true

	return nil
}

// Get returns the current in-memory state.
func (s *ActorState[ID, State]) Get() State { return s.state }

// Set replaces the in-memory state without persisting it; call Save to
// flush.
func (s *ActorState[ID, State]) Set(state State) { s.state = state }

// Save flushes the current in-memory state through the persistence
// collaborator.
func (s *ActorState[ID, State]) Save(ctx context.Context) error {
	return s.store.Save(ctx, s.kind, s.id, s.state)
}

// Clear deletes the persisted state and resets the in-memory copy to its
// zero value.
func (s *ActorState[ID, State]) Clear(ctx context.Context) error {
	var zero State
	s.state = zero
	return s.store.Clear(ctx, s.kind, s.id)
}
