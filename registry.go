package vactor

import (
	"context"
	"sync"
	"time"
)

// RuntimePreferences carries the runtime-wide timeouts spec.md §5 lists.
// All fields are durations; the zero value is not meaningful, use
// DefaultRuntimePreferences.
type RuntimePreferences struct {
	// GarbageCollectInterval is how often a Housekeeper rescans its cache.
	GarbageCollectInterval time.Duration

	// ActorIdleTimeout is how long an actor's counters must be unchanged
	// before it is considered idle.
	ActorIdleTimeout time.Duration

	// ActorActivationTimeout bounds how long get_or_spawn waits for a
	// freshly spawned virtual actor to become ready.
	ActorActivationTimeout time.Duration

	// ActorShutdownInterval is the per-phase timeout graceful_shutdown
	// uses when the housekeeper or registry retires an actor.
	ActorShutdownInterval time.Duration
}

// DefaultRuntimePreferences returns the defaults spec.md §5 names: 10s GC
// interval, 1s idle timeout, 1s activation timeout, 1s shutdown interval.
func DefaultRuntimePreferences() RuntimePreferences {
	return RuntimePreferences{
		GarbageCollectInterval: 10 * time.Second,
		ActorIdleTimeout:       time.Second,
		ActorActivationTimeout: time.Second,
		ActorShutdownInterval:  time.Second,
	}
}

// activatorShutdowner lets ActorRegistry drive every registered
// Activator's shutdown without itself being generic over ID/M/R — the
// type-erased-storage pattern spec.md §9 describes, realized here as an
// interface satisfied by every instantiation of Activator[ID,M,R] rather
// than a runtime downcast on every call.
type activatorShutdowner interface {
	shutdownAll(ctx context.Context, timeout time.Duration) error
}

// ActorRegistry is ActorRegistry (C9): a concurrent map from ActorKind to
// a type-erased Activator, plus the single internal housekeeping executor
// every registered kind's Housekeeper runs on.
//
// Grounded on system.go's service-key map (`services map[ServiceKey]any`)
// generalized from service lookup to per-kind activator ownership.
type ActorRegistry struct {
	mu         sync.RWMutex
	activators map[ActorKind]any

	housekeepingExec ExecutorHandle
	prefs            RuntimePreferences
}

func newActorRegistry(housekeepingExec ExecutorHandle, prefs RuntimePreferences) *ActorRegistry {
	return &ActorRegistry{
		activators:       make(map[ActorKind]any),
		housekeepingExec: housekeepingExec,
		prefs:            prefs,
	}
}

// registerActivator constructs and stores a fresh Activator[ID,M,R] under
// kind. A second registration under the same kind replaces the first —
// callers are expected to register each kind once at startup, matching
// spec.md §5's "written only by register_actor, typically at startup."
func registerActivator[ID ActorID, M Message, R any](
	reg *ActorRegistry, kind ActorKind, exec ExecutorHandle,
	mailboxPrefs MailboxPreferences, factory VirtualFactory[ID, M, R],
) *Activator[ID, M, R] {

	act := newActivator[ID, M, R](
		kind, exec, reg.housekeepingExec, mailboxPrefs, reg.prefs, factory,
	)

	reg.mu.Lock()
	reg.activators[kind] = act
	reg.mu.Unlock()

	return act
}

// getActivator looks up the Activator registered under kind, downcasting
// to the caller's concrete ID/M/R. A missing kind is ErrUnknownActorKind; a
// kind registered under a different concrete type is
// ErrActorKindMismatch, spec.md §9's type-erased-storage downcast failure.
func getActivator[ID ActorID, M Message, R any](
	reg *ActorRegistry, kind ActorKind,
) (*Activator[ID, M, R], error) {

	reg.mu.RLock()
	v, ok := reg.activators[kind]
	reg.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownActorKind
	}

	act, ok := v.(*Activator[ID, M, R])
	if !ok {
		return nil, ErrActorKindMismatch
	}

	return act, nil
}

// gracefulShutdown shuts down every registered kind's housekeeper and
// cached actors, returning the first error encountered while still
// attempting every kind (best-effort shutdown, per DESIGN.md's resolution
// of spec.md §9's second open question).
func (reg *ActorRegistry) gracefulShutdown(ctx context.Context, timeout time.Duration) error {
	reg.mu.RLock()
	activators := make([]any, 0, len(reg.activators))
	for _, act := range reg.activators {
		activators = append(activators, act)
	}
	reg.mu.RUnlock()

	var firstErr error
	for _, act := range activators {
		shutdowner, ok := act.(activatorShutdowner)
		if !ok {
			continue
		}
		if err := shutdowner.shutdownAll(ctx, timeout); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
