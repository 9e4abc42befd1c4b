package vactor

import (
	"context"
	"sync"
	"time"
	"weak"
)

// Runtime is the façade (C12): it constructs executors, owns the
// registry's single housekeeping executor, and orchestrates whole-system
// shutdown. Registration and spawn operations are free generic functions
// below rather than generic methods, since Go methods cannot carry type
// parameters beyond their receiver's — the idiomatic-Go shape of spec.md
// §4.9's `register_actor::<A>(executor)` / `spawn_local::<A>(executor)`.
type Runtime struct {
	mu sync.Mutex

	prefs            RuntimePreferences
	housekeepingExec ExecutorHandle
	registry         *ActorRegistry
	executors        []*executor
}

// New constructs a Runtime with DefaultRuntimePreferences.
func New() *Runtime {
	return WithPreferences(DefaultRuntimePreferences())
}

// WithPreferences constructs a Runtime with explicit preferences,
// immediately starting its internal housekeeping executor (I/O off,
// timers on in spirit — in this goroutine-based redesign that distinction
// no longer applies, see executor.go).
func WithPreferences(prefs RuntimePreferences) *Runtime {
	housekeepingExec := ExecutorHandle{
		ex: newExecutor(ExecutorPreferences{Name: "housekeeping"}),
	}

	rt := &Runtime{
		prefs:            prefs,
		housekeepingExec: housekeepingExec,
		registry:         newActorRegistry(housekeepingExec, prefs),
	}
	rt.executors = append(rt.executors, housekeepingExec.ex)

	return rt
}

// CreateExecutor builds and owns a new user executor, returning a clonable
// ExecutorHandle to it.
func (rt *Runtime) CreateExecutor(prefs ExecutorPreferences) ExecutorHandle {
	ex := newExecutor(prefs)

	rt.mu.Lock()
	rt.executors = append(rt.executors, ex)
	rt.mu.Unlock()

	return ExecutorHandle{ex: ex}
}

// RegisterActor registers a virtual actor kind bound to executor for its
// actor tasks (the registry's own internal executor always runs its
// Housekeeper). Returns the Activator so callers needing direct cache
// introspection (tests, the bench CLI) can hold onto it, though ordinary
// use only needs SpawnVirtual afterward.
func RegisterActor[ID ActorID, M Message, R any](
	rt *Runtime, kind ActorKind, exec ExecutorHandle,
	mailboxPrefs MailboxPreferences, factory VirtualFactory[ID, M, R],
) *Activator[ID, M, R] {

	return registerActivator[ID, M, R](rt.registry, kind, exec, mailboxPrefs, factory)
}

// SpawnLocal spawns a local actor on exec and returns its address
// immediately; the actor itself starts asynchronously (use
// LocalAddress.WaitForReady to block on readiness).
func SpawnLocal[M Message, R any](
	exec ExecutorHandle, mailboxPrefs MailboxPreferences, factory LocalFactory[M, R],
) (*LocalAddress[M, R], error) {

	return spawnLocalOn[M, R](exec, mailboxPrefs, factory)
}

// SpawnVirtual returns a VirtualAddress for (kind, id) without triggering
// activation — activation happens lazily on the address's first
// Send/Dispatch, per spec.md §4.7.
func SpawnVirtual[ID ActorID, M Message, R any](
	rt *Runtime, kind ActorKind, id ID,
) (VirtualAddress[ID, M, R], error) {

	act, err := getActivator[ID, M, R](rt.registry, kind)
	if err != nil {
		return VirtualAddress[ID, M, R]{}, err
	}

	return VirtualAddress[ID, M, R]{id: id, activator: weak.Make(act)}, nil
}

// GracefulShutdown shuts down every owned executor and the registry
// (which in turn shuts down every kind's housekeeper and cached actors),
// in declaration order, returning the first error encountered while still
// attempting every component.
func (rt *Runtime) GracefulShutdown(ctx context.Context, timeout time.Duration) error {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	note(rt.registry.gracefulShutdown(ctx, timeout))

	rt.mu.Lock()
	executors := append([]*executor(nil), rt.executors...)
	rt.mu.Unlock()

	for _, ex := range executors {
		note(ex.gracefulShutdown(ctx, timeout))
	}

	return firstErr
}
