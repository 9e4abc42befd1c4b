package vactor

import (
	"context"
	"runtime"
	"time"
	"weak"
)

// LocalAddress is a strong reference to a local actor's handle. Go has no
// destructor to hook the "dropping the last strong reference cancels the
// mailbox" invariant spec.md §3 describes, so Close is the explicit
// stand-in callers are expected to use; a best-effort runtime.SetFinalizer
// also fires mailbox cancellation if a LocalAddress is only ever garbage
// collected, so an abandoned address does not leak its actor's goroutine
// forever even if the caller never calls Close.
type LocalAddress[M Message, R any] struct {
	handle *ActorHandle[M, R]
}

func newLocalAddress[M Message, R any](handle *ActorHandle[M, R]) *LocalAddress[M, R] {
	addr := &LocalAddress[M, R]{handle: handle}
	runtime.SetFinalizer(addr, func(a *LocalAddress[M, R]) {
		a.handle.mailboxCancel()
	})
	return addr
}

// Send delegates to the handle.
func (a *LocalAddress[M, R]) Send(ctx context.Context, msg M) (R, error) {
	return a.handle.Send(ctx, msg)
}

// Dispatch delegates to the handle.
func (a *LocalAddress[M, R]) Dispatch(ctx context.Context, msg M) error {
	return a.handle.Dispatch(ctx, msg)
}

// WeakRef returns a weak address that upgrades only while this actor is
// alive and not cancelled.
func (a *LocalAddress[M, R]) WeakRef() WeakLocalAddress[M, R] {
	return WeakLocalAddress[M, R]{handle: a.handle}
}

// GracefulShutdown delegates to the handle and disarms the finalizer,
// since the caller is now explicitly managing the actor's lifetime.
func (a *LocalAddress[M, R]) GracefulShutdown(ctx context.Context, timeout time.Duration) error {
	runtime.SetFinalizer(a, nil)
	return a.handle.GracefulShutdown(ctx, timeout)
}

// Close fires mailbox cancellation without waiting for the actor to
// finish draining, the explicit analogue of dropping the last strong
// reference.
func (a *LocalAddress[M, R]) Close() {
	runtime.SetFinalizer(a, nil)
	a.handle.mailboxCancel()
}

// WaitForReady delegates to the handle.
func (a *LocalAddress[M, R]) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return a.handle.WaitForReady(ctx, timeout)
}

// WeakLocalAddress upgrades to a LocalAddress only while the target handle
// is not cancelled. It never keeps the actor alive on its own: the handle
// it stores is kept reachable by the running actor task itself (the
// teacher's goroutine-holds-its-own-struct pattern), not by this type, so
// liveness here is governed entirely by the cancellation check rather than
// Go reachability.
type WeakLocalAddress[M Message, R any] struct {
	handle *ActorHandle[M, R]
}

// Upgrade returns a strong LocalAddress if the target handle still exists
// and has not been cancelled, matching spec.md §3's upgrade contract plus
// §9's cyclic-weak-reference note (a cancelled-but-not-yet-stopped actor
// must not accept new upgrades even though its goroutine may still be
// draining).
func (w WeakLocalAddress[M, R]) Upgrade() (*LocalAddress[M, R], bool) {
	if w.handle == nil || w.handle.mailboxCtx.Err() != nil {
		return nil, false
	}
	return &LocalAddress[M, R]{handle: w.handle}, true
}

// VirtualAddress holds an actor identity plus a weak reference to the
// Activator that owns its cache. Using Go's weak.Pointer (added in Go
// 1.24) here is a direct, idiomatic substitute for the spec's "weak ref to
// Activator": holding a VirtualAddress must never keep a whole runtime's
// registry/activator tree alive once the runtime itself has been
// discarded, which is exactly what weak.Pointer guarantees and a plain
// pointer would not.
type VirtualAddress[ID ActorID, M Message, R any] struct {
	id        ID
	activator weak.Pointer[Activator[ID, M, R]]
}

// Send resolves through the activator (potentially activating the actor)
// and delegates to the resulting handle.
func (a VirtualAddress[ID, M, R]) Send(ctx context.Context, msg M) (R, error) {
	var zero R

	act := a.activator.Value()
	if act == nil {
		return zero, ErrActivatorStopped
	}

	handle, err := act.getOrSpawn(ctx, a.id)
	if err != nil {
		return zero, err
	}

	return handle.Send(ctx, msg)
}

// Dispatch resolves through the activator and delegates to the resulting
// handle, fire-and-forget.
func (a VirtualAddress[ID, M, R]) Dispatch(ctx context.Context, msg M) error {
	act := a.activator.Value()
	if act == nil {
		return ErrActivatorStopped
	}

	handle, err := act.getOrSpawn(ctx, a.id)
	if err != nil {
		return err
	}

	return handle.Dispatch(ctx, msg)
}

// ID returns the actor identity this address targets.
func (a VirtualAddress[ID, M, R]) ID() ID { return a.id }

// WeakRef returns a weak address carrying the same identity and weak
// activator reference.
func (a VirtualAddress[ID, M, R]) WeakRef() WeakVirtualAddress[ID, M, R] {
	return WeakVirtualAddress[ID, M, R]{id: a.id, activator: a.activator}
}

// WeakVirtualAddress is the weak counterpart of VirtualAddress. Holding
// one never prevents idle-timeout garbage collection of the underlying
// actor instance, nor does it keep the Activator itself alive.
type WeakVirtualAddress[ID ActorID, M Message, R any] struct {
	id        ID
	activator weak.Pointer[Activator[ID, M, R]]
}

// Upgrade returns a strong VirtualAddress if the owning Activator is still
// alive.
func (w WeakVirtualAddress[ID, M, R]) Upgrade() (VirtualAddress[ID, M, R], bool) {
	if w.activator.Value() == nil {
		return VirtualAddress[ID, M, R]{}, false
	}
	return VirtualAddress[ID, M, R]{id: w.id, activator: w.activator}, true
}
