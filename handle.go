package vactor

import (
	"context"
	"sync/atomic"
	"time"
)

// ActorHandle is the per-actor control block shared by address holders,
// the executor that installs its dispatcher and task, and (for virtual
// actors) the owning Activator's cache and Housekeeper. Its invariants are
// spec.md §3's: exactly one dispatcher and one task are ever installed
// (second install is an error), two independently-firable but
// hierarchically related cancellation tokens, two once-only lifecycle
// notifications, and two monotonic counters with processed ≤ dispatched
// at every observation.
//
// Grounded on the teacher's Actor[M,R] struct (actor.go): the
// startOnce/stopOnce-guarded lifecycle and single context/cancel pair are
// generalized here into the richer two-token/two-notification/two-counter
// model spec.md requires, since the teacher has no separate
// started-vs-installed distinction or execution-vs-mailbox cancellation
// split (it only ever fully stops an actor, never drains-then-escalates).
type ActorHandle[M Message, R any] struct {
	id string

	execCtx    context.Context
	execCancel context.CancelFunc

	mailboxCtx    context.Context
	mailboxCancel context.CancelFunc

	dispatcherSet atomic.Bool
	dispatcher    atomic.Pointer[Dispatcher[M, R]]

	taskSet atomic.Bool
	taskErr atomic.Pointer[error]

	started *onceNotify
	stopped *onceNotify

	dispatched atomic.Int64
	processed  atomic.Int64
}

// newActorHandle builds a handle whose execution token is a child of
// parentExecCtx and whose mailbox token fires on either a direct
// GracefulShutdown call, the handle's own execution cancellation, or
// parentMailboxCtx firing — i.e. the owning Executor's mailbox-cancel
// phase. See waiter.go's mergeContexts for why the mailbox token needs a
// merge rather than plain context derivation.
func newActorHandle[M Message, R any](
	id string, parentExecCtx, parentMailboxCtx context.Context,
) *ActorHandle[M, R] {

	execCtx, execCancel := context.WithCancel(parentExecCtx)
	mailboxCtx, mailboxCancel := mergeContexts(execCtx, parentMailboxCtx)

	return &ActorHandle[M, R]{
		id:            id,
		execCtx:       execCtx,
		execCancel:    execCancel,
		mailboxCtx:    mailboxCtx,
		mailboxCancel: mailboxCancel,
		started:       newOnceNotify(),
		stopped:       newOnceNotify(),
	}
}

// ID returns the actor's identifier as rendered by the spawner (an
// ActorId's string form for virtual actors, a synthetic name for local
// actors).
func (h *ActorHandle[M, R]) ID() string { return h.id }

// installDispatcher installs the dispatcher exactly once. A second call
// returns ErrDispatcherAlreadySet, the "idempotent-fail" invariant spec.md
// §3 requires.
func (h *ActorHandle[M, R]) installDispatcher(d *Dispatcher[M, R]) error {
	if !h.dispatcherSet.CompareAndSwap(false, true) {
		return ErrDispatcherAlreadySet
	}
	h.dispatcher.Store(d)
	return nil
}

// installTask marks the handle's task slot as occupied exactly once. A
// second call returns ErrTaskAlreadySet.
func (h *ActorHandle[M, R]) installTask() error {
	if !h.taskSet.CompareAndSwap(false, true) {
		return ErrTaskAlreadySet
	}
	return nil
}

// reportTaskError records the actor loop's terminal error (if any) before
// firing the stopped notification. A nil err simply means the loop ended
// cleanly (mailbox drained after cancellation).
func (h *ActorHandle[M, R]) reportTaskError(err error) {
	if err == nil {
		return
	}
	h.taskErr.Store(&err)
}

// ExtractTaskError takes the task-join slot, returning the actor task's
// terminal error if one was recorded, or nil otherwise. It is
// take-once: a second call after extraction returns nil even if an error
// was previously recorded, matching "takes the task-join slot" in
// spec.md §4.3.
func (h *ActorHandle[M, R]) ExtractTaskError() error {
	p := h.taskErr.Swap(nil)
	if p == nil {
		return nil
	}
	return *p
}

// fireStarted fires the started notification. Called by the actor loop
// once its factory and context have been built and it is about to enter
// its receive loop — by this point the dispatcher has already been
// installed by the executor's spawner loop, so "started" truthfully means
// "ready to receive and about to process."
func (h *ActorHandle[M, R]) fireStarted() { h.started.Fire() }

// fireStopped fires the stopped notification. Called by the actor loop's
// deferred cleanup once it has returned from its receive loop, regardless
// of how it exited (clean drain, cancellation, or recovered panic).
func (h *ActorHandle[M, R]) fireStopped() { h.stopped.Fire() }

// Send implements the address-level send contract: ErrActorNotReady if no
// dispatcher has been installed yet, ErrStopped if mailbox cancellation
// has already fired, otherwise races the dispatcher's Send against
// mailbox cancellation.
func (h *ActorHandle[M, R]) Send(ctx context.Context, msg M) (R, error) {
	var zero R

	if !h.dispatcherSet.Load() {
		return zero, ErrActorNotReady
	}
	if h.mailboxCtx.Err() != nil {
		return zero, ErrStopped
	}

	d := h.dispatcher.Load()

	type outcome struct {
		val R
		err error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		val, err := d.Send(ctx, msg)
		resultCh <- outcome{val, err}
	}()

	select {
	case r := <-resultCh:
		return r.val, r.err

	case <-h.mailboxCtx.Done():
		return zero, ErrStopped
	}
}

// Dispatch implements the address-level fire-and-forget contract: the
// same preconditions as Send, but a synchronous enqueue with no result.
func (h *ActorHandle[M, R]) Dispatch(ctx context.Context, msg M) error {
	if !h.dispatcherSet.Load() {
		return ErrActorNotReady
	}
	if h.mailboxCtx.Err() != nil {
		return ErrStopped
	}

	return h.dispatcher.Load().Dispatch(ctx, msg)
}

// WaitForReady waits until the started notification fires, the stopped
// notification fires (an early failure — the task ended before it ever
// started), the handle's mailbox is cancelled, the deadline elapses, or
// ctx is cancelled, whichever happens first. An early-stopped observation
// pulls and returns the recorded task error, which is how factory errors
// and early panics are reported to a caller that never got to send a
// message (spec.md §4.3).
func (h *ActorHandle[M, R]) WaitForReady(
	ctx context.Context, timeout time.Duration,
) error {

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case <-h.started.Done():
		return nil

	case <-h.stopped.Done():
		if err := h.ExtractTaskError(); err != nil {
			return err
		}
		return ErrActorTerminated

	case <-h.mailboxCtx.Done():
		return ErrStopped

	case <-ctx.Done():
		return ctx.Err()

	case <-deadline.C:
		return &WaitError{Kind: WaitTimeout, Name: "ready:" + h.id}
	}
}

// GracefulShutdown implements the two-phase shutdown spec.md §4.3
// describes: fire mailbox cancellation and wait up to t for the stopped
// notification; if that times out, escalate by firing execution
// cancellation (aborting an in-flight handler at its next suspension
// point) and wait up to t again. It only reports ErrTimeout-shaped
// failure if the second wait also times out.
func (h *ActorHandle[M, R]) GracefulShutdown(
	ctx context.Context, timeout time.Duration,
) error {

	h.mailboxCancel()

	err := waitFor(ctx, timeout, h.stopped.Done(), "shutdown:"+h.id)
	if err == nil {
		return nil
	}

	h.execCancel()

	return waitFor(ctx, timeout, h.stopped.Done(), "shutdown:"+h.id)
}

// IsFinished reports whether the actor task has fully exited.
func (h *ActorHandle[M, R]) IsFinished() bool { return h.stopped.IsFired() }

// IsCancelled reports whether mailbox cancellation has fired, regardless
// of whether the task has fully drained and exited yet.
func (h *ActorHandle[M, R]) IsCancelled() bool { return h.mailboxCtx.Err() != nil }

// Dispatched returns the current dispatched counter.
func (h *ActorHandle[M, R]) Dispatched() int64 { return h.dispatched.Load() }

// Processed returns the current processed counter. Invariant:
// Processed() <= Dispatched() at every observation.
func (h *ActorHandle[M, R]) Processed() int64 { return h.processed.Load() }
