package vactor

import (
	"context"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Dispatcher is the typed send/dispatch front of a Mailbox. It builds the
// envelope, counts it against the owning ActorHandle's dispatched counter,
// and attempts to enqueue it, taking the count back if the enqueue fails,
// matching the division of labor in spec.md §4.2 (the mailbox only knows
// about bytes-in-a-queue; the dispatcher is what speaks the actor's
// message types).
//
// Grounded on actorRefImpl.Tell/.Ask in the teacher's actor.go. Each actor
// has exactly one Dispatcher; its M is typically a sealed Message union
// covering every message shape the actor accepts, which is how this
// package expresses multi-message actors in place of
// compile-time-generated envelope tags.
type Dispatcher[M Message, R any] struct {
	mailbox    *Mailbox[M, R]
	dispatched *atomic.Int64
}

// NewDispatcher builds a Dispatcher over mailbox, counting accepted sends
// against dispatched (an ActorHandle's dispatched counter).
func NewDispatcher[M Message, R any](
	mailbox *Mailbox[M, R], dispatched *atomic.Int64,
) *Dispatcher[M, R] {

	return &Dispatcher[M, R]{mailbox: mailbox, dispatched: dispatched}
}

// Send enqueues msg with a fresh Responder and awaits the handler's
// result. It returns the handler's typed result, a processing error
// (panic/hook failure), or an address-level error (ErrMailboxClosed /
// ErrMailboxFull) if the envelope could not even be enqueued.
func (d *Dispatcher[M, R]) Send(ctx context.Context, msg M) (R, error) {
	var zero R

	responder := newResponder[R](ctx)
	env := envelope[M, R]{
		message:   msg,
		responder: responder,
		callerCtx: ctx,
	}

	// Count before enqueueing so the actor loop can never process an
	// envelope that is not yet counted as dispatched.
	d.dispatched.Add(1)
	if err := d.mailbox.SendTry(env); err != nil {
		d.dispatched.Add(-1)
		return zero, err
	}

	result, err := responder.await(ctx)
	if err != nil {
		return zero, err
	}

	return result.Unpack()
}

// Dispatch enqueues msg with no responder and returns as soon as the
// envelope is accepted (or rejected) by the mailbox. The handler's result,
// if any, is discarded by the actor loop.
func (d *Dispatcher[M, R]) Dispatch(ctx context.Context, msg M) error {
	env := envelope[M, R]{
		message:   msg,
		responder: nil,
		callerCtx: ctx,
	}

	d.dispatched.Add(1)
	if err := d.mailbox.SendTry(env); err != nil {
		d.dispatched.Add(-1)
		return err
	}

	return nil
}

// resultOf is a small helper used by the actor loop to build a responder
// result from a handler's return value and error in one place.
func resultOf[R any](value R, err error) fn.Result[R] {
	if err != nil {
		return fn.Err[R](err)
	}
	return fn.Ok(value)
}
