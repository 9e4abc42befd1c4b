package vactor

import (
	"context"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Responder is the single-use reply channel attached to one envelope when
// a caller performs Send rather than Dispatch. Respond consumes it exactly
// once; a second call, or a call after the awaiting caller has given up,
// returns one of ErrAlreadyResponded / ErrResponderChannelBroken. Neither
// failure mode blocks or aborts the actor loop — spec.md §3 requires that
// a lost responder only be logged, never treated as an actor fault.
//
// Grounded on the teacher's Promise[T]/Future[T] pair (interface.go,
// example_basic_actor_test.go's Await/WhenOk/WhenErr usage); the concrete
// implementation file for Promise/Future was not present in the retrieved
// pack, so Responder is reconstructed directly from that documented
// contract plus fn.Result's Unpack/WhenOk/WhenErr accessors.
type Responder[R any] struct {
	ch        chan fn.Result[R]
	responded atomic.Bool
	callerCtx context.Context
}

// newResponder creates a Responder bound to the caller's context; once
// that context is done, Respond reports ErrResponderChannelBroken.
func newResponder[R any](callerCtx context.Context) *Responder[R] {
	return &Responder[R]{
		ch:        make(chan fn.Result[R], 1),
		callerCtx: callerCtx,
	}
}

// Respond delivers result to the awaiting caller. It never blocks: the
// reply channel is buffered for exactly one value. It returns
// ErrAlreadyResponded on a second call, and ErrResponderChannelBroken if
// the caller's context is already done, since the caller's await gives up
// on that same context.
func (r *Responder[R]) Respond(result fn.Result[R]) error {
	if !r.responded.CompareAndSwap(false, true) {
		return ErrAlreadyResponded
	}
	if r.callerCtx != nil && r.callerCtx.Err() != nil {
		return ErrResponderChannelBroken
	}

	select {
	case r.ch <- result:
		return nil
	default:
		// Unreachable under normal use (capacity 1, single writer),
		// but guarded so a misuse never panics the actor loop.
		return ErrResponderChannelBroken
	}
}

// await blocks until Respond has been called or ctx is cancelled.
func (r *Responder[R]) await(ctx context.Context) (fn.Result[R], error) {
	select {
	case result := <-r.ch:
		return result, nil

	case <-ctx.Done():
		var zero fn.Result[R]
		return zero, ctx.Err()
	}
}
