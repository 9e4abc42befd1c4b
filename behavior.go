package vactor

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ActorBehavior is the user-supplied entry point a factory produces: the
// generalized form of the teacher's per-kind `handle_envelope`. M is
// typically a sealed Message union (see message.go) so one behavior can
// type-switch across every message shape an actor accepts; R is the single
// result type every message in that union resolves to.
type ActorBehavior[M Message, R any] interface {
	Receive(actorCtx *ActorContext[M, R], msg M) fn.Result[R]
}

// Stoppable is an optional interface a behavior can implement to run
// cleanup once the actor loop has drained for good, mirroring the
// teacher's Stoppable in interface.go.
type Stoppable interface {
	OnStop(ctx context.Context) error
}

// ActorContext is handed to Receive (and, for virtual actors, embedded in
// VirtualContext for the lifecycle hooks). It is rebuilt once per message
// turn rather than once per actor lifetime, since its Context() must carry
// that message's caller deadline merged with the actor's execution token —
// but Self() and Done() are stable across the actor's whole life.
type ActorContext[M Message, R any] struct {
	ctx    context.Context
	handle *ActorHandle[M, R]
}

// Context returns the per-turn processing context: the merge of the
// caller's context (as passed to Send/Dispatch) and the actor's own
// execution-cancellation token.
func (c *ActorContext[M, R]) Context() context.Context { return c.ctx }

// Self returns a weak reference to this actor's own address, the mechanism
// spec.md §3 calls for so a handler can hand its own identity to a peer
// (see the ping/pong scenario in SPEC_FULL.md §8).
func (c *ActorContext[M, R]) Self() WeakLocalAddress[M, R] {
	return WeakLocalAddress[M, R]{handle: c.handle}
}

// Done fires when the actor's execution-cancellation token fires,
// independent of whatever deadline the current message's caller supplied.
func (c *ActorContext[M, R]) Done() <-chan struct{} {
	return c.handle.execCtx.Done()
}

// VirtualContext extends ActorContext with the virtual actor's identity,
// handed to the optional Before/AfterMessage hooks below. Receive itself
// gets a plain ActorContext, even for a virtual actor.
type VirtualContext[ID ActorID, M Message, R any] struct {
	ActorContext[M, R]
	ID ID
}

// BeforeMessageHook lets a virtual actor run logic — typically a
// persistence load-on-first-message — before Receive sees an envelope.
// Returning an error terminates the actor loop with a
// BeforeMessageHookError: the sender of the message that triggered the
// hook receives it in place of a result, and it is recorded as the
// actor's task error.
type BeforeMessageHook[ID ActorID, M Message, R any] interface {
	BeforeMessage(vctx *VirtualContext[ID, M, R]) error
}

// AfterMessageHook runs after Receive returns, typically a persistence
// flush. Returning an error terminates the actor loop with an
// AfterMessageHookError.
type AfterMessageHook[ID ActorID, M Message, R any] interface {
	AfterMessage(vctx *VirtualContext[ID, M, R]) error
}
