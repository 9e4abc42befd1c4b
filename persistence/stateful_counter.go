package persistence

import (
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/catalyst-oss/vactor"
)

// StatefulCounterMessage requests the next increment of a persisted
// counter. It carries no payload: every send just bumps the count by one.
type StatefulCounterMessage struct{ vactor.BaseMessage }

// MessageType implements vactor.Message.
func (StatefulCounterMessage) MessageType() string { return "StatefulCounterInc" }

// StatefulCounter is the reference stateful virtual actor spec.md §6
// describes: its count survives idle reactivation (and, with the sqlite
// backend, process restart) by loading through an ActorState on its first
// message and saving after every message.
//
// Grounded on the original's HelloActorWithState (hello_actor_with_state.rs):
// same (id, ActorState) shape and increment-then-persist behavior,
// translated from its eager factory-time load plus manual in-handler save
// into this package's hook-driven lazy load (BeforeMessage) and flush
// (AfterMessage), so the virtual loop's lifecycle hooks are what drive
// persistence rather than the handler body.
type StatefulCounter[ID comparable] struct {
	state *ActorState[ID, int]
}

// NewStatefulCounterFactory returns a VirtualFactory building one
// StatefulCounter per id, each its own ActorState over store under kind.
func NewStatefulCounterFactory[ID comparable](
	store Persistence[ID, int], kind vactor.ActorKind,
) vactor.VirtualFactory[ID, StatefulCounterMessage, int] {

	return func(id ID) (vactor.ActorBehavior[StatefulCounterMessage, int], error) {
		return &StatefulCounter[ID]{state: NewActorState(store, kind, id)}, nil
	}
}

// Receive implements vactor.ActorBehavior.
func (c *StatefulCounter[ID]) Receive(
	_ *vactor.ActorContext[StatefulCounterMessage, int], _ StatefulCounterMessage,
) fn.Result[int] {

	n := c.state.Get() + 1
	c.state.Set(n)

	return fn.Ok(n)
}

// BeforeMessage implements vactor.BeforeMessageHook: the counter's saved
// value, if any, is read on the first message this activation ever
// handles.
func (c *StatefulCounter[ID]) BeforeMessage(
	vctx *vactor.VirtualContext[ID, StatefulCounterMessage, int],
) error {
	return c.state.EnsureLoaded(vctx.Context())
}

// AfterMessage implements vactor.AfterMessageHook: every message's
// increment is flushed before the next envelope is taken off the mailbox.
func (c *StatefulCounter[ID]) AfterMessage(
	vctx *vactor.VirtualContext[ID, StatefulCounterMessage, int],
) error {
	return c.state.Save(vctx.Context())
}

var (
	_ vactor.BeforeMessageHook[int, StatefulCounterMessage, int] = (*StatefulCounter[int])(nil)
	_ vactor.AfterMessageHook[int, StatefulCounterMessage, int]  = (*StatefulCounter[int])(nil)
)
