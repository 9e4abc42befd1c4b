package main

import (
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/catalyst-oss/vactor"
)

// EchoMessage is the sole message EchoActor accepts: it returns its Input
// unchanged, the runtime's S1 demo actor.
type EchoMessage struct {
	vactor.BaseMessage
	Input string
}

func (EchoMessage) MessageType() string { return "Echo" }

func newEchoActor() (vactor.ActorBehavior[EchoMessage, string], error) {
	return echoActor{}, nil
}

type echoActor struct{}

func (echoActor) Receive(
	_ *vactor.ActorContext[EchoMessage, string], msg EchoMessage,
) fn.Result[string] {

	return fn.Ok(msg.Input)
}

// CounterMessage is the sealed union Counter accepts: Inc and GetCounter,
// both resolving to int.
type CounterMessage interface {
	vactor.Message
	isCounterMessage()
}

type IncMessage struct{ vactor.BaseMessage }

func (IncMessage) MessageType() string { return "Inc" }
func (IncMessage) isCounterMessage()   {}

type GetCounterMessage struct{ vactor.BaseMessage }

func (GetCounterMessage) MessageType() string { return "GetCounter" }
func (GetCounterMessage) isCounterMessage()   {}

const counterKind vactor.ActorKind = "Counter"

// counterActor is a virtual actor keyed by uint32 id; it increments a
// private counter on Inc and reports it on GetCounter, spec.md §8's S3/S4
// demo actor.
type counterActor struct {
	count int
}

func newCounterActor(id uint32) (vactor.ActorBehavior[CounterMessage, int], error) {
	return &counterActor{}, nil
}

func (c *counterActor) Receive(
	_ *vactor.ActorContext[CounterMessage, int], msg CounterMessage,
) fn.Result[int] {

	switch msg.(type) {
	case IncMessage:
		c.count++
		return fn.Ok(c.count)

	case GetCounterMessage:
		return fn.Ok(c.count)

	default:
		return fn.Err[int](fmt.Errorf("counter: unexpected message %s", msg.MessageType()))
	}
}
