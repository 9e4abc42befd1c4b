package vactor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// --- S1: local echo actor ---

func TestScenarioLocalEcho(t *testing.T) {
	t.Parallel()

	rt := New()
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	addr, err := SpawnLocal[testMsg, string](exec, DefaultMailboxPreferences(), func() (ActorBehavior[testMsg, string], error) {
		return echoBehavior{}, nil
	})
	require.NoError(t, err)
	require.NoError(t, addr.WaitForReady(context.Background(), time.Second))

	val, err := addr.Send(context.Background(), testMsg{value: 1})
	require.NoError(t, err)
	require.Equal(t, "echo", val)

	require.NoError(t, rt.GracefulShutdown(context.Background(), time.Second))
}

// --- S2: ping/pong via a weak self-address handed to a peer ---

type pingMsg struct {
	BaseMessage
	peer WeakLocalAddress[pingMsg, int]
}

func (pingMsg) MessageType() string { return "Ping" }

type pongCounter struct {
	mu    sync.Mutex
	count int
}

func (p *pongCounter) Receive(actorCtx *ActorContext[pingMsg, int], msg pingMsg) fn.Result[int] {
	p.mu.Lock()
	p.count++
	n := p.count
	p.mu.Unlock()

	if n < 3 {
		if peer, ok := msg.peer.Upgrade(); ok {
			go func() { _, _ = peer.Send(context.Background(), pingMsg{peer: actorCtx.Self()}) }()
		}
	}
	return fn.Ok(n)
}

func TestScenarioPingPongWeakSelfAddress(t *testing.T) {
	t.Parallel()

	rt := New()
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	counter := &pongCounter{}
	addr, err := SpawnLocal[pingMsg, int](exec, DefaultMailboxPreferences(), func() (ActorBehavior[pingMsg, int], error) {
		return counter, nil
	})
	require.NoError(t, err)
	require.NoError(t, addr.WaitForReady(context.Background(), time.Second))

	n, err := addr.Send(context.Background(), pingMsg{peer: addr.WeakRef()})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Eventually(t, func() bool {
		counter.mu.Lock()
		defer counter.mu.Unlock()
		return counter.count >= 3
	}, time.Second, time.Millisecond)

	require.NoError(t, rt.GracefulShutdown(context.Background(), time.Second))
}

// --- S3: virtual actor activation and per-id isolation ---

type incMsg struct{ BaseMessage }

func (incMsg) MessageType() string { return "Inc" }

type virtualCounter struct{ n int }

func newVirtualCounter(id int) (ActorBehavior[incMsg, int], error) {
	return &virtualCounter{}, nil
}

func (c *virtualCounter) Receive(_ *ActorContext[incMsg, int], _ incMsg) fn.Result[int] {
	c.n++
	return fn.Ok(c.n)
}

func TestScenarioVirtualActivationAndIsolation(t *testing.T) {
	t.Parallel()

	rt := New()
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	const kind ActorKind = "counter"
	RegisterActor[int, incMsg, int](rt, kind, exec, DefaultMailboxPreferences(), newVirtualCounter)

	addr1, err := SpawnVirtual[int, incMsg, int](rt, kind, 1)
	require.NoError(t, err)
	addr2, err := SpawnVirtual[int, incMsg, int](rt, kind, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := addr1.Send(context.Background(), incMsg{})
		require.NoError(t, err)
	}
	last2, err := addr2.Send(context.Background(), incMsg{})
	require.NoError(t, err)
	require.Equal(t, 1, last2, "a distinct id gets a distinct, independently-counting instance")

	last1, err := addr1.Send(context.Background(), incMsg{})
	require.NoError(t, err)
	require.Equal(t, 4, last1)

	require.NoError(t, rt.GracefulShutdown(context.Background(), time.Second))
}

// --- S4: idle virtual actors are reaped by the housekeeper ---

func TestScenarioIdleActorReaped(t *testing.T) {
	t.Parallel()

	prefs := DefaultRuntimePreferences()
	prefs.ActorIdleTimeout = 20 * time.Millisecond
	prefs.GarbageCollectInterval = 10 * time.Millisecond

	rt := WithPreferences(prefs)
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	const kind ActorKind = "idle-counter"
	act := RegisterActor[int, incMsg, int](rt, kind, exec, DefaultMailboxPreferences(), newVirtualCounter)

	addr, err := SpawnVirtual[int, incMsg, int](rt, kind, 7)
	require.NoError(t, err)

	_, err = addr.Send(context.Background(), incMsg{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := act.cache.get(7)
		return !ok
	}, 2*time.Second, 5*time.Millisecond, "idle actor should be reaped from the cache")

	require.NoError(t, rt.GracefulShutdown(context.Background(), time.Second))
}

// --- S5: a failing factory surfaces through WaitForReady, not a hang ---

func TestScenarioFactoryErrorSurfaces(t *testing.T) {
	t.Parallel()

	rt := New()
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	boom := "boom"
	addr, err := SpawnLocal[testMsg, string](exec, DefaultMailboxPreferences(), func() (ActorBehavior[testMsg, string], error) {
		return nil, &ActorPanic{Message: boom}
	})
	require.NoError(t, err)

	err = addr.WaitForReady(context.Background(), time.Second)
	require.Error(t, err)

	var factoryErr *FactoryError
	require.ErrorAs(t, err, &factoryErr)

	require.NoError(t, rt.GracefulShutdown(context.Background(), time.Second))
}

func TestScenarioHandlerPanicDoesNotKillMailbox(t *testing.T) {
	t.Parallel()

	rt := New()
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	addr, err := SpawnLocal[testMsg, string](exec, DefaultMailboxPreferences(), func() (ActorBehavior[testMsg, string], error) {
		return panicOnZeroBehavior{}, nil
	})
	require.NoError(t, err)
	require.NoError(t, addr.WaitForReady(context.Background(), time.Second))

	_, err = addr.Send(context.Background(), testMsg{value: 0})
	require.Error(t, err)
	var panicErr *ActorPanic
	require.ErrorAs(t, err, &panicErr)

	val, err := addr.Send(context.Background(), testMsg{value: 5})
	require.NoError(t, err, "a panicking message must not take the rest of the mailbox down with it")
	require.Equal(t, "ok", val)

	require.NoError(t, rt.GracefulShutdown(context.Background(), time.Second))
}

type panicOnZeroBehavior struct{}

func (panicOnZeroBehavior) Receive(_ *ActorContext[testMsg, string], msg testMsg) fn.Result[string] {
	if msg.value == 0 {
		panic("zero value")
	}
	return fn.Ok("ok")
}
