package vactor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestActivatorConcurrentGetOrSpawnYieldsOneLiveHandle(t *testing.T) {
	t.Parallel()

	rt := New()
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	const kind ActorKind = "race-counter"
	act := RegisterActor[int, incMsg, int](rt, kind, exec, DefaultMailboxPreferences(), newVirtualCounter)

	const n = 20
	handles := make([]*ActorHandle[incMsg, int], n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			h, err := act.getOrSpawn(context.Background(), 42)
			require.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	cached, ok := act.cache.get(42)
	require.True(t, ok)

	// Every concurrent getOrSpawn must have returned the same survivor —
	// not just "at least one" of them — since a caller holding a handle
	// that lost the race would see it torn down out from under it.
	for _, h := range handles {
		require.Same(t, cached, h, "every caller must receive the cache survivor, never a displaced loser")
	}
	require.True(t, cached.IsCancelled() == false, "the surviving handle must still be live")

	// Drive a real message through every returned handle: a loser handle
	// concurrently being GracefulShutdown'd would surface as ErrStopped
	// here even though id 42 is a live identity.
	sendWg := sync.WaitGroup{}
	sendWg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer sendWg.Done()
			_, err := handles[i].Send(context.Background(), incMsg{})
			require.NoError(t, err)
		}(i)
	}
	sendWg.Wait()

	require.NoError(t, rt.GracefulShutdown(context.Background(), time.Second))
}

func TestActivatorStoppedRejectsNewActivation(t *testing.T) {
	t.Parallel()

	rt := New()
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	const kind ActorKind = "stoppable-counter"
	act := RegisterActor[int, incMsg, int](rt, kind, exec, DefaultMailboxPreferences(), newVirtualCounter)

	require.NoError(t, act.shutdownAll(context.Background(), time.Second))

	_, err := act.getOrSpawn(context.Background(), 1)
	require.ErrorIs(t, err, ErrActivatorStopped)
}

func TestRegistryUnknownAndMismatchedKind(t *testing.T) {
	t.Parallel()

	rt := New()
	exec := rt.CreateExecutor(DefaultExecutorPreferences())

	const kind ActorKind = "typed-counter"
	RegisterActor[int, incMsg, int](rt, kind, exec, DefaultMailboxPreferences(), newVirtualCounter)

	_, err := SpawnVirtual[int, incMsg, int](rt, "missing", 1)
	require.ErrorIs(t, err, ErrUnknownActorKind)

	_, err = SpawnVirtual[string, incMsg, int](rt, kind, "wrong-id-type")
	require.ErrorIs(t, err, ErrActorKindMismatch)
}
