package vactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestExecutorSpawnLocalAndShutdown(t *testing.T) {
	t.Parallel()
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("time.Sleep"))

	ex := newExecutor(DefaultExecutorPreferences())
	exec := ExecutorHandle{ex: ex}

	addr, err := spawnLocalOn[testMsg, string](exec, DefaultMailboxPreferences(), func() (ActorBehavior[testMsg, string], error) {
		return echoBehavior{}, nil
	})
	require.NoError(t, err)

	require.NoError(t, addr.WaitForReady(context.Background(), time.Second))

	val, err := addr.Send(context.Background(), testMsg{value: 1})
	require.NoError(t, err)
	require.Equal(t, "echo", val)

	require.NoError(t, ex.gracefulShutdown(context.Background(), time.Second))
}

func TestExecutorShutdownEscalatesWhenTaskSetStuck(t *testing.T) {
	t.Parallel()

	ex := newExecutor(DefaultExecutorPreferences())
	exec := ExecutorHandle{ex: ex}

	unblock := make(chan struct{})
	addr, err := spawnLocalOn[testMsg, string](exec, DefaultMailboxPreferences(), func() (ActorBehavior[testMsg, string], error) {
		return blockingBehavior{unblock: unblock}, nil
	})
	require.NoError(t, err)
	require.NoError(t, addr.WaitForReady(context.Background(), time.Second))

	go func() { _, _ = addr.Send(context.Background(), testMsg{}) }()
	time.Sleep(20 * time.Millisecond)

	err = ex.gracefulShutdown(context.Background(), 50*time.Millisecond)
	require.NoError(t, err, "execCancel escalation unblocks the stuck handler's ctx.Done() select")
}

func TestExecutorEnqueueSpawnAfterShutdownFails(t *testing.T) {
	t.Parallel()

	ex := newExecutor(DefaultExecutorPreferences())
	require.NoError(t, ex.gracefulShutdown(context.Background(), time.Second))

	err := ex.enqueueSpawn(func() {})
	require.Error(t, err)
}
