package vactor

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

type echoBehavior struct{}

func (echoBehavior) Receive(_ *ActorContext[testMsg, string], msg testMsg) fn.Result[string] {
	return fn.Ok("echo")
}

func spawnEchoHandle(t *testing.T) (*ActorHandle[testMsg, string], func()) {
	t.Helper()

	execCtx, execCancel := context.WithCancel(context.Background())
	mailboxCtx, mailboxCancel := context.WithCancel(context.Background())
	handle := newActorHandle[testMsg, string]("echo", execCtx, mailboxCtx)

	mailbox := NewMailbox[testMsg, string](handle.mailboxCtx, DefaultMailboxPreferences())
	dispatcher := NewDispatcher[testMsg, string](mailbox, &handle.dispatched)
	require.NoError(t, handle.installDispatcher(dispatcher))
	require.NoError(t, handle.installTask())

	go func() { _ = runLocalLoop(handle, mailbox, func() (ActorBehavior[testMsg, string], error) {
		return echoBehavior{}, nil
	}) }()

	cleanup := func() {
		execCancel()
		mailboxCancel()
	}
	return handle, cleanup
}

func TestHandleSendReturnsResult(t *testing.T) {
	t.Parallel()

	handle, cleanup := spawnEchoHandle(t)
	defer cleanup()

	require.NoError(t, handle.WaitForReady(context.Background(), time.Second))

	val, err := handle.Send(context.Background(), testMsg{value: 1})
	require.NoError(t, err)
	require.Equal(t, "echo", val)
	require.Equal(t, int64(1), handle.Processed())
}

func TestHandleDoubleInstallFails(t *testing.T) {
	t.Parallel()

	handle := newActorHandle[testMsg, string]("h", context.Background(), context.Background())
	mailbox := NewMailbox[testMsg, string](handle.mailboxCtx, DefaultMailboxPreferences())
	dispatcher := NewDispatcher[testMsg, string](mailbox, &handle.dispatched)

	require.NoError(t, handle.installDispatcher(dispatcher))
	require.ErrorIs(t, handle.installDispatcher(dispatcher), ErrDispatcherAlreadySet)

	require.NoError(t, handle.installTask())
	require.ErrorIs(t, handle.installTask(), ErrTaskAlreadySet)
}

func TestHandleSendBeforeReadyFails(t *testing.T) {
	t.Parallel()

	handle := newActorHandle[testMsg, string]("h", context.Background(), context.Background())
	_, err := handle.Send(context.Background(), testMsg{})
	require.ErrorIs(t, err, ErrActorNotReady)
}

func TestHandleGracefulShutdownWaitsForDrain(t *testing.T) {
	t.Parallel()

	handle, _ := spawnEchoHandle(t)
	require.NoError(t, handle.WaitForReady(context.Background(), time.Second))

	err := handle.GracefulShutdown(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, handle.IsFinished())
}

// blockingBehavior never returns from Receive until unblocked, used to
// exercise GracefulShutdown's second-phase escalation.
type blockingBehavior struct {
	unblock chan struct{}
}

func (b blockingBehavior) Receive(actorCtx *ActorContext[testMsg, string], _ testMsg) fn.Result[string] {
	select {
	case <-b.unblock:
	case <-actorCtx.Done():
	}
	return fn.Ok("done")
}

func TestHandleGracefulShutdownEscalatesOnStuckHandler(t *testing.T) {
	t.Parallel()

	execCtx, execCancel := context.WithCancel(context.Background())
	defer execCancel()
	mailboxCtx, mailboxCancel := context.WithCancel(context.Background())
	defer mailboxCancel()

	handle := newActorHandle[testMsg, string]("blocker", execCtx, mailboxCtx)
	mailbox := NewMailbox[testMsg, string](handle.mailboxCtx, DefaultMailboxPreferences())
	dispatcher := NewDispatcher[testMsg, string](mailbox, &handle.dispatched)
	require.NoError(t, handle.installDispatcher(dispatcher))
	require.NoError(t, handle.installTask())

	unblock := make(chan struct{})
	go func() {
		_ = runLocalLoop(handle, mailbox, func() (ActorBehavior[testMsg, string], error) {
			return blockingBehavior{unblock: unblock}, nil
		})
	}()
	require.NoError(t, handle.WaitForReady(context.Background(), time.Second))

	go func() { _, _ = handle.Send(context.Background(), testMsg{}) }()
	time.Sleep(20 * time.Millisecond)

	err := handle.GracefulShutdown(context.Background(), 50*time.Millisecond)
	require.NoError(t, err, "execution cancellation unblocks the stuck handler via actorCtx.Done()")
	require.True(t, handle.IsFinished())
}

// unyieldingBehavior never looks at its context at all, modeling the
// original runtime's ThreadSleepTask: a handler that blocks the goroutine
// outright and gives cancellation no suspension point to act on.
type unyieldingBehavior struct {
	unblock chan struct{}
}

func (b unyieldingBehavior) Receive(_ *ActorContext[testMsg, string], _ testMsg) fn.Result[string] {
	<-b.unblock
	return fn.Ok("done")
}

func TestHandleGracefulShutdownTimesOutOnUnyieldingHandler(t *testing.T) {
	t.Parallel()

	execCtx, execCancel := context.WithCancel(context.Background())
	defer execCancel()
	mailboxCtx, mailboxCancel := context.WithCancel(context.Background())
	defer mailboxCancel()

	handle := newActorHandle[testMsg, string]("unyielding", execCtx, mailboxCtx)
	mailbox := NewMailbox[testMsg, string](handle.mailboxCtx, DefaultMailboxPreferences())
	dispatcher := NewDispatcher[testMsg, string](mailbox, &handle.dispatched)
	require.NoError(t, handle.installDispatcher(dispatcher))
	require.NoError(t, handle.installTask())

	unblock := make(chan struct{})
	defer close(unblock)
	go func() {
		_ = runLocalLoop(handle, mailbox, func() (ActorBehavior[testMsg, string], error) {
			return unyieldingBehavior{unblock: unblock}, nil
		})
	}()
	require.NoError(t, handle.WaitForReady(context.Background(), time.Second))

	go func() { _, _ = handle.Send(context.Background(), testMsg{}) }()
	time.Sleep(20 * time.Millisecond)

	err := handle.GracefulShutdown(context.Background(), 50*time.Millisecond)

	var waitErr *WaitError
	require.ErrorAs(t, err, &waitErr,
		"neither mailbox nor execution cancellation can preempt a handler that never checks its context; the second wait must genuinely time out")
	require.Equal(t, WaitTimeout, waitErr.Kind)
	require.False(t, handle.IsFinished(), "the handler is still blocked in Receive, so the actor has not actually stopped")
}
