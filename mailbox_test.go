package vactor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	BaseMessage
	value int
}

func (testMsg) MessageType() string { return "testMsg" }

func TestMailboxSendRecv(t *testing.T) {
	t.Parallel()

	recvCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mb := NewMailbox[testMsg, string](recvCtx, MailboxPreferences{Capacity: 4})
	defer mb.Close()

	env := envelope[testMsg, string]{message: testMsg{value: 7}}
	require.NoError(t, mb.SendTry(env))

	got, ok := mb.Recv(context.Background())
	require.True(t, ok)
	require.Equal(t, 7, got.message.value)
}

func TestMailboxFullReturnsError(t *testing.T) {
	t.Parallel()

	mb := NewMailbox[testMsg, string](context.Background(), MailboxPreferences{Capacity: 1})
	defer mb.Close()

	require.NoError(t, mb.SendTry(envelope[testMsg, string]{message: testMsg{value: 1}}))
	require.ErrorIs(t, mb.SendTry(envelope[testMsg, string]{message: testMsg{value: 2}}), ErrMailboxFull)
}

func TestMailboxCancelledRejectsSendButDrains(t *testing.T) {
	t.Parallel()

	recvCtx, cancel := context.WithCancel(context.Background())
	mb := NewMailbox[testMsg, string](recvCtx, MailboxPreferences{Capacity: 4})

	require.NoError(t, mb.SendTry(envelope[testMsg, string]{message: testMsg{value: 1}}))
	cancel()

	require.ErrorIs(t, mb.SendTry(envelope[testMsg, string]{message: testMsg{value: 2}}), ErrMailboxClosed)

	got, ok := mb.Recv(context.Background())
	require.True(t, ok, "already-queued envelope must still be drained after cancellation")
	require.Equal(t, 1, got.message.value)

	_, ok = mb.Recv(context.Background())
	require.False(t, ok, "Recv reports done once the closed mailbox is empty")
}

func TestMailboxCloseIdempotent(t *testing.T) {
	t.Parallel()

	mb := NewMailbox[testMsg, string](context.Background(), DefaultMailboxPreferences())
	mb.Close()
	require.NotPanics(t, mb.Close)
	require.True(t, mb.IsClosed())
}
