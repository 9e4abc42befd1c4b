package vactor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcherSendDeliversResultAndCounts(t *testing.T) {
	t.Parallel()

	var dispatched atomic.Int64
	mailbox := NewMailbox[testMsg, string](context.Background(), DefaultMailboxPreferences())
	dispatcher := NewDispatcher[testMsg, string](mailbox, &dispatched)

	go func() {
		env, ok := mailbox.Recv(context.Background())
		require.True(t, ok)
		_ = env.responder.Respond(resultOf("ok", nil))
	}()

	val, err := dispatcher.Send(context.Background(), testMsg{value: 1})
	require.NoError(t, err)
	require.Equal(t, "ok", val)
	require.Equal(t, int64(1), dispatched.Load())
}

func TestDispatcherDispatchIsFireAndForget(t *testing.T) {
	t.Parallel()

	var dispatched atomic.Int64
	mailbox := NewMailbox[testMsg, string](context.Background(), DefaultMailboxPreferences())
	dispatcher := NewDispatcher[testMsg, string](mailbox, &dispatched)

	require.NoError(t, dispatcher.Dispatch(context.Background(), testMsg{value: 9}))

	env, ok := mailbox.Recv(context.Background())
	require.True(t, ok)
	require.Nil(t, env.responder)
	require.Equal(t, 9, env.message.value)
}

func TestDispatcherSendOnFullMailbox(t *testing.T) {
	t.Parallel()

	var dispatched atomic.Int64
	mailbox := NewMailbox[testMsg, string](context.Background(), MailboxPreferences{Capacity: 1})
	dispatcher := NewDispatcher[testMsg, string](mailbox, &dispatched)

	require.NoError(t, dispatcher.Dispatch(context.Background(), testMsg{value: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := dispatcher.Send(ctx, testMsg{value: 2})
	require.ErrorIs(t, err, ErrMailboxFull)
}
