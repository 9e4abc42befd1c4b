package vactor

import (
	"context"
	"sync"
	"sync/atomic"
)

// MailboxPreferences configures a mailbox's bounded capacity. A
// non-positive Capacity (including the zero value) falls back to
// DefaultMailboxPreferences' capacity.
type MailboxPreferences struct {
	// Capacity is the maximum number of undelivered envelopes a mailbox
	// will buffer before SendTry reports ErrMailboxFull.
	Capacity int
}

// DefaultMailboxPreferences returns the spec's default capacity of 1024.
func DefaultMailboxPreferences() MailboxPreferences {
	return MailboxPreferences{Capacity: 1024}
}

// envelope wraps one message with an optional single-use Responder. A nil
// responder means the envelope was enqueued via Dispatch (fire-and-forget);
// a non-nil responder means it was enqueued via Send and the handler's
// result must be delivered through it. callerCtx is the context the
// sender passed to Send/Dispatch, propagated so the actor loop can race
// the handler against the caller's own deadline as well as the actor's
// execution cancellation.
type envelope[M Message, R any] struct {
	message   M
	responder *Responder[R]
	callerCtx context.Context
}

// Mailbox is a bounded FIFO queue of envelopes with a receive-side
// cancellation discipline: once recvCancel fires, SendTry stops accepting
// new envelopes, but Recv continues to drain whatever was already queued
// before finally returning ok=false.
//
// Grounded on internal/baselib/actor/channel_mailbox.go's ChannelMailbox:
// the same atomic-closed-flag-plus-RWMutex guard against a
// send-on-closed-channel panic, and the same sync.Once-guarded Close. The
// teacher's mailbox is generic over a single message type per actor kind;
// here M is typically the actor's sealed Message union so one mailbox can
// carry every message shape an actor accepts (spec.md §3's envelope tag
// model), and the cancellation source is the spec's explicit
// "receive-side cancellation token" (an ActorHandle's mailbox context)
// rather than the teacher's single actor context.
type Mailbox[M Message, R any] struct {
	ch         chan envelope[M, R]
	recvCancel context.Context

	mu        sync.RWMutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewMailbox creates a mailbox of the given capacity whose Recv stops
// draining for good once recvCancel fires and the channel empties.
func NewMailbox[M Message, R any](
	recvCancel context.Context, prefs MailboxPreferences,
) *Mailbox[M, R] {

	capacity := prefs.Capacity
	if capacity <= 0 {
		capacity = DefaultMailboxPreferences().Capacity
	}

	return &Mailbox[M, R]{
		ch:         make(chan envelope[M, R], capacity),
		recvCancel: recvCancel,
	}
}

// SendTry attempts to enqueue env without blocking. It returns
// ErrMailboxClosed if the receive-side cancellation token has fired (or
// Close was called directly), ErrMailboxFull if the mailbox is at
// capacity, and nil on success. The runtime never exposes a blocking
// send — overload is always a caller-visible condition (spec.md §4.1).
func (mb *Mailbox[M, R]) SendTry(env envelope[M, R]) error {
	if mb.recvCancel.Err() != nil {
		mb.Close()
	}

	// Hold the read lock for the whole send so Close (which takes the
	// write lock before closing the channel) can never race a send into
	// a closed channel, exactly as channel_mailbox.go documents.
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	if mb.closed.Load() {
		return ErrMailboxClosed
	}

	select {
	case mb.ch <- env:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Recv cooperatively awaits the next envelope. It returns ok=false when
// either the mailbox has been closed (by recvCancel firing) and fully
// drained, or taskCancel fires first — whichever happens first. Because
// close(mb.ch) does not discard already-buffered envelopes, a closed
// mailbox continues to yield them here until the channel is empty, at
// which point the channel read itself reports ok=false.
func (mb *Mailbox[M, R]) Recv(
	taskCancel context.Context,
) (envelope[M, R], bool) {

	if mb.recvCancel.Err() != nil {
		mb.Close()
	}

	select {
	case env, ok := <-mb.ch:
		if !ok {
			return envelope[M, R]{}, false
		}
		return env, true

	case <-mb.recvCancel.Done():
		// Cancellation fired while waiting: close, then hand back whatever
		// is still buffered (a read from a closed channel never blocks).
		mb.Close()
		env, ok := <-mb.ch
		return env, ok

	case <-taskCancel.Done():
		return envelope[M, R]{}, false
	}
}

// Close closes the mailbox, preventing any further SendTry from
// succeeding. Idempotent and safe to call concurrently with SendTry.
func (mb *Mailbox[M, R]) Close() {
	mb.closeOnce.Do(func() {
		mb.mu.Lock()
		defer mb.mu.Unlock()

		mb.closed.Store(true)
		close(mb.ch)
	})
}

// IsClosed reports whether Close has run, without blocking.
func (mb *Mailbox[M, R]) IsClosed() bool {
	return mb.closed.Load()
}
