package vactor

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers across the mailbox, dispatcher, and
// address layers. See SPEC_FULL.md §7 for the full taxonomy this package
// implements.
var (
	// ErrMailboxClosed is returned by a mailbox send when the mailbox's
	// receive-side cancellation token has already fired.
	ErrMailboxClosed = errors.New("vactor: mailbox closed")

	// ErrMailboxFull is returned by a non-blocking mailbox send when the
	// mailbox is at capacity.
	ErrMailboxFull = errors.New("vactor: mailbox full")

	// ErrAlreadyResponded is returned by Responder.Respond when the
	// responder has already delivered a result once.
	ErrAlreadyResponded = errors.New("vactor: responder already responded")

	// ErrResponderChannelBroken is returned by Responder.Respond when the
	// caller awaiting the response is no longer listening.
	ErrResponderChannelBroken = errors.New("vactor: responder channel broken")

	// ErrActorNotReady is returned by an address/handle send performed
	// before a dispatcher has been installed.
	ErrActorNotReady = errors.New("vactor: actor not ready")

	// ErrStopped is returned by an address/handle send performed after
	// mailbox cancellation has fired.
	ErrStopped = errors.New("vactor: actor stopped")

	// ErrActorTerminated is returned when an operation targets an actor
	// instance that has already finished.
	ErrActorTerminated = errors.New("vactor: actor terminated")

	// ErrDispatcherAlreadySet is returned by ActorHandle.installDispatcher
	// when a dispatcher has already been installed once.
	ErrDispatcherAlreadySet = errors.New("vactor: dispatcher already set")

	// ErrTaskAlreadySet is returned by ActorHandle.installTask when a task
	// handle has already been installed once.
	ErrTaskAlreadySet = errors.New("vactor: task already set")

	// ErrActivatorStopped is returned by an Activator whose owning
	// Registry has been shut down.
	ErrActivatorStopped = errors.New("vactor: activator stopped")

	// ErrUnknownActorKind is returned by the registry when no Activator
	// is registered under the requested kind.
	ErrUnknownActorKind = errors.New("vactor: unknown actor kind")

	// ErrActorKindMismatch is returned when a registered Activator's
	// concrete type does not match the type requested at the call site
	// (the type-erased-storage downcast failure from spec.md §9).
	ErrActorKindMismatch = errors.New("vactor: actor kind type mismatch")
)

// WaitKind distinguishes the two WaitError variants spec.md §7 calls for.
type WaitKind int

const (
	// WaitTimeout indicates a bounded wait elapsed before the awaited
	// condition became true.
	WaitTimeout WaitKind = iota

	// WaitCancelled indicates the context passed to the wait was
	// cancelled before the awaited condition became true.
	WaitCancelled
)

// WaitError is returned by waiter.go's bounded-wait helper and by
// ActorHandle.WaitForReady / GracefulShutdown on timeout or cancellation.
type WaitError struct {
	Kind WaitKind
	Name string
}

func (e *WaitError) Error() string {
	switch e.Kind {
	case WaitCancelled:
		return fmt.Sprintf("vactor: wait for %q cancelled", e.Name)
	default:
		return fmt.Sprintf("vactor: wait for %q timed out", e.Name)
	}
}

// FactoryError wraps the error returned by an actor factory at construction
// time. It is written to the actor's handle and surfaced through the first
// WaitForReady call.
type FactoryError struct {
	Cause error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("vactor: actor factory failed: %v", e.Cause)
}

func (e *FactoryError) Unwrap() error { return e.Cause }

// ActorPanic is the converted form of a recovered panic from inside an
// actor's factory, lifecycle hook, or message handler.
type ActorPanic struct {
	Message string
}

func (e *ActorPanic) Error() string {
	return fmt.Sprintf("vactor: actor panicked: %s", e.Message)
}

// BeforeMessageHookError wraps an error returned by a virtual actor's
// before-message lifecycle hook. It terminates the actor loop.
type BeforeMessageHookError struct {
	Cause error
}

func (e *BeforeMessageHookError) Error() string {
	return fmt.Sprintf("vactor: before-message hook failed: %v", e.Cause)
}

func (e *BeforeMessageHookError) Unwrap() error { return e.Cause }

// AfterMessageHookError wraps an error returned by a virtual actor's
// after-message lifecycle hook. It terminates the actor loop.
type AfterMessageHookError struct {
	Cause error
}

func (e *AfterMessageHookError) Error() string {
	return fmt.Sprintf("vactor: after-message hook failed: %v", e.Cause)
}

func (e *AfterMessageHookError) Unwrap() error { return e.Cause }

// recoverToPanicError converts a recovered panic value into an ActorPanic,
// downcasting to string and error, with a fallback %v rendering for
// anything else.
func recoverToPanicError(r any) *ActorPanic {
	switch v := r.(type) {
	case string:
		return &ActorPanic{Message: v}
	case error:
		return &ActorPanic{Message: v.Error()}
	default:
		return &ActorPanic{Message: fmt.Sprintf("%v", v)}
	}
}
