package vactor

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// LocalFactory builds a fresh behavior for a local actor. A factory error
// is wrapped in FactoryError and written to the handle, surfaced on the
// first WaitForReady.
type LocalFactory[M Message, R any] func() (ActorBehavior[M, R], error)

// VirtualFactory builds a fresh behavior for a newly activated virtual
// actor identified by id.
type VirtualFactory[ID ActorID, M Message, R any] func(id ID) (ActorBehavior[M, R], error)

// runLocalLoop is the local actor loop: spec.md §4.5's local variant. It
// owns the handle's task slot for its entire lifetime and always reports
// stopped on exit, however it got there.
//
// Grounded on the teacher's Actor[M,R].process loop (actor.go): the same
// factory-then-start-notification-then-drain-then-stop shape, generalized
// from the teacher's single in-flight envelope type to this package's
// sealed-Message multi-envelope shape, and with the teacher's one
// cancellation context split into the handle's separate mailbox/execution
// pair per spec.md §3.
func runLocalLoop[M Message, R any](
	handle *ActorHandle[M, R], mailbox *Mailbox[M, R],
	factory LocalFactory[M, R],
) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = recoverToPanicError(r)
		}
		handle.reportTaskError(err)
		handle.fireStopped()
	}()

	behavior, ferr := factory()
	if ferr != nil {
		return &FactoryError{Cause: ferr}
	}

	handle.fireStarted()

	for {
		env, ok := mailbox.Recv(handle.execCtx)
		if !ok {
			break
		}
		processEnvelope(handle, behavior, env)
	}

	runStopHook(behavior)

	return nil
}

// runVirtualLoop is the virtual actor loop: the same skeleton as
// runLocalLoop plus the before/after lifecycle hooks spec.md §4.5's virtual
// variant adds, keyed by the actor's identity.
func runVirtualLoop[ID ActorID, M Message, R any](
	id ID, handle *ActorHandle[M, R], mailbox *Mailbox[M, R],
	factory VirtualFactory[ID, M, R],
) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = recoverToPanicError(r)
		}
		handle.reportTaskError(err)
		handle.fireStopped()
	}()

	behavior, ferr := factory(id)
	if ferr != nil {
		return &FactoryError{Cause: ferr}
	}

	handle.fireStarted()

	for {
		env, ok := mailbox.Recv(handle.execCtx)
		if !ok {
			break
		}

		hookCtx := handle.execCtx
		hookCancel := func() {}
		if env.callerCtx != nil {
			hookCtx, hookCancel = mergeContexts(handle.execCtx, env.callerCtx)
		}
		vctx := &VirtualContext[ID, M, R]{
			ActorContext: ActorContext[M, R]{ctx: hookCtx, handle: handle},
			ID:           id,
		}

		if hook, ok := behavior.(BeforeMessageHook[ID, M, R]); ok {
			if herr := hook.BeforeMessage(vctx); herr != nil {
				hookCancel()
				wrapped := &BeforeMessageHookError{Cause: herr}
				deliverProcessingError[R](env, wrapped)
				return wrapped
			}
		}

		processEnvelope(handle, behavior, env)

		if hook, ok := behavior.(AfterMessageHook[ID, M, R]); ok {
			if herr := hook.AfterMessage(vctx); herr != nil {
				hookCancel()
				return &AfterMessageHookError{Cause: herr}
			}
		}
		hookCancel()
	}

	runStopHook(behavior)

	return nil
}

// processEnvelope calls Receive synchronously with a context that merges
// the actor's execution cancellation and the caller's own context, so a
// handler that checks ctx.Done() unwinds promptly on either; a handler
// that never looks at its context runs to completion regardless, since
// there is no preemption here, only cooperative cancellation. The result
// is delivered through the responder (if any), and the processed counter
// advances exactly once regardless of outcome.
func processEnvelope[M Message, R any](
	handle *ActorHandle[M, R], behavior ActorBehavior[M, R], env envelope[M, R],
) {

	processCtx := handle.execCtx
	cancel := func() {}
	if env.callerCtx != nil {
		processCtx, cancel = mergeContexts(handle.execCtx, env.callerCtx)
	}
	defer cancel()

	actorCtx := &ActorContext[M, R]{ctx: processCtx, handle: handle}

	result := safeReceive(behavior, actorCtx, env.message)
	handle.processed.Add(1)

	if env.responder != nil {
		if rerr := env.responder.Respond(result); rerr != nil {
			log.DebugS(processCtx, "responder delivery failed",
				"actor_id", handle.id, "err", rerr)
		}
	}
}

// safeReceive recovers a panic raised inside Receive and converts it into
// an ActorPanic carried as the envelope's result, so a single bad message
// never brings down the rest of the actor's mailbox (spec.md §8's "handler
// panics at message N" boundary test).
func safeReceive[M Message, R any](
	behavior ActorBehavior[M, R], actorCtx *ActorContext[M, R], msg M,
) (result fn.Result[R]) {

	defer func() {
		if r := recover(); r != nil {
			result = fn.Err[R](recoverToPanicError(r))
		}
	}()

	return behavior.Receive(actorCtx, msg)
}

// deliverProcessingError responds to an envelope with an error result
// without ever invoking Receive, used when a before-message hook fails.
func deliverProcessingError[R any, M Message](env envelope[M, R], err error) {
	if env.responder != nil {
		_ = env.responder.Respond(fn.Err[R](err))
	}
}

// runStopHook invokes Stoppable.OnStop, if the behavior implements it,
// with a bounded cleanup timeout independent of the actor's own
// (already-cancelled) tokens.
func runStopHook(behavior any) {
	stoppable, ok := behavior.(Stoppable)
	if !ok {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := stoppable.OnStop(cleanupCtx); err != nil {
		log.WarnS(cleanupCtx, "actor stop hook failed", "err", err)
	}
}
