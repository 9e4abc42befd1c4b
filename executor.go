package vactor

import (
	"context"
	"sync"
	"time"
)

// ExecutorPreferences configures one Executor. ThreadStackSize from the
// spec's preferences is deliberately dropped: Go goroutines grow their
// stacks on demand and expose no pre-allocation knob, so there is nothing
// idiomatic for that field to configure (see DESIGN.md's redesign note).
type ExecutorPreferences struct {
	// Name identifies the executor in log lines and panics.
	Name string

	// MailboxCapacity bounds the executor's own control mailbox (spawn
	// requests), independent of any actor's own mailbox capacity.
	MailboxCapacity int
}

// DefaultExecutorPreferences returns {Name: "executor", MailboxCapacity: 1024}.
func DefaultExecutorPreferences() ExecutorPreferences {
	return ExecutorPreferences{Name: "executor", MailboxCapacity: 1024}
}

// spawnRequestMsg boxes one spawnRequest as a Message so the executor's
// control mailbox can be an ordinary Mailbox[spawnRequestMsg, struct{}],
// reusing C1 rather than hand-rolling a second queue type.
type spawnRequestMsg struct {
	BaseMessage
	run spawnRequest
}

func (spawnRequestMsg) MessageType() string { return "SpawnRequest" }

// executor is one Executor (C8): a control mailbox of spawn requests
// drained by a spawner loop, plus a task-set of the actor-loop goroutines
// it has launched.
//
// Grounded on the teacher's per-system worker model (system.go's
// ActorSystem owns actors and its own shutdown sequencing) and spec.md
// §4.6's three-phase shutdown. Redesign: spec.md describes "one executor =
// one dedicated OS thread hosting a single-threaded cooperative
// scheduler." Go's own scheduler already multiplexes goroutines onto OS
// threads far more efficiently than hand-rolled thread-pinning would, and
// `runtime.LockOSThread` buys nothing here since no actor state in this
// package requires thread affinity (no cgo handles, no thread-local
// state) — so this executor runs its spawner loop and every actor loop as
// plain goroutines. An executor still provides the spec's real contract
// (its own control mailbox, its own shutdown sequencing, actors pinned to
// it for life), just without pinning a literal OS thread. See DESIGN.md.
type executor struct {
	name string

	mailboxCtx    context.Context
	mailboxCancel context.CancelFunc

	execCtx    context.Context
	execCancel context.CancelFunc

	spawnerForceCtx    context.Context
	spawnerForceCancel context.CancelFunc

	mailbox *Mailbox[spawnRequestMsg, struct{}]

	spawnerStopped *onceNotify
	tasks          sync.WaitGroup
}

func newExecutor(prefs ExecutorPreferences) *executor {
	if prefs.Name == "" {
		prefs.Name = DefaultExecutorPreferences().Name
	}
	capacity := prefs.MailboxCapacity
	if capacity <= 0 {
		capacity = DefaultExecutorPreferences().MailboxCapacity
	}

	mailboxCtx, mailboxCancel := context.WithCancel(context.Background())
	execCtx, execCancel := context.WithCancel(context.Background())
	spawnerForceCtx, spawnerForceCancel := context.WithCancel(context.Background())

	e := &executor{
		name:                prefs.Name,
		mailboxCtx:          mailboxCtx,
		mailboxCancel:       mailboxCancel,
		execCtx:             execCtx,
		execCancel:          execCancel,
		spawnerForceCtx:     spawnerForceCtx,
		spawnerForceCancel:  spawnerForceCancel,
		mailbox:             NewMailbox[spawnRequestMsg, struct{}](mailboxCtx, MailboxPreferences{Capacity: capacity}),
		spawnerStopped:      newOnceNotify(),
	}

	go e.spawnerLoop()

	return e
}

// spawnerLoop is spec.md §4.6's spawner loop: drain spawn requests,
// running each inline (it only wires a mailbox/dispatcher and launches a
// goroutine, so it never itself blocks), until the mailbox reports no more
// envelopes or spawnerForceCtx is cancelled out from under it during
// shutdown escalation.
func (e *executor) spawnerLoop() {
	defer e.spawnerStopped.Fire()

	for {
		env, ok := e.mailbox.Recv(e.spawnerForceCtx)
		if !ok {
			return
		}
		if env.message.run != nil {
			env.message.run()
		}
	}
}

// enqueueSpawn submits req to the control mailbox. Failures (mailbox
// closed or full) are returned to the caller rather than silently
// swallowed, since every call site here is itself a library API the
// runtime façade surfaces to the user.
func (e *executor) enqueueSpawn(req spawnRequest) error {
	return e.mailbox.SendTry(envelope[spawnRequestMsg, struct{}]{
		message: spawnRequestMsg{run: req},
	})
}

// gracefulShutdown implements spec.md §4.6's three phases.
func (e *executor) gracefulShutdown(ctx context.Context, timeout time.Duration) error {
	e.mailboxCancel()

	if err := waitFor(ctx, timeout, e.spawnerStopped.Done(), e.name+":spawner"); err != nil {
		e.spawnerForceCancel()
		if err := waitFor(ctx, timeout, e.spawnerStopped.Done(), e.name+":spawner"); err != nil {
			return err
		}
	}

	tasksDone := make(chan struct{})
	go func() {
		e.tasks.Wait()
		close(tasksDone)
	}()

	if err := waitFor(ctx, timeout, tasksDone, e.name+":tasks"); err != nil {
		e.execCancel()
		return waitFor(ctx, timeout, tasksDone, e.name+":tasks")
	}

	return nil
}

// ExecutorHandle is the public, clonable reference to an Executor a caller
// gets back from Runtime.CreateExecutor and passes to RegisterActor /
// SpawnLocal. Copying an ExecutorHandle copies the pointer, not the
// executor — exactly spec.md §4.9's "clonable ExecutorHandle."
type ExecutorHandle struct {
	ex *executor
}

// Name returns the executor's configured name.
func (h ExecutorHandle) Name() string { return h.ex.name }

func spawnLocalOn[M Message, R any](
	exec ExecutorHandle, mailboxPrefs MailboxPreferences, factory LocalFactory[M, R],
) (*LocalAddress[M, R], error) {

	handle := newActorHandle[M, R](exec.ex.name+"/local", exec.ex.execCtx, exec.ex.mailboxCtx)

	req := buildLocalSpawnRequest(localSpawnSpec[M, R]{
		handle:       handle,
		mailboxPrefs: mailboxPrefs,
		factory:      factory,
		tasks:        &exec.ex.tasks,
	})

	if err := exec.ex.enqueueSpawn(req); err != nil {
		return nil, err
	}

	return newLocalAddress(handle), nil
}

func spawnVirtualOn[ID ActorID, M Message, R any](
	exec ExecutorHandle, id ID, mailboxPrefs MailboxPreferences,
	factory VirtualFactory[ID, M, R],
) (*ActorHandle[M, R], error) {

	handle := newActorHandle[M, R](exec.ex.name+"/virtual", exec.ex.execCtx, exec.ex.mailboxCtx)

	req := buildVirtualSpawnRequest(virtualSpawnSpec[ID, M, R]{
		id:           id,
		handle:       handle,
		mailboxPrefs: mailboxPrefs,
		factory:      factory,
		tasks:        &exec.ex.tasks,
	})

	if err := exec.ex.enqueueSpawn(req); err != nil {
		return nil, err
	}

	return handle, nil
}
