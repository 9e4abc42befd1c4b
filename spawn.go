package vactor

import "sync"

// spawnRequest is the boxed closure the teacher's Executor spawner loop
// drains from its control mailbox (spec.md §4.6's "request.spawn()"). Go
// has no heterogeneous-but-typed collection primitive, so rather than a
// generic SpawnRequest[M,R] struct we box the whole spawn operation as a
// zero-argument closure captured over its concrete M/R — the idiomatic Go
// rendition of the teacher's boxed-closure spawn protocol.
type spawnRequest func()

// localSpawnSpec carries everything buildLocalSpawnRequest needs to wire a
// local actor's mailbox, dispatcher, and task into its handle.
type localSpawnSpec[M Message, R any] struct {
	handle       *ActorHandle[M, R]
	mailboxPrefs MailboxPreferences
	factory      LocalFactory[M, R]
	tasks        *sync.WaitGroup
}

// buildLocalSpawnRequest returns the closure the executor's spawner loop
// runs for one local-actor spawn request: build the mailbox+dispatcher
// pair, install them into the handle, and launch the actor loop as its own
// goroutine (the executor itself stays free to drain the next spawn
// request immediately — see executor.go's redesign note on why this
// package uses goroutines rather than a single cooperative thread per
// executor).
func buildLocalSpawnRequest[M Message, R any](spec localSpawnSpec[M, R]) spawnRequest {
	return func() {
		mailbox := NewMailbox[M, R](spec.handle.mailboxCtx, spec.mailboxPrefs)
		dispatcher := NewDispatcher[M, R](mailbox, &spec.handle.dispatched)

		if err := spec.handle.installDispatcher(dispatcher); err != nil {
			log.ErrorS(spec.handle.execCtx, "spawn: install dispatcher",
				"actor_id", spec.handle.id, "err", err)
			return
		}
		if err := spec.handle.installTask(); err != nil {
			log.ErrorS(spec.handle.execCtx, "spawn: install task",
				"actor_id", spec.handle.id, "err", err)
			return
		}

		spec.tasks.Add(1)
		go func() {
			defer spec.tasks.Done()
			_ = runLocalLoop(spec.handle, mailbox, spec.factory)
		}()
	}
}

// virtualSpawnSpec is localSpawnSpec's counterpart for a virtual actor
// instance, additionally carrying the identity the factory is invoked
// with.
type virtualSpawnSpec[ID ActorID, M Message, R any] struct {
	id           ID
	handle       *ActorHandle[M, R]
	mailboxPrefs MailboxPreferences
	factory      VirtualFactory[ID, M, R]
	tasks        *sync.WaitGroup
}

func buildVirtualSpawnRequest[ID ActorID, M Message, R any](
	spec virtualSpawnSpec[ID, M, R],
) spawnRequest {

	return func() {
		mailbox := NewMailbox[M, R](spec.handle.mailboxCtx, spec.mailboxPrefs)
		dispatcher := NewDispatcher[M, R](mailbox, &spec.handle.dispatched)

		if err := spec.handle.installDispatcher(dispatcher); err != nil {
			log.ErrorS(spec.handle.execCtx, "spawn: install dispatcher",
				"actor_id", spec.handle.id, "err", err)
			return
		}
		if err := spec.handle.installTask(); err != nil {
			log.ErrorS(spec.handle.execCtx, "spawn: install task",
				"actor_id", spec.handle.id, "err", err)
			return
		}

		spec.tasks.Add(1)
		go func() {
			defer spec.tasks.Done()
			_ = runVirtualLoop(spec.id, spec.handle, mailbox, spec.factory)
		}()
	}
}
