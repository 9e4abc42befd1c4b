package vactor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// actorsCache is ActorsCache<A>: a concurrent map enforcing at-most-one
// live handle per ActorId. Grounded on the teacher's receptionist map in
// system.go, generalized from ServiceKey-keyed to ActorId-keyed and backed
// by a plain mutex-guarded map rather than sync.Map, since ID is a type
// parameter and sync.Map's any-typed API would force boxing every key.
type actorsCache[ID ActorID, M Message, R any] struct {
	mu      sync.RWMutex
	entries map[ID]*ActorHandle[M, R]
}

func newActorsCache[ID ActorID, M Message, R any]() *actorsCache[ID, M, R] {
	return &actorsCache[ID, M, R]{entries: make(map[ID]*ActorHandle[M, R])}
}

func (c *actorsCache[ID, M, R]) get(id ID) (*ActorHandle[M, R], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entries[id]
	return h, ok
}

// insertIfAbsent is the first-writer-wins resolution spec.md §4.7 step 5
// calls for: the first caller to reach the lock for a given id populates
// the cache and is the survivor; every later concurrent caller for the
// same id gets that survivor back instead of clobbering it, so the map
// entry for an id never changes once set by a successful activation.
func (c *actorsCache[ID, M, R]) insertIfAbsent(
	id ID, handle *ActorHandle[M, R],
) (survivor *ActorHandle[M, R], inserted bool) {

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[id]; ok {
		return existing, false
	}
	c.entries[id] = handle
	return handle, true
}

func (c *actorsCache[ID, M, R]) delete(id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

func (c *actorsCache[ID, M, R]) getAndDelete(id ID) (*ActorHandle[M, R], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[id]
	if ok {
		delete(c.entries, id)
	}
	return h, ok
}

// snapshotIDs returns a point-in-time copy of the cached identities,
// avoiding any lock held across the housekeeper's scan.
func (c *actorsCache[ID, M, R]) snapshotIDs() []ID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]ID, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	return ids
}

// snapshotHandles returns a point-in-time copy of every cached handle, used
// by Activator.shutdownAll.
func (c *actorsCache[ID, M, R]) snapshotHandles() []*ActorHandle[M, R] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	handles := make([]*ActorHandle[M, R], 0, len(c.entries))
	for _, h := range c.entries {
		handles = append(handles, h)
	}
	return handles
}

// Activator is Activator<A> (C10): per-kind at-most-one-instance cache,
// lazy spawn through a user executor, and ownership of a lazily-started
// Housekeeper running on the registry's internal executor.
//
// Grounded on system.go's Receptionist (a per-ServiceKey registry entry
// wired to the owning ActorSystem), generalized to own its own cache and
// housekeeper rather than delegating to the whole system.
type Activator[ID ActorID, M Message, R any] struct {
	kind ActorKind

	exec             ExecutorHandle
	housekeepingExec ExecutorHandle
	mailboxPrefs     MailboxPreferences
	prefs            RuntimePreferences
	factory          VirtualFactory[ID, M, R]

	cache *actorsCache[ID, M, R]

	housekeepingMu      sync.Mutex
	housekeepingStarted atomic.Bool
	housekeeperAddr     *LocalAddress[garbageCollectMsg, struct{}]

	stopped atomic.Bool
}

func newActivator[ID ActorID, M Message, R any](
	kind ActorKind, exec, housekeepingExec ExecutorHandle,
	mailboxPrefs MailboxPreferences, prefs RuntimePreferences,
	factory VirtualFactory[ID, M, R],
) *Activator[ID, M, R] {

	return &Activator[ID, M, R]{
		kind:             kind,
		exec:             exec,
		housekeepingExec: housekeepingExec,
		mailboxPrefs:     mailboxPrefs,
		prefs:            prefs,
		factory:          factory,
		cache:            newActorsCache[ID, M, R](),
	}
}

// getOrSpawn implements spec.md §4.7's get_or_spawn algorithm.
func (a *Activator[ID, M, R]) getOrSpawn(ctx context.Context, id ID) (*ActorHandle[M, R], error) {
	if a.stopped.Load() {
		return nil, ErrActivatorStopped
	}

	if h, ok := a.cache.get(id); ok {
		return h, nil
	}

	if err := a.ensureHousekeeping(ctx); err != nil {
		return nil, err
	}

	handle := newActorHandle[M, R](
		fmt.Sprintf("%s/%v", a.kind, id), a.exec.ex.execCtx, a.exec.ex.mailboxCtx,
	)

	req := buildVirtualSpawnRequest(virtualSpawnSpec[ID, M, R]{
		id:           id,
		handle:       handle,
		mailboxPrefs: a.mailboxPrefs,
		factory:      a.factory,
		tasks:        &a.exec.ex.tasks,
	})

	if err := a.exec.ex.enqueueSpawn(req); err != nil {
		return nil, err
	}

	if err := handle.WaitForReady(ctx, a.prefs.ActorActivationTimeout); err != nil {
		return nil, err
	}

	survivor, inserted := a.cache.insertIfAbsent(id, handle)
	if !inserted {
		// Another concurrent getOrSpawn for this id won the race and is
		// already cached; our handle was surplus the moment it was
		// built, so shut it down rather than returning it to the caller.
		go func() {
			_ = handle.GracefulShutdown(context.Background(), a.prefs.ActorShutdownInterval)
		}()
	}

	return survivor, nil
}

// ensureHousekeeping lazily spawns this Activator's Housekeeper the first
// time any id is activated, double-checked per spec.md §4.7 so concurrent
// first-activations never spawn two housekeepers.
func (a *Activator[ID, M, R]) ensureHousekeeping(ctx context.Context) error {
	if a.housekeepingStarted.Load() {
		return nil
	}

	a.housekeepingMu.Lock()
	defer a.housekeepingMu.Unlock()

	if a.housekeepingStarted.Load() {
		return nil
	}

	cache := a.cache
	prefs := a.prefs

	addr, err := spawnLocalOn[garbageCollectMsg, struct{}](
		a.housekeepingExec, DefaultMailboxPreferences(),
		func() (ActorBehavior[garbageCollectMsg, struct{}], error) {
			return newHousekeeper[ID, M, R](cache, prefs), nil
		},
	)
	if err != nil {
		return err
	}

	if err := addr.WaitForReady(ctx, a.prefs.ActorActivationTimeout); err != nil {
		return err
	}
	if err := addr.Dispatch(ctx, garbageCollectMsg{}); err != nil {
		return err
	}

	a.housekeeperAddr = addr
	a.housekeepingStarted.Store(true)

	return nil
}

// shutdownAll gracefully shuts down this kind's housekeeper and every
// currently cached actor instance. Implements activatorShutdowner so
// ActorRegistry.gracefulShutdown can drive it without knowing ID/M/R.
func (a *Activator[ID, M, R]) shutdownAll(ctx context.Context, timeout time.Duration) error {
	a.stopped.Store(true)

	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.housekeeperAddr != nil {
		note(a.housekeeperAddr.GracefulShutdown(ctx, timeout))
	}
	for _, h := range a.cache.snapshotHandles() {
		note(h.GracefulShutdown(ctx, timeout))
	}

	return firstErr
}
