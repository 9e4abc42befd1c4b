package vactor

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// garbageCollectMsg is the Housekeeper's sole message: a tick telling it to
// scan its Activator's cache once and reschedule itself.
type garbageCollectMsg struct {
	BaseMessage
}

func (garbageCollectMsg) MessageType() string { return "GarbageCollect" }

// counterSnapshot is spec.md §3's "counters info" triple held per cache
// entry: the last-seen counters plus the timestamp they last changed at,
// the basis for counter-based (not wall-clock-of-last-message) idleness.
type counterSnapshot struct {
	dispatched     int64
	processed      int64
	unchangedSince time.Time
}

// housekeeper is Housekeeper<A> (C11): a per-kind local actor, run on the
// registry's internal housekeeping executor, that periodically scans its
// Activator's cache and retires idle or finished entries.
//
// Grounded on spec.md §4.8 directly; there is no teacher analogue (the
// teacher's receptionist has no idle-collection concept), so this is built
// from the specification's algorithm using the same ActorBehavior/
// ActorContext shape every other actor in this package uses.
type housekeeper[ID ActorID, M Message, R any] struct {
	cache    *actorsCache[ID, M, R]
	prefs    RuntimePreferences
	counters map[ID]counterSnapshot
}

func newHousekeeper[ID ActorID, M Message, R any](
	cache *actorsCache[ID, M, R], prefs RuntimePreferences,
) *housekeeper[ID, M, R] {

	return &housekeeper[ID, M, R]{
		cache:    cache,
		prefs:    prefs,
		counters: make(map[ID]counterSnapshot),
	}
}

// Receive implements spec.md §4.8's three steps for one GarbageCollect
// tick: refresh counters and reap finished entries, shut down newly idle
// entries, then reschedule the next tick.
func (hk *housekeeper[ID, M, R]) Receive(
	actorCtx *ActorContext[garbageCollectMsg, struct{}], _ garbageCollectMsg,
) fn.Result[struct{}] {

	now := time.Now()

	idle := make([]ID, 0)

	for _, id := range hk.cache.snapshotIDs() {
		handle, ok := hk.cache.get(id)
		if !ok {
			delete(hk.counters, id)
			continue
		}

		if handle.IsFinished() {
			hk.cache.delete(id)
			delete(hk.counters, id)
			continue
		}

		dispatched, processed := handle.Dispatched(), handle.Processed()
		prev, seen := hk.counters[id]

		unchangedSince := now
		if seen && prev.dispatched == dispatched && prev.processed == processed {
			unchangedSince = prev.unchangedSince
		}
		hk.counters[id] = counterSnapshot{
			dispatched:     dispatched,
			processed:      processed,
			unchangedSince: unchangedSince,
		}

		if dispatched == processed && now.Sub(unchangedSince) >= hk.prefs.ActorIdleTimeout {
			idle = append(idle, id)
		}
	}

	for _, id := range idle {
		handle, ok := hk.cache.getAndDelete(id)
		if !ok {
			continue
		}
		delete(hk.counters, id)

		shutdownInterval := hk.prefs.ActorShutdownInterval
		go func(h *ActorHandle[M, R]) {
			_ = h.GracefulShutdown(context.Background(), shutdownInterval)
		}(handle)
	}

	hk.reschedule(actorCtx)

	return fn.Ok(struct{}{})
}

// reschedule spawns the sleep-then-redispatch task spec.md §4.8 describes,
// racing the configured interval against the actor's own execution
// cancellation so the housekeeper stops rescheduling itself once the
// runtime shuts down.
func (hk *housekeeper[ID, M, R]) reschedule(
	actorCtx *ActorContext[garbageCollectMsg, struct{}],
) {

	self := actorCtx.Self()
	cancelled := actorCtx.Done()
	interval := hk.prefs.GarbageCollectInterval

	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		select {
		case <-cancelled:
			return
		case <-timer.C:
		}

		addr, ok := self.Upgrade()
		if !ok {
			return
		}
		_ = addr.Dispatch(context.Background(), garbageCollectMsg{})
	}()
}
