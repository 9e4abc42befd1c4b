// Package persistence declares the collaborator contract vactor's virtual
// actors use to load, save, and clear their per-identity state, plus two
// reference implementations (memory, sqlite).
package persistence

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/catalyst-oss/vactor"
)

// Persistence is the external interface spec.md §6 describes: three
// operations over an actor kind's identity and serializable state. Load
// returns fn.None when no state has ever been saved for (kind, id) —
// callers fall back to whatever default value their actor constructs.
type Persistence[ID comparable, State any] interface {
	Load(ctx context.Context, kind vactor.ActorKind, id ID) (fn.Option[State], error)
	Save(ctx context.Context, kind vactor.ActorKind, id ID, state State) error
	Clear(ctx context.Context, kind vactor.ActorKind, id ID) error
}
