package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catalyst-oss/vactor"
)

type counterState struct {
	N int
}

func TestMemoryStoreSaveLoadClear(t *testing.T) {
	t.Parallel()

	store := New[int, counterState]()
	ctx := context.Background()
	const kind vactor.ActorKind = "counter"

	opt, err := store.Load(ctx, kind, 1)
	require.NoError(t, err)
	require.True(t, opt.IsNone())

	require.NoError(t, store.Save(ctx, kind, 1, counterState{N: 7}))

	opt, err = store.Load(ctx, kind, 1)
	require.NoError(t, err)
	require.True(t, opt.IsSome())
	require.Equal(t, 7, opt.UnwrapOr(counterState{}).N)

	require.NoError(t, store.Clear(ctx, kind, 1))
	opt, err = store.Load(ctx, kind, 1)
	require.NoError(t, err)
	require.True(t, opt.IsNone())
}

func TestMemoryStoreIsolatesByKindAndID(t *testing.T) {
	t.Parallel()

	store := New[int, counterState]()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "kindA", 1, counterState{N: 1}))
	require.NoError(t, store.Save(ctx, "kindB", 1, counterState{N: 2}))
	require.NoError(t, store.Save(ctx, "kindA", 2, counterState{N: 3}))

	optA1, err := store.Load(ctx, "kindA", 1)
	require.NoError(t, err)
	require.Equal(t, 1, optA1.UnwrapOr(counterState{}).N)

	optB1, err := store.Load(ctx, "kindB", 1)
	require.NoError(t, err)
	require.Equal(t, 2, optB1.UnwrapOr(counterState{}).N)

	optA2, err := store.Load(ctx, "kindA", 2)
	require.NoError(t, err)
	require.Equal(t, 3, optA2.UnwrapOr(counterState{}).N)
}
