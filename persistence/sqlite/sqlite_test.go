package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catalyst-oss/vactor"
)

type counterState struct {
	N int
}

func openTestStore(t *testing.T) *Store[int, counterState] {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "vactor.db")
	store, err := Open[int, counterState](Config{DatabaseFileName: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSqliteStoreSaveLoadClear(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
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

	require.NoError(t, store.Save(ctx, kind, 1, counterState{N: 11}))
	opt, err = store.Load(ctx, kind, 1)
	require.NoError(t, err)
	require.Equal(t, 11, opt.UnwrapOr(counterState{}).N, "Save upserts on conflict")

	require.NoError(t, store.Clear(ctx, kind, 1))
	opt, err = store.Load(ctx, kind, 1)
	require.NoError(t, err)
	require.True(t, opt.IsNone())
}

func TestSqliteStoreSkipMigrationsRequiresExistingSchema(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "vactor.db")

	store, err := Open[int, counterState](Config{DatabaseFileName: dbPath})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open[int, counterState](Config{
		DatabaseFileName: dbPath,
		SkipMigrations:   true,
	})
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.Save(context.Background(), "k", 1, counterState{N: 1}))
}
