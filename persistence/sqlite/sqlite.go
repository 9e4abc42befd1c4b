// Package sqlite is the durable reference Persistence backend: one table,
// `database/sql` plus `mattn/go-sqlite3`, schema applied by golang-migrate
// at open time.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/catalyst-oss/vactor"
	"github.com/catalyst-oss/vactor/persistence"
)

// ErrEncode and ErrDecode wrap gob failures the same way persistence/memory
// does, so callers can distinguish a storage-layer failure from a
// genuinely missing row.
var (
	ErrEncode = errors.New("sqlite: failed to encode")
	ErrDecode = errors.New("sqlite: failed to decode")
)

const (
	defaultMaxConns        = 25
	defaultConnMaxLifetime = 10 * time.Minute
)

// Config holds the arguments needed to open a Store, grounded on
// internal/db/sqlite.go's SqliteConfig (trimmed to what this reference
// backend needs: no migration-backup knob, since this package has no
// backup implementation to carry over).
type Config struct {
	// DatabaseFileName is the full path to the sqlite database file.
	DatabaseFileName string

	// SkipMigrations, if true, assumes the schema already exists.
	SkipMigrations bool
}

// Store is a sqlite-backed Persistence[ID, State] implementation.
type Store[ID comparable, State any] struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at cfg's path,
// applying WAL mode and a busy timeout exactly as
// internal/db/sqlite.go's NewSqliteStore does, then runs migrations
// unless skipped.
func Open[ID comparable, State any](cfg Config) (*Store[ID, State], error) {
	dir := filepath.Dir(cfg.DatabaseFileName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000",
		cfg.DatabaseFileName,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxConns)
	db.SetMaxIdleConns(defaultMaxConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	if !cfg.SkipMigrations {
		if err := runMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store[ID, State]{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store[ID, State]) Close() error { return s.db.Close() }

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load implements persistence.Persistence.
func (s *Store[ID, State]) Load(
	ctx context.Context, kind vactor.ActorKind, id ID,
) (fn.Option[State], error) {

	var none fn.Option[State]

	idBytes, err := encode(id)
	if err != nil {
		return none, fmt.Errorf("%w: id: %v", ErrEncode, err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT state FROM actor_state WHERE kind = ? AND id = ?`,
		string(kind), idBytes,
	)

	var stateBytes []byte
	if err := row.Scan(&stateBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return none, nil
		}
		return none, fmt.Errorf("sqlite: loading state: %w", err)
	}

	var state State
	if err := gob.NewDecoder(bytes.NewReader(stateBytes)).Decode(&state); err != nil {
		return none, fmt.Errorf("%w: state: %v", ErrDecode, err)
	}

	return fn.Some(state), nil
}

// Save implements persistence.Persistence.
func (s *Store[ID, State]) Save(
	ctx context.Context, kind vactor.ActorKind, id ID, state State,
) error {

	idBytes, err := encode(id)
	if err != nil {
		return fmt.Errorf("%w: id: %v", ErrEncode, err)
	}

	stateBytes, err := encode(state)
	if err != nil {
		return fmt.Errorf("%w: state: %v", ErrEncode, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO actor_state (kind, id, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, string(kind), idBytes, stateBytes, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite: saving state: %w", err)
	}

	return nil
}

// Clear implements persistence.Persistence.
func (s *Store[ID, State]) Clear(ctx context.Context, kind vactor.ActorKind, id ID) error {
	idBytes, err := encode(id)
	if err != nil {
		return fmt.Errorf("%w: id: %v", ErrEncode, err)
	}

	_, err = s.db.ExecContext(
		ctx, `DELETE FROM actor_state WHERE kind = ? AND id = ?`,
		string(kind), idBytes,
	)
	if err != nil {
		return fmt.Errorf("sqlite: clearing state: %w", err)
	}

	return nil
}

var _ persistence.Persistence[int, struct{}] = (*Store[int, struct{}])(nil)
