package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgSchemaSQL = `CREATE TABLE IF NOT EXISTS tgrelay_kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	pgGetSQL       = `SELECT value FROM tgrelay_kv WHERE key = $1`
	pgGetForUpdate = `SELECT value FROM tgrelay_kv WHERE key = $1 FOR UPDATE`
	pgUpsertSQL    = `INSERT INTO tgrelay_kv (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	pgInsertNewSQL = `INSERT INTO tgrelay_kv (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO NOTHING`
	pgUpdateSQL = `UPDATE tgrelay_kv SET value = $2, updated_at = now() WHERE key = $1`
	pgDeleteSQL = `DELETE FROM tgrelay_kv WHERE key = $1`
	pgKeysSQL   = `SELECT key FROM tgrelay_kv WHERE left(key, char_length($1)) = $1 ORDER BY key`

	pgTxMaxRetries = 16
)

// errPgRaced marks an Update whose key was created by another writer after
// this transaction saw it as absent.
var errPgRaced = errors.New("postgres: key created concurrently")

// pgxConn is the subset of *pgxpool.Pool the store needs.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore keeps keys in a single tgrelay_kv table. Update locks the
// row with SELECT ... FOR UPDATE for the span of the mutation. A key that
// does not exist yet has no row to lock, so its first write only inserts
// if still absent and the whole Update is retried otherwise.
type PostgresStore struct {
	db    pgxConn
	close func()
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := newPostgresStore(pool, pool.Close)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(db pgxConn, closeFn func()) *PostgresStore {
	return &PostgresStore{db: db, close: closeFn}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchemaSQL); err != nil {
		return fmt.Errorf("postgres ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	key, err := ValidateKey(key)
	if err != nil {
		return nil, false, err
	}
	var value []byte
	if err := s.db.QueryRow(ctx, pgGetSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	key, err := ValidateKey(key)
	if err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.Exec(ctx, pgUpsertSQL, key, value); err != nil {
		return fmt.Errorf("postgres put %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	key, err := ValidateKey(key)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, pgDeleteSQL, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Query(ctx, pgKeysSQL, normalizePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("postgres keys: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("postgres keys scan: %w", err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres keys: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	key, err := validateUpdate(key, fn)
	if err != nil {
		return err
	}
	for i := 0; i < pgTxMaxRetries; i++ {
		err := s.updateOnce(ctx, key, fn)
		if errors.Is(err, errPgRaced) {
			continue
		}
		return err
	}
	return fmt.Errorf("postgres update %s: %w", key, ErrConflict)
}

func (s *PostgresStore) updateOnce(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var cur []byte
	exists := true
	if err := tx.QueryRow(ctx, pgGetForUpdate, key).Scan(&cur); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("postgres lock %s: %w", key, err)
		}
		cur, exists = nil, false
	}
	next, err := fn(cur, exists)
	if err != nil {
		return err
	}
	switch {
	case next == nil && exists:
		if _, err := tx.Exec(ctx, pgDeleteSQL, key); err != nil {
			return fmt.Errorf("postgres delete %s: %w", key, err)
		}
	case next == nil:
	case exists:
		if _, err := tx.Exec(ctx, pgUpdateSQL, key, next); err != nil {
			return fmt.Errorf("postgres put %s: %w", key, err)
		}
	default:
		tag, err := tx.Exec(ctx, pgInsertNewSQL, key, next)
		if err != nil {
			return fmt.Errorf("postgres put %s: %w", key, err)
		}
		if tag.RowsAffected() == 0 {
			return errPgRaced
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres commit: %w", err)
	}
	committed = true
	return nil
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
