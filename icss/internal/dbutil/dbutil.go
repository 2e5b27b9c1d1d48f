// package dbutil opens SQLite databases and runs transactions against them.
package dbutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Open opens the SQLite database at p.
// p may be ":memory:" for a database which lives as long as the returned *sqlx.DB.
func Open(p string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer, and each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbutil: %s: %w", stmt, err)
		}
	}
	if p != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// Reader is implemented by *sqlx.DB and *sqlx.Tx
type Reader interface {
	Get(dst any, q string, args ...any) error
	Select(dst any, q string, args ...any) error
}

// DoTx runs fn in a transaction, and commits if fn returns nil.
func DoTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// DoTx1 is DoTx for functions which also return a value.
func DoTx1[T any](ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) (T, error)) (T, error) {
	var ret T
	err := DoTx(ctx, db, func(tx *sqlx.Tx) error {
		var err error
		ret, err = fn(tx)
		return err
	})
	return ret, err
}

// NewTestDB returns an in-memory database which is closed when the test ends.
func NewTestDB(t testing.TB) *sqlx.DB {
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
