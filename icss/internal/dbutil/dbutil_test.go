package dbutil

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestDoTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := NewTestDB(t)
	_, err := db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v INTEGER)`)
	require.NoError(t, err)

	require.NoError(t, DoTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO kv VALUES ('a', 1)`)
		return err
	}))
	errAbort := errors.New("abort")
	err = DoTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO kv VALUES ('b', 2)`); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	n, err := DoTx1(ctx, db, func(tx *sqlx.Tx) (int, error) {
		var n int
		err := tx.Get(&n, `SELECT count(*) FROM kv`)
		return n, err
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestOpenFile(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(p)
	require.NoError(t, err)
	defer db.Close()
	var fk int
	require.NoError(t, db.Get(&fk, `PRAGMA foreign_keys`))
	require.Equal(t, 1, fk)
}
