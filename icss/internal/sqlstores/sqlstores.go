// package sqlstores implements a content-addressed blob store in SQLite.
package sqlstores

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/jmoiron/sqlx"

	"intcode.dev/intcode/icss/internal/dbutil"
	"intcode.dev/intcode/icss/internal/migrations"
	"intcode.dev/intcode/internal/cadata"
)

func Migration(x *migrations.State) *migrations.State {
	return x.
		ApplyStmt(`CREATE TABLE blobs (
		id BLOB NOT NULL,
		salt BLOB,
		data BLOB NOT NULL,

		PRIMARY KEY(id)
	) WITHOUT ROWID, STRICT;`)
}

var _ cadata.Store = &TxStore{}

// TxStore is a blob store scoped to a single transaction.
type TxStore struct {
	tx      *sqlx.Tx
	hf      cadata.HashFunc
	maxSize int
}

func NewTxStore(tx *sqlx.Tx, hf cadata.HashFunc, maxSize int) *TxStore {
	return &TxStore{tx: tx, hf: hf, maxSize: maxSize}
}

func (s *TxStore) Post(ctx context.Context, salt *cadata.ID, data []byte) (cadata.ID, error) {
	if len(data) > s.MaxSize() {
		return cadata.ID{}, cadata.ErrTooLarge
	}
	id := s.Hash(salt, data)
	if _, err := s.tx.ExecContext(ctx, `INSERT INTO blobs (id, salt, data)
		VALUES (?, ?, ?) ON CONFLICT DO NOTHING`, id[:], saltBytes(salt), data); err != nil {
		return cadata.ID{}, err
	}
	return id, nil
}

func (s *TxStore) Get(ctx context.Context, id *cadata.ID, salt *cadata.ID, buf []byte) (int, error) {
	data, err := s.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(data) > len(buf) {
		return 0, io.ErrShortBuffer
	}
	if err := cadata.Check(s.hf, id, salt, data); err != nil {
		return 0, err
	}
	return copy(buf, data), nil
}

// Load returns the data for id, allocating a buffer of the right size.
func (s *TxStore) Load(ctx context.Context, id *cadata.ID) ([]byte, error) {
	var data []byte
	if err := s.tx.GetContext(ctx, &data, `SELECT data FROM blobs WHERE id = ?`, id[:]); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = cadata.ErrNotFound{Key: id}
		}
		return nil, err
	}
	return data, nil
}

func (s *TxStore) Delete(ctx context.Context, id *cadata.ID) error {
	_, err := s.tx.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id[:])
	return err
}

func (s *TxStore) Exists(ctx context.Context, id *cadata.ID) (bool, error) {
	var exists bool
	if err := s.tx.GetContext(ctx, &exists, `SELECT EXISTS(
		SELECT 1 FROM blobs WHERE id = ?
	)`, id[:]); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *TxStore) MaxSize() int {
	return s.maxSize
}

func (s *TxStore) Hash(salt *cadata.ID, x []byte) cadata.ID {
	return s.hf(salt, x)
}

var _ cadata.Store = &Store{}

// Store runs each operation in its own transaction.
type Store struct {
	db      *sqlx.DB
	hf      cadata.HashFunc
	maxSize int
}

func NewStore(db *sqlx.DB, hf cadata.HashFunc, maxSize int) *Store {
	return &Store{db: db, hf: hf, maxSize: maxSize}
}

func (s *Store) Post(ctx context.Context, salt *cadata.ID, data []byte) (cadata.ID, error) {
	return dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (cadata.ID, error) {
		return s.txStore(tx).Post(ctx, salt, data)
	})
}

func (s *Store) Get(ctx context.Context, id *cadata.ID, salt *cadata.ID, buf []byte) (int, error) {
	return dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (int, error) {
		return s.txStore(tx).Get(ctx, id, salt, buf)
	})
}

func (s *Store) Exists(ctx context.Context, id *cadata.ID) (bool, error) {
	return dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (bool, error) {
		return s.txStore(tx).Exists(ctx, id)
	})
}

func (s *Store) Delete(ctx context.Context, id *cadata.ID) error {
	return dbutil.DoTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.txStore(tx).Delete(ctx, id)
	})
}

func (s *Store) MaxSize() int {
	return s.maxSize
}

func (s *Store) Hash(salt *cadata.ID, x []byte) cadata.ID {
	return s.hf(salt, x)
}

func (s *Store) txStore(tx *sqlx.Tx) *TxStore {
	return NewTxStore(tx, s.hf, s.maxSize)
}

// CountBlobs returns the number of blobs in the database.
func CountBlobs(tx dbutil.Reader) (int64, error) {
	var ret int64
	err := tx.Get(&ret, `SELECT count(*) FROM blobs`)
	return ret, err
}

func saltBytes(salt *cadata.ID) []byte {
	if salt == nil {
		return nil
	}
	return salt[:]
}
