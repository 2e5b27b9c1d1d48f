package icss

import (
	"context"

	"github.com/jmoiron/sqlx"

	"intcode.dev/intcode/icss/internal/dbutil"
	"intcode.dev/intcode/icss/internal/migrations"
	"intcode.dev/intcode/icss/internal/sqlstores"
)

func OpenDB(p string) (*sqlx.DB, error) {
	return dbutil.Open(p)
}

func SetupDB(ctx context.Context, db *sqlx.DB) error {
	return migrations.Migrate(ctx, db, currentSchema)
}

var currentSchema = func() *migrations.State {
	x := migrations.InitialState()
	x = sqlstores.Migration(x)
	x = x.ApplyStmt(`CREATE TABLE programs (
		id BLOB NOT NULL,
		name TEXT NOT NULL,
		words INTEGER NOT NULL,
		created_s INTEGER NOT NULL,
		created_ns INTEGER NOT NULL,

		FOREIGN KEY(id) REFERENCES blobs(id),
		PRIMARY KEY(id)
	) WITHOUT ROWID, STRICT`)
	x = x.ApplyStmt(`CREATE TABLE runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		program_id BLOB NOT NULL,
		catalogue TEXT NOT NULL,
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		state TEXT NOT NULL,
		error TEXT NOT NULL,
		steps INTEGER NOT NULL,
		memory TEXT,
		started_s INTEGER NOT NULL,
		started_ns INTEGER NOT NULL,
		ended_s INTEGER NOT NULL,
		ended_ns INTEGER NOT NULL,

		FOREIGN KEY(program_id) REFERENCES programs(id)
	) STRICT`)
	x = x.ApplyStmt(`CREATE INDEX runs_program ON runs (program_id, id)`)
	return x
}()
