// package migrations applies an append-only list of schema statements to a database.
//
// The number of statements already applied is kept in SQLite's user_version.
package migrations

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"
)

// State is a schema, described by the statements which build it.
// States are immutable; ApplyStmt returns a new State.
type State struct {
	stmts []string
}

func InitialState() *State {
	return &State{}
}

func (s *State) ApplyStmt(stmt string) *State {
	return &State{stmts: append(slices.Clip(s.stmts), stmt)}
}

// Version is the number of statements in the State.
func (s *State) Version() int {
	return len(s.stmts)
}

// Migrate brings db up to the desired State.
// It fails if db is already ahead of desired.
func Migrate(ctx context.Context, db *sqlx.DB, desired *State) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var current int
	if err := tx.GetContext(ctx, &current, `PRAGMA user_version`); err != nil {
		return err
	}
	if current > desired.Version() {
		return fmt.Errorf("migrations: database version %d is newer than %d", current, desired.Version())
	}
	if current == desired.Version() {
		return nil
	}
	for i, stmt := range desired.stmts[current:] {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrations: applying statement %d: %w", current+i, err)
		}
	}
	// PRAGMA does not accept bound parameters
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, desired.Version())); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logctx.Info(ctx, "migrated database", zap.Int("from", current), zap.Int("to", desired.Version()))
	return nil
}
