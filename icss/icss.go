// package icss is the intcode storage system.
//
// A System keeps a registry of programs and a history of their runs in a SQLite database.
// Programs are content addressed: a program's ID is the hash of its canonical encoding.
// Machine state is never persisted; a run record holds only its inputs and results.
package icss

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/jmoiron/sqlx"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"intcode.dev/intcode"
	"intcode.dev/intcode/icpipe"
	"intcode.dev/intcode/icss/internal/dbutil"
	"intcode.dev/intcode/icss/internal/sqlstores"
	"intcode.dev/intcode/icvm"
)

type (
	Word      = icvm.Word
	ProgramID = intcode.CID
)

const (
	// DefaultStepLimit bounds every machine the System runs.
	DefaultStepLimit = 1 << 26
	// MaxMemoryWords is the largest final memory which is stored with a run.
	MaxMemoryWords = 1 << 16

	programCacheSize = 64
)

// Params configure a System.
type Params struct {
	// Catalogue is used by runs which do not name one. Zero means Full.
	Catalogue icvm.Catalogue
	// StepLimit bounds every machine. Zero means DefaultStepLimit.
	StepLimit uint64
}

// A System is a single database.
type System struct {
	db     *sqlx.DB
	params Params

	mu    sync.Mutex
	cache *simplelru.LRU[ProgramID, icvm.Program]
}

func NewSystem(db *sqlx.DB, params Params) *System {
	if params.Catalogue == 0 {
		params.Catalogue = icvm.Full
	}
	if params.StepLimit == 0 {
		params.StepLimit = DefaultStepLimit
	}
	cache, err := simplelru.NewLRU[ProgramID, icvm.Program](programCacheSize, nil)
	if err != nil {
		panic(err)
	}
	return &System{db: db, params: params, cache: cache}
}

func (s *System) Params() Params {
	return s.params
}

// ProgramInfo describes a program in the registry.
type ProgramInfo struct {
	ID        ProgramID `json:"id"`
	Name      string    `json:"name"`
	Words     int       `json:"size"`
	CreatedAt Timestamp `json:"created_at"`
}

type programRow struct {
	ID        ProgramID `db:"id"`
	Name      string    `db:"name"`
	Words     int       `db:"words"`
	CreatedS  uint64    `db:"created_s"`
	CreatedNS uint32    `db:"created_ns"`
}

func (r programRow) info() ProgramInfo {
	return ProgramInfo{
		ID:        r.ID,
		Name:      r.Name,
		Words:     r.Words,
		CreatedAt: Timestamp{Seconds: r.CreatedS, Nanos: r.CreatedNS},
	}
}

// AddProgram parses code and adds it to the registry under name.
// Adding a program which is already present renames it and returns the same ID.
func (s *System) AddProgram(ctx context.Context, name string, code string) (ProgramID, error) {
	prog, err := icvm.ParseProgram(code)
	if err != nil {
		return ProgramID{}, err
	}
	data := []byte(prog.String())
	if len(data) > intcode.MaxProgramBytes {
		return ProgramID{}, fmt.Errorf("program is %d bytes, larger than the maximum of %d", len(data), intcode.MaxProgramBytes)
	}
	ts := now()
	id, err := dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (ProgramID, error) {
		id, err := s.blobStore(tx).Post(ctx, nil, data)
		if err != nil {
			return ProgramID{}, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO programs (id, name, words, created_s, created_ns)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
			id, name, len(prog), ts.Seconds, ts.Nanos); err != nil {
			return ProgramID{}, err
		}
		return id, nil
	})
	if err != nil {
		return ProgramID{}, err
	}
	s.mu.Lock()
	s.cache.Add(id, prog)
	s.mu.Unlock()
	logctx.Info(ctx, "added program", zap.Stringer("id", id), zap.String("name", name), zap.Int("words", len(prog)))
	return id, nil
}

// GetProgram returns the program with id.
// The returned Program is shared and must not be modified.
func (s *System) GetProgram(ctx context.Context, id ProgramID) (icvm.Program, error) {
	s.mu.Lock()
	prog, ok := s.cache.Get(id)
	s.mu.Unlock()
	if ok {
		return prog, nil
	}
	data, err := dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) ([]byte, error) {
		if err := checkProgram(ctx, tx, id); err != nil {
			return nil, err
		}
		return s.blobStore(tx).Load(ctx, &id)
	})
	if err != nil {
		return nil, err
	}
	prog, err = icvm.ParseProgram(string(data))
	if err != nil {
		return nil, fmt.Errorf("stored program %v: %w", id, err)
	}
	s.mu.Lock()
	s.cache.Add(id, prog)
	s.mu.Unlock()
	return prog, nil
}

func (s *System) GetProgramInfo(ctx context.Context, id ProgramID) (*ProgramInfo, error) {
	var row programRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, name, words, created_s, created_ns FROM programs WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProgramNotFound{ID: id}
		}
		return nil, err
	}
	info := row.info()
	return &info, nil
}

// ListPrograms returns every program in the registry, oldest first.
func (s *System) ListPrograms(ctx context.Context) ([]ProgramInfo, error) {
	var rows []programRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, words, created_s, created_ns FROM programs
		ORDER BY created_s, created_ns, id`); err != nil {
		return nil, err
	}
	ret := make([]ProgramInfo, len(rows))
	for i := range rows {
		ret[i] = rows[i].info()
	}
	return ret, nil
}

// DropProgram removes a program and its run history.
func (s *System) DropProgram(ctx context.Context, id ProgramID) error {
	if err := dbutil.DoTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := checkProgram(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE program_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id); err != nil {
			return err
		}
		return s.blobStore(tx).Delete(ctx, &id)
	}); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache.Remove(id)
	s.mu.Unlock()
	logctx.Info(ctx, "dropped program", zap.Stringer("id", id))
	return nil
}

// Amplify searches every ordering of phases for the largest signal the program produces
// in the pipeline topology t.
func (s *System) Amplify(ctx context.Context, id ProgramID, t icpipe.Topology, phases []Word) (icpipe.Best, error) {
	prog, err := s.GetProgram(ctx, id)
	if err != nil {
		return icpipe.Best{}, err
	}
	return icpipe.MaxSignal(ctx, prog, phases, t, icvm.Config{
		Catalogue: s.params.Catalogue,
		StepLimit: s.params.StepLimit,
	})
}

func (s *System) blobStore(tx *sqlx.Tx) *sqlstores.TxStore {
	return sqlstores.NewTxStore(tx, intcode.Hash, intcode.MaxProgramBytes)
}

func checkProgram(ctx context.Context, tx *sqlx.Tx, id ProgramID) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM programs WHERE id = ?)`, id); err != nil {
		return err
	}
	if !exists {
		return ErrProgramNotFound{ID: id}
	}
	return nil
}
