package icss

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"intcode.dev/intcode/icss/internal/dbutil"
	"intcode.dev/intcode/icvm"
)

type RunID int64

// RunParams configure a single run.
type RunParams struct {
	Input []Word
	// Catalogue overrides the System's catalogue when non-zero.
	Catalogue icvm.Catalogue
}

// RunRecord is the persisted outcome of running a program.
type RunRecord struct {
	ID        RunID     `json:"id"`
	Program   ProgramID `json:"program"`
	Catalogue string    `json:"catalogue"`
	Input     []Word    `json:"input"`
	Output    []Word    `json:"output"`
	// State is the machine's final state: halted, failed, or waiting.
	State string `json:"state"`
	Error string `json:"error,omitempty"`
	Steps uint64 `json:"steps"`
	// Memory is the encoded final memory. It is empty if memory grew beyond MaxMemoryWords.
	Memory    string    `json:"memory,omitempty"`
	StartedAt Timestamp `json:"started_at"`
	EndedAt   Timestamp `json:"ended_at"`
}

// Run runs a program to completion on a blocking machine and records the outcome.
// The input queue is closed after params.Input, so a program which reads more input fails.
// A machine failure is part of the returned record, not an error.
func (s *System) Run(ctx context.Context, id ProgramID, params RunParams) (*RunRecord, error) {
	prog, err := s.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	cat := params.Catalogue
	if cat == 0 {
		cat = s.params.Catalogue
	}
	in := icvm.NewQueue(params.Input...)
	in.Close()
	m := icvm.New(prog, icvm.Config{
		Catalogue: cat,
		StepLimit: s.params.StepLimit,
		Input:     in,
	})
	started := now()
	_, runErr := m.Run(ctx)
	if runErr != nil && ctx.Err() != nil {
		return nil, runErr
	}
	rec := newRunRecord(id, m, params.Input, slices.Collect(m.Outputs()))
	rec.StartedAt = started
	if err := s.saveRun(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func newRunRecord(id ProgramID, m *icvm.Machine, input, output []Word) *RunRecord {
	rec := &RunRecord{
		Program:   id,
		Catalogue: m.Catalogue().String(),
		Input:     input,
		Output:    output,
		State:     m.State().String(),
		Steps:     m.Steps(),
	}
	if err := m.Err(); err != nil {
		rec.Error = err.Error()
	}
	if m.MemLen() <= MaxMemoryWords {
		rec.Memory = m.String()
	}
	return rec
}

// saveRun inserts rec, and sets its ID and EndedAt.
func (s *System) saveRun(ctx context.Context, rec *RunRecord) error {
	rec.EndedAt = now()
	var mem sql.NullString
	if rec.Memory != "" {
		mem = sql.NullString{String: rec.Memory, Valid: true}
	}
	rid, err := dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) (RunID, error) {
		if err := checkProgram(ctx, tx, rec.Program); err != nil {
			return 0, err
		}
		var rid RunID
		err := tx.GetContext(ctx, &rid, `INSERT INTO runs (program_id, catalogue, input, output, state, error, steps, memory,
			started_s, started_ns, ended_s, ended_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			rec.Program, rec.Catalogue, icvm.FormatWords(rec.Input), icvm.FormatWords(rec.Output),
			rec.State, rec.Error, rec.Steps, mem,
			rec.StartedAt.Seconds, rec.StartedAt.Nanos, rec.EndedAt.Seconds, rec.EndedAt.Nanos)
		return rid, err
	})
	if err != nil {
		return err
	}
	rec.ID = rid
	logctx.Info(ctx, "run finished",
		zap.Int64("run", int64(rid)),
		zap.Stringer("program", rec.Program),
		zap.String("state", rec.State),
		zap.Uint64("steps", rec.Steps),
	)
	return nil
}

type runRow struct {
	ID        RunID          `db:"id"`
	ProgramID ProgramID      `db:"program_id"`
	Catalogue string         `db:"catalogue"`
	Input     string         `db:"input"`
	Output    string         `db:"output"`
	State     string         `db:"state"`
	Error     string         `db:"error"`
	Steps     uint64         `db:"steps"`
	Memory    sql.NullString `db:"memory"`
	StartedS  uint64         `db:"started_s"`
	StartedNS uint32         `db:"started_ns"`
	EndedS    uint64         `db:"ended_s"`
	EndedNS   uint32         `db:"ended_ns"`
}

func (r runRow) record() (*RunRecord, error) {
	input, err := parseWords(r.Input)
	if err != nil {
		return nil, err
	}
	output, err := parseWords(r.Output)
	if err != nil {
		return nil, err
	}
	return &RunRecord{
		ID:        r.ID,
		Program:   r.ProgramID,
		Catalogue: r.Catalogue,
		Input:     input,
		Output:    output,
		State:     r.State,
		Error:     r.Error,
		Steps:     r.Steps,
		Memory:    r.Memory.String,
		StartedAt: Timestamp{Seconds: r.StartedS, Nanos: r.StartedNS},
		EndedAt:   Timestamp{Seconds: r.EndedS, Nanos: r.EndedNS},
	}, nil
}

const selectRuns = `SELECT id, program_id, catalogue, input, output, state, error, steps, memory,
	started_s, started_ns, ended_s, ended_ns FROM runs`

// ListRuns returns the runs of a program, oldest first.
func (s *System) ListRuns(ctx context.Context, id ProgramID) ([]RunRecord, error) {
	rows, err := dbutil.DoTx1(ctx, s.db, func(tx *sqlx.Tx) ([]runRow, error) {
		if err := checkProgram(ctx, tx, id); err != nil {
			return nil, err
		}
		var rows []runRow
		err := tx.SelectContext(ctx, &rows, selectRuns+` WHERE program_id = ? ORDER BY id`, id)
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	ret := make([]RunRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		ret = append(ret, *rec)
	}
	return ret, nil
}

func (s *System) GetRun(ctx context.Context, rid RunID) (*RunRecord, error) {
	var row runRow
	if err := s.db.GetContext(ctx, &row, selectRuns+` WHERE id = ?`, rid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound{ID: rid}
		}
		return nil, err
	}
	return row.record()
}

func parseWords(x string) ([]Word, error) {
	if strings.TrimSpace(x) == "" {
		return nil, nil
	}
	p, err := icvm.ParseProgram(x)
	return []Word(p), err
}
