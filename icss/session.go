package icss

import (
	"context"
	"fmt"
	"slices"

	"intcode.dev/intcode/icvm"
)

// Session is an interactive run of a program on a non-blocking machine.
// Input arrives in batches; after each batch the machine runs until it needs more.
// When the machine stops, the whole exchange is recorded as a run.
// A Session is not safe for concurrent use.
type Session struct {
	sys *System
	id  ProgramID
	m   *icvm.Machine

	started Timestamp
	input   []Word
	output  []Word
	rec     *RunRecord
}

// Update is what a Session reports after each batch of input.
type Update struct {
	Outputs []Word `json:"outputs"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
	RunID   RunID  `json:"run,omitempty"`
}

func (s *System) OpenSession(ctx context.Context, id ProgramID, cat icvm.Catalogue) (*Session, error) {
	prog, err := s.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == 0 {
		cat = s.params.Catalogue
	}
	return &Session{
		sys: s,
		id:  id,
		m: icvm.New(prog, icvm.Config{
			Catalogue:   cat,
			StepLimit:   s.params.StepLimit,
			NonBlocking: true,
		}),
		started: now(),
	}, nil
}

// Feed queues input and runs the machine until it halts, fails, or waits for more input.
func (s *Session) Feed(ctx context.Context, input ...Word) (*Update, error) {
	if s.rec != nil {
		return nil, fmt.Errorf("%w: session has finished", icvm.ErrInvalidState)
	}
	s.m.PutInput(input...)
	s.input = append(s.input, input...)
	st, err := s.m.Run(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	outs := slices.Collect(s.m.Outputs())
	s.output = append(s.output, outs...)
	u := &Update{Outputs: outs, State: s.m.State().String()}
	if err != nil {
		u.Error = err.Error()
	}
	if err != nil || st == icvm.StatusHalted {
		rec := newRunRecord(s.id, s.m, s.input, s.output)
		rec.StartedAt = s.started
		if err := s.sys.saveRun(ctx, rec); err != nil {
			return nil, err
		}
		s.rec = rec
		u.RunID = rec.ID
	}
	return u, nil
}

// Done returns true once the machine has stopped.
func (s *Session) Done() bool {
	return s.rec != nil
}

// Record returns the run recorded when the session finished, or nil.
func (s *Session) Record() *RunRecord {
	return s.rec
}
