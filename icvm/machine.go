// package icvm contains an implementation of the intcode virtual machine.
//
// A Machine owns a sparse Memory, a program counter, a relative base register,
// and an input and output Queue. It executes one instruction per Step.
package icvm

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

type (
	Word = int64
	Addr = uint64
)

// State is the lifecycle state of a Machine.
type State uint8

const (
	NotStarted State = iota
	Running
	WaitingForInput
	Halted
	// Failed is terminal, like Halted. Err reports the cause.
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case WaitingForInput:
		return "waiting"
	case Halted:
		return "halted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Status is the outcome of a Step or Run which did not fail.
type Status uint8

const (
	// StatusContinued means an instruction executed and the machine can keep going.
	StatusContinued Status = iota
	// StatusWaitingForInput means a non-blocking machine needs input before it can continue.
	// The program counter still points at the INPUT instruction.
	StatusWaitingForInput
	StatusHalted
)

func (s Status) String() string {
	switch s {
	case StatusContinued:
		return "continued"
	case StatusWaitingForInput:
		return "waiting"
	case StatusHalted:
		return "halted"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Config controls how a Machine is constructed.
// The zero value is a blocking machine with the Full catalogue and fresh queues.
type Config struct {
	Catalogue Catalogue
	// NonBlocking makes INPUT on an empty queue yield StatusWaitingForInput
	// instead of blocking the caller.
	NonBlocking bool
	// Input and Output are allocated if nil.
	// A queue may be shared as one machine's Output and another's Input.
	Input  *Queue
	Output *Queue
	// StepLimit fails the machine with ErrStepLimit after that many instructions. 0 means no limit.
	StepLimit uint64
}

type Machine struct {
	mem     *Memory
	pc      Addr
	relBase Word
	state   State
	err     error
	steps   uint64

	cat         Catalogue
	nonBlocking bool
	stepLimit   uint64
	in, out     *Queue
	ctx         context.Context

	jumped  bool
	args    [MaxParams]Addr
	last    Word
	hasLast bool
}

// New creates a Machine with prog loaded at address 0.
// prog is copied; the machine never modifies it.
func New(prog Program, cfg Config) *Machine {
	if cfg.Catalogue == 0 {
		cfg.Catalogue = Full
	}
	if cfg.Input == nil {
		cfg.Input = NewQueue()
	}
	if cfg.Output == nil {
		cfg.Output = NewQueue()
	}
	return &Machine{
		mem: NewMemory(prog),

		cat:         cfg.Catalogue,
		nonBlocking: cfg.NonBlocking,
		stepLimit:   cfg.StepLimit,
		in:          cfg.Input,
		out:         cfg.Output,
	}
}

// Run steps the machine until it halts, fails, or (non-blocking only) needs input.
// Calling Run again after StatusWaitingForInput retries the same INPUT instruction.
// Cancelling ctx fails the machine.
func (m *Machine) Run(ctx context.Context) (Status, error) {
	for i := 0; ; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil && m.isLive() {
				return m.fail(err)
			}
		}
		st, err := m.Step(ctx)
		if err != nil || st != StatusContinued {
			return st, err
		}
	}
}

// Step executes exactly one instruction.
func (m *Machine) Step(ctx context.Context) (Status, error) {
	switch m.state {
	case Halted:
		return StatusHalted, fmt.Errorf("%w: machine has halted", ErrInvalidState)
	case Failed:
		return StatusHalted, fmt.Errorf("%w: machine has failed: %w", ErrInvalidState, m.err)
	}
	if m.stepLimit > 0 && m.steps >= m.stepLimit {
		return m.fail(ErrStepLimit)
	}
	m.state = Running
	m.ctx = ctx
	defer func() { m.ctx = nil }()
	return m.step()
}

func (m *Machine) step() (Status, error) {
	w := m.mem.Read(m.pc)
	ins, err := Decode(w, m.cat)
	if err != nil {
		return m.fail(err)
	}
	args := m.args[:ins.NParams]
	for i := range args {
		a, err := m.resolve(i, ins.Modes[i])
		if err != nil {
			return m.fail(err)
		}
		args[i] = a
	}
	m.jumped = false
	st, err := instrTable[ins.Op].exec(m, args)
	if err != nil {
		return m.fail(err)
	}
	switch st {
	case StatusWaitingForInput:
		m.state = WaitingForInput
		return st, nil
	case StatusHalted:
		m.steps++
		m.halt()
		return st, nil
	}
	m.steps++
	if !m.jumped {
		m.pc += Addr(1 + ins.NParams)
	}
	return StatusContinued, nil
}

// resolve returns the address of parameter i of the current instruction.
func (m *Machine) resolve(i int, mode Mode) (Addr, error) {
	slot := m.pc + Addr(i+1)
	var x Word
	switch mode {
	case ModeImmediate:
		return slot, nil
	case ModePosition:
		x = m.mem.Read(slot)
	case ModeRelative:
		x = m.mem.Read(slot) + m.relBase
	default:
		return 0, ErrInvalidParameterMode{Word: m.mem.Read(m.pc), Param: i + 1, Mode: Word(mode)}
	}
	if x < 0 {
		return 0, ErrInvalidAddress{Param: i + 1, Addr: x}
	}
	return Addr(x), nil
}

func (m *Machine) jump(to Word) error {
	if to < 0 {
		return ErrInvalidAddress{Param: 2, Addr: to}
	}
	m.pc = Addr(to)
	m.jumped = true
	return nil
}

func (m *Machine) getInput() (Word, error) {
	if m.nonBlocking {
		v, err := m.in.TryPop()
		if errors.Is(err, ErrQueueEmpty) {
			return 0, ErrWaitingForInput
		}
		return v, err
	}
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return m.in.Pop(ctx)
}

func (m *Machine) putOutput(v Word) {
	m.out.Push(v)
	m.last, m.hasLast = v, true
}

func (m *Machine) halt() {
	m.state = Halted
	m.out.Close()
}

func (m *Machine) fail(err error) (Status, error) {
	m.err = fmt.Errorf("icvm: pc=%d: %w", m.pc, err)
	m.state = Failed
	m.out.Close()
	return StatusHalted, m.err
}

func (m *Machine) isLive() bool {
	return m.state != Halted && m.state != Failed
}

// PutInput appends vals to the input queue. It never fails.
func (m *Machine) PutInput(vals ...Word) {
	for _, v := range vals {
		m.in.Push(v)
	}
}

// Output removes and returns the oldest value from the output queue, blocking until
// one is produced. If the machine stops without producing one, Output returns ErrInvalidState.
func (m *Machine) Output(ctx context.Context) (Word, error) {
	v, err := m.out.Pop(ctx)
	if errors.Is(err, ErrQueueClosed) {
		return 0, fmt.Errorf("%w: machine is %v and has no output", ErrInvalidState, m.state)
	}
	return v, err
}

// TryOutput removes and returns the oldest value from the output queue.
// It returns ErrQueueEmpty if none is ready, leaving the queue unchanged.
func (m *Machine) TryOutput() (Word, error) {
	v, err := m.out.TryPop()
	if errors.Is(err, ErrQueueClosed) {
		return 0, ErrQueueEmpty
	}
	return v, err
}

// Outputs drains the output queue. Values are not retained once read.
func (m *Machine) Outputs() iter.Seq[Word] {
	return func(yield func(Word) bool) {
		for {
			v, err := m.out.TryPop()
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// LastOutput returns the last value the machine has emitted, whether or not it has been read.
func (m *Machine) LastOutput() (Word, bool) {
	return m.last, m.hasLast
}

func (m *Machine) State() State {
	return m.state
}

// Err returns the error which failed the machine, or nil.
func (m *Machine) Err() error {
	return m.err
}

func (m *Machine) PC() Addr {
	return m.pc
}

func (m *Machine) RelBase() Word {
	return m.relBase
}

// Steps returns the number of instructions executed.
func (m *Machine) Steps() uint64 {
	return m.steps
}

func (m *Machine) Catalogue() Catalogue {
	return m.cat
}

// Peek reads a single address of the machine's memory.
func (m *Machine) Peek(a Addr) Word {
	return m.mem.Read(a)
}

// MemLen returns one past the highest address of memory in use.
func (m *Machine) MemLen() Addr {
	return m.mem.Len()
}

// Dump appends the machine's memory to out.
func (m *Machine) Dump(out []Word) []Word {
	return m.mem.Dump(out)
}

// String encodes the machine's memory in the comma separated program format.
func (m *Machine) String() string {
	return FormatWords(m.Dump(nil))
}
