package icvm

import (
	"errors"
	"fmt"
	"strings"
)

// Catalogue is a set of enabled instruction groups.
// Later catalogues strictly extend earlier ones.
type Catalogue uint8

const (
	// CapArith enables ADD, MUL and HALT.
	CapArith Catalogue = 1 << iota
	// CapIO enables IN and OUT.
	CapIO
	// CapBranch enables JNZ, JZ, LT and EQ.
	CapBranch
	// CapRelative enables ARB and relative parameter mode.
	CapRelative
)

const (
	Baseline = CapArith
	Extended = Baseline | CapIO | CapBranch
	Full     = Extended | CapRelative
)

func (c Catalogue) Has(x Catalogue) bool {
	return c&x == x
}

func (c Catalogue) String() string {
	switch c {
	case Baseline:
		return "baseline"
	case Extended:
		return "extended"
	case Full:
		return "full"
	}
	var parts []string
	for _, x := range []struct {
		c    Catalogue
		name string
	}{{CapArith, "arith"}, {CapIO, "io"}, {CapBranch, "branch"}, {CapRelative, "relative"}} {
		if c.Has(x.c) {
			parts = append(parts, x.name)
		}
	}
	return strings.Join(parts, "+")
}

// ParseCatalogue parses the names produced by Catalogue.String.
// The empty string parses as Full.
func ParseCatalogue(x string) (Catalogue, error) {
	switch strings.ToLower(strings.TrimSpace(x)) {
	case "", "full", "day9":
		return Full, nil
	case "extended", "day5":
		return Extended, nil
	case "baseline", "day2":
		return Baseline, nil
	}
	var ret Catalogue
	for _, part := range strings.Split(x, "+") {
		switch part {
		case "arith":
			ret |= CapArith
		case "io":
			ret |= CapIO
		case "branch":
			ret |= CapBranch
		case "relative":
			ret |= CapRelative
		default:
			return 0, fmt.Errorf("unknown catalogue %q", x)
		}
	}
	return ret, nil
}

// execFunc executes an instruction whose parameters have been resolved to addresses.
// Immediate parameters resolve to the address of the operand itself.
type execFunc = func(m *Machine, args []Addr) (Status, error)

type instrDef struct {
	params int
	// writes is true when the last parameter is a write target.
	writes bool
	cap    Catalogue
	exec   execFunc
}

var instrTable = [opcodeSpace]*instrDef{
	OpAdd:           {params: 3, writes: true, cap: CapArith, exec: execAdd},
	OpMultiply:      {params: 3, writes: true, cap: CapArith, exec: execMultiply},
	OpInput:         {params: 1, writes: true, cap: CapIO, exec: execInput},
	OpOutput:        {params: 1, cap: CapIO, exec: execOutput},
	OpJumpIfTrue:    {params: 2, cap: CapBranch, exec: execJumpIfTrue},
	OpJumpIfFalse:   {params: 2, cap: CapBranch, exec: execJumpIfFalse},
	OpLessThan:      {params: 3, writes: true, cap: CapBranch, exec: execLessThan},
	OpEquals:        {params: 3, writes: true, cap: CapBranch, exec: execEquals},
	OpAdjustRelBase: {params: 1, cap: CapRelative, exec: execAdjustRelBase},
	OpHalt:          {params: 0, cap: CapArith, exec: execHalt},
}

func execAdd(m *Machine, args []Addr) (Status, error) {
	m.mem.Write(args[2], m.mem.Read(args[0])+m.mem.Read(args[1]))
	return StatusContinued, nil
}

func execMultiply(m *Machine, args []Addr) (Status, error) {
	m.mem.Write(args[2], m.mem.Read(args[0])*m.mem.Read(args[1]))
	return StatusContinued, nil
}

func execInput(m *Machine, args []Addr) (Status, error) {
	v, err := m.getInput()
	if errors.Is(err, ErrWaitingForInput) {
		return StatusWaitingForInput, nil
	} else if err != nil {
		return 0, err
	}
	m.mem.Write(args[0], v)
	return StatusContinued, nil
}

func execOutput(m *Machine, args []Addr) (Status, error) {
	m.putOutput(m.mem.Read(args[0]))
	return StatusContinued, nil
}

func execJumpIfTrue(m *Machine, args []Addr) (Status, error) {
	if m.mem.Read(args[0]) != 0 {
		return StatusContinued, m.jump(m.mem.Read(args[1]))
	}
	return StatusContinued, nil
}

func execJumpIfFalse(m *Machine, args []Addr) (Status, error) {
	if m.mem.Read(args[0]) == 0 {
		return StatusContinued, m.jump(m.mem.Read(args[1]))
	}
	return StatusContinued, nil
}

func execLessThan(m *Machine, args []Addr) (Status, error) {
	m.mem.Write(args[2], boolWord(m.mem.Read(args[0]) < m.mem.Read(args[1])))
	return StatusContinued, nil
}

func execEquals(m *Machine, args []Addr) (Status, error) {
	m.mem.Write(args[2], boolWord(m.mem.Read(args[0]) == m.mem.Read(args[1])))
	return StatusContinued, nil
}

func execAdjustRelBase(m *Machine, args []Addr) (Status, error) {
	m.relBase += m.mem.Read(args[0])
	return StatusContinued, nil
}

func execHalt(m *Machine, args []Addr) (Status, error) {
	return StatusHalted, nil
}

func boolWord(x bool) Word {
	if x {
		return 1
	}
	return 0
}
