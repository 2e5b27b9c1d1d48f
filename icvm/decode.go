package icvm

import "fmt"

// Mode is a parameter addressing mode.
type Mode uint8

const (
	// ModePosition: the operand is the address of the value.
	ModePosition Mode = 0
	// ModeImmediate: the operand is the value.
	ModeImmediate Mode = 1
	// ModeRelative: the operand plus the relative base is the address of the value.
	ModeRelative Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeImmediate:
		return "immediate"
	case ModeRelative:
		return "relative"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Opcode selects an operation. It is the low two decimal digits of an instruction word.
type Opcode uint8

const (
	OpAdd           Opcode = 1
	OpMultiply      Opcode = 2
	OpInput         Opcode = 3
	OpOutput        Opcode = 4
	OpJumpIfTrue    Opcode = 5
	OpJumpIfFalse   Opcode = 6
	OpLessThan      Opcode = 7
	OpEquals        Opcode = 8
	OpAdjustRelBase Opcode = 9
	OpHalt          Opcode = 99
)

const (
	// MaxParams is the largest parameter count of any instruction.
	MaxParams          = 3
	opcodeSpace        = 100
	modeDigitsPerParam = 10
)

var opNames = [opcodeSpace]string{
	OpAdd:           "ADD",
	OpMultiply:      "MUL",
	OpInput:         "IN",
	OpOutput:        "OUT",
	OpJumpIfTrue:    "JNZ",
	OpJumpIfFalse:   "JZ",
	OpLessThan:      "LT",
	OpEquals:        "EQ",
	OpAdjustRelBase: "ARB",
	OpHalt:          "HALT",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Instr is a decoded instruction word.
// Only the first NParams entries of Modes are meaningful.
type Instr struct {
	Op      Opcode
	NParams int
	Modes   [MaxParams]Mode
}

// Decode splits an instruction word into its opcode and a mode for each parameter
// the opcode takes. Mode digits beyond the parameter count are ignored.
// Opcodes outside of cat fail with ErrInvalidOpcode.
// Relative mode is only valid when cat includes CapRelative.
func Decode(w Word, cat Catalogue) (Instr, error) {
	if w < 0 {
		return Instr{}, ErrInvalidOpcode{Word: w}
	}
	op := Opcode(w % opcodeSpace)
	def := instrTable[op]
	if def == nil || !cat.Has(def.cap) {
		return Instr{}, ErrInvalidOpcode{Word: w}
	}
	ins := Instr{Op: op, NParams: def.params}
	digits := w / opcodeSpace
	for i := 0; i < def.params; i++ {
		d := digits % modeDigitsPerParam
		digits /= modeDigitsPerParam
		mode := Mode(d)
		switch {
		case mode == ModePosition:
		case mode == ModeImmediate:
			if def.writes && i == def.params-1 {
				return Instr{}, ErrInvalidParameterMode{Word: w, Param: i + 1, Mode: d}
			}
		case mode == ModeRelative && cat.Has(CapRelative):
		default:
			return Instr{}, ErrInvalidParameterMode{Word: w, Param: i + 1, Mode: d}
		}
		ins.Modes[i] = mode
	}
	return ins, nil
}
