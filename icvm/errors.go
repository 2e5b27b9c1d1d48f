package icvm

import (
	"errors"
	"fmt"
)

var (
	// ErrWaitingForInput is returned when a non-blocking machine executes INPUT
	// and its input queue is empty.
	// Step and Run report it as StatusWaitingForInput, never as an error.
	ErrWaitingForInput = errors.New("icvm: waiting for input")
	// ErrQueueEmpty is returned by non-blocking reads when no value is ready.
	ErrQueueEmpty = errors.New("icvm: queue empty")
	// ErrQueueClosed is returned when reading from a drained queue whose producer has finished.
	ErrQueueClosed = errors.New("icvm: queue closed")
	// ErrInvalidState is returned for any operation on a machine which has halted or failed.
	ErrInvalidState = errors.New("icvm: invalid state")
	// ErrStepLimit is returned when a machine exceeds its configured step budget.
	ErrStepLimit = errors.New("icvm: step limit exceeded")
)

type ErrInvalidOpcode struct {
	Word Word
}

func (e ErrInvalidOpcode) Error() string {
	return fmt.Sprintf("icvm: invalid opcode in instruction word %d", e.Word)
}

type ErrInvalidParameterMode struct {
	Word  Word
	Param int
	Mode  Word
}

func (e ErrInvalidParameterMode) Error() string {
	return fmt.Sprintf("icvm: invalid mode %d for parameter %d of instruction word %d", e.Mode, e.Param, e.Word)
}

// ErrInvalidAddress is returned when a parameter or jump target resolves to a negative address.
type ErrInvalidAddress struct {
	Param int
	Addr  Word
}

func (e ErrInvalidAddress) Error() string {
	return fmt.Sprintf("icvm: parameter %d resolves to negative address %d", e.Param, e.Addr)
}

// IsFatal returns true if err terminates a machine.
// The control signals ErrWaitingForInput and ErrQueueEmpty are not fatal.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrWaitingForInput) && !errors.Is(err, ErrQueueEmpty)
}
