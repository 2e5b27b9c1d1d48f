package icss

import "fmt"

type ErrProgramNotFound struct {
	ID ProgramID
}

func (e ErrProgramNotFound) Error() string {
	return fmt.Sprintf("program %v not found", e.ID)
}

type ErrRunNotFound struct {
	ID RunID
}

func (e ErrRunNotFound) Error() string {
	return fmt.Sprintf("run %d not found", e.ID)
}
