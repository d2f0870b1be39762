package cpu

import (
	"fmt"

	"github.com/pkg/errors"
)

// Engine error kinds. Errors returned by EMU match one of these with
// errors.Is.
var (
	ErrCapacityExceeded = errors.New("program exceeds memory capacity")
	ErrInvalidOpcode    = errors.New("invalid opcode")
	ErrInvalidKey       = errors.New("invalid key")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrOutOfBounds      = errors.New("memory access out of bounds")
)

// Error defines a runtime error raised by the instruction at PC.
type Error struct {
	PC   uint16 // Address of the failing instruction.
	Word uint16 // Instruction word, if it could be fetched.
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%04x: %v (%04x)", e.PC, e.Err, e.Word)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause find the kind.
func (e *Error) Cause() error { return e.Err }

// IsFatal reports whether err ends a run. Rejected requests like an
// oversized program or a bad key index are not fatal to the machine.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrCapacityExceeded) && !errors.Is(err, ErrInvalidKey)
}
