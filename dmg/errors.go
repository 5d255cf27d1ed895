package dmg

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingBootROM is returned when starting from the boot program
	// without supplying one through WithBootROM.
	ErrMissingBootROM = errors.New("boot ROM required when not skipping boot")
	// ErrBadBootROM is returned when the supplied boot program is not 256 bytes.
	ErrBadBootROM = errors.New("boot ROM must be 256 bytes")
)

// LoadError is returned when an emulator cannot be created from a ROM image.
// Err holds the cause, one of the memory package sentinel errors or
// ErrMissingBootROM/ErrBadBootROM, possibly wrapped.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load rom: %v", e.Err)
	}
	return fmt.Sprintf("load rom %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// HaltedExecutionError is returned by RunFrame once the CPU has stopped
// executing, e.g. after fetching an illegal opcode.
type HaltedExecutionError struct {
	PC    uint16
	Frame uint64
	Err   error
}

func (e *HaltedExecutionError) Error() string {
	return fmt.Sprintf("execution halted at 0x%04X (frame %d): %v", e.PC, e.Frame, e.Err)
}

func (e *HaltedExecutionError) Unwrap() error {
	return e.Err
}
