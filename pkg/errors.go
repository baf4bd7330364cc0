package dragon

import (
	"errors"
	"fmt"

	"github.com/dragon-exp/unpacker_go/pkg/midas"
)

var (
	ErrMissingSubsystem = errors.New("missing subsystem")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrVariable         = errors.New("invalid variable")
	ErrMissingBank      = errors.New("missing bank")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// CoincidenceError reports a matched pair that cannot be merged into a
// coincidence event.
type CoincidenceError struct {
	HeadSerial uint32
	TailSerial uint32
	Subsystem  string
	Err        error
}

func (e *CoincidenceError) Error() string {
	return fmt.Sprintf("invalid coincidence of head serial %d and tail serial %d: %v: %s",
		e.HeadSerial, e.TailSerial, e.Err, e.Subsystem)
}

func (e *CoincidenceError) Unwrap() error {
	return e.Err
}

// UnknownEventError represents a buffer whose event ID has no handler.
type UnknownEventError struct {
	EventID midas.EventIDType
	Serial  uint32
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event ID %d (serial %d)", uint16(e.EventID), e.Serial)
}

func (e *UnknownEventError) Unwrap() error {
	return ErrUnknownEventType
}

// VariableError represents a variable whose value cannot be parsed.
type VariableError struct {
	Key   string
	Value string
	Err   error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("variable %q = %q: %v", e.Key, e.Value, e.Err)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}

func (e *VariableError) Is(target error) bool {
	return target == ErrVariable
}
