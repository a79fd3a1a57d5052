package elf

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrFatalHeader is the cause of every error that stops a parse: the
	// identification or header of the file could not be accepted.
	ErrFatalHeader = errors.New("invalid ELF header")
	// ErrInconsistentSize is the cause of every *InconsistentSizeError.
	ErrInconsistentSize = errors.New("declared size exceeds limit")
	// ErrAmbiguousCount is returned by the symbol counter when no method
	// produced a plausible dynamic symbol count.
	ErrAmbiguousCount = errors.New("unable to determine the number of dynamic symbols")
	// ErrNotFound is returned by lookups that matched nothing.
	ErrNotFound = errors.New("not found")
)

// FormatError is returned by some operations if the data does
// not have the correct format for an ELF file.
type FormatError struct {
	off int64
	msg string
	val interface{}
}

func (e *FormatError) Error() string {
	msg := e.msg
	if e.val != nil {
		msg += fmt.Sprintf(" '%v'", e.val)
	}
	msg += fmt.Sprintf(" in record at byte %#x", e.off)
	return msg
}

// Is makes every FormatError match ErrFatalHeader.
func (e *FormatError) Is(target error) bool { return target == ErrFatalHeader }

// InconsistentSizeError is returned when a count or size read from the file
// exceeds one of the hard limits in limits.go.
type InconsistentSizeError struct {
	What     string
	Declared uint64
	Limit    uint64
}

func (e *InconsistentSizeError) Error() string {
	return fmt.Sprintf("%s: declared %d exceeds limit %d", e.What, e.Declared, e.Limit)
}

// Is makes every InconsistentSizeError match ErrInconsistentSize.
func (e *InconsistentSizeError) Is(target error) bool { return target == ErrInconsistentSize }

func checkLimit(what string, declared, limit uint64) error {
	if declared > limit {
		return &InconsistentSizeError{What: what, Declared: declared, Limit: limit}
	}
	return nil
}
