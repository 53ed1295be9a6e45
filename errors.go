package tockcore

import (
	"errors"
	"fmt"

	"github.com/ngreer/tockcore/internal/rcode"
)

// Error is a structured kernel error with enough context to log or
// match against without string comparison.
type Error struct {
	Op        string     // operation that failed, e.g. "LoadProcess", "Command"
	ProcessID int        // process record id, -1 if not applicable
	Driver    uint32     // driver number, only meaningful when Driver != 0 or Op names a driver call
	Code      rcode.Code // the kernel-level return code this error carries
	Msg       string     // human-readable detail
	Inner     error      // wrapped cause, if any
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Code.String()
	}
	if e.ProcessID >= 0 {
		return fmt.Sprintf("tockcore: %s: process %d: %s", e.Op, e.ProcessID, msg)
	}
	return fmt.Sprintf("tockcore: %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is reports whether target is an *Error with the same Code, so
// callers can write errors.Is(err, &Error{Code: rcode.ENOMEM}).
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError builds a structured error not tied to a particular process.
func NewError(op string, code rcode.Code, msg string) *Error {
	return &Error{Op: op, ProcessID: -1, Code: code, Msg: msg}
}

// NewProcessError builds a structured error attributed to a process record.
func NewProcessError(op string, processID int, code rcode.Code, msg string) *Error {
	return &Error{Op: op, ProcessID: processID, Code: code, Msg: msg}
}

// WrapError wraps inner with operation context, preserving the code of
// an already-structured error instead of defaulting to FAIL.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if te, ok := inner.(*Error); ok {
		return &Error{Op: op, ProcessID: te.ProcessID, Driver: te.Driver, Code: te.Code, Msg: te.Msg, Inner: te.Inner}
	}
	return &Error{Op: op, ProcessID: -1, Code: rcode.FAIL, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is, or wraps, an *Error carrying code.
func IsCode(err error, code rcode.Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
