// Package arch defines the contract implemented once per CPU
// architecture: initializing a process's saved state, installing
// syscall return values, installing a pending function call, performing
// the context switch, and reporting why the process stopped. It is the
// only place in the kernel that touches CPU-specific registers; every
// other component consumes syscalls and produces typed results.
package arch

import (
	"io"

	"github.com/ngreer/tockcore/internal/syscallabi"
)

// ContextSwitchReason explains why switching into a process returned.
type ContextSwitchReason int

const (
	ReasonSyscallFired ContextSwitchReason = iota
	ReasonFault
	ReasonTimesliceExpired
	ReasonInterrupted
)

func (r ContextSwitchReason) String() string {
	switch r {
	case ReasonSyscallFired:
		return "syscall_fired"
	case ReasonFault:
		return "fault"
	case ReasonTimesliceExpired:
		return "timeslice_expired"
	case ReasonInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// SwitchResult is the outcome of SwitchToProcess: the updated stack
// pointer plus the classified reason. Syscall is only meaningful when
// Reason == ReasonSyscallFired.
type SwitchResult struct {
	NewSP   uintptr
	Reason  ContextSwitchReason
	Syscall syscallabi.Syscall
}

// FunctionCall describes a synthetic call frame to push onto a
// process's stack: on resume the process executes PC with the four
// argument words and, once that function returns, resumes wherever it
// was before the frame was pushed.
type FunctionCall struct {
	PC   uintptr
	Args [4]uintptr
}

// Boundary is implemented once per architecture. State's zero value is
// explicitly insufficient for use: every meaningful field is populated
// by InitializeProcess, never by a default constructor.
type Boundary interface {
	// InitializeProcess sets up the first stack frame as if the process
	// had just trapped into the kernel, ready to be switched into at its
	// entry point. May be called more than once on the same State
	// (restart, relocation).
	InitializeProcess(stackBase uintptr, stackSize uintptr, state *State) (newSP uintptr, err error)

	// SetSyscallReturnCommand/Subscribe/Allow write an encoded result
	// into the location the process will load return registers from on
	// resume. Must be called only after the process trapped out via the
	// matching syscall; never composed with SetProcessFunction for the
	// same resume.
	SetSyscallReturnCommand(sp uintptr, state *State, r syscallabi.CommandResult)
	SetSyscallReturnSubscribe(sp uintptr, state *State, r syscallabi.SubscribeResult)
	SetSyscallReturnAllow(sp uintptr, state *State, r syscallabi.AllowResult)

	// SetProcessFunction pushes a synthetic call frame so that on resume
	// the process executes call.PC with its four argument words, and
	// after returning from it resumes wherever it was before. Used for
	// initial entry into _start and for dispatching a pending callback
	// while the process is yielded. Fails, returning the unchanged SP,
	// when the frame would not fit in remainingStackBytes.
	SetProcessFunction(sp uintptr, remainingStackBytes uintptr, state *State, call FunctionCall) (newSP uintptr, err error)

	// SwitchToProcess enters user mode and runs until the next trap.
	SwitchToProcess(sp uintptr, state *State) SwitchResult

	// PrintContext is an architecture-defined diagnostic dump, used by
	// the fault-response path.
	PrintContext(sp uintptr, state *State, w io.Writer)
}
