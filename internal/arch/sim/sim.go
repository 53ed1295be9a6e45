// Package sim implements arch.Boundary in software: instead of trapping
// real CPU registers it drives a scripted Program that decides, at each
// resume, what the process does next. It is always built (no board
// toolchain required) and is what the scheduler's own tests and
// cmd/tocksim run against; a real target's arch/hw implementation plugs
// into the same Boundary interface behind a build tag, the way the
// teacher repo's iouring.go sits behind iouring_stub.go.
package sim

import (
	"fmt"
	"io"

	"github.com/ngreer/tockcore/internal/arch"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

// minFrameBytes is the stack space a synthetic call frame needs in this
// model (four argument-register spills plus a return address).
const minFrameBytes = 5 * 4

// Kind selects what a Program step does when the simulated process
// next runs.
type Kind int

const (
	Yield Kind = iota
	Command
	Subscribe
	Allow
	Memop
	Fault
	Spin               // runs past its timeslice without trapping
	ReturnFromCallback // an injected FunctionCall finished; resume the outer context
)

// Action is what a Program returns for one scheduling step.
type Action struct {
	Kind Kind

	Command   syscallabi.CommandCall
	Subscribe syscallabi.SubscribeCall
	Allow     syscallabi.AllowCall
	Memop     syscallabi.MemopCall
}

// Program models "the code between traps" for a simulated process. It
// is called once per step of a SwitchToProcess loop. call is non-nil
// exactly when this step is the first instruction of an injected
// FunctionCall (initial entry, or a dispatched callback); it is nil for
// every other step, including all steps after the first in the same
// switch-in.
type Program func(call *arch.FunctionCall) Action

type cursor struct {
	program     Program
	pendingCall *arch.FunctionCall
	frames      int // synthetic call frames pushed and not yet returned from
}

// Attach installs the Program that drives state's simulated process.
// Must be called before the first SwitchToProcess.
func Attach(state *arch.State, program Program) {
	state.SetExt(&cursor{program: program})
}

func cursorOf(state *arch.State) *cursor {
	c, ok := state.Ext().(*cursor)
	if !ok {
		panic("sim: State has no Program attached; call sim.Attach first")
	}
	return c
}

// Boundary is the software arch.Boundary implementation.
type Boundary struct{}

func New() *Boundary { return &Boundary{} }

func (b *Boundary) InitializeProcess(stackBase, stackSize uintptr, state *arch.State) (uintptr, error) {
	if stackSize < minFrameBytes {
		return stackBase, fmt.Errorf("sim: stack region of %d bytes cannot hold the initial %d-byte frame", stackSize, minFrameBytes)
	}
	state.ProgramCtr = 0
	state.LinkReg = 0
	state.MarkInitialized()
	// Stacks grow down; the "new" SP sits just below the initial trap
	// frame at the top of the region.
	return stackBase + stackSize - minFrameBytes, nil
}

func (b *Boundary) SetSyscallReturnCommand(sp uintptr, state *arch.State, r syscallabi.CommandResult) {
	var regs syscallabi.Registers
	syscallabi.EncodeCommandResult(r, &regs)
	state.Registers = [4]uint32{regs.R0, regs.R1, regs.R2, regs.R3}
}

func (b *Boundary) SetSyscallReturnSubscribe(sp uintptr, state *arch.State, r syscallabi.SubscribeResult) {
	var regs syscallabi.Registers
	syscallabi.EncodeSubscribeResult(r, &regs)
	state.Registers = [4]uint32{regs.R0, regs.R1, regs.R2, regs.R3}
}

func (b *Boundary) SetSyscallReturnAllow(sp uintptr, state *arch.State, r syscallabi.AllowResult) {
	var regs syscallabi.Registers
	syscallabi.EncodeAllowResult(r, &regs)
	state.Registers = [4]uint32{regs.R0, regs.R1, regs.R2, regs.R3}
}

func (b *Boundary) SetProcessFunction(sp uintptr, remainingStackBytes uintptr, state *arch.State, call arch.FunctionCall) (uintptr, error) {
	if remainingStackBytes < minFrameBytes {
		return sp, fmt.Errorf("sim: only %d bytes remain, need %d for call frame", remainingStackBytes, minFrameBytes)
	}
	c := cursorOf(state)
	callCopy := call
	c.pendingCall = &callCopy
	c.frames++
	return sp - minFrameBytes, nil
}

func (b *Boundary) SwitchToProcess(sp uintptr, state *arch.State) arch.SwitchResult {
	c := cursorOf(state)
	call := c.pendingCall
	c.pendingCall = nil

	for {
		action := c.program(call)
		call = nil // only the first step of this switch-in sees the injected call

		switch action.Kind {
		case ReturnFromCallback:
			if c.frames > 0 {
				c.frames--
				sp += minFrameBytes // pop the synthetic frame
			}
			continue
		case Yield:
			return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonSyscallFired,
				Syscall: syscallabi.Syscall{Class: syscallabi.ClassYield}}
		case Command:
			return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonSyscallFired,
				Syscall: syscallabi.Syscall{Class: syscallabi.ClassCommand, Command: action.Command}}
		case Subscribe:
			return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonSyscallFired,
				Syscall: syscallabi.Syscall{Class: syscallabi.ClassSubscribe, Subscribe: action.Subscribe}}
		case Allow:
			return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonSyscallFired,
				Syscall: syscallabi.Syscall{Class: syscallabi.ClassAllow, Allow: action.Allow}}
		case Memop:
			return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonSyscallFired,
				Syscall: syscallabi.Syscall{Class: syscallabi.ClassMemop, Memop: action.Memop}}
		case Fault:
			return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonFault}
		case Spin:
			return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonTimesliceExpired}
		default:
			panic(fmt.Sprintf("sim: unknown action kind %d", action.Kind))
		}
	}
}

func (b *Boundary) PrintContext(sp uintptr, state *arch.State, w io.Writer) {
	fmt.Fprintf(w, "sim process: sp=%#x pc=%#x lr=%#x r0..r3=%v svcall_exc=%d\n",
		sp, state.ProgramCtr, state.LinkReg, state.Registers, arch.SVCallExceptionNumber())
}
