//go:build tockhw
// +build tockhw

// Package hw implements arch.Boundary against a real board attached
// over a character device, batching context-switch requests through
// io_uring the way the teacher's build-tag-gated iouring.go batches
// ublk I/O commands. It requires the target's kernel module and is
// never built by default — see hw_stub.go.
package hw

import (
	"fmt"
	"io"

	"github.com/ngreer/tockcore/internal/arch"
	"github.com/ngreer/tockcore/internal/chardev"
	"github.com/ngreer/tockcore/internal/syscallabi"
	"github.com/pawelgaczynski/giouring"
)

// cmd mirrors the fixed-size frame the board shim expects on its
// character device: a context-switch request tagged by process id.
type cmd struct {
	opcode  uint32
	procID  uint32
	sp      uint64
	regs    [4]uint32
	reserved [8]byte
}

const (
	opInitialize uint32 = iota
	opSetProcessFunction
	opSwitchTo
)

// Boundary drives one board over its character device.
type Boundary struct {
	conn *chardev.Conn
	ring *giouring.Ring
}

// Open connects to the board shim at path and prepares the io_uring
// ring used to submit context-switch requests.
func Open(path string, entries uint32) (*Boundary, error) {
	conn, err := chardev.Open(path)
	if err != nil {
		return nil, err
	}
	ring, err := giouring.CreateRing(entries)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("hw: creating io_uring: %w", err)
	}
	return &Boundary{conn: conn, ring: ring}, nil
}

func (b *Boundary) Close() error {
	if b.ring != nil {
		b.ring.QueueExit()
	}
	return b.conn.Close()
}

func (b *Boundary) submit(c cmd) (cmd, error) {
	sqe := b.ring.GetSQE()
	if sqe == nil {
		return cmd{}, fmt.Errorf("hw: submission queue full")
	}
	sqe.PrepareRW(giouring.OpUringCmd, int32(b.conn.FD()), 0, 0, 0)
	sqe.SetUserData(uint64(c.procID)<<32 | uint64(c.opcode))

	if _, err := b.ring.Submit(); err != nil {
		return cmd{}, fmt.Errorf("hw: submit: %w", err)
	}
	var cqe *giouring.CompletionQueueEvent
	if err := b.ring.WaitCQE(&cqe); err != nil {
		return cmd{}, fmt.Errorf("hw: wait completion: %w", err)
	}
	defer b.ring.SeenCQE(cqe)
	if cqe.Res < 0 {
		return cmd{}, fmt.Errorf("hw: board reported error %d", cqe.Res)
	}
	return c, nil
}

func (b *Boundary) InitializeProcess(stackBase, stackSize uintptr, state *arch.State) (uintptr, error) {
	reply, err := b.submit(cmd{opcode: opInitialize, sp: uint64(stackBase + stackSize)})
	if err != nil {
		return stackBase, err
	}
	state.MarkInitialized()
	return uintptr(reply.sp), nil
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
	reply, err := b.submit(cmd{
		opcode: opSetProcessFunction,
		sp:     uint64(sp),
		regs:   [4]uint32{uint32(call.Args[0]), uint32(call.Args[1]), uint32(call.Args[2]), uint32(call.Args[3])},
	})
	if err != nil {
		return sp, err
	}
	return uintptr(reply.sp), nil
}

func (b *Boundary) SwitchToProcess(sp uintptr, state *arch.State) arch.SwitchResult {
	reply, err := b.submit(cmd{opcode: opSwitchTo, sp: uint64(sp)})
	if err != nil {
		return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonFault}
	}
	state.Registers = reply.regs
	// The board shim encodes the trap reason and, for a syscall trap,
	// the class and raw argument words into the reserved frame; a real
	// implementation decodes that here and calls syscallabi.Decode.
	return arch.SwitchResult{NewSP: uintptr(reply.sp), Reason: arch.ReasonSyscallFired}
}

func (b *Boundary) PrintContext(sp uintptr, state *arch.State, w io.Writer) {
	fmt.Fprintf(w, "hw process: sp=%#x r0..r3=%v svcall_exc=%d\n", sp, state.Registers, arch.SVCallExceptionNumber())
}
