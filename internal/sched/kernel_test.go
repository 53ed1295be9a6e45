package sched

import (
	"bytes"
	"context"
	"testing"

	"github.com/ngreer/tockcore/internal/arch"
	"github.com/ngreer/tockcore/internal/arch/sim"
	"github.com/ngreer/tockcore/internal/deferqueue"
	"github.com/ngreer/tockcore/internal/driver"
	"github.com/ngreer/tockcore/internal/mpu/soft"
	"github.com/ngreer/tockcore/internal/process"
	"github.com/ngreer/tockcore/internal/rcode"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

func newTestKernel(t *testing.T, faultResponse process.FaultResponse) (*Kernel, *driver.Table) {
	t.Helper()
	tbl := driver.NewTable()
	k := New(Config{
		Boundary:      sim.New(),
		MPU:           soft.New(4),
		Drivers:       tbl,
		Defer:         deferqueue.New(4),
		FaultResponse: faultResponse,
	})
	return k, tbl
}

func testMemoryMap() process.MemoryMap {
	return process.MemoryMap{
		Flash: process.Region{Base: 0x00000000, Size: 0x10000},
		RAM:   process.Region{Base: 0x20000000, Size: 0x4000},
		Stack: process.Region{Base: 0x20000000, Size: 0x1000},
		Heap:  process.Region{Base: 0x20001000, Size: 0x1000},
		Grant: process.Region{Base: 0x20002000, Size: 0x2000},
	}
}

// fixedResultDriver returns the same command result for every call;
// used to script the command success/failure scenarios.
type fixedResultDriver struct {
	cmd syscallabi.CommandResult
}

func (d fixedResultDriver) Command(int, uint32, uintptr, uintptr) syscallabi.CommandResult {
	return d.cmd
}
func (fixedResultDriver) Subscribe(int, uint32, uintptr, uintptr) syscallabi.SubscribeResult {
	return syscallabi.SubSuccess()
}
func (fixedResultDriver) Allow(int, uint32, uintptr, uintptr) syscallabi.AllowResult {
	return syscallabi.AllowSuccess(0, 0)
}

func attachProcess(t *testing.T, k *Kernel, program sim.Program) *process.Record {
	t.Helper()
	mem := testMemoryMap()
	p := process.NewRecord(1, "test", mem, 4)
	sim.Attach(&p.Arch, program)
	sp, err := k.boundary.InitializeProcess(mem.Stack.Base, mem.Stack.Size, &p.Arch)
	if err != nil {
		t.Fatalf("InitializeProcess: %v", err)
	}
	p.SP = sp
	p.Lifecycle = process.Running
	k.AddProcess(p)
	return p
}

func TestCommandSuccessU32(t *testing.T) {
	k, tbl := newTestKernel(t, process.FaultStop)
	_ = tbl.Register(1, fixedResultDriver{cmd: syscallabi.CmdSuccessU32(7)})

	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Command, Command: syscallabi.CommandCall{Driver: 1, Sub: 0, Arg0: 42}}
	})

	k.step()

	if p.Arch.Registers[0] != uint32(syscallabi.TagSuccessU32) {
		t.Fatalf("r0 = %d, want %d", p.Arch.Registers[0], syscallabi.TagSuccessU32)
	}
	if p.Arch.Registers[1] != 7 {
		t.Fatalf("r1 = %d, want 7", p.Arch.Registers[1])
	}
}

func TestCommandFailureEBUSY(t *testing.T) {
	k, tbl := newTestKernel(t, process.FaultStop)
	_ = tbl.Register(1, fixedResultDriver{cmd: syscallabi.CmdFailure(rcode.EBUSY)})

	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Command, Command: syscallabi.CommandCall{Driver: 1, Sub: 0}}
	})

	k.step()

	if p.Arch.Registers[0] != uint32(syscallabi.TagFailure) {
		t.Fatalf("r0 = %d, want %d", p.Arch.Registers[0], syscallabi.TagFailure)
	}
	if p.Arch.Registers[1] != uint32(rcode.EBUSY) {
		t.Fatalf("r1 = %d, want %d", p.Arch.Registers[1], rcode.EBUSY)
	}
}

func TestCommandUnknownDriverIsENODEVICE(t *testing.T) {
	k, _ := newTestKernel(t, process.FaultStop)

	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Command, Command: syscallabi.CommandCall{Driver: 99, Sub: 0}}
	})

	k.step()

	if p.Arch.Registers[0] != uint32(syscallabi.TagFailure) {
		t.Fatalf("r0 = %d, want %d", p.Arch.Registers[0], syscallabi.TagFailure)
	}
	if p.Arch.Registers[1] != uint32(rcode.ENODEVICE) {
		t.Fatalf("r1 = %d, want ENODEVICE", p.Arch.Registers[1])
	}
}

func TestAllowWithinBoundsReachesDriver(t *testing.T) {
	// AllowTable swap bookkeeping itself is exercised directly against
	// the process package; here we only check the kernel forwards an
	// in-bounds allow to the registered driver instead of rejecting it.
	k, tbl := newTestKernel(t, process.FaultStop)
	_ = tbl.Register(2, fixedResultDriver{})

	mem := testMemoryMap()
	addr := mem.RAM.Base + 0x100

	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Allow, Allow: syscallabi.AllowCall{Driver: 2, Sub: 3, Address: addr, Length: 64}}
	})

	k.step()

	if p.Arch.Registers[0] != uint32(syscallabi.TagSuccessU32U32) {
		t.Fatalf("r0 = %d, want %d", p.Arch.Registers[0], syscallabi.TagSuccessU32U32)
	}
}

// swapAllowDriver forwards Allow to a process record's own AllowTable,
// the way a real capsule (e.g. capsule.ConsoleDriver) does, so a test
// can drive the two-step swap sequence through the scheduler's
// dispatch path instead of against internal/process directly.
type swapAllowDriver struct {
	rec *process.Record
}

func (d swapAllowDriver) Command(int, uint32, uintptr, uintptr) syscallabi.CommandResult {
	return syscallabi.CmdSuccess()
}
func (swapAllowDriver) Subscribe(int, uint32, uintptr, uintptr) syscallabi.SubscribeResult {
	return syscallabi.SubSuccess()
}
func (d swapAllowDriver) Allow(processID int, sub uint32, address, length uintptr) syscallabi.AllowResult {
	old := d.rec.Allows.Swap(2, sub, uint32(address), uint32(length))
	return syscallabi.AllowSuccess(old.Address, old.Length)
}

func TestAllowSwapSequenceReturnsPriorValues(t *testing.T) {
	// Drives the full two-step allow-swap sequence through the
	// scheduler's dispatch path: (addr0,32) then (addr1,64), checking
	// each step returns the previously-held buffer.
	k, tbl := newTestKernel(t, process.FaultStop)
	mem := testMemoryMap()
	addr0 := mem.RAM.Base + 0x100
	addr1 := mem.RAM.Base + 0x200

	step := 0
	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		step++
		switch step {
		case 1:
			return sim.Action{Kind: sim.Allow, Allow: syscallabi.AllowCall{Driver: 2, Sub: 5, Address: addr0, Length: 32}}
		default:
			return sim.Action{Kind: sim.Allow, Allow: syscallabi.AllowCall{Driver: 2, Sub: 5, Address: addr1, Length: 64}}
		}
	})
	_ = tbl.Register(2, swapAllowDriver{rec: p})

	k.step()
	if p.Arch.Registers[0] != uint32(syscallabi.TagSuccessU32U32) {
		t.Fatalf("first swap: r0 = %d, want %d", p.Arch.Registers[0], syscallabi.TagSuccessU32U32)
	}
	if p.Arch.Registers[1] != 0 || p.Arch.Registers[2] != 0 {
		t.Fatalf("first swap: expected empty prior buffer, got addr=%d len=%d", p.Arch.Registers[1], p.Arch.Registers[2])
	}

	k.step()
	if p.Arch.Registers[0] != uint32(syscallabi.TagSuccessU32U32) {
		t.Fatalf("second swap: r0 = %d, want %d", p.Arch.Registers[0], syscallabi.TagSuccessU32U32)
	}
	if p.Arch.Registers[1] != uint32(addr0) || p.Arch.Registers[2] != 32 {
		t.Fatalf("second swap: expected prior buffer (addr0,32), got addr=%d len=%d", p.Arch.Registers[1], p.Arch.Registers[2])
	}

	if cur := p.Allows.Current(2, 5); cur.Address != uint32(addr1) || cur.Length != 64 {
		t.Fatalf("expected current allow to be (addr1,64), got %+v", cur)
	}
}

func TestAllowOutOfBoundsFailsWithoutReachingDriver(t *testing.T) {
	k, tbl := newTestKernel(t, process.FaultStop)
	_ = tbl.Register(2, fixedResultDriver{})

	mem := testMemoryMap()
	outOfBounds := mem.RAM.End() // one byte past the end once length=1

	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Allow, Allow: syscallabi.AllowCall{Driver: 2, Sub: 3, Address: outOfBounds, Length: 1}}
	})

	k.step()

	if p.Arch.Registers[0] != uint32(syscallabi.TagFailureU32U32) {
		t.Fatalf("r0 = %d, want %d", p.Arch.Registers[0], syscallabi.TagFailureU32U32)
	}
	if p.Arch.Registers[1] != uint32(rcode.EINVAL) {
		t.Fatalf("r1 = %d, want EINVAL", p.Arch.Registers[1])
	}
}

func TestYieldThenCallbackDispatchThenResume(t *testing.T) {
	k, tbl := newTestKernel(t, process.FaultStop)
	_ = tbl.Register(5, fixedResultDriver{})

	step := 0
	var sawCallback *arch.FunctionCall
	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		step++
		switch step {
		case 1:
			return sim.Action{Kind: sim.Yield}
		case 2:
			sawCallback = call
			return sim.Action{Kind: sim.ReturnFromCallback}
		default:
			return sim.Action{Kind: sim.Yield}
		}
	})

	k.step() // process yields
	if p.Lifecycle != process.Yielded {
		t.Fatalf("lifecycle = %v, want Yielded", p.Lifecycle)
	}

	p.Callbacks.Post(process.Callback{Driver: 5, Sub: 0, Args: [3]uintptr{1, 2, 3}, FnPtr: 0x1000, AppData: 0xDEADBEEF})

	k.step() // next pass injects the callback
	if sawCallback == nil {
		t.Fatal("expected callback to be injected as a FunctionCall")
	}
	if sawCallback.PC != 0x1000 || sawCallback.Args != [4]uintptr{1, 2, 3, 0xDEADBEEF} {
		t.Fatalf("got %+v", sawCallback)
	}
	if p.Lifecycle != process.Yielded {
		t.Fatalf("lifecycle = %v, want Yielded after callback returns and process yields again", p.Lifecycle)
	}
}

func TestFaultRestartClearsCallbacksAndRestarts(t *testing.T) {
	k, _ := newTestKernel(t, process.FaultRestart)
	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Fault}
	})
	p.Callbacks.Post(process.Callback{Driver: 9, Sub: 0})

	k.step()

	if p.Lifecycle != process.Running {
		t.Fatalf("lifecycle = %v, want Running after restart", p.Lifecycle)
	}
	if p.Callbacks.Len() != 0 {
		t.Fatalf("expected callback queue cleared on restart, got %d", p.Callbacks.Len())
	}
	if p.FaultCount != 1 {
		t.Fatalf("fault count = %d, want 1", p.FaultCount)
	}
}

func TestFaultStopTerminatesProcess(t *testing.T) {
	k, _ := newTestKernel(t, process.FaultStop)
	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Fault}
	})

	k.step()

	if p.Lifecycle != process.Terminated {
		t.Fatalf("lifecycle = %v, want Terminated", p.Lifecycle)
	}
}

// recordingAllowDriver records every Allow call it receives, so a test
// can confirm a relinquish notification was sent.
type recordingAllowDriver struct {
	calls *[]syscallabi.AllowCall
}

func (recordingAllowDriver) Command(int, uint32, uintptr, uintptr) syscallabi.CommandResult {
	return syscallabi.CmdSuccess()
}
func (recordingAllowDriver) Subscribe(int, uint32, uintptr, uintptr) syscallabi.SubscribeResult {
	return syscallabi.SubSuccess()
}
func (d recordingAllowDriver) Allow(processID int, sub uint32, address, length uintptr) syscallabi.AllowResult {
	*d.calls = append(*d.calls, syscallabi.AllowCall{Driver: 3, Sub: sub, Address: address, Length: length})
	return syscallabi.AllowSuccess(uint32(address), uint32(length))
}

func TestFaultStopResetsGrantAndRelinquishesAllows(t *testing.T) {
	k, tbl := newTestKernel(t, process.FaultStop)
	var calls []syscallabi.AllowCall
	_ = tbl.Register(3, recordingAllowDriver{calls: &calls})

	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Fault}
	})
	p.Allows.Swap(3, 5, 0x20001000, 64)
	if _, err := p.Grant.EnterOrCreate(3, 16); err != nil {
		t.Fatalf("EnterOrCreate: %v", err)
	}

	k.step()

	if p.Lifecycle != process.Terminated {
		t.Fatalf("lifecycle = %v, want Terminated", p.Lifecycle)
	}
	if got := p.Grant.Remaining(); got != p.Memory.Grant.Size {
		t.Fatalf("grant remaining = %d, want %d (fresh allocator)", got, p.Memory.Grant.Size)
	}
	if len(calls) != 1 {
		t.Fatalf("expected exactly one relinquish Allow call, got %d", len(calls))
	}
	if calls[0].Sub != 5 || calls[0].Address != 0 || calls[0].Length != 0 {
		t.Fatalf("expected relinquish call (sub=5, addr=0, len=0), got %+v", calls[0])
	}
	if cur := p.Allows.Current(3, 5); cur.Address != 0 || cur.Length != 0 {
		t.Fatalf("expected allow table cleared, got %+v", cur)
	}
}

func TestFaultPanicDumpsContextAndPanics(t *testing.T) {
	var dump bytes.Buffer
	tbl := driver.NewTable()
	k := New(Config{
		Boundary:      sim.New(),
		MPU:           soft.New(4),
		Drivers:       tbl,
		Defer:         deferqueue.New(4),
		FaultResponse: process.FaultPanic,
		PanicWriter:   &dump,
	})
	attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Fault}
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected step to panic on FaultPanic response")
		}
		if _, ok := r.(*processFaultError); !ok {
			t.Fatalf("expected panic value *processFaultError, got %T", r)
		}
		if dump.Len() == 0 {
			t.Fatal("expected PrintContext to write a diagnostic dump before panicking")
		}
	}()
	k.step()
}

func TestRunRejectsNilCapabilityToken(t *testing.T) {
	k, _ := newTestKernel(t, process.FaultStop)

	if err := k.Run(context.Background(), nil); err == nil {
		t.Fatal("expected Run to reject a nil MainLoop token")
	}
}

func TestTimeslicePreemptReEnqueuesWithoutResult(t *testing.T) {
	k, _ := newTestKernel(t, process.FaultStop)
	p := attachProcess(t, k, func(call *arch.FunctionCall) sim.Action {
		return sim.Action{Kind: sim.Spin}
	})
	before := p.Arch.Registers

	k.step()

	if p.Lifecycle != process.Running {
		t.Fatalf("lifecycle = %v, want Running (re-enqueued)", p.Lifecycle)
	}
	if p.Arch.Registers != before {
		t.Fatalf("expected no syscall result written on timeslice expiry, got %v", p.Arch.Registers)
	}
}

func TestRoundRobinSkipsYieldedWithoutCallback(t *testing.T) {
	policy := RoundRobin{}
	mem := testMemoryMap()
	p1 := process.NewRecord(1, "a", mem, 2)
	p1.Lifecycle = process.Yielded // no callback queued: not runnable
	p2 := process.NewRecord(2, "b", mem, 2)
	p2.Lifecycle = process.Running

	idx, ok := policy.SelectNext([]*process.Record{p1, p2}, -1)
	if !ok || idx != 1 {
		t.Fatalf("got idx=%d ok=%v, want idx=1", idx, ok)
	}
}

func TestRoundRobinNoneRunnable(t *testing.T) {
	policy := RoundRobin{}
	mem := testMemoryMap()
	p1 := process.NewRecord(1, "a", mem, 2)
	p1.Lifecycle = process.StoppedFaulted

	_, ok := policy.SelectNext([]*process.Record{p1}, -1)
	if ok {
		t.Fatal("expected no runnable process")
	}
}

func TestStepReportsIdleWithNoProcessesAndNoDeferredWork(t *testing.T) {
	k, _ := newTestKernel(t, process.FaultStop)
	if !k.step() {
		t.Fatal("expected idle=true with no processes registered")
	}
}
