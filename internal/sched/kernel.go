package sched

import (
	"context"
	"fmt"
	"io"

	"github.com/ngreer/tockcore/internal/arch"
	"github.com/ngreer/tockcore/internal/capability"
	"github.com/ngreer/tockcore/internal/deferqueue"
	"github.com/ngreer/tockcore/internal/driver"
	"github.com/ngreer/tockcore/internal/grant"
	"github.com/ngreer/tockcore/internal/mpu"
	"github.com/ngreer/tockcore/internal/process"
	"github.com/ngreer/tockcore/internal/rcode"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

// Config wires together everything one Kernel needs. Policy, Logger,
// and Metrics default to a round-robin policy and no-op sinks when
// left nil.
type Config struct {
	Boundary      arch.Boundary
	MPU           mpu.MPU
	Drivers       *driver.Table
	Defer         *deferqueue.Queue
	Policy        Policy
	Logger        Logger
	Metrics       MetricsRecorder
	FaultResponse process.FaultResponse

	// PanicWriter receives the architecture's diagnostic dump
	// (arch.Boundary.PrintContext) for a process that faults under the
	// Panic fault response. Defaults to io.Discard.
	PanicWriter io.Writer
}

// Kernel runs the single-threaded cooperative main loop described in
// §4.5: select a process, switch in, dispatch whatever it trapped on,
// apply the fault response, repeat.
type Kernel struct {
	boundary      arch.Boundary
	mpuUnit       mpu.MPU
	drivers       *driver.Table
	defers        *deferqueue.Queue
	policy        Policy
	logger        Logger
	metrics       MetricsRecorder
	faultResponse process.FaultResponse
	panicWriter   io.Writer

	deferredHandlers map[uint32]func()

	procs []*process.Record
	last  int
}

// New builds a Kernel. The MainLoop capability is not required here:
// it is required by Run, the actual privileged entry point.
func New(cfg Config) *Kernel {
	policy := cfg.Policy
	if policy == nil {
		policy = RoundRobin{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	panicWriter := cfg.PanicWriter
	if panicWriter == nil {
		panicWriter = io.Discard
	}
	return &Kernel{
		boundary:         cfg.Boundary,
		mpuUnit:          cfg.MPU,
		drivers:          cfg.Drivers,
		defers:           cfg.Defer,
		policy:           policy,
		logger:           logger,
		metrics:          metrics,
		faultResponse:    cfg.FaultResponse,
		panicWriter:      panicWriter,
		deferredHandlers: make(map[uint32]func()),
		last:             -1,
	}
}

// AddProcess registers a loaded process record with the scheduler.
// Process ids must be assigned and the record initialized (its SP set
// by arch.Boundary.InitializeProcess) before this call.
func (k *Kernel) AddProcess(p *process.Record) {
	k.procs = append(k.procs, p)
}

// RegisterDeferredHandler binds a deferred-call client id, as posted by
// an interrupt bottom half via the deferqueue, to the function the main
// loop runs for it between process switches.
func (k *Kernel) RegisterDeferredHandler(client uint32, fn func()) {
	k.deferredHandlers[client] = fn
}

// Run is the kernel's privileged main-loop entry point: it never
// returns except when ctx is cancelled or step reports that the kernel
// is idle with no deferred work, in which case it waits for
// cancellation before returning.
func (k *Kernel) Run(ctx context.Context, tok capability.MainLoop) error {
	if tok == nil {
		return fmt.Errorf("sched: Run requires a MainLoop token minted by capability.Boot")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if idle := k.step(); idle {
			// Nothing runnable and nothing deferred: a real board would
			// enter low-power wait-for-interrupt here. The host loop has
			// no interrupt to wake it, so it just waits on cancellation.
			<-ctx.Done()
			return nil
		}
	}
}

// step runs exactly one scheduling pass: drain deferred work, pick a
// process, switch in, dispatch. It reports idle=true only when there
// was nothing runnable and nothing deferred, so Run knows to suspend.
func (k *Kernel) step() (idle bool) {
	for _, client := range k.defers.Drain() {
		if fn, ok := k.deferredHandlers[client]; ok {
			fn()
		}
	}

	idx, ok := k.policy.SelectNext(k.procs, k.last)
	if !ok {
		return k.defers.Pending() == 0
	}
	k.last = idx
	p := k.procs[idx]

	if p.Lifecycle == process.Yielded {
		cb, hasCallback := p.Callbacks.Pop()
		if !hasCallback {
			return false
		}
		newSP, err := k.boundary.SetProcessFunction(p.SP, p.SP-p.Memory.Stack.Base, &p.Arch, arch.FunctionCall{
			PC:   cb.FnPtr,
			Args: [4]uintptr{cb.Args[0], cb.Args[1], cb.Args[2], cb.AppData},
		})
		if err != nil {
			k.logger.Debugf("process %d: callback frame did not fit, dropping: %v", p.ID, err)
			return false
		}
		p.SP = newSP
		p.Lifecycle = process.Running
	}

	if err := k.mpuUnit.Configure(mpu.RegionsForProcess(p.Memory)); err != nil {
		k.logger.Printf("process %d: MPU configuration rejected, stopping: %v", p.ID, err)
		p.Lifecycle = process.StoppedFaulted
		return false
	}

	result := k.boundary.SwitchToProcess(p.SP, &p.Arch)
	p.SP = result.NewSP
	k.mpuUnit.DisableForKernel()
	p.TimesliceConsumed = 0

	switch result.Reason {
	case arch.ReasonSyscallFired:
		k.dispatchSyscall(p, result.Syscall)
	case arch.ReasonTimesliceExpired:
		k.logger.Debugf("process %d: timeslice expired", p.ID)
	case arch.ReasonInterrupted:
		k.logger.Debugf("process %d: interrupted", p.ID)
	case arch.ReasonFault:
		k.applyFaultResponse(p)
	}
	return false
}

// dispatchSyscall handles whatever the process trapped on: yield and
// memop are handled directly, command/subscribe/allow route through the
// driver dispatch table, and the encoded result is written back before
// the next switch-in.
func (k *Kernel) dispatchSyscall(p *process.Record, s syscallabi.Syscall) {
	k.metrics.RecordSyscall(uint8(s.Class))

	switch s.Class {
	case syscallabi.ClassYield:
		p.Lifecycle = process.Yielded

	case syscallabi.ClassCommand:
		var result syscallabi.CommandResult
		if d, ok := k.drivers.Lookup(s.Command.Driver); ok {
			result = d.Command(p.ID, s.Command.Sub, s.Command.Arg0, s.Command.Arg1)
		} else {
			result = driver.NotFoundCommandResult()
		}
		k.boundary.SetSyscallReturnCommand(p.SP, &p.Arch, result)

	case syscallabi.ClassSubscribe:
		var result syscallabi.SubscribeResult
		if d, ok := k.drivers.Lookup(s.Subscribe.Driver); ok {
			// A null callback pointer is the ABI's unsubscribe request and
			// is exempt from the RAM-window check below.
			if err := p.ValidatePointer(s.Subscribe.CallbackPtr, 0); err != nil && s.Subscribe.CallbackPtr != 0 {
				result = syscallabi.SubFailure(rcode.EINVAL)
			} else {
				p.Callbacks.CancelForKey(s.Subscribe.Driver, s.Subscribe.Sub)
				result = d.Subscribe(p.ID, s.Subscribe.Sub, s.Subscribe.CallbackPtr, s.Subscribe.AppData)
			}
		} else {
			result = driver.NotFoundSubscribeResult()
		}
		k.boundary.SetSyscallReturnSubscribe(p.SP, &p.Arch, result)

	case syscallabi.ClassAllow:
		var result syscallabi.AllowResult
		if err := p.ValidatePointer(s.Allow.Address, s.Allow.Length); err != nil {
			result = syscallabi.AllowFailure(rcode.EINVAL, uint32(s.Allow.Address), uint32(s.Allow.Length))
		} else if d, ok := k.drivers.Lookup(s.Allow.Driver); ok {
			result = d.Allow(p.ID, s.Allow.Sub, s.Allow.Address, s.Allow.Length)
		} else {
			result = driver.NotFoundAllowResult(uint32(s.Allow.Address), uint32(s.Allow.Length))
		}
		k.boundary.SetSyscallReturnAllow(p.SP, &p.Arch, result)

	case syscallabi.ClassMemop:
		// Memory-layout queries are answered by the kernel directly; no
		// board has yet needed anything beyond acknowledging the call.
		k.boundary.SetSyscallReturnCommand(p.SP, &p.Arch, syscallabi.CmdSuccess())
	}
}

// applyFaultResponse implements the boot-selected policy for a process
// that trapped with ReasonFault.
func (k *Kernel) applyFaultResponse(p *process.Record) {
	p.FaultCount++
	p.Lifecycle = process.StoppedFaulted

	switch k.faultResponse {
	case process.FaultRestart:
		p.Lifecycle = process.Unstarted
		p.Callbacks.Clear()
		p.Grant = grant.NewAllocator(p.Memory.Grant.Size)
		newSP, err := k.boundary.InitializeProcess(p.Memory.Stack.Base, p.Memory.Stack.Size, &p.Arch)
		if err != nil {
			k.logger.Printf("process %d: restart failed, leaving stopped: %v", p.ID, err)
			p.Lifecycle = process.StoppedFaulted
			return
		}
		p.SP = newSP
		p.Lifecycle = process.Running
		k.logger.Printf("process %d: faulted, restarted (fault count %d)", p.ID, p.FaultCount)

	case process.FaultStop:
		p.Lifecycle = process.Terminated
		p.Grant = grant.NewAllocator(p.Memory.Grant.Size)
		// Drivers holding an allow buffer past termination must give it
		// back; an Allow with address/length zero replaces the held buffer
		// with an empty one, so no new Driver method is needed to express
		// it.
		for _, entry := range p.Allows.Entries() {
			if entry.Buffer.Length == 0 {
				continue
			}
			if d, ok := k.drivers.Lookup(entry.Driver); ok {
				d.Allow(p.ID, entry.Sub, 0, 0)
			}
		}
		p.Allows.Clear()
		k.logger.Printf("process %d: faulted, stopped permanently", p.ID)

	case process.FaultPanic:
		k.logger.Printf("process %d: faulted, fault response is panic", p.ID)
		k.boundary.PrintContext(p.SP, &p.Arch, k.panicWriter)
		panic(&processFaultError{ProcessID: p.ID, FaultCount: p.FaultCount})
	}
}

// processFaultError is the value Run's FaultPanic path panics with, so
// a recovering caller (such as a test harness) can identify which
// process faulted.
type processFaultError struct {
	ProcessID  int
	FaultCount int
}

func (e *processFaultError) Error() string {
	return "sched: process fault response is panic"
}
