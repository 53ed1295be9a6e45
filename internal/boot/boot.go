// Package boot validates a board's static configuration and builds the
// wired Kernel from it: process records, the driver dispatch table, and
// the MPU slot budget are all checked once here, at load time, rather
// than discovered as run-time failures later.
package boot

import (
	"fmt"

	"github.com/ngreer/tockcore/internal/arch"
	"github.com/ngreer/tockcore/internal/capability"
	"github.com/ngreer/tockcore/internal/deferqueue"
	"github.com/ngreer/tockcore/internal/driver"
	"github.com/ngreer/tockcore/internal/image"
	"github.com/ngreer/tockcore/internal/mpu"
	"github.com/ngreer/tockcore/internal/process"
	"github.com/ngreer/tockcore/internal/sched"
)

// ProcessSpec is one process's static configuration: its memory
// layout and how deep its callback queue should be.
type ProcessSpec struct {
	Name               string
	Memory             process.MemoryMap
	CallbackQueueDepth int

	// PreInit, if set, runs after the record is built but before
	// InitializeProcess populates its arch.State. A board running on
	// the software architecture boundary uses this to sim.Attach the
	// Program driving that process; a real boundary has no equivalent
	// step and leaves this nil.
	PreInit func(*process.Record)
}

// ImageSpec describes a process to load from a raw flash image header
// rather than a hand-built MemoryMap. Load parses and validates the
// header (internal/image.Parse, Descriptor.Validate) and derives the
// process's MemoryMap from it (internal/image.MemoryMap) before the
// process is ever scheduled — the "consumption of a validated
// descriptor list" the loader is responsible for, even though parsing
// the on-flash header format itself is out of the core's scope.
type ImageSpec struct {
	Name               string
	Flash              []byte
	FlashBase          uintptr
	RAMBase            uintptr
	CallbackQueueDepth int

	// PreInit runs after the record is built, same as ProcessSpec's.
	PreInit func(*process.Record)
}

func (s ImageSpec) toProcessSpec() (ProcessSpec, error) {
	desc, err := image.Parse(s.Flash)
	if err != nil {
		return ProcessSpec{}, fmt.Errorf("boot: process %q: %w", s.Name, err)
	}
	if err := desc.Validate(); err != nil {
		return ProcessSpec{}, fmt.Errorf("boot: process %q: %w", s.Name, err)
	}
	return ProcessSpec{
		Name:               s.Name,
		Memory:             image.MemoryMap(desc, s.FlashBase, s.RAMBase),
		CallbackQueueDepth: s.CallbackQueueDepth,
		PreInit:            s.PreInit,
	}, nil
}

// DriverBinding assigns a driver instance to a fixed driver number.
// Most capsules are stateless with respect to which process called
// them and can be supplied directly via Driver. A capsule that needs a
// process record at construction time (capsule.ConsoleDriver, which
// keeps per-process state for every loaded record) supplies Factory
// instead; it runs after process records exist and receives the
// board's whole loaded process list.
type DriverBinding struct {
	Number  uint32
	Driver  driver.Driver
	Factory func(procs []*process.Record) driver.Driver
}

func (b DriverBinding) resolve(procs []*process.Record) driver.Driver {
	if b.Driver != nil {
		return b.Driver
	}
	return b.Factory(procs)
}

// Board is a board's complete static configuration: how many MPU
// slots its chip has, what happens to a process that faults, which
// processes to load, and which drivers answer which driver numbers.
type Board struct {
	Boundary           arch.Boundary
	MPU                mpu.MPU
	DeferredCapacity   int
	FaultResponse      process.FaultResponse
	SchedulerPolicy    sched.Policy
	Logger             sched.Logger
	Metrics            sched.MetricsRecorder
	Processes          []ProcessSpec
	Images             []ImageSpec
	Drivers            []DriverBinding
}

// Loaded is the outcome of a successful Load: the running Kernel, the
// process records in load order (for capsules that need a record
// reference, such as capsule.ConsoleDriver), and the deferred-call
// queue interrupt handlers can post to.
type Loaded struct {
	Kernel  *sched.Kernel
	Procs   []*process.Record
	Defer   *deferqueue.Queue
	Drivers *driver.Table
}

// Load validates b and builds the wired kernel. Every failure here is a
// board configuration error: an MPU region set that will not fit, or
// two capsules registered under the same driver number.
func Load(b Board, procCap capability.MemoryAllocation) (*Loaded, error) {
	if procCap == nil {
		return nil, fmt.Errorf("boot: Load requires a MemoryAllocation token minted by capability.Boot")
	}
	specs := make([]ProcessSpec, 0, len(b.Processes)+len(b.Images))
	specs = append(specs, b.Processes...)
	for _, img := range b.Images {
		spec, err := img.toProcessSpec()
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	if err := validateMPUBudget(b.MPU, specs); err != nil {
		return nil, err
	}

	procs := make([]*process.Record, 0, len(specs))
	for i, spec := range specs {
		rec := process.NewRecord(i, spec.Name, spec.Memory, spec.CallbackQueueDepth)
		if spec.PreInit != nil {
			spec.PreInit(rec)
		}
		sp, err := b.Boundary.InitializeProcess(spec.Memory.Stack.Base, spec.Memory.Stack.Size, &rec.Arch)
		if err != nil {
			return nil, fmt.Errorf("boot: process %q: %w", spec.Name, err)
		}
		rec.SP = sp
		rec.Lifecycle = process.Running
		procs = append(procs, rec)
	}

	drivers := driver.NewTable()
	for _, binding := range b.Drivers {
		if err := drivers.Register(binding.Number, binding.resolve(procs)); err != nil {
			return nil, fmt.Errorf("boot: driver number %d: %w", binding.Number, err)
		}
	}

	deferCap := b.DeferredCapacity
	if deferCap <= 0 {
		deferCap = 8
	}
	dq := deferqueue.New(deferCap)

	k := sched.New(sched.Config{
		Boundary:      b.Boundary,
		MPU:           b.MPU,
		Drivers:       drivers,
		Defer:         dq,
		Policy:        b.SchedulerPolicy,
		Logger:        b.Logger,
		Metrics:       b.Metrics,
		FaultResponse: b.FaultResponse,
	})
	for _, rec := range procs {
		k.AddProcess(rec)
	}

	return &Loaded{Kernel: k, Procs: procs, Defer: dq, Drivers: drivers}, nil
}

// validateMPUBudget checks that every process's region set fits in the
// chip's available MPU slots. Only one process is ever programmed into
// the MPU at a time, so the budget is per-process, not summed across
// the board's process table.
func validateMPUBudget(m mpu.MPU, specs []ProcessSpec) error {
	for _, spec := range specs {
		regions := mpu.RegionsForProcess(spec.Memory)
		if len(regions) > m.NumSlots() {
			return fmt.Errorf("boot: process %q: %w", spec.Name, &mpu.ErrTooManyRegions{Requested: len(regions), Slots: m.NumSlots()})
		}
	}
	return nil
}
