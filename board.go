// Package tockcore is a software model of the Tock-style kernel core:
// the syscall ABI, the process record and its memory/callback/allow
// state, the cooperative scheduler, and a handful of example capsules,
// wired together behind a board-level API a simulated or real chip's
// cmd entry point can drive. Package-level Board/Run mirror the
// teacher's top-level Device/CreateAndServe shape: construct from a
// Config, then hand the result to Run inside a cancellable context.
package tockcore

import (
	"context"
	"fmt"

	"github.com/ngreer/tockcore/capsule"
	"github.com/ngreer/tockcore/internal/arch/sim"
	"github.com/ngreer/tockcore/internal/boot"
	"github.com/ngreer/tockcore/internal/capability"
	"github.com/ngreer/tockcore/internal/driver"
	"github.com/ngreer/tockcore/internal/mpu/soft"
	"github.com/ngreer/tockcore/internal/process"
	"github.com/ngreer/tockcore/internal/sched"
)

// Driver numbers this board assigns its built-in capsules. A real
// board chooses its own numbering; these are fixed here only because
// NewSimBoard wires both capsules itself.
const (
	ledDriverNumber     = 0
	consoleDriverNumber = 1
)

// litLED is a board LED whose lit state can be observed from outside,
// the way a test or a demo main loop wants to report a heartbeat.
type litLED interface {
	capsule.LedPin
	Lit() bool
}

// Board is a fully loaded, runnable kernel instance together with the
// handles a caller needs to drive it from the outside: the LEDs it
// exposes, its metrics and its process records. The console sink is
// passed to NewSimBoard and is not kept on the Board.
type Board struct {
	loaded   *boot.Loaded
	leds     []litLED
	mainLoop capability.MainLoop
	metrics  *Metrics
}

// NewSimBoard builds a Board running entirely on the software
// architecture boundary and software MPU model (internal/arch/sim,
// internal/mpu/soft), for tests and cmd/tocksim. sink receives bytes
// any process writes through the console capsule; pass nil if
// cfg.EnableConsole is false.
func NewSimBoard(cfg Config, sink capsule.Sink) (*Board, error) {
	procMgmt, memCap, mainLoop := capability.Boot()
	_ = procMgmt // not yet needed: no runtime process-management API

	specs := make([]boot.ProcessSpec, len(cfg.Processes))
	for i, p := range cfg.Processes {
		program := p.Program
		specs[i] = boot.ProcessSpec{
			Name:               p.Name,
			Memory:             p.Memory,
			CallbackQueueDepth: p.CallbackQueueDepth,
			PreInit: func(rec *process.Record) {
				sim.Attach(&rec.Arch, program)
			},
		}
	}

	leds := make([]litLED, cfg.NumLEDs)
	ledPins := make([]capsule.LedPin, cfg.NumLEDs)
	for i := range leds {
		l := capsule.NewMemLed()
		leds[i] = l
		ledPins[i] = l
	}

	metrics := NewMetrics()

	bindings := []boot.DriverBinding{
		{Number: ledDriverNumber, Driver: capsule.NewLedDriver(ledPins...)},
	}
	if cfg.EnableConsole {
		if sink == nil {
			return nil, fmt.Errorf("tockcore: console enabled but no sink provided")
		}
		if len(specs) == 0 {
			return nil, fmt.Errorf("tockcore: console enabled but board has no processes")
		}
		bindings = append(bindings, boot.DriverBinding{
			Number: consoleDriverNumber,
			Factory: func(procs []*process.Record) driver.Driver {
				return capsule.NewConsoleDriver(procs, sink)
			},
		})
	}

	b := boot.Board{
		Boundary:         sim.New(),
		MPU:              soft.New(cfg.MPUSlots),
		DeferredCapacity: cfg.DeferredCapacity,
		FaultResponse:    cfg.FaultResponse,
		Logger:           cfg.Logger,
		Metrics:          metrics,
		Processes:        specs,
		Drivers:          bindings,
	}

	loaded, err := boot.Load(b, memCap)
	if err != nil {
		return nil, err
	}

	return &Board{loaded: loaded, leds: leds, mainLoop: mainLoop, metrics: metrics}, nil
}

// Run enters the scheduler's main loop. It blocks until ctx is
// cancelled.
func (b *Board) Run(ctx context.Context) error {
	return b.loaded.Kernel.Run(ctx, b.mainLoop)
}

// LED returns the board's nth simulated LED, for a caller that wants
// to assert on or drive its state directly (tests, a cmd demo printing
// a heartbeat).
func (b *Board) LED(i int) (on bool, ok bool) {
	if i < 0 || i >= len(b.leds) {
		return false, false
	}
	return b.leds[i].Lit(), true
}

// Metrics returns the board's syscall/scheduling counters.
func (b *Board) Metrics() *Metrics {
	return b.metrics
}

// Process returns the loaded record for process index i, for
// inspecting lifecycle state or posting test callbacks.
func (b *Board) Process(i int) (*process.Record, bool) {
	if i < 0 || i >= len(b.loaded.Procs) {
		return nil, false
	}
	return b.loaded.Procs[i], true
}

// Kernel exposes the underlying scheduler for tests that need to drive
// or inspect it directly (for example RegisterDeferredHandler).
func (b *Board) Kernel() *sched.Kernel {
	return b.loaded.Kernel
}
