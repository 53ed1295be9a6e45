package tockcore

import (
	"github.com/ngreer/tockcore/capsule"
	"github.com/ngreer/tockcore/internal/arch"
	"github.com/ngreer/tockcore/internal/arch/sim"
	"github.com/ngreer/tockcore/internal/process"
	"github.com/ngreer/tockcore/internal/sched"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

// ProcessConfig describes one app to load onto a board: the label it
// is known by in logs, the RAM/flash split its image declares, and the
// simulated program that drives it in place of real compiled code.
type ProcessConfig struct {
	Name               string
	Memory             process.MemoryMap
	CallbackQueueDepth int
	Program            sim.Program
}

// Config is a simulated board's complete static configuration, the
// board-level analogue of the teacher's device parameters: how many
// MPU slots the chip offers, what happens to a faulted process, and
// which processes to load.
type Config struct {
	MPUSlots         int
	FaultResponse    process.FaultResponse
	DeferredCapacity int
	Processes        []ProcessConfig
	EnableConsole    bool
	NumLEDs          int

	// Logger receives the kernel's scheduling/fault diagnostics. Nil is
	// valid: NewSimBoard falls back to the scheduler's no-op logger.
	Logger sched.Logger
}

// DefaultConfig returns a minimal single-process board: one app with
// an 8-slot callback queue, a 4-region MPU, restart-on-fault, three
// LEDs, and the console enabled. Callers override whichever fields
// their scenario needs before calling NewSimBoard.
func DefaultConfig() Config {
	return Config{
		MPUSlots:         4,
		FaultResponse:    process.FaultRestart,
		DeferredCapacity: 8,
		NumLEDs:          3,
		EnableConsole:    true,
		Processes: []ProcessConfig{
			{
				Name: "app0",
				Memory: process.MemoryMap{
					Flash: process.Region{Base: 0x00000000, Size: 0x00010000},
					RAM:   process.Region{Base: 0x20000000, Size: 0x00004000},
					Stack: process.Region{Base: 0x20003800, Size: 0x00000800},
					Heap:  process.Region{Base: 0x20000200, Size: 0x00003600},
					Grant: process.Region{Base: 0x20000000, Size: 0x00000200},
				},
				CallbackQueueDepth: 8,
				Program:            heartbeatProgram(),
			},
		},
	}
}

// heartbeatProgram is the default demo workload for app0: toggle LED 0
// and yield. No callback is ever posted to it, so after its first yield
// the scheduler does not pick it again; the program would alternate
// toggle and yield only if it were resumed. It has no real code behind it; it exists so
// cmd/tocksim has something to schedule without a compiled app image.
func heartbeatProgram() sim.Program {
	toggling := true
	return func(call *arch.FunctionCall) sim.Action {
		if toggling {
			toggling = false
			return sim.Action{
				Kind: sim.Command,
				Command: syscallabi.CommandCall{
					Driver: ledDriverNumber,
					Sub:    capsule.LedSubToggle,
					Arg0:   0,
				},
			}
		}
		toggling = true
		return sim.Action{Kind: sim.Yield}
	}
}
