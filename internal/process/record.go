// Package process holds per-process bookkeeping: identity, memory
// regions, saved CPU state, the pending-callback queue, grant regions,
// and lifecycle state.
package process

import (
	"fmt"

	"github.com/ngreer/tockcore/internal/arch"
	"github.com/ngreer/tockcore/internal/grant"
)

// Region is a contiguous address range.
type Region struct {
	Base uintptr
	Size uintptr
}

func (r Region) End() uintptr { return r.Base + r.Size }

// Contains reports whether [addr, addr+length) lies entirely inside r.
func (r Region) Contains(addr, length uintptr) bool {
	if length == 0 {
		return addr >= r.Base && addr <= r.End()
	}
	end := addr + length
	if end < addr {
		return false // overflow
	}
	return addr >= r.Base && end <= r.End()
}

// MemoryMap is a process's declared flash and RAM windows, with RAM
// further subdivided the way Tock subdivides app-RAM into stack, heap,
// and grant area.
type MemoryMap struct {
	Flash Region // R-X
	RAM   Region // RW-, parent of Stack/Heap/Grant
	Stack Region
	Heap  Region
	Grant Region
}

// Record is everything the kernel tracks for one loaded process.
type Record struct {
	ID     int
	Name   string
	Memory MemoryMap

	Arch arch.State
	SP   uintptr

	Callbacks *CallbackQueue
	Allows    *AllowTable
	Grant     *grant.Allocator

	Lifecycle  Lifecycle
	FaultCount int

	// TimesliceConsumed is reset to zero at each switch-in and used
	// only for diagnostics; timeslice expiry itself is reported by
	// arch.Boundary.SwitchToProcess, not measured here.
	TimesliceConsumed int
}

// NewRecord builds a process record with a bounded callback queue of
// the given capacity. The record starts Unstarted; InitializeProcess
// must run before it can be scheduled.
func NewRecord(id int, name string, mem MemoryMap, callbackQueueDepth int) *Record {
	return &Record{
		ID:        id,
		Name:      name,
		Memory:    mem,
		Callbacks: NewCallbackQueue(callbackQueueDepth),
		Allows:    NewAllowTable(),
		Grant:     grant.NewAllocator(mem.Grant.Size),
		Lifecycle: Unstarted,
	}
}

// ValidatePointer checks that [addr, addr+length) lies entirely inside
// this process's writable RAM. Every pointer the kernel dereferences
// from a syscall — callback pointer, allow address — must pass this
// before use.
func (r *Record) ValidatePointer(addr, length uintptr) error {
	if !r.Memory.RAM.Contains(addr, length) {
		return fmt.Errorf("process %d: [%#x, %#x) escapes RAM window [%#x, %#x)",
			r.ID, addr, addr+length, r.Memory.RAM.Base, r.Memory.RAM.End())
	}
	return nil
}

// StackInBounds reports whether the saved stack pointer lies within the
// declared stack region [Base, End). The scheduler does not call it
// before a switch-in; it is available to callers that check the
// invariant themselves.
func (r *Record) StackInBounds() bool {
	return r.SP >= r.Memory.Stack.Base && r.SP < r.Memory.Stack.End()
}

// Runnable reports whether the scheduler may pick this process this
// pass: it must be Running, or Yielded with a callback ready to inject.
func (r *Record) Runnable() bool {
	switch r.Lifecycle {
	case Running:
		return true
	case Yielded:
		return r.Callbacks.Len() > 0
	default:
		return false
	}
}
