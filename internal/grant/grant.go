// Package grant implements the per-process, kernel-owned memory slab
// drivers use to keep per-process state without a global heap. Each
// driver carves a typed sub-region from a process's grant area on
// first access and keeps a stable handle to it thereafter; the
// allocator itself never grows past the size fixed when the process
// was loaded.
package grant

import (
	"fmt"
	"sync"
)

// ErrNoSpace is returned when a grant region has no room left for a
// newly requested allocation.
type ErrNoSpace struct {
	DriverNumber int
	Requested    uintptr
	Remaining    uintptr
}

func (e *ErrNoSpace) Error() string {
	return fmt.Sprintf("grant: driver %d requested %d bytes, only %d remain",
		e.DriverNumber, e.Requested, e.Remaining)
}

// Allocator is a bump allocator over one process's grant region. It
// never frees individual allocations — a driver's grant lives for the
// process's lifetime — and it is safe for concurrent Enter calls
// because, per the core's single-threaded scheduling model, callers
// only ever enter a grant while the kernel loop is dispatching into
// that driver on behalf of that one process. The mutex exists for
// defensive use from tests that drive the allocator directly.
type Allocator struct {
	mu       sync.Mutex
	capacity uintptr
	used     uintptr
	handles  map[int]uintptr // driver number -> stable offset
	sizes    map[int]uintptr // driver number -> allocated size, for bounds checks
}

// NewAllocator returns an allocator over a grant region of the given
// capacity. Capacity is fixed at process load time (§3's "size is
// fixed when the process is loaded") and never changes afterward.
func NewAllocator(capacity uintptr) *Allocator {
	return &Allocator{
		capacity: capacity,
		handles:  make(map[int]uintptr),
		sizes:    make(map[int]uintptr),
	}
}

// EnterOrCreate returns the stable offset for driverNumber's grant,
// carving `size` bytes from the region on first access. Subsequent
// calls for the same driver return the same offset regardless of the
// size argument, matching "typed on first use and stable thereafter."
func (a *Allocator) EnterOrCreate(driverNumber int, size uintptr) (offset uintptr, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if off, ok := a.handles[driverNumber]; ok {
		return off, nil
	}
	remaining := a.capacity - a.used
	if size > remaining {
		return 0, &ErrNoSpace{DriverNumber: driverNumber, Requested: size, Remaining: remaining}
	}
	off := a.used
	a.used += size
	a.handles[driverNumber] = off
	a.sizes[driverNumber] = size
	return off, nil
}

// Enter returns the existing offset for driverNumber without
// allocating, reporting false if the driver has never entered before.
func (a *Allocator) Enter(driverNumber int) (offset uintptr, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	off, ok := a.handles[driverNumber]
	return off, ok
}

// Remaining reports how many bytes of the region are still uncarved.
func (a *Allocator) Remaining() uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capacity - a.used
}
