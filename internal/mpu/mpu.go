// Package mpu binds a process's declared memory regions to the
// hardware memory-protection unit. The core invokes an MPU but does
// not implement one; this package only defines the contract and a
// software model used off real hardware.
package mpu

import "github.com/ngreer/tockcore/internal/process"

// Permission is the access mode granted to a region.
type Permission int

const (
	ReadExecute Permission = iota
	ReadWrite
)

// Region is one MPU slot's configuration.
type Region struct {
	Base       uintptr
	Size       uintptr
	Permission Permission
}

// MPU programs the hardware unit before each switch-in and narrows or
// disables protection on switch-out.
type MPU interface {
	// NumSlots reports how many hardware regions this MPU has.
	NumSlots() int

	// Configure programs regions into the MPU's slots. A region set
	// that does not fit is a configuration error returned here, caught
	// at process load — never silently truncated at run time.
	Configure(regions []Region) error

	// DisableForKernel narrows or disables protection on switch-out, so
	// the kernel itself runs unrestricted.
	DisableForKernel()
}

// RegionsForProcess builds the region set {app-flash R-X, app-ram RW-}
// from a process's declared memory map, in the order a real MPU driver
// would expect them.
func RegionsForProcess(mem process.MemoryMap) []Region {
	return []Region{
		{Base: mem.Flash.Base, Size: mem.Flash.Size, Permission: ReadExecute},
		{Base: mem.RAM.Base, Size: mem.RAM.Size, Permission: ReadWrite},
	}
}

// ErrTooManyRegions is returned when a board's declared regions exceed
// the hardware's available slots.
type ErrTooManyRegions struct {
	Requested int
	Slots     int
}

func (e *ErrTooManyRegions) Error() string {
	return "mpu: region set does not fit in available hardware slots"
}
