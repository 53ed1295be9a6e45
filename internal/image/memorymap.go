package image

import "github.com/ngreer/tockcore/internal/process"

// MemoryMap lays out a process's regions from a validated descriptor
// and the flash/RAM base addresses the loader assigned it. Stack grows
// down from the top of RAM; grant grows up from the bottom, the way
// Tock places the grant region, leaving heap as the remaining middle.
func MemoryMap(d Descriptor, flashBase, ramBase uintptr) process.MemoryMap {
	ramEnd := ramBase + uintptr(d.RAMSize)
	stackBase := ramEnd - uintptr(d.StackSize)
	grantBase := ramBase
	heapBase := grantBase + uintptr(d.GrantSize)

	return process.MemoryMap{
		Flash: process.Region{Base: flashBase, Size: uintptr(d.FlashSize)},
		RAM:   process.Region{Base: ramBase, Size: uintptr(d.RAMSize)},
		Stack: process.Region{Base: stackBase, Size: uintptr(d.StackSize)},
		Heap:  process.Region{Base: heapBase, Size: uintptr(d.HeapSize())},
		Grant: process.Region{Base: grantBase, Size: uintptr(d.GrantSize)},
	}
}
