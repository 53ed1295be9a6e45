// Package image reads the fixed-size header every process binary
// carries ahead of its code, the way Tock's Trusted Binary Format (TBF)
// header precedes an app's flash image. Parsing the full TBF tag list
// is out of scope here; this package only extracts the handful of
// fields the loader needs to build a process's MemoryMap and checks
// them for internal consistency before a process is ever scheduled.
package image

import (
	"encoding/binary"
	"fmt"
)

// magic is the fixed four-byte value every valid header starts with.
const magic = 0x00904c54 // "TL\x90\x00", little-endian on the wire

const headerSize = 24

// Descriptor is the subset of a process image header the loader
// consumes: how much flash the binary occupies, how much RAM it needs,
// and how that RAM should be split between stack, heap, and grant.
type Descriptor struct {
	EntryOffset uint32
	FlashSize   uint32
	RAMSize     uint32
	StackSize   uint32
	GrantSize   uint32
}

// Parse reads a Descriptor from the first headerSize bytes of data,
// which must be the start of a process's flash image.
func Parse(data []byte) (Descriptor, error) {
	if len(data) < headerSize {
		return Descriptor{}, fmt.Errorf("image: header needs %d bytes, got %d", headerSize, len(data))
	}
	got := binary.LittleEndian.Uint32(data[0:4])
	if got != magic {
		return Descriptor{}, fmt.Errorf("image: bad magic %#x, want %#x", got, magic)
	}
	return Descriptor{
		EntryOffset: binary.LittleEndian.Uint32(data[4:8]),
		FlashSize:   binary.LittleEndian.Uint32(data[8:12]),
		RAMSize:     binary.LittleEndian.Uint32(data[12:16]),
		StackSize:   binary.LittleEndian.Uint32(data[16:20]),
		GrantSize:   binary.LittleEndian.Uint32(data[20:24]),
	}, nil
}

// Validate checks the descriptor for internal consistency: the entry
// point must lie inside the flash image, and the RAM split must not
// overcommit the declared RAM size. A failure here is a board
// configuration error caught at load, never discovered by scheduling a
// malformed process.
func (d Descriptor) Validate() error {
	if d.EntryOffset >= d.FlashSize {
		return fmt.Errorf("image: entry offset %#x outside flash size %#x", d.EntryOffset, d.FlashSize)
	}
	if d.StackSize == 0 {
		return fmt.Errorf("image: stack size must be nonzero")
	}
	committed := uint64(d.StackSize) + uint64(d.GrantSize)
	if committed > uint64(d.RAMSize) {
		return fmt.Errorf("image: stack+grant (%d) exceeds declared RAM size (%d)", committed, d.RAMSize)
	}
	return nil
}

// HeapSize returns what remains of RAMSize once stack and grant are
// carved out — whatever the process's allocator has to work with.
func (d Descriptor) HeapSize() uint32 {
	return d.RAMSize - d.StackSize - d.GrantSize
}
