// Package soft implements mpu.MPU in software: it has no real hardware
// slots to program, so it validates the region set the way a real MPU
// driver would at load time and otherwise just records the active
// configuration for tests and cmd/tocksim to inspect.
package soft

import "github.com/ngreer/tockcore/internal/mpu"

// MPU is a fixed-slot-count software model.
type MPU struct {
	slots  int
	active []mpu.Region
}

// New returns a software MPU with the given number of slots, mirroring
// a real chip's fixed hardware region count.
func New(slots int) *MPU {
	return &MPU{slots: slots}
}

func (m *MPU) NumSlots() int { return m.slots }

func (m *MPU) Configure(regions []mpu.Region) error {
	if len(regions) > m.slots {
		return &mpu.ErrTooManyRegions{Requested: len(regions), Slots: m.slots}
	}
	m.active = append(m.active[:0], regions...)
	return nil
}

func (m *MPU) DisableForKernel() {
	m.active = m.active[:0]
}

// Active returns the currently configured regions, for tests.
func (m *MPU) Active() []mpu.Region {
	return m.active
}
