package soft

import "github.com/ngreer/tockcore/internal/mpu"

import "testing"

func TestConfigureWithinSlotsSucceeds(t *testing.T) {
	m := New(4)
	regions := []mpu.Region{
		{Base: 0x0, Size: 0x1000, Permission: mpu.ReadExecute},
		{Base: 0x20000000, Size: 0x2000, Permission: mpu.ReadWrite},
	}
	if err := m.Configure(regions); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Active()) != 2 {
		t.Fatalf("expected 2 active regions, got %d", len(m.Active()))
	}
}

func TestConfigureTooManyRegionsFails(t *testing.T) {
	m := New(1)
	regions := []mpu.Region{
		{Base: 0x0, Size: 0x1000, Permission: mpu.ReadExecute},
		{Base: 0x20000000, Size: 0x2000, Permission: mpu.ReadWrite},
	}
	err := m.Configure(regions)
	if err == nil {
		t.Fatal("expected too-many-regions error")
	}
	if _, ok := err.(*mpu.ErrTooManyRegions); !ok {
		t.Fatalf("expected *mpu.ErrTooManyRegions, got %T", err)
	}
	if len(m.Active()) != 0 {
		t.Fatal("failed Configure must not change active regions")
	}
}

func TestDisableForKernelClearsActive(t *testing.T) {
	m := New(4)
	_ = m.Configure([]mpu.Region{{Base: 0, Size: 0x1000, Permission: mpu.ReadExecute}})
	m.DisableForKernel()
	if len(m.Active()) != 0 {
		t.Fatal("expected DisableForKernel to clear active regions")
	}
}

func TestNumSlots(t *testing.T) {
	m := New(8)
	if m.NumSlots() != 8 {
		t.Fatalf("got %d", m.NumSlots())
	}
}
