package tocktest

import (
	"testing"

	"github.com/ngreer/tockcore/internal/rcode"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

func TestMockDriverDefaultsToSuccess(t *testing.T) {
	d := NewMockDriver()
	r := d.Command(0, 1, 2, 3)
	if r.Tag != syscallabi.TagSuccess {
		t.Fatalf("got %+v", r)
	}
}

func TestMockDriverTracksCallsAndLastArgs(t *testing.T) {
	d := NewMockDriver()
	d.Command(0, 5, 10, 20)
	d.Command(0, 6, 11, 21)
	d.Subscribe(0, 0, 0, 0)
	d.Allow(0, 0, 0, 0)

	cmd, sub, allow := d.CallCounts()
	if cmd != 2 || sub != 1 || allow != 1 {
		t.Fatalf("got cmd=%d sub=%d allow=%d", cmd, sub, allow)
	}
	gotSub, a0, a1 := d.LastCommand()
	if gotSub != 6 || a0 != 11 || a1 != 21 {
		t.Fatalf("got sub=%d a0=%d a1=%d", gotSub, a0, a1)
	}
}

func TestMockDriverConfigurableFailure(t *testing.T) {
	d := NewMockDriver()
	d.CommandResult = syscallabi.CmdFailure(rcode.EBUSY)
	r := d.Command(0, 0, 0, 0)
	if r.Tag != syscallabi.TagFailure || r.Error != rcode.EBUSY {
		t.Fatalf("got %+v", r)
	}
}

func TestMockDriverReset(t *testing.T) {
	d := NewMockDriver()
	d.Command(0, 0, 0, 0)
	d.Reset()
	cmd, _, _ := d.CallCounts()
	if cmd != 0 {
		t.Fatalf("expected reset to clear call count, got %d", cmd)
	}
}
