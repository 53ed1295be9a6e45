package driver

import (
	"testing"

	"github.com/ngreer/tockcore/internal/rcode"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

type stubDriver struct{}

func (stubDriver) Command(pid int, sub uint32, a0, a1 uintptr) syscallabi.CommandResult {
	return syscallabi.CmdSuccess()
}
func (stubDriver) Subscribe(pid int, sub uint32, cb, appdata uintptr) syscallabi.SubscribeResult {
	return syscallabi.SubSuccess()
}
func (stubDriver) Allow(pid int, sub uint32, addr, length uintptr) syscallabi.AllowResult {
	return syscallabi.AllowSuccess(0, 0)
}

func TestLookupUnknownDriverNumber(t *testing.T) {
	tbl := NewTable()
	if _, ok := tbl.Lookup(99); ok {
		t.Error("expected unregistered driver number to miss")
	}
}

func TestRegisterAndLookup(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Register(1, stubDriver{}); err != nil {
		t.Fatal(err)
	}
	d, ok := tbl.Lookup(1)
	if !ok {
		t.Fatal("expected lookup to find registered driver")
	}
	if r := d.Command(0, 0, 0, 0); r.Tag != syscallabi.TagSuccess {
		t.Errorf("got %+v", r)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Register(1, stubDriver{}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Register(1, stubDriver{}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestNotFoundResultsCarryENODEVICE(t *testing.T) {
	r := NotFoundCommandResult()
	if r.Tag != syscallabi.TagFailure {
		t.Errorf("got tag %v", r.Tag)
	}
	if r.Error != rcode.ENODEVICE {
		t.Errorf("command: got error %v, want ENODEVICE", r.Error)
	}
	if s := NotFoundSubscribeResult(); s.Tag != syscallabi.TagFailure || s.Error != rcode.ENODEVICE {
		t.Errorf("subscribe: got %+v", s)
	}
	if a := NotFoundAllowResult(0x1000, 64); a.Tag != syscallabi.TagFailureU32U32 || a.Error != rcode.ENODEVICE {
		t.Errorf("allow: got %+v", a)
	}
}
