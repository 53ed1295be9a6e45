package capability

import "testing"

func TestBootMintsNonNilTokens(t *testing.T) {
	procMgmt, memCap, mainLoop := Boot()
	if procMgmt == nil || memCap == nil || mainLoop == nil {
		t.Fatal("Boot returned a nil token")
	}
}

func TestZeroValueTokenIsNil(t *testing.T) {
	// A caller outside this package can only ever get the zero value of
	// these interface types, never a value satisfying the unexported
	// method set. That zero value is nil, not a usable forged token.
	var procMgmt ProcessManagement
	var memCap MemoryAllocation
	var mainLoop MainLoop

	if procMgmt != nil || memCap != nil || mainLoop != nil {
		t.Fatal("expected zero-value tokens to be nil")
	}
}
