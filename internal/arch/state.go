package arch

// State is the opaque, architecture-specific saved register state for
// one process. It is embedded inline in the process record (no heap
// allocation) so that its zero value exists the moment the record does
// — but the zero value is explicitly not a valid saved state. Only
// InitializeProcess produces one a Boundary will accept.
type State struct {
	// Registers holds the four syscall argument/return registers plus
	// the link register and program counter a real Cortex-M/RISC-V
	// implementation would save on trap entry. The host-side
	// simulation in arch/sim uses only a subset; arch/hw's build-tagged
	// real implementation would use all of it.
	Registers   [4]uint32
	LinkReg     uintptr
	ProgramCtr  uintptr
	initialized bool

	// ext is private, implementation-specific bookkeeping a particular
	// Boundary is free to attach to a process's state (e.g. arch/sim's
	// scripted-step cursor). The core never reads it.
	ext any
}

// Initialized reports whether InitializeProcess has run at least once
// on this State. Boundary implementations must treat an uninitialized
// State as a programming error, not silently proceed.
func (s *State) Initialized() bool {
	return s.initialized
}

// MarkInitialized is called by a Boundary's InitializeProcess once it
// has populated every field a real implementation would need.
func (s *State) MarkInitialized() {
	s.initialized = true
}

// SetExt stores implementation-specific bookkeeping alongside the
// architecture-neutral fields above.
func (s *State) SetExt(v any) {
	s.ext = v
}

// Ext retrieves bookkeeping previously stored with SetExt.
func (s *State) Ext() any {
	return s.ext
}
