// Package capability implements unforgeable compile-time proofs
// required to call a small set of privileged kernel entry points
// (process management, memory allocation, the main-loop entry). Go has
// no zero-sized-type-constructible-only-at-designated-call-sites
// mechanism the way Rust does: an exported struct with only unexported
// fields can still be zero-valued from any package via an empty
// composite literal (capability.MainLoop{}) or a bare var declaration,
// so a struct-based token is forgeable. Instead each token here is an
// exported interface with an unexported method, implemented only by an
// unexported type that never leaves this package. A caller outside
// capability cannot implement the method (it can't name it), and it
// cannot construct a value of the unexported concrete type, so the
// only way to obtain a non-nil token is to call Boot. A forged
// reference can only ever be the nil interface value, which the
// privileged entry points reject explicitly.
package capability

// ProcessManagement proves the caller may start, stop, or restart a
// process record.
type ProcessManagement interface {
	processManagement()
}

// MemoryAllocation proves the caller may carve a new grant or load a
// process image into a fixed memory region.
type MemoryAllocation interface {
	memoryAllocation()
}

// MainLoop proves the caller is the board's boot code entering the
// scheduler's main loop, not a capsule or test harness reaching in.
type MainLoop interface {
	mainLoop()
}

// sealed is the sole implementation of the three token interfaces.
// Nothing outside this package can construct one or name its type.
type sealed struct{}

func (sealed) processManagement() {}
func (sealed) memoryAllocation()  {}
func (sealed) mainLoop()          {}

// Boot mints every capability token a board needs at startup. It is
// meant to be called exactly once, from board initialization, and the
// resulting tokens threaded explicitly to whatever needs them.
func Boot() (ProcessManagement, MemoryAllocation, MainLoop) {
	s := sealed{}
	return s, s, s
}
