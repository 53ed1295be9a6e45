//go:build !linux || !cgo

package arch

// svCallExceptionNumber returns the safe default for ARMv7-M SVCall (11).
// If a real board's exception table differs, prefer building with cgo
// enabled on the target toolchain so the real value is compiled in.
func svCallExceptionNumber() uint8 { return 11 }
