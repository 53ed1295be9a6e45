//go:build !linux || !cgo

package arch

// Sfence is a no-op on build configurations without the cgo asm fence
// (cross-builds for boards without cgo, or non-Linux dev hosts). No
// package in this module currently calls it.
func Sfence() {}

// Mfence is a no-op for the same reason as Sfence.
func Mfence() {}
