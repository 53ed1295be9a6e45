//go:build linux && cgo

package arch

/*
#include <stdint.h>

// Store fence: all prior stores are globally visible before any
// subsequent store. Required before SwitchToProcess so the process
// observes the register/stack writes InitializeProcess or
// SetSyscallReturn* just made.
static inline void sfence_impl(void) {
    __asm__ __volatile__("sfence" ::: "memory");
}

// Full memory fence: all prior memory operations complete before any
// subsequent one. Used around the context-switch boundary itself.
static inline void mfence_impl(void) {
    __asm__ __volatile__("mfence" ::: "memory");
}
*/
import "C"

// Sfence issues a store fence (x86 SFENCE).
func Sfence() {
	C.sfence_impl()
}

// Mfence issues a full memory fence (x86 MFENCE).
func Mfence() {
	C.mfence_impl()
}
