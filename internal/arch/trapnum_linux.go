//go:build linux && cgo

package arch

/*
// Cortex-M exception number for SVCall, per the ARMv7-M architecture
// reference manual. Not available as a named kernel constant the way
// IORING_OP_URING_CMD is, so this is pinned directly rather than read
// from a header.
#define SVCALL_EXCEPTION_NUMBER 11
static unsigned char get_svcall_exception_number() {
    return (unsigned char)SVCALL_EXCEPTION_NUMBER;
}
*/
import "C"

func svCallExceptionNumber() uint8 {
	return uint8(C.get_svcall_exception_number())
}
