package arch

// SVCallExceptionNumber returns the CPU exception number a supervisor
// call trap reports on this build's target. Used only by PrintContext
// diagnostics to label which exception vector fired; the scheduler
// never branches on it.
func SVCallExceptionNumber() uint8 { return svCallExceptionNumber() }
