package tocktest

import (
	"io"
	"sync"

	"github.com/ngreer/tockcore/internal/arch"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

// MockArch implements arch.Boundary with a scripted queue of switch
// results instead of simulating real process execution, for a test
// that only cares how the kernel reacts to a sequence of trap reasons
// and wants to assert on exactly how many times each Boundary method
// was called. internal/arch/sim plays this role for end-to-end
// scheduling tests that need a real scripted Program; MockArch is for
// narrower tests that just want canned SwitchToProcess outcomes.
type MockArch struct {
	mu sync.Mutex

	// Results is consumed in order by SwitchToProcess. Once exhausted,
	// every further call returns ReasonInterrupted without advancing
	// the stack pointer.
	Results []arch.SwitchResult

	// InitSP is the stack pointer InitializeProcess reports.
	InitSP uintptr

	next                               int
	initCalls, switchCalls, printCalls int
	setFnCalls, cmdCalls, subCalls     int
	alwCalls                           int
	lastPrintW                         io.Writer
}

// NewMockArch returns a MockArch that will hand out results in order
// on successive SwitchToProcess calls.
func NewMockArch(results ...arch.SwitchResult) *MockArch {
	return &MockArch{Results: results, InitSP: 0x1000}
}

func (m *MockArch) InitializeProcess(stackBase, stackSize uintptr, state *arch.State) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initCalls++
	state.MarkInitialized()
	return m.InitSP, nil
}

func (m *MockArch) SetSyscallReturnCommand(sp uintptr, state *arch.State, r syscallabi.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmdCalls++
}

func (m *MockArch) SetSyscallReturnSubscribe(sp uintptr, state *arch.State, r syscallabi.SubscribeResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subCalls++
}

func (m *MockArch) SetSyscallReturnAllow(sp uintptr, state *arch.State, r syscallabi.AllowResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alwCalls++
}

func (m *MockArch) SetProcessFunction(sp uintptr, remainingStackBytes uintptr, state *arch.State, call arch.FunctionCall) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setFnCalls++
	return sp, nil
}

// SwitchToProcess returns the next scripted result. A zero NewSP in
// the scripted result is filled in with the sp passed in, so a test
// only needs to set Reason and Syscall on the values it cares about.
func (m *MockArch) SwitchToProcess(sp uintptr, state *arch.State) arch.SwitchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switchCalls++
	if m.next >= len(m.Results) {
		return arch.SwitchResult{NewSP: sp, Reason: arch.ReasonInterrupted}
	}
	r := m.Results[m.next]
	m.next++
	if r.NewSP == 0 {
		r.NewSP = sp
	}
	return r
}

func (m *MockArch) PrintContext(sp uintptr, state *arch.State, w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.printCalls++
	m.lastPrintW = w
	io.WriteString(w, "mockarch: context dump\n")
}

// Counts reports how many times InitializeProcess, SwitchToProcess and
// PrintContext were invoked. The counts of the other Boundary methods
// are kept internally but not reported.
func (m *MockArch) Counts() (init, switchTo, print int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initCalls, m.switchCalls, m.printCalls
}

var _ arch.Boundary = (*MockArch)(nil)
