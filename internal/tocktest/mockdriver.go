// Package tocktest provides test doubles for exercising boards and
// capsules without real hardware: a call-tracking driver.Driver
// (MockDriver), a scripted arch.Boundary (MockArch), and a
// deterministic round-counter standing in for wall-clock time
// (FakeClock).
package tocktest

import (
	"sync"

	"github.com/ngreer/tockcore/internal/driver"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

// MockDriver implements driver.Driver with configurable canned results
// and call tracking, for tests that need a capsule standing in without
// exercising the real one.
type MockDriver struct {
	mu sync.Mutex

	CommandResult   syscallabi.CommandResult
	SubscribeResult syscallabi.SubscribeResult
	AllowResult     syscallabi.AllowResult

	commandCalls   int
	subscribeCalls int
	allowCalls     int

	lastCommandSub  uint32
	lastCommandArg0 uintptr
	lastCommandArg1 uintptr
}

// NewMockDriver returns a MockDriver that succeeds with no payload on
// every call until its result fields are overridden.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		CommandResult:   syscallabi.CmdSuccess(),
		SubscribeResult: syscallabi.SubSuccess(),
		AllowResult:     syscallabi.AllowSuccess(0, 0),
	}
}

func (m *MockDriver) Command(processID int, sub uint32, arg0, arg1 uintptr) syscallabi.CommandResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCalls++
	m.lastCommandSub = sub
	m.lastCommandArg0 = arg0
	m.lastCommandArg1 = arg1
	return m.CommandResult
}

func (m *MockDriver) Subscribe(processID int, sub uint32, callbackPtr, appData uintptr) syscallabi.SubscribeResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeCalls++
	return m.SubscribeResult
}

func (m *MockDriver) Allow(processID int, sub uint32, address, length uintptr) syscallabi.AllowResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowCalls++
	return m.AllowResult
}

// CallCounts reports how many times each method has been invoked.
func (m *MockDriver) CallCounts() (command, subscribe, allow int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commandCalls, m.subscribeCalls, m.allowCalls
}

// LastCommand reports the arguments of the most recent Command call.
func (m *MockDriver) LastCommand() (sub uint32, arg0, arg1 uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCommandSub, m.lastCommandArg0, m.lastCommandArg1
}

// Reset clears call counters without touching the configured results.
func (m *MockDriver) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCalls, m.subscribeCalls, m.allowCalls = 0, 0, 0
}

var _ driver.Driver = (*MockDriver)(nil)
