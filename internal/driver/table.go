// Package driver defines the capsule capability set {command, subscribe,
// allow} and the dispatch table mapping a driver number to an in-kernel
// driver object.
package driver

import (
	"github.com/ngreer/tockcore/internal/rcode"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

// Driver is the interface every capsule presents. Command must return
// promptly without blocking the kernel loop; Subscribe and Allow are
// likewise synchronous — all asynchrony is delivered later as a posted
// callback, not as a blocked call.
type Driver interface {
	Command(processID int, sub uint32, arg0, arg1 uintptr) syscallabi.CommandResult
	Subscribe(processID int, sub uint32, callbackPtr, appData uintptr) syscallabi.SubscribeResult
	Allow(processID int, sub uint32, address, length uintptr) syscallabi.AllowResult
}

// Table is a map-backed dispatch table filled by Register at boot; no
// entry is added or removed after boot. Driver numbers
// are part of the external ABI (assigned by the board, not the core);
// lookups of an unregistered number are a normal ABI failure, not a
// kernel error.
type Table struct {
	drivers map[uint32]Driver
}

// NewTable returns an empty dispatch table.
func NewTable() *Table {
	return &Table{drivers: make(map[uint32]Driver)}
}

// Register binds driverNumber to d. Registering the same number twice
// is a board configuration error, caught at load time (§7 stratum 3),
// never at run time.
func (t *Table) Register(driverNumber uint32, d Driver) error {
	if _, exists := t.drivers[driverNumber]; exists {
		return &DuplicateDriverError{DriverNumber: driverNumber}
	}
	t.drivers[driverNumber] = d
	return nil
}

// Lookup returns the driver registered at driverNumber, or false for
// an unregistered number.
func (t *Table) Lookup(driverNumber uint32) (Driver, bool) {
	d, ok := t.drivers[driverNumber]
	return d, ok
}

// DuplicateDriverError is a load-time kernel invariant violation: two
// capsules registered under the same driver number.
type DuplicateDriverError struct {
	DriverNumber uint32
}

func (e *DuplicateDriverError) Error() string {
	return "driver: duplicate registration for driver number"
}

// NotFoundCommandResult, NotFoundSubscribeResult and NotFoundAllowResult
// are the ABI-visible results of dispatching to an unregistered driver
// number: a failure carrying ENODEVICE.
func NotFoundCommandResult() syscallabi.CommandResult {
	return syscallabi.CmdFailure(rcode.ENODEVICE)
}

func NotFoundSubscribeResult() syscallabi.SubscribeResult {
	return syscallabi.SubFailure(rcode.ENODEVICE)
}

func NotFoundAllowResult(address, length uint32) syscallabi.AllowResult {
	return syscallabi.AllowFailure(rcode.ENODEVICE, address, length)
}
