// Package capsule holds example driver implementations wired to the
// dispatch table: a command-only LED driver and a write-only text
// console. Both are grounded on the Tock capsule set a board like
// nano33ble registers (LedLow, capsules::console::Console), adapted
// here to the driver.Driver three-method interface instead of a
// hardware GPIO/UART HAL.
package capsule

import (
	"github.com/ngreer/tockcore/internal/rcode"
	"github.com/ngreer/tockcore/internal/syscallabi"
)

// LedPin is one board LED, active-low the way nano33ble's LedLow
// wiring treats its RGB LEDs: On() drives the pin low.
type LedPin interface {
	On()
	Off()
	Toggle()
}

// memLed is a LedPin with no backing hardware, for boards running
// under the simulated architecture boundary.
type memLed struct{ lit bool }

func (l *memLed) On()     { l.lit = true }
func (l *memLed) Off()    { l.lit = false }
func (l *memLed) Toggle() { l.lit = !l.lit }
func (l *memLed) Lit() bool { return l.lit }

// NewMemLed returns a software-backed LedPin for tests and the
// simulated board.
func NewMemLed() interface {
	LedPin
	Lit() bool
} {
	return &memLed{}
}

// LedDriver is a command-only capsule: one command sub number per
// operation, no subscribe or allow support. Sub 0 reports how many
// LEDs the board has; subs 1-3 operate on the LED at Arg0.
type LedDriver struct {
	leds []LedPin
}

// Command sub numbers for LedDriver, part of the board's external ABI
// surface (§6): callers outside this package need these to issue the
// right Command syscall.
const (
	LedSubCount  = 0
	LedSubOn     = 1
	LedSubOff    = 2
	LedSubToggle = 3
)

// NewLedDriver wires a fixed set of board LEDs behind one dispatch
// table entry.
func NewLedDriver(leds ...LedPin) *LedDriver {
	return &LedDriver{leds: leds}
}

func (d *LedDriver) Command(processID int, sub uint32, arg0, arg1 uintptr) syscallabi.CommandResult {
	switch sub {
	case LedSubCount:
		return syscallabi.CmdSuccessU32(uint32(len(d.leds)))
	case LedSubOn, LedSubOff, LedSubToggle:
		idx := int(arg0)
		if idx < 0 || idx >= len(d.leds) {
			return syscallabi.CmdFailure(rcode.EINVAL)
		}
		switch sub {
		case LedSubOn:
			d.leds[idx].On()
		case LedSubOff:
			d.leds[idx].Off()
		case LedSubToggle:
			d.leds[idx].Toggle()
		}
		return syscallabi.CmdSuccess()
	default:
		return syscallabi.CmdFailure(rcode.ENOSUPPORT)
	}
}

func (d *LedDriver) Subscribe(int, uint32, uintptr, uintptr) syscallabi.SubscribeResult {
	return syscallabi.SubFailure(rcode.ENOSUPPORT)
}

func (d *LedDriver) Allow(processID int, sub uint32, address, length uintptr) syscallabi.AllowResult {
	return syscallabi.AllowFailure(rcode.ENOSUPPORT, uint32(address), uint32(length))
}
