package syscallabi

// Decode converts four raw trap-argument words plus a class tag into a
// typed Syscall record. It recognizes shape only: it never dereferences
// callback or buffer pointers and never looks at the calling process's
// memory map. An unrecognized class returns ok == false; a bad pointer
// or length is not a decode failure, it is a normal syscall failure
// produced later at the dispatch site once the process is known.
func Decode(class Class, w0, w1, w2, w3 uintptr) (Syscall, bool) {
	switch class {
	case ClassYield:
		return Syscall{Class: ClassYield}, true
	case ClassSubscribe:
		return Syscall{
			Class: ClassSubscribe,
			Subscribe: SubscribeCall{
				Driver:      uint32(w0),
				Sub:         uint32(w1),
				CallbackPtr: w2,
				AppData:     w3,
			},
		}, true
	case ClassCommand:
		return Syscall{
			Class: ClassCommand,
			Command: CommandCall{
				Driver: uint32(w0),
				Sub:    uint32(w1),
				Arg0:   w2,
				Arg1:   w3,
			},
		}, true
	case ClassAllow:
		return Syscall{
			Class: ClassAllow,
			Allow: AllowCall{
				Driver:  uint32(w0),
				Sub:     uint32(w1),
				Address: w2,
				Length:  w3,
			},
		}, true
	case ClassMemop:
		return Syscall{
			Class: ClassMemop,
			Memop: MemopCall{
				Operand: w0,
				Arg0:    w1,
			},
		}, true
	default:
		return Syscall{}, false
	}
}

// EncodeArgs is the inverse of Decode: it reconstructs the four
// argument words a process would have placed in its registers before
// trapping. It exists to let tests assert the round-trip property
// Decode(EncodeArgs(s)) == s for every syscall the decoder recognizes;
// unused register positions for a given class are zero, matching what
// the decoder ignores on the way in.
func EncodeArgs(s Syscall) (w0, w1, w2, w3 uintptr) {
	switch s.Class {
	case ClassYield:
		return 0, 0, 0, 0
	case ClassSubscribe:
		c := s.Subscribe
		return uintptr(c.Driver), uintptr(c.Sub), c.CallbackPtr, c.AppData
	case ClassCommand:
		c := s.Command
		return uintptr(c.Driver), uintptr(c.Sub), c.Arg0, c.Arg1
	case ClassAllow:
		c := s.Allow
		return uintptr(c.Driver), uintptr(c.Sub), c.Address, c.Length
	case ClassMemop:
		c := s.Memop
		return c.Operand, c.Arg0, 0, 0
	default:
		return 0, 0, 0, 0
	}
}
