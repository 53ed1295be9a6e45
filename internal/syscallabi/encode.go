package syscallabi

// lowHigh splits a 64-bit value into its little-endian low/high 32-bit
// halves. The source this spec was distilled from masked the low half
// with 0xffff_ffffff (40 bits, one hex digit too many) for FailureU64;
// this is flagged in the upstream design notes as a likely typo. This
// encoder uses the correct 32-bit mask for every u64 split.
func lowHigh(v uint64) (lo, hi uint32) {
	return uint32(v & 0xffff_ffff), uint32(v >> 32)
}

// EncodeCommandResult writes r's encoding into the four return
// registers per the ABI table. It is total: every tag is handled, and
// failure paths always carry the error word while success paths never
// do.
func EncodeCommandResult(r CommandResult, regs *Registers) {
	regs.R0 = uint32(r.Tag)
	switch r.Tag {
	case TagFailure:
		regs.R1 = uint32(r.Error)
	case TagFailureU32:
		regs.R1 = uint32(r.Error)
		regs.R2 = r.V0
	case TagFailureU32U32:
		regs.R1 = uint32(r.Error)
		regs.R2 = r.V0
		regs.R3 = r.V1
	case TagFailureU64:
		regs.R1 = uint32(r.Error)
		regs.R2, regs.R3 = lowHigh(r.V064)
	case TagSuccess:
		// no payload
	case TagSuccessU32:
		regs.R1 = r.V0
	case TagSuccessU32U32:
		regs.R1 = r.V0
		regs.R2 = r.V1
	case TagSuccessU64:
		regs.R1, regs.R2 = lowHigh(r.V064)
	case TagSuccessU32U32U32:
		regs.R1 = r.V0
		regs.R2 = r.V1
		regs.R3 = r.V2
	case TagSuccessU32U64:
		regs.R1 = r.V0
		regs.R2, regs.R3 = lowHigh(r.V1U64)
	}
}

// EncodeSubscribeResult writes r's encoding into the return registers.
// Only TagFailure and TagSuccess are valid tags for a subscribe result.
func EncodeSubscribeResult(r SubscribeResult, regs *Registers) {
	regs.R0 = uint32(r.Tag)
	if r.Tag == TagFailure {
		regs.R1 = uint32(r.Error)
	}
}

// EncodeAllowResult writes r's encoding into the return registers. The
// two accompanying words (address, length) are always the buffer the
// kernel is returning to the process.
func EncodeAllowResult(r AllowResult, regs *Registers) {
	regs.R0 = uint32(r.Tag)
	switch r.Tag {
	case TagFailureU32U32:
		regs.R1 = uint32(r.Error)
		regs.R2 = r.Address
		regs.R3 = r.Length
	case TagSuccessU32U32:
		regs.R1 = r.Address
		regs.R2 = r.Length
	}
}
