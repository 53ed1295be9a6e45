package syscallabi

import "github.com/ngreer/tockcore/internal/rcode"

// ResultTag is the value placed in r0 that tells the process how to
// interpret the remaining return registers. The upper bit (0x80)
// distinguishes success from failure and must never be masked off by
// an encoder: processes fast-path on it.
type ResultTag uint32

const (
	TagFailure          ResultTag = 0
	TagFailureU32       ResultTag = 1
	TagFailureU32U32    ResultTag = 2
	TagFailureU64       ResultTag = 3
	TagSuccess          ResultTag = 128
	TagSuccessU32       ResultTag = 129
	TagSuccessU32U32    ResultTag = 130
	TagSuccessU64       ResultTag = 131
	TagSuccessU32U32U32 ResultTag = 132
	TagSuccessU32U64    ResultTag = 133

	successBit ResultTag = 0x80
)

// IsSuccess reports whether the tag's upper bit marks success.
func (t ResultTag) IsSuccess() bool {
	return t&successBit != 0
}

// CommandResult is the closed sum of outcomes a driver's Command method
// may return. Exactly one field group is meaningful; the Tag selects
// which.
type CommandResult struct {
	Tag ResultTag

	Error rcode.Code
	V0    uint32
	V1    uint32
	V2    uint32
	V064  uint64 // used by TagFailureU64 / TagSuccessU64
	V1U64 uint64 // used by TagSuccessU32U64 (V0 holds the u32 half)
}

func CmdFailure(err rcode.Code) CommandResult {
	return CommandResult{Tag: TagFailure, Error: err}
}

func CmdFailureU32(err rcode.Code, v0 uint32) CommandResult {
	return CommandResult{Tag: TagFailureU32, Error: err, V0: v0}
}

func CmdFailureU32U32(err rcode.Code, v0, v1 uint32) CommandResult {
	return CommandResult{Tag: TagFailureU32U32, Error: err, V0: v0, V1: v1}
}

func CmdFailureU64(err rcode.Code, v0 uint64) CommandResult {
	return CommandResult{Tag: TagFailureU64, Error: err, V064: v0}
}

func CmdSuccess() CommandResult {
	return CommandResult{Tag: TagSuccess}
}

func CmdSuccessU32(v0 uint32) CommandResult {
	return CommandResult{Tag: TagSuccessU32, V0: v0}
}

func CmdSuccessU32U32(v0, v1 uint32) CommandResult {
	return CommandResult{Tag: TagSuccessU32U32, V0: v0, V1: v1}
}

func CmdSuccessU64(v0 uint64) CommandResult {
	return CommandResult{Tag: TagSuccessU64, V064: v0}
}

func CmdSuccessU32U32U32(v0, v1, v2 uint32) CommandResult {
	return CommandResult{Tag: TagSuccessU32U32U32, V0: v0, V1: v1, V2: v2}
}

func CmdSuccessU32U64(v0 uint32, v1 uint64) CommandResult {
	return CommandResult{Tag: TagSuccessU32U64, V0: v0, V1U64: v1}
}

// SubscribeResult is the closed sum a driver's Subscribe method may
// return. Only the failure and plain-success tags are meaningful.
type SubscribeResult struct {
	Tag   ResultTag
	Error rcode.Code
}

func SubFailure(err rcode.Code) SubscribeResult {
	return SubscribeResult{Tag: TagFailure, Error: err}
}

func SubSuccess() SubscribeResult {
	return SubscribeResult{Tag: TagSuccess}
}

// AllowResult is the closed sum a driver's Allow method may return. The
// two accompanying words always carry the buffer the kernel is handing
// back to the process: on failure, the buffer the process originally
// offered; on success, the buffer the driver previously held (zero if
// none).
type AllowResult struct {
	Tag     ResultTag
	Error   rcode.Code
	Address uint32
	Length  uint32
}

func AllowFailure(err rcode.Code, address, length uint32) AllowResult {
	return AllowResult{Tag: TagFailureU32U32, Error: err, Address: address, Length: length}
}

func AllowSuccess(address, length uint32) AllowResult {
	return AllowResult{Tag: TagSuccessU32U32, Address: address, Length: length}
}
