// Package rcode defines the kernel's closed return-code registry.
//
// The numeric mapping is part of the userspace ABI: a process decodes
// failures solely from the wire value, never from the name, so members
// must never be renumbered or removed.
package rcode

// Code is a kernel error kind with a stable wire encoding.
type Code uint32

const (
	SUCCESS      Code = 0
	FAIL         Code = 1
	EBUSY        Code = 2
	EALREADY     Code = 3
	EOFF         Code = 4
	ERESERVE     Code = 5
	EINVAL       Code = 6
	ESIZE        Code = 7
	ECANCEL      Code = 8
	ENOMEM       Code = 9
	ENOSUPPORT   Code = 10
	ENODEVICE    Code = 11
	EUNINSTALLED Code = 12
	ENOACK       Code = 13
)

var names = [...]string{
	SUCCESS:      "success",
	FAIL:         "fail",
	EBUSY:        "ebusy",
	EALREADY:     "ealready",
	EOFF:         "eoff",
	ERESERVE:     "ereserve",
	EINVAL:       "einval",
	ESIZE:        "esize",
	ECANCEL:      "ecancel",
	ENOMEM:       "enomem",
	ENOSUPPORT:   "enosupport",
	ENODEVICE:    "enodevice",
	EUNINSTALLED: "euninstalled",
	ENOACK:       "enoack",
}

// String returns the lowercase name of the code, or "unknown" for values
// outside the closed enumeration.
func (c Code) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// Error lets Code satisfy the error interface so drivers can return it
// directly where a plain Go error is more convenient than a typed result.
func (c Code) Error() string {
	return c.String()
}

// IsSuccess reports whether c represents SUCCESS. Kept separate from a
// "SuccessWithValue" variant because, per the ABI, both map to the same
// wire value 0 and the encoder never needs to distinguish them.
func (c Code) IsSuccess() bool {
	return c == SUCCESS
}
