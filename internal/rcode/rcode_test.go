package rcode

import "testing"

func TestWireValuesAreFixed(t *testing.T) {
	cases := map[Code]uint32{
		SUCCESS:      0,
		FAIL:         1,
		EBUSY:        2,
		EALREADY:     3,
		EOFF:         4,
		ERESERVE:     5,
		EINVAL:       6,
		ESIZE:        7,
		ECANCEL:      8,
		ENOMEM:       9,
		ENOSUPPORT:   10,
		ENODEVICE:    11,
		EUNINSTALLED: 12,
		ENOACK:       13,
	}
	for code, want := range cases {
		if uint32(code) != want {
			t.Errorf("code %v: wire value = %d, want %d", code, uint32(code), want)
		}
	}
}

func TestReturnCodeToErrorCodeInjective(t *testing.T) {
	seen := make(map[string]Code)
	for c := SUCCESS; c <= ENOACK; c++ {
		s := c.String()
		if s == "unknown" {
			t.Fatalf("code %d has no name", c)
		}
		if prev, ok := seen[s]; ok {
			t.Fatalf("codes %v and %v share name %q", prev, c, s)
		}
		seen[s] = c
	}
}

func TestUnknownCodeString(t *testing.T) {
	if got := Code(999).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
