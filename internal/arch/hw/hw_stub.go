//go:build !tockhw
// +build !tockhw

// Package hw is unavailable in this build. Build with -tags tockhw on a
// host with the board kernel module installed to get the real
// character-device-backed arch.Boundary.
package hw

import "fmt"

// Open always fails in this build; see hw.go (build tag tockhw).
func Open(path string, entries uint32) (interface{}, error) {
	return nil, fmt.Errorf("tockhw not enabled; build with -tags tockhw")
}
