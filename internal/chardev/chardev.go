// Package chardev is the real transport used by arch/hw: it opens the
// character device a board-support shim exposes (one per attached
// board) and hands its file descriptor to the caller, the way the
// teacher's queue runner opens /dev/ublkcN before driving it over
// io_uring. It is a thin wrapper offering Open, FD and Close; it does
// not read, write or interpret command frames itself.
package chardev

import (
	"fmt"
	"syscall"
)

// Conn is an open connection to a board's character device.
type Conn struct {
	fd int
}

// Open opens the character device at path (e.g. "/dev/tockboard0").
func Open(path string) (*Conn, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("chardev: open %s: %w", path, err)
	}
	return &Conn{fd: fd}, nil
}

// FD returns the underlying file descriptor, for handing to an
// io_uring ring that submits commands against it.
func (c *Conn) FD() int { return c.fd }

// Close closes the connection.
func (c *Conn) Close() error {
	if c.fd < 0 {
		return nil
	}
	err := syscall.Close(c.fd)
	c.fd = -1
	return err
}
