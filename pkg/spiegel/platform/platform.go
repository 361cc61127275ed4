// Package platform isolates the parts of novaprova's introspection and
// interception layers that cannot be expressed in portable Go: reading the
// running process's memory map, toggling page protection on its text
// segment, and resolving PLT stubs to their real callees. The memory-map
// and page-protection code is Linux-only; PLT resolution is implemented for
// Linux/amd64 and Linux/386 only. Elsewhere each of these entry points is a
// stub that returns ErrUnsupportedPlatform, so the rest of the module still
// builds even though it can't do anything useful there.
package platform

import "errors"

// ErrUnsupportedPlatform is returned by every function in this package on
// a GOOS/GOARCH combination it has no implementation for.
var ErrUnsupportedPlatform = errors.New("platform: unsupported platform")

// ErrMapFailure wraps a failed mmap/mprotect/proc-maps operation.
var ErrMapFailure = errors.New("platform: memory map operation failed")

// Mapping is one line of /proc/self/maps: a contiguous range of the
// process's address space backed by a file (or anonymous memory) with a
// fixed set of permissions.
type Mapping struct {
	Lo, Hi     uint64
	FileOffset uint64
	Path       string
	Read       bool
	Write      bool
	Exec       bool
	Shared     bool
}

// Contains reports whether addr falls within the mapping.
func (m Mapping) Contains(addr uint64) bool {
	return addr >= m.Lo && addr < m.Hi
}

// Len returns the mapping's size in bytes.
func (m Mapping) Len() uint64 {
	return m.Hi - m.Lo
}

// MemReader reads length bytes starting at addr from the address space
// NormaliseAddress is resolving within. In novaprova's case this is always
// the current process, so implementations typically read via a raw
// pointer, but the indirection keeps plt_*.go testable with a fake.
type MemReader func(addr uintptr, length int) ([]byte, error)
