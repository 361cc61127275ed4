//go:build linux

package intercept

import (
	"unsafe"

	"github.com/gregbanks/novaprova/pkg/spiegel/platform"
)

// LinuxPatcher patches the current process's own mapped text, using
// platform.TextMapWritable to toggle page protection around each write and
// reading/writing the target byte directly through an unsafe pointer into
// this process's own address space (the target is always code already
// mapped into the calling process, never another process's memory).
type LinuxPatcher struct{}

var _ Patcher = LinuxPatcher{}

func (LinuxPatcher) ReadByte(addr uintptr) (byte, error) {
	return *(*byte)(unsafe.Pointer(addr)), nil
}

func (LinuxPatcher) WriteByte(addr uintptr, b byte) error {
	restore, err := platform.TextMapWritable(addr, 1)
	if err != nil {
		return err
	}
	defer restore()
	*(*byte)(unsafe.Pointer(addr)) = b
	return nil
}
