//go:build linux

package platform

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gregbanks/novaprova/pkg/utils"
)

// TextMapWritable makes the page(s) covering [addr, addr+length) writable
// (while keeping them readable and executable, since the intercept engine
// needs to both patch and continue executing code on the same page) and
// returns a closure that restores the original read+execute protection.
// The caller is responsible for calling the restore closure exactly once,
// typically via defer, as intercept.LinuxPatcher.WriteByte does.
func TextMapWritable(addr uintptr, length int) (restore func() error, err error) {
	start, size := pageAlign(addr, length)
	page := unsafe.Slice((*byte)(unsafe.Pointer(start)), size)

	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return nil, utils.MakeError(ErrMapFailure, "mprotect +w at %#x (%d bytes): %v", start, size, err)
	}

	return func() error {
		if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_EXEC); err != nil {
			return utils.MakeError(ErrMapFailure, "mprotect -w at %#x (%d bytes): %v", start, size, err)
		}
		return nil
	}, nil
}

func pageAlign(addr uintptr, length int) (start uintptr, size int) {
	ps := uintptr(os.Getpagesize())
	start = addr &^ (ps - 1)
	end := (addr + uintptr(length) + ps - 1) &^ (ps - 1)
	return start, int(end - start)
}
