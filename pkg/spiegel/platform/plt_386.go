//go:build linux && 386

package platform

import "encoding/binary"

// NormaliseAddress resolves stub to the real function it ultimately calls.
// A PLT stub on 386 is "jmp *addr" (ff 25 addr32): an indirect jump through
// an absolute GOT slot address, unlike amd64's rip-relative form. If stub
// does not begin with that opcode it is assumed to already be a real
// function address and is returned unchanged.
func NormaliseAddress(stub uintptr, read MemReader) (uint64, error) {
	code, err := read(stub, 6)
	if err != nil {
		return 0, err
	}
	if code[0] != 0xff || code[1] != 0x25 {
		return uint64(stub), nil
	}

	got := uintptr(binary.LittleEndian.Uint32(code[2:6]))

	slot, err := read(got, 4)
	if err != nil {
		return 0, err
	}
	return uint64(binary.LittleEndian.Uint32(slot)), nil
}
