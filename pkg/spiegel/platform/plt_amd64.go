//go:build linux && amd64

package platform

import "encoding/binary"

// NormaliseAddress resolves stub to the real function it ultimately calls.
// A PLT stub on amd64 is "jmp *disp32(%rip)" (ff 25 disp32): an indirect
// jump through a GOT slot computed relative to the instruction after the
// jump. If stub does not begin with that opcode it is assumed to already
// be a real function address and is returned unchanged — intercepting a
// direct call needs no PLT resolution at all.
func NormaliseAddress(stub uintptr, read MemReader) (uint64, error) {
	code, err := read(stub, 6)
	if err != nil {
		return 0, err
	}
	if code[0] != 0xff || code[1] != 0x25 {
		return uint64(stub), nil
	}

	disp := int32(binary.LittleEndian.Uint32(code[2:6]))
	got := uintptr(int64(stub) + 6 + int64(disp))

	slot, err := read(got, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(slot), nil
}
