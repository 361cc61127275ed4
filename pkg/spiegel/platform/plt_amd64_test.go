//go:build linux && amd64

package platform

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseAddressAMD64(t *testing.T) {
	const stub = 0x1000
	const target = 0xdeadbeefcafebabe

	mem := map[uintptr][]byte{}
	// jmp *0x10(%rip): GOT slot sits 0x10 bytes after the instruction end.
	disp := int32(0x10)
	code := []byte{0xff, 0x25, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(code[2:], uint32(disp))
	mem[stub] = code

	gotAddr := uintptr(stub + 6 + int(disp))
	slot := make([]byte, 8)
	binary.LittleEndian.PutUint64(slot, uint64(target))
	mem[gotAddr] = slot

	read := func(addr uintptr, n int) ([]byte, error) {
		b, ok := mem[addr]
		require.True(t, ok, "unexpected read at %#x", addr)
		return b[:n], nil
	}

	got, err := NormaliseAddress(stub, read)
	require.NoError(t, err)
	assert.Equal(t, uint64(target), got)
}

func TestNormaliseAddressNotAPLTStub(t *testing.T) {
	read := func(addr uintptr, n int) ([]byte, error) {
		return []byte{0x55, 0x48, 0x89, 0xe5, 0x00, 0x00}, nil
	}
	got, err := NormaliseAddress(0x2000, read)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000), got)
}
