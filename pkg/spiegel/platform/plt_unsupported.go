//go:build !(linux && amd64) && !(linux && 386)

package platform

// NormaliseAddress is unsupported on any architecture but amd64/386.
func NormaliseAddress(stub uintptr, read MemReader) (uint64, error) {
	return 0, ErrUnsupportedPlatform
}
