//go:build !linux

package platform

// TextMapWritable is unsupported outside Linux.
func TextMapWritable(addr uintptr, length int) (restore func() error, err error) {
	return nil, ErrUnsupportedPlatform
}
