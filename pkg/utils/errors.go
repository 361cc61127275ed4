package utils

import (
	"fmt"
)

// MakeError wraps a sentinel error with a formatted detail message,
// preserving errors.Is/As compatibility via %w.
func MakeError(err error, detailsBody string, args ...any) error {
	return fmt.Errorf("%w: "+detailsBody, append([]any{err}, args...)...)
}
