package extract

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotDigit is returned by [ParseUint] when the input holds a byte
	// outside '0'..'9'.
	ErrNotDigit = errors.New("not a decimal digit")

	// ErrRange is returned by [ParseUint] when the value does not fit in 32 bits.
	ErrRange = errors.New("value out of range")
)

// ParseUint converts an ASCII digit string into an unsigned 32-bit integer.
//
// Parsing stops at the end of s or at the first NUL byte, so a token array
// written by [Token] can be passed as is. An empty string yields 0.
func ParseUint(s []byte) (uint32, error) {
	var acc uint64
	for i, c := range s {
		if c == 0 {
			break
		}
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("byte %q at offset %d: %w", c, i, ErrNotDigit)
		}
		acc = acc*10 + uint64(c-'0')
		if acc > math.MaxUint32 {
			return 0, fmt.Errorf("%s...: %w", s[:i+1], ErrRange)
		}
	}
	return uint32(acc), nil
}
