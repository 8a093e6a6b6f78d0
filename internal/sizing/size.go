// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import (
	"io"
	"math"
)

// ToInt converts an int64 to int, returning overflowErr if it doesn't fit
// or is negative.
func ToInt(size int64, overflowErr error) (int, error) {
	if size < 0 || size > int64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// AddInt64 adds two non-negative int64 values, returning (result, false) on
// overflow or when either operand is negative.
func AddInt64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// SumInt64 adds all values, returning (result, false) on overflow or when any
// value is negative.
func SumInt64(values ...int64) (int64, bool) {
	var total int64
	for _, v := range values {
		var ok bool
		if total, ok = AddInt64(total, v); !ok {
			return 0, false
		}
	}
	return total, true
}

// ReadExact reads exactly size bytes from r into a new buffer.
//
// shortErr is returned (wrapped with the underlying read error's context by
// the caller) when r ends early; longErr when r yields more than size bytes.
func ReadExact(r io.Reader, size int, shortErr, longErr error) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, shortErr
		}
		return nil, err
	}
	var extra [1]byte
	n, err := r.Read(extra[:])
	if n > 0 {
		return nil, longErr
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
