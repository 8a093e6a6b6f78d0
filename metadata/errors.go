package metadata

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural and content failures.
var (
	// ErrInvalidArgument is returned when a constructor receives a value that
	// cannot form a valid entity.
	ErrInvalidArgument = errors.New("metadata: invalid argument")

	// ErrDanglingReference is returned when an input binding or root
	// reference names a file section, decoder or output that does not exist.
	ErrDanglingReference = errors.New("metadata: dangling reference")

	// ErrCycleDetected is returned when a section's decoders depend on each
	// other in a cycle.
	ErrCycleDetected = errors.New("metadata: cycle detected")

	// ErrLengthMismatch is returned when declared lengths disagree, either
	// structurally or with the bytes a decoder produced.
	ErrLengthMismatch = errors.New("metadata: length mismatch")

	// ErrChecksumMismatch is returned when decoded content does not match
	// its declared checksum.
	ErrChecksumMismatch = errors.New("metadata: checksum mismatch")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
