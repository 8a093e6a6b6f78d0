package resolve

import (
	"fmt"
	"strings"

	"github.com/meigma/unpack/metadata"
)

// RootInput is the ReferenceError.Input value for the section's root binding.
const RootInput = -1

// ReferenceError reports a binding that names a missing file section, decoder
// or decoder output. It matches metadata.ErrDanglingReference.
type ReferenceError struct {
	// Decoder is the consuming decoder, or -1 for the root binding.
	Decoder int
	// Input is the input position, or RootInput.
	Input int
	// Binding is the offending reference.
	Binding metadata.InputBinding
	// Reason describes which index is out of range.
	Reason string
}

func (e *ReferenceError) Error() string {
	if e.Input == RootInput {
		return fmt.Sprintf("%v: root %s: %s", metadata.ErrDanglingReference, e.Binding, e.Reason)
	}
	return fmt.Sprintf("%v: decoder %d input %d %s: %s", metadata.ErrDanglingReference, e.Decoder, e.Input, e.Binding, e.Reason)
}

func (e *ReferenceError) Unwrap() error { return metadata.ErrDanglingReference }

// CycleError reports decoders that depend on each other. It matches
// metadata.ErrCycleDetected.
type CycleError struct {
	// Decoder is one decoder on the cycle.
	Decoder int
	// Cycle lists the decoders on the cycle; each consumes an output of the
	// next, and the last consumes an output of the first.
	Cycle []int
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Cycle)+1)
	for _, d := range e.Cycle {
		parts = append(parts, fmt.Sprintf("decoder %d", d))
	}
	if len(e.Cycle) > 0 {
		parts = append(parts, fmt.Sprintf("decoder %d", e.Cycle[0]))
	}
	return fmt.Sprintf("%v: %s", metadata.ErrCycleDetected, strings.Join(parts, " <- "))
}

func (e *CycleError) Unwrap() error { return metadata.ErrCycleDetected }

// SectionError attributes a failure to one section of an archive.
type SectionError struct {
	Section int
	Err     error
}

func (e *SectionError) Error() string { return fmt.Sprintf("section %d: %v", e.Section, e.Err) }
func (e *SectionError) Unwrap() error { return e.Err }
