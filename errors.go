package unpack

import (
	"errors"
	"fmt"

	"github.com/meigma/unpack/codec"
	"github.com/meigma/unpack/metadata"
)

// Errors re-exported from metadata.
var (
	// ErrInvalidArgument is returned for malformed values and out-of-range indices.
	ErrInvalidArgument = metadata.ErrInvalidArgument

	// ErrDanglingReference is returned when a binding names a missing producer.
	ErrDanglingReference = metadata.ErrDanglingReference

	// ErrCycleDetected is returned when decoders depend on each other.
	ErrCycleDetected = metadata.ErrCycleDetected

	// ErrLengthMismatch is returned when produced and declared lengths differ.
	ErrLengthMismatch = metadata.ErrLengthMismatch

	// ErrChecksumMismatch is returned when content does not match its checksum.
	ErrChecksumMismatch = metadata.ErrChecksumMismatch
)

// Errors re-exported from codec.
var (
	// ErrUnsupportedMethod is returned when no engine handles a decoder's method.
	ErrUnsupportedMethod = codec.ErrUnsupportedMethod

	// ErrCorrupt is returned when an engine cannot decode its input.
	ErrCorrupt = codec.ErrCorrupt
)

// ErrSizeOverflow is returned when a stream exceeds the configured or
// addressable size.
var ErrSizeOverflow = errors.New("unpack: size overflow")

// WholeStream is the ChecksumError.SubStream value for the section's
// whole-stream checksum.
const WholeStream = -1

// ChecksumError reports decoded content that does not match its declared
// checksum. It matches ErrChecksumMismatch.
type ChecksumError struct {
	// Section is the section index.
	Section int
	// SubStream is the sub-stream index, or WholeStream.
	SubStream int
	// Want is the declared checksum.
	Want metadata.Checksum
	// Got is the checksum of the content actually produced.
	Got metadata.Checksum
}

func (e *ChecksumError) Error() string {
	if e.SubStream == WholeStream {
		return fmt.Sprintf("unpack: section %d: %v: want %s, got %s", e.Section, ErrChecksumMismatch, e.Want, e.Got)
	}
	return fmt.Sprintf("unpack: section %d sub-stream %d: %v: want %s, got %s",
		e.Section, e.SubStream, ErrChecksumMismatch, e.Want, e.Got)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// StepError reports a decoder invocation that failed.
type StepError struct {
	Section int
	Decoder int
	Method  metadata.Method
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("unpack: section %d decoder %d (%s): %v", e.Section, e.Decoder, e.Method, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// FileSectionError reports a raw byte range that could not be read or did
// not match its checksum.
type FileSectionError struct {
	FileSection int
	Err         error
}

func (e *FileSectionError) Error() string {
	return fmt.Sprintf("unpack: file section %d: %v", e.FileSection, e.Err)
}

func (e *FileSectionError) Unwrap() error { return e.Err }
