package metadata

import (
	"fmt"
	"slices"

	"github.com/meigma/unpack/internal/sizing"
)

// SubStream describes one logical stream, such as one file's contents,
// within a section's decoded bytes.
type SubStream struct {
	length      int64
	checksum    Checksum
	hasChecksum bool
}

// NewSubStream creates a sub-stream descriptor of the given length.
func NewSubStream(length int64) (SubStream, error) {
	if length < 0 {
		return SubStream{}, invalidf("sub-stream length %d is negative", length)
	}
	return SubStream{length: length}, nil
}

// WithChecksum returns a copy of s that verifies against c.
func (s SubStream) WithChecksum(c Checksum) SubStream {
	s.checksum = c
	s.hasChecksum = !c.IsZero()
	return s
}

// Length returns the sub-stream length in bytes.
func (s SubStream) Length() int64 { return s.length }

// Checksum returns the sub-stream checksum; ok is false when it is unverified.
func (s SubStream) Checksum() (c Checksum, ok bool) {
	return s.checksum, s.hasChecksum
}

// Section is one independent decode unit: a decoder graph, the binding that
// produces its final stream, and the layout of that stream.
type Section struct {
	decoders    []Decoder
	root        InputBinding
	length      int64
	checksum    Checksum
	hasChecksum bool
	subStreams  []SubStream
}

// NewSection creates a section. decoders and subStreams may be empty but not
// nil, and the sub-stream lengths must add up to length. Slices are copied.
//
// References between decoders, and from root, are checked by the resolver.
func NewSection(decoders []Decoder, root InputBinding, length int64, subStreams []SubStream) (Section, error) {
	if decoders == nil {
		return Section{}, invalidf("section decoders are absent")
	}
	if subStreams == nil {
		return Section{}, invalidf("section sub-streams are absent")
	}
	if !root.Valid() {
		return Section{}, invalidf("section root is not a valid binding")
	}
	if length < 0 {
		return Section{}, invalidf("section length %d is negative", length)
	}

	lengths := make([]int64, len(subStreams))
	for i, s := range subStreams {
		if s.length < 0 {
			return Section{}, invalidf("sub-stream %d length %d is negative", i, s.length)
		}
		lengths[i] = s.length
	}
	total, ok := sizing.SumInt64(lengths...)
	if !ok {
		return Section{}, fmt.Errorf("%w: sub-stream lengths overflow", ErrLengthMismatch)
	}
	if total != length {
		return Section{}, fmt.Errorf("%w: sub-streams total %d bytes, section declares %d", ErrLengthMismatch, total, length)
	}

	return Section{
		decoders:   slices.Clone(decoders),
		root:       root,
		length:     length,
		subStreams: slices.Clone(subStreams),
	}, nil
}

// WithChecksum returns a copy of s whose whole decoded stream verifies
// against c.
func (s Section) WithChecksum(c Checksum) Section {
	s.checksum = c
	s.hasChecksum = !c.IsZero()
	return s
}

// NumDecoders returns the number of decoders.
func (s Section) NumDecoders() int { return len(s.decoders) }

// Decoder returns decoder i. It panics if i is out of range.
func (s Section) Decoder(i int) Decoder { return s.decoders[i] }

// Decoders returns a copy of the decoder list.
func (s Section) Decoders() []Decoder { return slices.Clone(s.decoders) }

// Root returns the binding that produces the section's decoded stream.
func (s Section) Root() InputBinding { return s.root }

// Length returns the total decoded length.
func (s Section) Length() int64 { return s.length }

// Checksum returns the whole-stream checksum; ok is false when it is
// unverified.
func (s Section) Checksum() (c Checksum, ok bool) {
	return s.checksum, s.hasChecksum
}

// NumSubStreams returns the number of sub-streams.
func (s Section) NumSubStreams() int { return len(s.subStreams) }

// SubStream returns sub-stream i. It panics if i is out of range.
func (s Section) SubStream(i int) SubStream { return s.subStreams[i] }

// SubStreams returns a copy of the sub-stream list.
func (s Section) SubStreams() []SubStream { return slices.Clone(s.subStreams) }

// SubStreamOffsets returns where each sub-stream begins in the decoded
// stream.
func (s Section) SubStreamOffsets() []int64 {
	offsets := make([]int64, len(s.subStreams))
	var off int64
	for i, sub := range s.subStreams {
		offsets[i] = off
		off += sub.length
	}
	return offsets
}

// Equal reports whether s and other describe the same section.
func (s Section) Equal(other Section) bool {
	return s.root == other.root &&
		s.length == other.length &&
		s.checksum == other.checksum &&
		s.hasChecksum == other.hasChecksum &&
		slices.EqualFunc(s.decoders, other.decoders, Decoder.Equal) &&
		slices.Equal(s.subStreams, other.subStreams)
}
