package metadata

import (
	"iter"
	"slices"

	"github.com/meigma/unpack/internal/sizing"
)

// FileSection is a raw byte range in the archive container.
type FileSection struct {
	offset      int64
	length      int64
	checksum    Checksum
	hasChecksum bool
}

// NewFileSection creates a file section covering [offset, offset+length).
func NewFileSection(offset, length int64) (FileSection, error) {
	if offset < 0 {
		return FileSection{}, invalidf("file section offset %d is negative", offset)
	}
	if length < 0 {
		return FileSection{}, invalidf("file section length %d is negative", length)
	}
	if _, ok := sizing.AddInt64(offset, length); !ok {
		return FileSection{}, invalidf("file section [%d, +%d) overflows", offset, length)
	}
	return FileSection{offset: offset, length: length}, nil
}

// WithChecksum returns a copy of s that verifies against c.
func (s FileSection) WithChecksum(c Checksum) FileSection {
	s.checksum = c
	s.hasChecksum = !c.IsZero()
	return s
}

// Offset returns the first byte of the section.
func (s FileSection) Offset() int64 { return s.offset }

// Length returns the number of bytes in the section.
func (s FileSection) Length() int64 { return s.length }

// End returns the offset just past the section.
func (s FileSection) End() int64 { return s.offset + s.length }

// Checksum returns the section's checksum; ok is false when it is unverified.
func (s FileSection) Checksum() (c Checksum, ok bool) {
	return s.checksum, s.hasChecksum
}

// FileSectionTable is the ordered, immutable list of an archive's raw
// byte ranges.
type FileSectionTable struct {
	sections []FileSection
}

// NewFileSectionTable creates a table from sections. The slice is copied.
func NewFileSectionTable(sections []FileSection) (FileSectionTable, error) {
	if sections == nil {
		return FileSectionTable{}, invalidf("file sections are absent")
	}
	return FileSectionTable{sections: slices.Clone(sections)}, nil
}

// Len returns the number of file sections.
func (t FileSectionTable) Len() int { return len(t.sections) }

// At returns file section i. It panics if i is out of range.
func (t FileSectionTable) At(i int) FileSection { return t.sections[i] }

// Lookup returns file section i; ok is false if i is out of range.
func (t FileSectionTable) Lookup(i int) (FileSection, bool) {
	if i < 0 || i >= len(t.sections) {
		return FileSection{}, false
	}
	return t.sections[i], true
}

// All iterates over the table in order.
func (t FileSectionTable) All() iter.Seq2[int, FileSection] {
	return slices.All(t.sections)
}

// Equal reports whether both tables hold the same sections in the same order.
func (t FileSectionTable) Equal(other FileSectionTable) bool {
	return slices.Equal(t.sections, other.sections)
}
