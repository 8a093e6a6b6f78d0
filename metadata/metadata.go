package metadata

import (
	"fmt"
	"slices"
)

// Metadata describes an archive's compressed content: its raw file sections
// and the decoder sections that turn them into decoded streams.
//
// Metadata exclusively owns everything reachable from it and is never
// mutated after construction, so it is safe to share across goroutines.
type Metadata struct {
	fileSections FileSectionTable
	sections     []Section
}

// NewMetadata creates archive metadata. Both lists may be empty but not nil.
func NewMetadata(fileSections []FileSection, sections []Section) (Metadata, error) {
	table, err := NewFileSectionTable(fileSections)
	if err != nil {
		return Metadata{}, err
	}
	if sections == nil {
		return Metadata{}, invalidf("decoder sections are absent")
	}
	return Metadata{fileSections: table, sections: slices.Clone(sections)}, nil
}

// FileSections returns the archive's file section table.
func (m Metadata) FileSections() FileSectionTable { return m.fileSections }

// NumSections returns the number of decoder sections.
func (m Metadata) NumSections() int { return len(m.sections) }

// Section returns decoder section i. It panics if i is out of range.
func (m Metadata) Section(i int) Section { return m.sections[i] }

// Sections returns a copy of the decoder section list.
func (m Metadata) Sections() []Section { return slices.Clone(m.sections) }

// CheckExtent verifies that every file section lies within an archive of the
// given size.
func (m Metadata) CheckExtent(size int64) error {
	for i, fs := range m.fileSections.All() {
		if fs.End() > size {
			return fmt.Errorf("%w: file section %d ends at %d, archive is %d bytes",
				ErrInvalidArgument, i, fs.End(), size)
		}
	}
	return nil
}

// Equal reports whether m and other describe the same archive.
func (m Metadata) Equal(other Metadata) bool {
	return m.fileSections.Equal(other.fileSections) &&
		slices.EqualFunc(m.sections, other.sections, Section.Equal)
}
