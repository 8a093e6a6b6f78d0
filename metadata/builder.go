package metadata

import (
	"errors"
	"fmt"

	"github.com/meigma/unpack/internal/sizing"
)

// Builder assembles Metadata incrementally, as a header parser discovers it.
//
// Builder methods only record values. Build is the single point where every
// value passes through the validating constructors; nothing a Builder holds
// is observable as Metadata until Build succeeds. A Builder is not safe for
// concurrent use.
type Builder struct {
	fileSections []*FileSectionBuilder
	sections     []*SectionBuilder
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// FileSectionBuilder records one file section.
type FileSectionBuilder struct {
	offset   int64
	length   int64
	checksum Checksum
	index    int
}

// FileSection appends a file section covering [offset, offset+length).
func (b *Builder) FileSection(offset, length int64) *FileSectionBuilder {
	fs := &FileSectionBuilder{offset: offset, length: length, index: len(b.fileSections)}
	b.fileSections = append(b.fileSections, fs)
	return fs
}

// Checksum sets the file section checksum.
func (fs *FileSectionBuilder) Checksum(c Checksum) *FileSectionBuilder {
	fs.checksum = c
	return fs
}

// Index returns the file section's position in the table.
func (fs *FileSectionBuilder) Index() int { return fs.index }

// SectionBuilder records one decoder section.
type SectionBuilder struct {
	decoders   []*DecoderBuilder
	root       bindingSpec
	rootSet    bool
	length     int64
	lengthSet  bool
	checksum   Checksum
	subStreams []*SubStreamBuilder
	index      int
}

// Section appends a decoder section.
func (b *Builder) Section() *SectionBuilder {
	s := &SectionBuilder{index: len(b.sections)}
	b.sections = append(b.sections, s)
	return s
}

// Index returns the section's position in the archive.
func (s *SectionBuilder) Index() int { return s.index }

// Decoder appends a decoder. A nil settings slice is recorded as empty.
func (s *SectionBuilder) Decoder(method Method, settings []byte) *DecoderBuilder {
	if settings == nil {
		settings = []byte{}
	}
	d := &DecoderBuilder{
		method:   method,
		settings: settings,
		inputs:   []bindingSpec{},
		outputs:  []int64{},
		index:    len(s.decoders),
	}
	s.decoders = append(s.decoders, d)
	return d
}

// RootSection makes file section i the section's decoded stream.
func (s *SectionBuilder) RootSection(i int) *SectionBuilder {
	s.root = bindingSpec{kind: BindingSection, a: i}
	s.rootSet = true
	return s
}

// RootDecoder makes output o of decoder d the section's decoded stream.
func (s *SectionBuilder) RootDecoder(d, o int) *SectionBuilder {
	s.root = bindingSpec{kind: BindingDecoder, a: d, b: o}
	s.rootSet = true
	return s
}

// Length sets the decoded length. When never set, Build uses the sum of the
// sub-stream lengths.
func (s *SectionBuilder) Length(n int64) *SectionBuilder {
	s.length = n
	s.lengthSet = true
	return s
}

// Checksum sets the whole-stream checksum.
func (s *SectionBuilder) Checksum(c Checksum) *SectionBuilder {
	s.checksum = c
	return s
}

// SubStreamBuilder records one sub-stream.
type SubStreamBuilder struct {
	length   int64
	checksum Checksum
}

// SubStream appends a sub-stream of the given length.
func (s *SectionBuilder) SubStream(length int64) *SubStreamBuilder {
	sub := &SubStreamBuilder{length: length}
	s.subStreams = append(s.subStreams, sub)
	return sub
}

// Checksum sets the sub-stream checksum.
func (sub *SubStreamBuilder) Checksum(c Checksum) *SubStreamBuilder {
	sub.checksum = c
	return sub
}

// DecoderBuilder records one decoder.
type DecoderBuilder struct {
	method   Method
	settings []byte
	inputs   []bindingSpec
	outputs  []int64
	index    int
}

// Index returns the decoder's position in its section.
func (d *DecoderBuilder) Index() int { return d.index }

// InputSection appends an input read from file section i.
func (d *DecoderBuilder) InputSection(i int) *DecoderBuilder {
	d.inputs = append(d.inputs, bindingSpec{kind: BindingSection, a: i})
	return d
}

// InputDecoder appends an input read from output o of decoder dec.
func (d *DecoderBuilder) InputDecoder(dec, o int) *DecoderBuilder {
	d.inputs = append(d.inputs, bindingSpec{kind: BindingDecoder, a: dec, b: o})
	return d
}

// Output appends an output of the given length.
func (d *DecoderBuilder) Output(length int64) *DecoderBuilder {
	d.outputs = append(d.outputs, length)
	return d
}

type bindingSpec struct {
	kind BindingKind
	a, b int
}

func (s bindingSpec) build() (InputBinding, error) {
	switch s.kind {
	case BindingSection:
		return FromSection(s.a)
	case BindingDecoder:
		return FromDecoder(s.a, s.b)
	default:
		return InputBinding{}, invalidf("binding is not set")
	}
}

// Build validates everything recorded so far and returns the Metadata.
// All failures are reported together.
func (b *Builder) Build() (Metadata, error) {
	var errs []error

	fileSections := make([]FileSection, 0, len(b.fileSections))
	for i, spec := range b.fileSections {
		fs, err := NewFileSection(spec.offset, spec.length)
		if err != nil {
			errs = append(errs, fmt.Errorf("file section %d: %w", i, err))
			continue
		}
		fileSections = append(fileSections, fs.WithChecksum(spec.checksum))
	}

	sections := make([]Section, 0, len(b.sections))
	for i, spec := range b.sections {
		s, err := spec.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("section %d: %w", i, err))
			continue
		}
		sections = append(sections, s)
	}

	if len(errs) > 0 {
		return Metadata{}, errors.Join(errs...)
	}
	return NewMetadata(fileSections, sections)
}

func (s *SectionBuilder) build() (Section, error) {
	var errs []error

	decoders := make([]Decoder, 0, len(s.decoders))
	for i, spec := range s.decoders {
		d, err := spec.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("decoder %d: %w", i, err))
			continue
		}
		decoders = append(decoders, d)
	}

	subStreams := make([]SubStream, 0, len(s.subStreams))
	var total int64
	overflow := false
	for i, spec := range s.subStreams {
		sub, err := NewSubStream(spec.length)
		if err != nil {
			errs = append(errs, fmt.Errorf("sub-stream %d: %w", i, err))
			continue
		}
		if sum, ok := sizing.AddInt64(total, spec.length); ok {
			total = sum
		} else if !overflow {
			overflow = true
			errs = append(errs, fmt.Errorf("%w: sub-stream lengths overflow at sub-stream %d", ErrLengthMismatch, i))
		}
		subStreams = append(subStreams, sub.WithChecksum(spec.checksum))
	}

	var root InputBinding
	if !s.rootSet {
		errs = append(errs, invalidf("root is not set"))
	} else if r, err := s.root.build(); err != nil {
		errs = append(errs, fmt.Errorf("root: %w", err))
	} else {
		root = r
	}

	if len(errs) > 0 {
		return Section{}, errors.Join(errs...)
	}

	length := total
	if s.lengthSet {
		length = s.length
	}
	section, err := NewSection(decoders, root, length, subStreams)
	if err != nil {
		return Section{}, err
	}
	return section.WithChecksum(s.checksum), nil
}

func (d *DecoderBuilder) build() (Decoder, error) {
	inputs := make([]InputBinding, 0, len(d.inputs))
	for i, spec := range d.inputs {
		in, err := spec.build()
		if err != nil {
			return Decoder{}, fmt.Errorf("input %d: %w", i, err)
		}
		inputs = append(inputs, in)
	}
	outputs := make([]Output, 0, len(d.outputs))
	for i, length := range d.outputs {
		out, err := NewOutput(length)
		if err != nil {
			return Decoder{}, fmt.Errorf("output %d: %w", i, err)
		}
		outputs = append(outputs, out)
	}
	return NewDecoder(d.method, d.settings, inputs, outputs)
}
