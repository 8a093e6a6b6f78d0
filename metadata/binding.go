package metadata

import "fmt"

// BindingKind distinguishes the producers an InputBinding can name.
type BindingKind uint8

const (
	// BindingInvalid is the zero value; no constructor returns it.
	BindingInvalid BindingKind = iota
	// BindingSection reads a raw file section of the archive.
	BindingSection
	// BindingDecoder reads an output of a decoder in the same section.
	BindingDecoder
)

// String returns the kind name.
func (k BindingKind) String() string {
	switch k {
	case BindingSection:
		return "section"
	case BindingDecoder:
		return "decoder"
	default:
		return "invalid"
	}
}

// InputBinding names the producer of one decoder input, or of a section's
// final stream.
//
// Construction only checks shape. Whether the referenced file section or
// decoder output exists is checked when a section is resolved.
type InputBinding struct {
	kind    BindingKind
	section int
	decoder int
	output  int
}

// FromSection binds to file section i of the archive's file section table.
func FromSection(i int) (InputBinding, error) {
	if i < 0 {
		return InputBinding{}, invalidf("file section index %d is negative", i)
	}
	return InputBinding{kind: BindingSection, section: i}, nil
}

// FromDecoder binds to output o of decoder d in the same section.
func FromDecoder(d, o int) (InputBinding, error) {
	if d < 0 {
		return InputBinding{}, invalidf("decoder index %d is negative", d)
	}
	if o < 0 {
		return InputBinding{}, invalidf("output index %d is negative", o)
	}
	return InputBinding{kind: BindingDecoder, decoder: d, output: o}, nil
}

// Kind returns which producer the binding names.
func (b InputBinding) Kind() BindingKind { return b.kind }

// Valid reports whether b was produced by a constructor.
func (b InputBinding) Valid() bool {
	return b.kind == BindingSection || b.kind == BindingDecoder
}

// Section returns the file section index; ok is false for decoder bindings.
func (b InputBinding) Section() (i int, ok bool) {
	if b.kind != BindingSection {
		return 0, false
	}
	return b.section, true
}

// Decoder returns the decoder and output indices; ok is false for section
// bindings.
func (b InputBinding) Decoder() (d, o int, ok bool) {
	if b.kind != BindingDecoder {
		return 0, 0, false
	}
	return b.decoder, b.output, true
}

// String formats the binding as "section[i]" or "decoder[d].output[o]".
func (b InputBinding) String() string {
	switch b.kind {
	case BindingSection:
		return fmt.Sprintf("section[%d]", b.section)
	case BindingDecoder:
		return fmt.Sprintf("decoder[%d].output[%d]", b.decoder, b.output)
	default:
		return "invalid"
	}
}
