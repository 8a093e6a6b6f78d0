package metafile

import (
	"errors"
	"fmt"
	"math"

	"github.com/meigma/unpack/internal/fb"
	"github.com/meigma/unpack/metadata"
)

// Decode parses a snapshot written by Encode.
//
// Malformed buffers fail with an error rather than panicking. Every value is
// passed through the metadata constructors, so structural failures match the
// metadata sentinel errors.
func Decode(data []byte) (md metadata.Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			md = metadata.Metadata{}
			err = fmt.Errorf("metafile: failed to parse snapshot: %v", r)
		}
	}()
	if len(data) == 0 {
		return metadata.Metadata{}, errors.New("metafile: empty snapshot")
	}

	root := fb.GetRootAsMetadata(data, 0)
	if v := root.Version(); v != Version {
		return metadata.Metadata{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	fileSections := make([]metadata.FileSection, root.FileSectionsLength())
	var fbFile fb.FileSection
	for i := range fileSections {
		root.FileSections(&fbFile, i)
		fs, err := decodeFileSection(&fbFile)
		if err != nil {
			return metadata.Metadata{}, fmt.Errorf("metafile: file section %d: %w", i, err)
		}
		fileSections[i] = fs
	}

	sections := make([]metadata.Section, root.SectionsLength())
	var fbSection fb.Section
	for i := range sections {
		root.Sections(&fbSection, i)
		s, err := decodeSection(&fbSection)
		if err != nil {
			return metadata.Metadata{}, fmt.Errorf("metafile: section %d: %w", i, err)
		}
		sections[i] = s
	}

	md, err = metadata.NewMetadata(fileSections, sections)
	if err != nil {
		return metadata.Metadata{}, fmt.Errorf("metafile: %w", err)
	}
	return md, nil
}

func decodeFileSection(f *fb.FileSection) (metadata.FileSection, error) {
	fs, err := metadata.NewFileSection(f.Offset(), f.Length())
	if err != nil {
		return metadata.FileSection{}, err
	}
	sum, ok, err := decodeChecksum(f.Checksum())
	if err != nil || !ok {
		return fs, err
	}
	return fs.WithChecksum(sum), nil
}

func decodeSection(s *fb.Section) (metadata.Section, error) {
	decoders := make([]metadata.Decoder, s.DecodersLength())
	var fbDecoder fb.Decoder
	for i := range decoders {
		s.Decoders(&fbDecoder, i)
		d, err := decodeDecoder(&fbDecoder)
		if err != nil {
			return metadata.Section{}, fmt.Errorf("decoder %d: %w", i, err)
		}
		decoders[i] = d
	}

	fbRoot := s.Root(nil)
	if fbRoot == nil {
		return metadata.Section{}, fmt.Errorf("%w: root binding is absent", metadata.ErrInvalidArgument)
	}
	root, err := decodeBinding(fbRoot)
	if err != nil {
		return metadata.Section{}, fmt.Errorf("root: %w", err)
	}

	subStreams := make([]metadata.SubStream, s.SubStreamsLength())
	var fbSub fb.SubStream
	for i := range subStreams {
		s.SubStreams(&fbSub, i)
		sub, err := metadata.NewSubStream(fbSub.Length())
		if err != nil {
			return metadata.Section{}, fmt.Errorf("sub-stream %d: %w", i, err)
		}
		sum, ok, err := decodeChecksum(fbSub.Checksum())
		if err != nil {
			return metadata.Section{}, fmt.Errorf("sub-stream %d: %w", i, err)
		}
		if ok {
			sub = sub.WithChecksum(sum)
		}
		subStreams[i] = sub
	}

	section, err := metadata.NewSection(decoders, root, s.Length(), subStreams)
	if err != nil {
		return metadata.Section{}, err
	}
	sum, ok, err := decodeChecksum(s.Checksum())
	if err != nil || !ok {
		return section, err
	}
	return section.WithChecksum(sum), nil
}

func decodeDecoder(d *fb.Decoder) (metadata.Decoder, error) {
	method := metadata.MethodFromID(d.Method())
	if method == metadata.MethodUndefined {
		return metadata.Decoder{}, fmt.Errorf("%w: unknown coder ID %#x", metadata.ErrInvalidArgument, d.Method())
	}

	inputs := make([]metadata.InputBinding, d.InputsLength())
	var fbBinding fb.Binding
	for i := range inputs {
		d.Inputs(&fbBinding, i)
		b, err := decodeBinding(&fbBinding)
		if err != nil {
			return metadata.Decoder{}, fmt.Errorf("input %d: %w", i, err)
		}
		inputs[i] = b
	}

	outputs := make([]metadata.Output, d.OutputsLength())
	for i := range outputs {
		out, err := metadata.NewOutput(d.Outputs(i))
		if err != nil {
			return metadata.Decoder{}, fmt.Errorf("output %d: %w", i, err)
		}
		outputs[i] = out
	}

	settings := append([]byte{}, d.SettingsBytes()...)
	return metadata.NewDecoder(method, settings, inputs, outputs)
}

func decodeBinding(b *fb.Binding) (metadata.InputBinding, error) {
	switch b.Kind() {
	case fb.BindingKindSection:
		return metadata.FromSection(toIndex(b.Index()))
	case fb.BindingKindDecoder:
		return metadata.FromDecoder(toIndex(b.Index()), toIndex(b.Output()))
	default:
		return metadata.InputBinding{}, fmt.Errorf("%w: binding kind %s", metadata.ErrInvalidArgument, b.Kind())
	}
}

// decodeChecksum parses an optional checksum string.
func decodeChecksum(s []byte) (metadata.Checksum, bool, error) {
	if len(s) == 0 {
		return metadata.Checksum{}, false, nil
	}
	sum, err := metadata.ParseChecksum(string(s))
	if err != nil {
		return metadata.Checksum{}, false, err
	}
	return sum, true, nil
}

// toIndex narrows a stored index; values that do not fit become -1 so the
// constructors reject them.
func toIndex(v int64) int {
	if v > math.MaxInt {
		return -1
	}
	return int(v)
}
