package metafile

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/unpack/internal/fb"
	"github.com/meigma/unpack/metadata"
)

// Version is the snapshot format version written by Encode.
const Version uint32 = 1

// ErrUnsupportedVersion is returned by Decode for snapshots written by a
// different format version.
var ErrUnsupportedVersion = errors.New("metafile: unsupported version")

// Encode serializes md to a FlatBuffers snapshot.
func Encode(md metadata.Metadata) ([]byte, error) {
	builder := flatbuffers.NewBuilder(1024)

	table := md.FileSections()
	fileOffsets := make([]flatbuffers.UOffsetT, table.Len())
	for i := table.Len() - 1; i >= 0; i-- {
		fileOffsets[i] = buildFileSection(builder, table.At(i))
	}

	sectionOffsets := make([]flatbuffers.UOffsetT, md.NumSections())
	for i := md.NumSections() - 1; i >= 0; i-- {
		off, err := buildSection(builder, md.Section(i))
		if err != nil {
			return nil, fmt.Errorf("metafile: section %d: %w", i, err)
		}
		sectionOffsets[i] = off
	}

	fileSections := offsetVector(builder, fb.MetadataStartFileSectionsVector, fileOffsets)
	sections := offsetVector(builder, fb.MetadataStartSectionsVector, sectionOffsets)

	fb.MetadataStart(builder)
	fb.MetadataAddVersion(builder, Version)
	fb.MetadataAddFileSections(builder, fileSections)
	fb.MetadataAddSections(builder, sections)
	root := fb.MetadataEnd(builder)

	fb.FinishMetadataBuffer(builder, root)
	return builder.FinishedBytes(), nil
}

func buildFileSection(builder *flatbuffers.Builder, fs metadata.FileSection) flatbuffers.UOffsetT {
	sum := checksumString(builder, fs.Checksum)

	fb.FileSectionStart(builder)
	fb.FileSectionAddOffset(builder, fs.Offset())
	fb.FileSectionAddLength(builder, fs.Length())
	if sum != 0 {
		fb.FileSectionAddChecksum(builder, sum)
	}
	return fb.FileSectionEnd(builder)
}

func buildSection(builder *flatbuffers.Builder, s metadata.Section) (flatbuffers.UOffsetT, error) {
	decoderOffsets := make([]flatbuffers.UOffsetT, s.NumDecoders())
	for i := s.NumDecoders() - 1; i >= 0; i-- {
		off, err := buildDecoder(builder, s.Decoder(i))
		if err != nil {
			return 0, fmt.Errorf("decoder %d: %w", i, err)
		}
		decoderOffsets[i] = off
	}
	decoders := offsetVector(builder, fb.SectionStartDecodersVector, decoderOffsets)

	subOffsets := make([]flatbuffers.UOffsetT, s.NumSubStreams())
	for i := s.NumSubStreams() - 1; i >= 0; i-- {
		sub := s.SubStream(i)
		sum := checksumString(builder, sub.Checksum)
		fb.SubStreamStart(builder)
		fb.SubStreamAddLength(builder, sub.Length())
		if sum != 0 {
			fb.SubStreamAddChecksum(builder, sum)
		}
		subOffsets[i] = fb.SubStreamEnd(builder)
	}
	subStreams := offsetVector(builder, fb.SectionStartSubStreamsVector, subOffsets)

	root := buildBinding(builder, s.Root())
	sum := checksumString(builder, s.Checksum)

	fb.SectionStart(builder)
	fb.SectionAddDecoders(builder, decoders)
	fb.SectionAddRoot(builder, root)
	fb.SectionAddLength(builder, s.Length())
	if sum != 0 {
		fb.SectionAddChecksum(builder, sum)
	}
	fb.SectionAddSubStreams(builder, subStreams)
	return fb.SectionEnd(builder), nil
}

func buildDecoder(builder *flatbuffers.Builder, d metadata.Decoder) (flatbuffers.UOffsetT, error) {
	id, ok := d.Method().ID()
	if !ok {
		return 0, fmt.Errorf("%w: method %s has no coder ID", metadata.ErrInvalidArgument, d.Method())
	}

	settings := builder.CreateByteVector(d.Settings())

	inputOffsets := make([]flatbuffers.UOffsetT, d.NumInputs())
	for i := d.NumInputs() - 1; i >= 0; i-- {
		inputOffsets[i] = buildBinding(builder, d.Input(i))
	}
	inputs := offsetVector(builder, fb.DecoderStartInputsVector, inputOffsets)

	fb.DecoderStartOutputsVector(builder, d.NumOutputs())
	for i := d.NumOutputs() - 1; i >= 0; i-- {
		builder.PrependInt64(d.Output(i).Length())
	}
	outputs := builder.EndVector(d.NumOutputs())

	fb.DecoderStart(builder)
	fb.DecoderAddMethod(builder, id)
	fb.DecoderAddSettings(builder, settings)
	fb.DecoderAddInputs(builder, inputs)
	fb.DecoderAddOutputs(builder, outputs)
	return fb.DecoderEnd(builder), nil
}

func buildBinding(builder *flatbuffers.Builder, b metadata.InputBinding) flatbuffers.UOffsetT {
	fb.BindingStart(builder)
	if i, ok := b.Section(); ok {
		fb.BindingAddKind(builder, fb.BindingKindSection)
		fb.BindingAddIndex(builder, int64(i))
	} else if d, o, ok := b.Decoder(); ok {
		fb.BindingAddKind(builder, fb.BindingKindDecoder)
		fb.BindingAddIndex(builder, int64(d))
		fb.BindingAddOutput(builder, int64(o))
	}
	return fb.BindingEnd(builder)
}

// checksumString writes the checksum returned by get, or returns 0 when the
// checksum is absent.
func checksumString(builder *flatbuffers.Builder, get func() (metadata.Checksum, bool)) flatbuffers.UOffsetT {
	sum, ok := get()
	if !ok {
		return 0
	}
	return builder.CreateString(sum.String())
}

func offsetVector(
	builder *flatbuffers.Builder,
	start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT,
	offsets []flatbuffers.UOffsetT,
) flatbuffers.UOffsetT {
	start(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	return builder.EndVector(len(offsets))
}
