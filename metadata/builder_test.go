package metadata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Chain(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.FileSection(0, 300)
	b.FileSection(300, 40)
	b.FileSection(340, 20)
	b.FileSection(360, 10).Checksum(CRC32Checksum(7))

	s := b.Section()
	lzma := s.Decoder(MethodLZMA, []byte{0x5d, 0, 0, 1, 0}).InputSection(0).Output(500)
	bcj2 := s.Decoder(MethodBCJ2, nil).
		InputDecoder(lzma.Index(), 0).
		InputSection(1).
		InputSection(2).
		InputSection(3).
		Output(500)
	s.RootDecoder(bcj2.Index(), 0)
	s.SubStream(200).Checksum(CRC32Checksum(1))
	s.SubStream(300)
	s.Checksum(CRC32Checksum(2))

	md, err := b.Build()
	require.NoError(t, err)

	require.Equal(t, 4, md.FileSections().Len())
	sum, ok := md.FileSections().At(3).Checksum()
	require.True(t, ok)
	assert.Equal(t, CRC32Checksum(7), sum)

	require.Equal(t, 1, md.NumSections())
	section := md.Section(0)
	assert.Equal(t, int64(500), section.Length(), "length defaults to the sub-stream total")
	require.Equal(t, 2, section.NumDecoders())
	assert.Equal(t, MethodBCJ2, section.Decoder(1).Method())
	assert.Equal(t, 4, section.Decoder(1).NumInputs())
	assert.NotNil(t, section.Decoder(1).Settings(), "nil settings are recorded as empty")

	root, err := FromDecoder(1, 0)
	require.NoError(t, err)
	assert.Equal(t, root, section.Root())

	wholeSum, ok := section.Checksum()
	require.True(t, ok)
	assert.Equal(t, CRC32Checksum(2), wholeSum)
	_, ok = section.SubStream(1).Checksum()
	assert.False(t, ok)
}

func TestBuilder_ReportsAllErrors(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.FileSection(-1, 10)

	bad := b.Section()
	bad.Decoder(MethodUndefined, nil).InputSection(0).Output(1)
	bad.Decoder(MethodCopy, nil).InputSection(-2).Output(1)
	bad.SubStream(-5)

	mismatch := b.Section()
	mismatch.Decoder(MethodCopy, nil).InputSection(0).Output(10)
	mismatch.RootDecoder(0, 0).Length(10)
	mismatch.SubStream(4)

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	msg := err.Error()
	assert.Contains(t, msg, "file section 0")
	assert.Contains(t, msg, "section 0: decoder 0")
	assert.Contains(t, msg, "decoder 1: input 0")
	assert.Contains(t, msg, "sub-stream 0")
	assert.Contains(t, msg, "root is not set")
	assert.Contains(t, msg, "section 1")
}

func TestBuilder_Empty(t *testing.T) {
	t.Parallel()

	md, err := NewBuilder().Build()
	require.NoError(t, err)
	assert.Zero(t, md.FileSections().Len())
	assert.Zero(t, md.NumSections())
	assert.NotNil(t, md.Sections())
}

func TestBuilder_SubStreamOverflow(t *testing.T) {
	t.Parallel()

	// Without an explicit length the section length is the sub-stream total,
	// which must not wrap.
	b := NewBuilder()
	b.FileSection(0, 1)
	s := b.Section().RootSection(0)
	s.SubStream(math.MaxInt64)
	s.SubStream(math.MaxInt64)

	_, err := b.Build()
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), "overflow at sub-stream 1")
}
