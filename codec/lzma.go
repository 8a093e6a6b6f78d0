package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"

	"github.com/meigma/unpack/metadata"
)

const (
	// lzmaPropsLen is the properties byte followed by the dictionary size.
	lzmaPropsLen = 5
	// lzmaHeaderLen is the classic .lzma header: properties plus the
	// little-endian unpacked size.
	lzmaHeaderLen = lzmaPropsLen + 8
	// lzma2MaxDictProp selects the largest dictionary.
	lzma2MaxDictProp = 40
)

// decodeLZMA decodes a raw LZMA stream. Settings are the 5-byte properties
// block; the stream itself carries no header, so one is synthesized with the
// declared output size.
func decodeLZMA(settings []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	if err := arity("lzma", inputs, outputSizes, 1, 1); err != nil {
		return nil, err
	}
	if len(settings) != lzmaPropsLen {
		return nil, fmt.Errorf("%w: lzma settings are %d bytes, want %d",
			metadata.ErrInvalidArgument, len(settings), lzmaPropsLen)
	}
	size := outputSizes[0]
	if _, err := outputSize("lzma", size); err != nil {
		return nil, err
	}

	var header [lzmaHeaderLen]byte
	header[0] = settings[0]
	dict := dictCap(int64(binary.LittleEndian.Uint32(settings[1:])), size)
	binary.LittleEndian.PutUint32(header[1:], uint32(dict))
	binary.LittleEndian.PutUint64(header[lzmaPropsLen:], uint64(size))

	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header[:]), bytes.NewReader(inputs[0])))
	if err != nil {
		return nil, fmt.Errorf("%w: lzma: %w", ErrCorrupt, err)
	}
	out, err := readOutput("lzma", r, size)
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}

// decodeLZMA2 decodes an LZMA2 chunk stream. The single settings byte encodes
// the dictionary size.
func decodeLZMA2(settings []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	if err := arity("lzma2", inputs, outputSizes, 1, 1); err != nil {
		return nil, err
	}
	if len(settings) != 1 {
		return nil, fmt.Errorf("%w: lzma2 settings are %d bytes, want 1", metadata.ErrInvalidArgument, len(settings))
	}
	declared, err := lzma2DictSize(settings[0])
	if err != nil {
		return nil, err
	}
	size := outputSizes[0]
	if _, err := outputSize("lzma2", size); err != nil {
		return nil, err
	}

	cfg := lzma.Reader2Config{DictCap: int(dictCap(declared, size))}
	r, err := cfg.NewReader2(bytes.NewReader(inputs[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: lzma2: %w", ErrCorrupt, err)
	}
	out, err := readOutput("lzma2", r, size)
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}

// lzma2DictSize expands the LZMA2 dictionary property byte.
func lzma2DictSize(p byte) (int64, error) {
	if p > lzma2MaxDictProp {
		return 0, fmt.Errorf("%w: lzma2 dictionary property %d", metadata.ErrInvalidArgument, p)
	}
	if p == lzma2MaxDictProp {
		return 1<<32 - 1, nil
	}
	return int64(2|p&1) << (p/2 + 11), nil
}

// dictCap bounds the dictionary allocation. Match distances never reach
// further back than the bytes already produced, so a dictionary larger than
// the output is never used.
func dictCap(declared, size int64) int64 {
	c := min(declared, size)
	return max(c, lzma.MinDictCap)
}
