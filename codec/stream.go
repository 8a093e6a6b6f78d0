package codec

import (
	"bytes"
	"compress/bzip2"
	"fmt"

	"github.com/klauspost/compress/flate"
	"github.com/pierrec/lz4/v4"
)

func decodeDeflate(_ []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	if err := arity("deflate", inputs, outputSizes, 1, 1); err != nil {
		return nil, err
	}
	r := flate.NewReader(bytes.NewReader(inputs[0]))
	defer r.Close()
	out, err := readOutput("deflate", r, outputSizes[0])
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}

func decodeBZip2(_ []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	if err := arity("bzip2", inputs, outputSizes, 1, 1); err != nil {
		return nil, err
	}
	out, err := readOutput("bzip2", bzip2.NewReader(bytes.NewReader(inputs[0])), outputSizes[0])
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}

// decodeLZ4 reads an LZ4 frame. Settings carry the encoder version and are
// ignored.
func decodeLZ4(_ []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	if err := arity("lz4", inputs, outputSizes, 1, 1); err != nil {
		return nil, err
	}
	if len(inputs[0]) == 0 {
		return nil, fmt.Errorf("%w: lz4: empty input", ErrCorrupt)
	}
	out, err := readOutput("lz4", lz4.NewReader(bytes.NewReader(inputs[0])), outputSizes[0])
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}
