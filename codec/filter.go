package codec

import (
	"fmt"

	"github.com/meigma/unpack/metadata"
)

// decodeCopy passes a stored input through unchanged.
func decodeCopy(_ []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	if err := arity("copy", inputs, outputSizes, 1, 1); err != nil {
		return nil, err
	}
	if int64(len(inputs[0])) != outputSizes[0] {
		return nil, fmt.Errorf("%w: copy input is %d bytes, output declares %d",
			metadata.ErrLengthMismatch, len(inputs[0]), outputSizes[0])
	}
	return [][]byte{inputs[0]}, nil
}

// decodeDelta reverses the byte-wise delta filter. The single settings byte
// holds the distance minus one; empty settings mean distance 1.
func decodeDelta(settings []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	if err := arity("delta", inputs, outputSizes, 1, 1); err != nil {
		return nil, err
	}
	dist := 1
	switch len(settings) {
	case 0:
	case 1:
		dist = int(settings[0]) + 1
	default:
		return nil, fmt.Errorf("%w: delta settings are %d bytes, want 1", metadata.ErrInvalidArgument, len(settings))
	}
	if int64(len(inputs[0])) != outputSizes[0] {
		return nil, fmt.Errorf("%w: delta input is %d bytes, output declares %d",
			metadata.ErrLengthMismatch, len(inputs[0]), outputSizes[0])
	}

	out := make([]byte, len(inputs[0]))
	copy(out, inputs[0])
	for i := dist; i < len(out); i++ {
		out[i] += out[i-dist]
	}
	return [][]byte{out}, nil
}
