package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdOption configures the zstd engine.
type ZstdOption func(*Zstd)

// WithMaxDecoderMemory caps the memory a zstd decoder may allocate for one
// frame. Frames declaring a larger window fail as corrupt. Zero, the default,
// applies the library's own limit.
func WithMaxDecoderMemory(n uint64) ZstdOption {
	return func(z *Zstd) {
		z.maxMemory = n
	}
}

// Zstd decodes zstd frames using pooled decoders.
type Zstd struct {
	pool      sync.Pool
	maxMemory uint64
}

var _ Engine = (*Zstd)(nil)

// NewZstd returns a zstd engine.
func NewZstd(opts ...ZstdOption) *Zstd {
	z := &Zstd{}
	for _, opt := range opts {
		opt(z)
	}
	z.pool.New = func() any {
		dec, err := z.newDecoder(nil)
		if err != nil {
			return nil
		}
		return dec
	}
	return z
}

// Decode decodes the single input frame sequence into one output.
func (z *Zstd) Decode(_ []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	if err := arity("zstd", inputs, outputSizes, 1, 1); err != nil {
		return nil, err
	}
	dec, release, err := z.get(bytes.NewReader(inputs[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
	}
	defer release()

	out, err := readOutput("zstd", dec, outputSizes[0])
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}

// get returns a decoder reading from r and the function that returns it to
// the pool.
func (z *Zstd) get(r io.Reader) (*zstd.Decoder, func(), error) {
	dec, ok := z.pool.Get().(*zstd.Decoder)
	if !ok {
		// Pool's New failed; try directly so the error surfaces.
		fresh, err := z.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return fresh, fresh.Close, nil
	}

	if err := dec.Reset(r); err != nil {
		dec.Close()
		fresh, err := z.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return fresh, fresh.Close, nil
	}

	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		z.pool.Put(dec)
	}, nil
}

func (z *Zstd) newDecoder(r io.Reader) (*zstd.Decoder, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if z.maxMemory > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(z.maxMemory))
	}
	dec, err := zstd.NewReader(r, opts...)
	if err != nil {
		return nil, err
	}
	return dec, nil
}
