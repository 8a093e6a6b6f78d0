// Package codec provides the byte-level decoders that execute plan steps.
//
// An Engine turns a decoder's ordered inputs into its ordered outputs. A
// Registry maps compression methods to engines; DefaultRegistry returns one
// populated with every engine this package ships.
package codec

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/meigma/unpack/internal/sizing"
	"github.com/meigma/unpack/metadata"
)

var (
	// ErrUnsupportedMethod is returned when no engine is registered for a method.
	ErrUnsupportedMethod = errors.New("codec: unsupported method")

	// ErrCorrupt is returned when an engine cannot decode its input.
	ErrCorrupt = errors.New("codec: corrupt input")
)

// Engine decodes one decoder invocation.
//
// inputs are in the decoder's declared input order. The returned slice must
// hold one buffer per entry of outputSizes, each exactly that long.
// Implementations must be safe for concurrent use.
type Engine interface {
	Decode(settings []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(settings []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error)

// Decode calls f.
func (f EngineFunc) Decode(settings []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	return f(settings, inputs, outputSizes)
}

// Registry maps methods to engines. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	engines map[metadata.Method]Engine
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[metadata.Method]Engine)}
}

// DefaultRegistry returns a new registry with the bundled engines: Copy,
// Delta, Deflate, BZip2, Zstd, LZ4, LZMA and LZMA2.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(metadata.MethodCopy, EngineFunc(decodeCopy))
	r.Register(metadata.MethodDelta, EngineFunc(decodeDelta))
	r.Register(metadata.MethodDeflate, EngineFunc(decodeDeflate))
	r.Register(metadata.MethodBZip2, EngineFunc(decodeBZip2))
	r.Register(metadata.MethodZstd, NewZstd())
	r.Register(metadata.MethodLZ4, EngineFunc(decodeLZ4))
	r.Register(metadata.MethodLZMA, EngineFunc(decodeLZMA))
	r.Register(metadata.MethodLZMA2, EngineFunc(decodeLZMA2))
	return r
}

// Register installs e for method m, replacing any previous engine.
// A nil engine removes the registration.
func (r *Registry) Register(m metadata.Method, e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e == nil {
		delete(r.engines, m)
		return
	}
	r.engines[m] = e
}

// Engine returns the engine for m.
func (r *Registry) Engine(m metadata.Method) (Engine, error) {
	r.mu.RLock()
	e, ok := r.engines[m]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, m)
	}
	return e, nil
}

// Supports reports whether an engine is registered for m.
func (r *Registry) Supports(m metadata.Method) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.engines[m]
	return ok
}

// Methods returns the registered methods in ascending order.
func (r *Registry) Methods() []metadata.Method {
	r.mu.RLock()
	methods := make([]metadata.Method, 0, len(r.engines))
	for m := range r.engines {
		methods = append(methods, m)
	}
	r.mu.RUnlock()
	slices.Sort(methods)
	return methods
}

// Decode runs the engine for m and checks its outputs against outputSizes,
// so a misbehaving engine cannot hand out buffers of the wrong length.
func (r *Registry) Decode(m metadata.Method, settings []byte, inputs [][]byte, outputSizes []int64) ([][]byte, error) {
	e, err := r.Engine(m)
	if err != nil {
		return nil, err
	}
	outputs, err := e.Decode(settings, inputs, outputSizes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m, err)
	}
	if len(outputs) != len(outputSizes) {
		return nil, fmt.Errorf("%w: %s produced %d outputs, want %d",
			metadata.ErrLengthMismatch, m, len(outputs), len(outputSizes))
	}
	for i, out := range outputs {
		if int64(len(out)) != outputSizes[i] {
			return nil, fmt.Errorf("%w: %s output %d is %d bytes, want %d",
				metadata.ErrLengthMismatch, m, i, len(out), outputSizes[i])
		}
	}
	return outputs, nil
}

// arity checks the input and output counts of a fixed-shape engine.
func arity(name string, inputs [][]byte, outputSizes []int64, nIn, nOut int) error {
	if len(inputs) != nIn {
		return fmt.Errorf("%w: %s takes %d inputs, got %d", metadata.ErrInvalidArgument, name, nIn, len(inputs))
	}
	if len(outputSizes) != nOut {
		return fmt.Errorf("%w: %s produces %d outputs, got %d", metadata.ErrInvalidArgument, name, nOut, len(outputSizes))
	}
	return nil
}

// outputSize converts a declared output size to a buffer length.
func outputSize(name string, size int64) (int, error) {
	return sizing.ToInt(size, fmt.Errorf("%w: %s output size %d", metadata.ErrInvalidArgument, name, size))
}

// readOutput drains r, which must yield exactly size bytes.
func readOutput(name string, r io.Reader, size int64) ([]byte, error) {
	n, err := outputSize(name, size)
	if err != nil {
		return nil, err
	}
	buf, err := sizing.ReadExact(r, n,
		fmt.Errorf("%w: %s output shorter than %d bytes", metadata.ErrLengthMismatch, name, size),
		fmt.Errorf("%w: %s output longer than %d bytes", metadata.ErrLengthMismatch, name, size),
	)
	if err != nil {
		if errors.Is(err, metadata.ErrLengthMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, name, err)
	}
	return buf, nil
}
