package unpack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/unpack/cache"
	"github.com/meigma/unpack/codec"
	"github.com/meigma/unpack/metadata"
	"github.com/meigma/unpack/resolve"
)

// ByteSource provides random access to the archive body.
//
// Implementations exist for local files (see NewFileSource) and HTTP range
// requests.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// RangeReader is implemented by sources that can stream a byte range under
// a context. Archive prefers it over ReadAt when available.
type RangeReader interface {
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// NewFileSource wraps a reader of known size, such as an *os.File.
func NewFileSource(r io.ReaderAt, size int64) ByteSource {
	return &sizedReaderAt{ReaderAt: r, size: size}
}

type sizedReaderAt struct {
	io.ReaderAt
	size int64
}

func (s *sizedReaderAt) Size() int64 { return s.size }

// Archive decodes the sections of one archive.
//
// An Archive is safe for concurrent use. Plans are resolved once per section
// and shared.
type Archive struct {
	md               metadata.Metadata
	source           ByteSource
	registry         *codec.Registry
	workers          int
	stepConcurrency  int
	maxStreamSize    int64
	maxInFlightBytes int64
	cache            cache.Cache // nil = no caching
	progress         ProgressFunc
	logger           *slog.Logger

	plans       []func() (*resolve.Plan, error)
	decodeGroup singleflight.Group // zero value is valid
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// New creates an Archive over source.
//
// Every file section in md must lie within source; sections are not resolved
// until first used.
func New(md metadata.Metadata, source ByteSource, opts ...Option) (*Archive, error) {
	if source == nil {
		return nil, fmt.Errorf("unpack: %w: source is nil", ErrInvalidArgument)
	}
	if err := md.CheckExtent(source.Size()); err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}

	a := &Archive{
		md:              md,
		source:          source,
		stepConcurrency: 1,
		maxStreamSize:   DefaultMaxStreamSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = codec.DefaultRegistry()
	}
	if a.workers < 1 {
		a.workers = runtime.GOMAXPROCS(0)
	}

	table := md.FileSections()
	a.plans = make([]func() (*resolve.Plan, error), md.NumSections())
	for i := range a.plans {
		a.plans[i] = sync.OnceValues(func() (*resolve.Plan, error) {
			plan, err := resolve.Resolve(table, md.Section(i))
			if err != nil {
				a.log().Debug("section resolution failed", "section", i, "error", err)
				return nil, &resolve.SectionError{Section: i, Err: err}
			}
			a.log().Debug("section resolved", "section", i, "steps", plan.NumSteps(), "levels", len(plan.Levels()))
			return plan, nil
		})
	}
	return a, nil
}

// Metadata returns the archive's metadata.
func (a *Archive) Metadata() metadata.Metadata {
	return a.md
}

// NumSections returns the number of sections.
func (a *Archive) NumSections() int {
	return len(a.plans)
}

// Plan returns the execution plan of section i. Failures match
// ErrDanglingReference, ErrCycleDetected or ErrLengthMismatch and are
// wrapped in a *resolve.SectionError.
func (a *Archive) Plan(i int) (*resolve.Plan, error) {
	if i < 0 || i >= len(a.plans) {
		return nil, fmt.Errorf("unpack: %w: section %d out of range (%d sections)", ErrInvalidArgument, i, len(a.plans))
	}
	return a.plans[i]()
}

// DecodeSection runs section i's plan and returns its decoded stream.
//
// Every decoder output is checked against its declared length and every
// checksummed input and the whole-stream checksum are verified. Concurrent
// calls for the same section share one decode; the first caller's ctx
// governs it. Callers that share a decode each receive their own copy of
// the stream.
func (a *Archive) DecodeSection(ctx context.Context, i int) ([]byte, error) {
	plan, err := a.Plan(i)
	if err != nil {
		return nil, err
	}
	result, err, shared := a.decodeGroup.Do(strconv.Itoa(i), func() (any, error) {
		return a.decode(ctx, i, plan)
	})
	if err != nil {
		return nil, err
	}
	stream := result.([]byte) //nolint:errcheck // type assertion always succeeds when err is nil
	if shared {
		a.log().Debug("shared section decode", "section", i)
		return bytes.Clone(stream), nil
	}
	return stream, nil
}
