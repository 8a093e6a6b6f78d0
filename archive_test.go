package unpack_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/unpack"
	"github.com/meigma/unpack/codec"
	"github.com/meigma/unpack/internal/testutil"
	"github.com/meigma/unpack/metadata"
	"github.com/meigma/unpack/resolve"
)

func pattern(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = seed + byte(i*7)
	}
	return data
}

// deltaEncode applies the distance-1 delta filter.
func deltaEncode(data []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		if i == 0 {
			out[i] = data[i]
			continue
		}
		out[i] = data[i] - data[i-1]
	}
	return out
}

// concatEngine joins its inputs into a single output.
var concatEngine = codec.EngineFunc(func(_ []byte, inputs [][]byte, _ []int64) ([][]byte, error) {
	return [][]byte{bytes.Join(inputs, nil)}, nil
})

func newArchive(t *testing.T, md metadata.Metadata, src unpack.ByteSource, opts ...unpack.Option) *unpack.Archive {
	t.Helper()
	a, err := unpack.New(md, src, opts...)
	require.NoError(t, err)
	return a
}

// copyArchive is a single Copy decoder over one file section, split into
// sub-streams of the given lengths.
func copyArchive(t *testing.T, content []byte, sums []metadata.Checksum, lengths ...int64) (metadata.Metadata, *testutil.MockByteSource) {
	t.Helper()
	arc := testutil.NewArchive()
	arc.Pad(16)
	arc.Raw(content)
	s := arc.Section()
	s.Decoder(metadata.MethodCopy, nil).InputSection(0).Output(int64(len(content)))
	s.RootDecoder(0, 0)
	for i, n := range lengths {
		sub := s.SubStream(n)
		if i < len(sums) {
			sub.Checksum(sums[i])
		}
	}
	return arc.Build(t)
}

func TestExtractSection_Copy(t *testing.T) {
	t.Parallel()

	content := pattern(100, 1)
	md, src := copyArchive(t, content, []metadata.Checksum{testutil.CRC32(t, content)}, 100)
	a := newArchive(t, md, src)

	plan, err := a.Plan(0)
	require.NoError(t, err)
	require.Equal(t, 1, plan.NumSteps())
	_, fs, ok := plan.Step(0).Input(0).Range()
	require.True(t, ok)
	assert.Equal(t, int64(16), fs.Offset())
	assert.Equal(t, int64(116), fs.End())

	sink := unpack.NewMemorySink()
	stats, err := a.ExtractSection(context.Background(), 0, sink)
	require.NoError(t, err)
	assert.Equal(t, unpack.Stats{Processed: 1, TotalBytes: 100}, stats)

	got, ok := sink.Get(0, 0)
	require.True(t, ok)
	assert.Equal(t, content, got)
}

func TestDecodeSection_ZstdDeltaChain(t *testing.T) {
	t.Parallel()

	content := pattern(4096, 3)
	compressed := testutil.Zstd(t, deltaEncode(content))

	arc := testutil.NewArchive()
	arc.Raw(compressed)
	s := arc.Section()
	s.Decoder(metadata.MethodZstd, nil).InputSection(0).Output(4096)
	s.Decoder(metadata.MethodDelta, []byte{0}).InputDecoder(0, 0).Output(4096)
	s.RootDecoder(1, 0)
	s.Checksum(testutil.SHA256(t, content))
	s.SubStream(1000)
	s.SubStream(3096)
	md, src := arc.Build(t)

	a := newArchive(t, md, src)
	got, err := a.DecodeSection(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	entries, err := a.Entries(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(0), entries[0].Offset)
	assert.Equal(t, int64(1000), entries[1].Offset)
	assert.Equal(t, int64(3096), entries[1].Length)
}

func TestDecodeSection_FourInputDecoder(t *testing.T) {
	t.Parallel()

	main := pattern(300, 1)
	call := pattern(40, 2)
	jump := pattern(20, 3)
	rc := pattern(10, 4)

	arc := testutil.NewArchive()
	arc.Raw(main)
	arc.Raw(call)
	arc.Raw(jump)
	arc.Raw(rc)
	s := arc.Section()
	s.Decoder(metadata.MethodCopy, nil).InputSection(0).Output(300)
	s.Decoder(metadata.MethodBCJ2, nil).
		InputDecoder(0, 0).InputSection(1).InputSection(2).InputSection(3).
		Output(370)
	s.RootDecoder(1, 0)
	s.SubStream(370)
	md, src := arc.Build(t)

	registry := codec.DefaultRegistry()
	registry.Register(metadata.MethodBCJ2, concatEngine)
	a := newArchive(t, md, src, unpack.WithRegistry(registry))

	plan, err := a.Plan(0)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}, {1}}, plan.Levels())

	got, err := a.DecodeSection(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, bytes.Join([][]byte{main, call, jump, rc}, nil), got)
}

func TestDecodeSection_StoredRoot(t *testing.T) {
	t.Parallel()

	content := []byte("stored without any decoder")
	arc := testutil.NewArchive()
	arc.Raw(content)
	s := arc.Section()
	s.RootSection(0)
	s.SubStream(int64(len(content))).Checksum(testutil.SHA256(t, content))
	md, src := arc.Build(t)

	got, err := newArchive(t, md, src).DecodeSection(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDecodeSection_SkipsDecodersTheRootDoesNotNeed(t *testing.T) {
	t.Parallel()

	content := pattern(64, 9)
	arc := testutil.NewArchive()
	arc.Raw(content)
	s := arc.Section()
	s.Decoder(metadata.MethodPPMD, nil).InputSection(0).Output(64)
	s.Decoder(metadata.MethodCopy, nil).InputSection(0).Output(64)
	s.RootDecoder(1, 0)
	s.SubStream(64)
	md, src := arc.Build(t)

	got, err := newArchive(t, md, src).DecodeSection(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDecodeSection_StepConcurrency(t *testing.T) {
	t.Parallel()

	parts := [][]byte{pattern(500, 1), pattern(700, 2), pattern(300, 3), pattern(900, 4)}
	arc := testutil.NewArchive()
	s := arc.Section()
	join := s.Decoder(metadata.MethodBCJ, nil)
	var total int64
	for i, p := range parts {
		arc.Raw(p)
		s.Decoder(metadata.MethodCopy, nil).InputSection(i).Output(int64(len(p)))
		join.InputDecoder(i+1, 0)
		total += int64(len(p))
	}
	join.Output(total)
	s.RootDecoder(0, 0)
	s.SubStream(total)
	md, src := arc.Build(t)

	var running, peak atomic.Int32
	registry := codec.DefaultRegistry()
	registry.Register(metadata.MethodBCJ, concatEngine)
	registry.Register(metadata.MethodCopy, codec.EngineFunc(func(_ []byte, inputs [][]byte, _ []int64) ([][]byte, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return [][]byte{bytes.Clone(inputs[0])}, nil
	}))

	a := newArchive(t, md, src, unpack.WithRegistry(registry), unpack.WithStepConcurrency(2))
	plan, err := a.Plan(0)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3, 4}, {0}}, resolvedLevels(plan))

	got, err := a.DecodeSection(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, bytes.Join(parts, nil), got)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

// resolvedLevels maps plan levels from step positions to decoder indices.
func resolvedLevels(plan *resolve.Plan) [][]int {
	levels := plan.Levels()
	out := make([][]int, len(levels))
	for i, level := range levels {
		for _, pos := range level {
			out[i] = append(out[i], plan.Step(pos).Decoder())
		}
	}
	return out
}

// gatedSource blocks reads until release is closed.
type gatedSource struct {
	*testutil.MockByteSource
	release chan struct{}
}

func (g *gatedSource) ReadAt(p []byte, off int64) (int, error) {
	<-g.release
	return g.MockByteSource.ReadAt(p, off)
}

func TestDecodeSection_SharesConcurrentCalls(t *testing.T) {
	t.Parallel()

	content := pattern(256, 5)
	md, mock := copyArchive(t, content, nil, 256)
	src := &gatedSource{MockByteSource: mock, release: make(chan struct{})}
	a := newArchive(t, md, src)

	var started, done sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		started.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			started.Done()
			got, err := a.DecodeSection(context.Background(), 0)
			assert.NoError(t, err)
			results[i] = got
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	done.Wait()

	for _, got := range results {
		assert.Equal(t, content, got)
	}

	// Callers that shared a decode own their results.
	results[0][0] ^= 0xff
	for _, got := range results[1:] {
		assert.Equal(t, content, got)
	}
}

func TestDecodeSection_Errors(t *testing.T) {
	t.Parallel()

	content := pattern(128, 7)

	t.Run("unsupported method", func(t *testing.T) {
		t.Parallel()
		arc := testutil.NewArchive()
		arc.Raw(content)
		s := arc.Section()
		s.Decoder(metadata.MethodPPMD, []byte{6, 0, 0, 0, 1}).InputSection(0).Output(128)
		s.RootDecoder(0, 0)
		s.SubStream(128)
		md, src := arc.Build(t)

		_, err := newArchive(t, md, src).DecodeSection(context.Background(), 0)
		require.ErrorIs(t, err, unpack.ErrUnsupportedMethod)
		var stepErr *unpack.StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, 0, stepErr.Decoder)
		assert.Equal(t, metadata.MethodPPMD, stepErr.Method)
	})

	t.Run("output length", func(t *testing.T) {
		t.Parallel()
		arc := testutil.NewArchive()
		arc.Raw(content)
		s := arc.Section()
		s.Decoder(metadata.MethodCopy, nil).InputSection(0).Output(100)
		s.RootDecoder(0, 0)
		s.SubStream(100)
		md, src := arc.Build(t)

		_, err := newArchive(t, md, src).DecodeSection(context.Background(), 0)
		require.ErrorIs(t, err, unpack.ErrLengthMismatch)
	})

	t.Run("corrupt input", func(t *testing.T) {
		t.Parallel()
		arc := testutil.NewArchive()
		arc.Raw(content)
		s := arc.Section()
		s.Decoder(metadata.MethodZstd, nil).InputSection(0).Output(128)
		s.RootDecoder(0, 0)
		s.SubStream(128)
		md, src := arc.Build(t)

		_, err := newArchive(t, md, src).DecodeSection(context.Background(), 0)
		require.ErrorIs(t, err, unpack.ErrCorrupt)
	})

	t.Run("file section checksum", func(t *testing.T) {
		t.Parallel()
		arc := testutil.NewArchive()
		arc.Raw(content).Checksum(metadata.CRC32Checksum(1))
		s := arc.Section()
		s.Decoder(metadata.MethodCopy, nil).InputSection(0).Output(128)
		s.RootDecoder(0, 0)
		s.SubStream(128)
		md, src := arc.Build(t)

		_, err := newArchive(t, md, src).DecodeSection(context.Background(), 0)
		require.ErrorIs(t, err, unpack.ErrChecksumMismatch)
		var fsErr *unpack.FileSectionError
		require.ErrorAs(t, err, &fsErr)
		assert.Equal(t, 0, fsErr.FileSection)
	})

	t.Run("whole stream checksum", func(t *testing.T) {
		t.Parallel()
		arc := testutil.NewArchive()
		arc.Raw(content)
		s := arc.Section()
		s.Decoder(metadata.MethodCopy, nil).InputSection(0).Output(128)
		s.RootDecoder(0, 0)
		s.Checksum(testutil.SHA256(t, []byte("something else")))
		s.SubStream(128)
		md, src := arc.Build(t)

		_, err := newArchive(t, md, src).DecodeSection(context.Background(), 0)
		var sumErr *unpack.ChecksumError
		require.ErrorAs(t, err, &sumErr)
		assert.Equal(t, unpack.WholeStream, sumErr.SubStream)
		assert.Equal(t, testutil.SHA256(t, content), sumErr.Got)
	})

	t.Run("stream size limit", func(t *testing.T) {
		t.Parallel()
		md, src := copyArchive(t, content, nil, 128)
		_, err := newArchive(t, md, src, unpack.WithMaxStreamSize(64)).DecodeSection(context.Background(), 0)
		require.ErrorIs(t, err, unpack.ErrSizeOverflow)
	})

	t.Run("dangling reference", func(t *testing.T) {
		t.Parallel()
		arc := testutil.NewArchive()
		arc.Raw(content)
		s := arc.Section()
		s.Decoder(metadata.MethodCopy, nil).InputSection(3).Output(128)
		s.RootDecoder(0, 0)
		s.SubStream(128)
		md, src := arc.Build(t)

		_, err := newArchive(t, md, src).DecodeSection(context.Background(), 0)
		require.ErrorIs(t, err, unpack.ErrDanglingReference)
		var sectionErr *resolve.SectionError
		require.ErrorAs(t, err, &sectionErr)
		assert.Equal(t, 0, sectionErr.Section)
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		md, src := copyArchive(t, content, nil, 128)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newArchive(t, md, src).DecodeSection(ctx, 0)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("section out of range", func(t *testing.T) {
		t.Parallel()
		md, src := copyArchive(t, content, nil, 128)
		_, err := newArchive(t, md, src).DecodeSection(context.Background(), 1)
		require.ErrorIs(t, err, unpack.ErrInvalidArgument)
	})
}

func TestNew_Validates(t *testing.T) {
	t.Parallel()

	md, src := copyArchive(t, pattern(32, 1), nil, 32)

	_, err := unpack.New(md, nil)
	require.ErrorIs(t, err, unpack.ErrInvalidArgument)

	short := testutil.NewMockByteSource(src.Bytes()[:40])
	_, err = unpack.New(md, short)
	require.ErrorIs(t, err, unpack.ErrInvalidArgument)

	a, err := unpack.New(md, unpack.NewFileSource(bytes.NewReader(src.Bytes()), src.Size()))
	require.NoError(t, err)
	assert.Equal(t, 1, a.NumSections())
	assert.True(t, md.Equal(a.Metadata()))
}

func TestPlan_Memoized(t *testing.T) {
	t.Parallel()

	md, src := copyArchive(t, pattern(32, 1), nil, 32)
	a := newArchive(t, md, src)

	first, err := a.Plan(0)
	require.NoError(t, err)
	second, err := a.Plan(0)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestExtractSection_SubStreamChecksumIsolation(t *testing.T) {
	t.Parallel()

	content := pattern(300, 11)
	sums := []metadata.Checksum{
		testutil.CRC32(t, content[:100]),
		metadata.CRC32Checksum(0x12345678),
		testutil.SHA256(t, content[200:]),
	}
	md, src := copyArchive(t, content, sums, 100, 100, 100)
	a := newArchive(t, md, src)

	sink := unpack.NewMemorySink()
	stats, err := a.ExtractSection(context.Background(), 0, sink)
	require.ErrorIs(t, err, unpack.ErrChecksumMismatch)

	var sumErr *unpack.ChecksumError
	require.ErrorAs(t, err, &sumErr)
	assert.Equal(t, 0, sumErr.Section)
	assert.Equal(t, 1, sumErr.SubStream)
	assert.Equal(t, sums[1], sumErr.Want)
	assert.Equal(t, testutil.CRC32(t, content[100:200]), sumErr.Got)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, uint64(200), stats.TotalBytes)

	got, ok := sink.Get(0, 0)
	require.True(t, ok)
	assert.Equal(t, content[:100], got)
	_, ok = sink.Get(0, 1)
	assert.False(t, ok, "mismatched sub-stream must be withheld")
	got, ok = sink.Get(0, 2)
	require.True(t, ok)
	assert.Equal(t, content[200:], got)
}

func TestExtractSection_Filter(t *testing.T) {
	t.Parallel()

	content := pattern(90, 2)
	md, src := copyArchive(t, content, nil, 30, 30, 30)
	a := newArchive(t, md, src)

	sink := unpack.NewMemorySink().Filter(func(e unpack.Entry) bool { return e.Index != 1 })
	stats, err := a.ExtractSection(context.Background(), 0, sink)
	require.NoError(t, err)
	assert.Equal(t, unpack.Stats{Processed: 2, Skipped: 1, TotalBytes: 60}, stats)
	assert.Equal(t, 2, sink.Len())

	none := unpack.NewMemorySink().Filter(func(unpack.Entry) bool { return false })
	stats, err = a.ExtractSection(context.Background(), 0, none)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Skipped)
}

// writerSink only supports the Committer path.
type writerSink struct {
	mu        sync.Mutex
	committed map[int][]byte
	failAt    int
}

func (s *writerSink) ShouldProcess(unpack.Entry) bool { return true }

func (s *writerSink) Writer(e unpack.Entry) (unpack.Committer, error) {
	if e.Index == s.failAt {
		return nil, errors.New("disk full")
	}
	return &bufferCommitter{sink: s, index: e.Index}, nil
}

type bufferCommitter struct {
	bytes.Buffer
	sink  *writerSink
	index int
}

func (c *bufferCommitter) Commit() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.committed[c.index] = c.Bytes()
	return nil
}

func (c *bufferCommitter) Discard() error { return nil }

func TestExtractSection_CommitterSink(t *testing.T) {
	t.Parallel()

	content := pattern(60, 4)
	md, src := copyArchive(t, content, nil, 20, 20, 20)
	a := newArchive(t, md, src)

	sink := &writerSink{committed: map[int][]byte{}, failAt: -1}
	_, err := a.ExtractSection(context.Background(), 0, sink)
	require.NoError(t, err)
	assert.Equal(t, content[20:40], sink.committed[1])

	failing := &writerSink{committed: map[int][]byte{}, failAt: 1}
	stats, err := a.ExtractSection(context.Background(), 0, failing)
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 2, stats.Failed)
	assert.Len(t, failing.committed, 1)
}

func TestExtractSection_Cache(t *testing.T) {
	t.Parallel()

	content := pattern(400, 6)
	sums := []metadata.Checksum{
		testutil.SHA256(t, content[:150]),
		testutil.SHA256(t, content[150:300]),
		testutil.CRC32(t, content[300:]),
	}
	md, src := copyArchive(t, content, sums, 150, 150, 100)
	c := testutil.NewMockCache()

	stats, err := newArchive(t, md, src, unpack.WithCache(c)).ExtractSection(context.Background(), 0, unpack.NewMemorySink())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Cached)
	assert.Equal(t, 2, c.Len(), "only strong checksums are cache keys")

	// Every requested sub-stream is cached: the source is never read.
	fresh := testutil.NewMockByteSource(bytes.Clone(src.Bytes()))
	a := newArchive(t, md, fresh, unpack.WithCache(c))
	sink := unpack.NewMemorySink().Filter(func(e unpack.Entry) bool { return e.Index < 2 })
	stats, err = a.ExtractSection(context.Background(), 0, sink)
	require.NoError(t, err)
	assert.Equal(t, unpack.Stats{Processed: 2, Skipped: 1, Cached: 2, TotalBytes: 300}, stats)
	assert.Equal(t, int64(0), fresh.BytesRead())
	got, ok := sink.Get(0, 1)
	require.True(t, ok)
	assert.Equal(t, content[150:300], got)

	// One sub-stream is not cacheable, so the section is decoded.
	all := unpack.NewMemorySink()
	stats, err = a.ExtractSection(context.Background(), 0, all)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Cached)
	assert.Positive(t, fresh.BytesRead())
	assert.Equal(t, 3, all.Len())
}

func TestExtractSection_CorruptCacheEntry(t *testing.T) {
	t.Parallel()

	content := pattern(200, 8)
	sum := testutil.SHA256(t, content)
	md, src := copyArchive(t, content, []metadata.Checksum{sum}, 200)

	c := testutil.NewMockCache()
	require.NoError(t, c.Put(sum, bytes.NewReader([]byte("not the content"))))

	sink := unpack.NewMemorySink()
	stats, err := newArchive(t, md, src, unpack.WithCache(c)).ExtractSection(context.Background(), 0, sink)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Cached)
	assert.Equal(t, 1, stats.Processed)

	got, ok := sink.Get(0, 0)
	require.True(t, ok)
	assert.Equal(t, content, got)

	rc, ok := c.Get(sum)
	require.True(t, ok)
	defer rc.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, content, buf.Bytes(), "corrupt entry must be replaced")
}

func TestExtractSection_Progress(t *testing.T) {
	t.Parallel()

	content := pattern(90, 1)
	md, src := copyArchive(t, content, nil, 30, 60)

	var events []unpack.ProgressEvent
	a := newArchive(t, md, src, unpack.WithProgress(func(ev unpack.ProgressEvent) {
		events = append(events, ev)
	}))
	_, err := a.ExtractSection(context.Background(), 0, unpack.NewMemorySink())
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, unpack.StageResolving, events[0].Stage)
	assert.Equal(t, unpack.StageDecoding, events[1].Stage)
	last := events[3]
	assert.Equal(t, unpack.StageExtracting, last.Stage)
	assert.Equal(t, 1, last.SubStream)
	assert.Equal(t, uint64(90), last.BytesDone)
	assert.Equal(t, uint64(90), last.BytesTotal)
	assert.Equal(t, 2, last.SubStreamsDone)
	assert.Equal(t, "extracting", last.Stage.String())
}

// multiArchive has three good sections around one whose decoder reads a
// missing file section.
func multiArchive(t *testing.T) (metadata.Metadata, *testutil.MockByteSource, [][]byte) {
	t.Helper()
	arc := testutil.NewArchive()
	var contents [][]byte
	for i := range 4 {
		content := pattern(64*(i+1), byte(i))
		contents = append(contents, content)
		arc.Raw(content)
		s := arc.Section()
		input := i
		if i == 2 {
			input = 99
		}
		s.Decoder(metadata.MethodCopy, nil).InputSection(input).Output(int64(len(content)))
		s.RootDecoder(0, 0)
		s.SubStream(int64(len(content))).Checksum(testutil.SHA256(t, content))
	}
	md, src := arc.Build(t)
	return md, src, contents
}

func TestExtractAll_IsolatesFailures(t *testing.T) {
	t.Parallel()

	md, src, contents := multiArchive(t)
	a := newArchive(t, md, src, unpack.WithWorkers(2), unpack.WithMaxInFlightBytes(128))

	sink := unpack.NewMemorySink()
	stats, err := a.ExtractAll(context.Background(), sink)
	require.ErrorIs(t, err, unpack.ErrDanglingReference)
	var sectionErr *resolve.SectionError
	require.ErrorAs(t, err, &sectionErr)
	assert.Equal(t, 2, sectionErr.Section)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	for i, content := range contents {
		got, ok := sink.Get(i, 0)
		if i == 2 {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok, "section %d", i)
		assert.Equal(t, content, got)
	}
}

func TestExtractAll_Serial(t *testing.T) {
	t.Parallel()

	content := pattern(50, 3)
	md, src := copyArchive(t, content, nil, 50)
	stats, err := newArchive(t, md, src, unpack.WithWorkers(1)).ExtractAll(context.Background(), unpack.NewMemorySink())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
}

func TestExtractAll_Canceled(t *testing.T) {
	t.Parallel()

	md, src, _ := multiArchive(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := unpack.NewMemorySink()
	stats, err := newArchive(t, md, src).ExtractAll(ctx, sink)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 0, sink.Len())
}
