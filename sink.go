package unpack

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/meigma/unpack/metadata"
)

// Entry describes one sub-stream of a section's decoded stream.
type Entry struct {
	// Section is the section index.
	Section int
	// Index is the sub-stream index within the section.
	Index int
	// Offset is the sub-stream's position in the decoded stream.
	Offset int64
	// Length is the sub-stream's length in bytes.
	Length int64
	// Checksum is the declared checksum; zero when the sub-stream is
	// unverified.
	Checksum metadata.Checksum
}

// HasChecksum reports whether the entry carries a declared checksum.
func (e Entry) HasChecksum() bool {
	return !e.Checksum.IsZero()
}

// Sink receives decoded and verified sub-streams during extraction.
//
// Implementations determine where content is written and can filter which
// sub-streams to process. ExtractAll calls a Sink from several goroutines
// when it runs more than one worker.
type Sink interface {
	// ShouldProcess returns false if this sub-stream should be skipped.
	ShouldProcess(entry Entry) bool

	// Writer returns a writer for the entry's content. The returned
	// Committer has Commit called once the full content is written, or
	// Discard called on any error.
	Writer(entry Entry) (Committer, error)
}

// BufferedSink allows sinks to take verified content without copying.
//
// Implementations must not mutate the content slice.
type BufferedSink interface {
	PutBuffered(entry Entry, content []byte) error
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should stage writes until Commit is called.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}

// deliver hands verified content to sink.
func deliver(sink Sink, entry Entry, content []byte) error {
	if bs, ok := sink.(BufferedSink); ok {
		return bs.PutBuffered(entry, content)
	}
	w, err := sink.Writer(entry)
	if err != nil {
		return fmt.Errorf("open writer: %w", err)
	}
	if _, err := io.Copy(w, bytes.NewReader(content)); err != nil {
		w.Discard() //nolint:errcheck // best-effort cleanup after write failure
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type subStreamKey struct {
	section int
	index   int
}

// MemorySink collects sub-streams in memory. It is safe for concurrent use.
type MemorySink struct {
	mu      sync.RWMutex
	data    map[subStreamKey][]byte
	include func(Entry) bool
}

var (
	_ Sink         = (*MemorySink)(nil)
	_ BufferedSink = (*MemorySink)(nil)
)

// NewMemorySink returns an empty sink that accepts every sub-stream.
func NewMemorySink() *MemorySink {
	return &MemorySink{data: make(map[subStreamKey][]byte)}
}

// Filter restricts the sink to entries for which include returns true.
// It must be set before extraction starts.
func (s *MemorySink) Filter(include func(Entry) bool) *MemorySink {
	s.include = include
	return s
}

// ShouldProcess implements Sink.
func (s *MemorySink) ShouldProcess(entry Entry) bool {
	return s.include == nil || s.include(entry)
}

// Writer implements Sink.
func (s *MemorySink) Writer(entry Entry) (Committer, error) {
	return &memoryCommitter{sink: s, key: subStreamKey{entry.Section, entry.Index}}, nil
}

// PutBuffered implements BufferedSink. The content is copied.
func (s *MemorySink) PutBuffered(entry Entry, content []byte) error {
	s.store(subStreamKey{entry.Section, entry.Index}, bytes.Clone(content))
	return nil
}

func (s *MemorySink) store(key subStreamKey, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = content
}

// Get returns the content delivered for a sub-stream.
func (s *MemorySink) Get(section, index int) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[subStreamKey{section, index}]
	return data, ok
}

// Len returns the number of sub-streams delivered.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

type memoryCommitter struct {
	sink *MemorySink
	key  subStreamKey
	buf  bytes.Buffer
}

func (c *memoryCommitter) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *memoryCommitter) Commit() error {
	c.sink.store(c.key, c.buf.Bytes())
	return nil
}

func (c *memoryCommitter) Discard() error {
	c.buf.Reset()
	return nil
}
