// Package testutil provides in-memory fakes and archive fixtures for tests.
package testutil

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/meigma/unpack/cache"
	"github.com/meigma/unpack/metadata"
)

// MockByteSource implements a simple in-memory byte source for tests.
// It counts bytes read so tests can assert that work was skipped.
type MockByteSource struct {
	data      []byte
	bytesRead atomic.Int64
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	m.bytesRead.Add(int64(n))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// BytesRead returns the number of bytes served so far.
func (m *MockByteSource) BytesRead() int64 {
	return m.bytesRead.Load()
}

// MockCache implements cache.Cache in memory. It has no size limit.
type MockCache struct {
	mu   sync.RWMutex
	data map[metadata.Checksum][]byte
	hits atomic.Int64
}

var _ cache.Cache = (*MockCache)(nil)

// NewMockCache constructs an empty in-memory cache.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[metadata.Checksum][]byte)}
}

// Get retrieves content by checksum.
func (c *MockCache) Get(sum metadata.Checksum) (io.ReadCloser, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.data[sum]
	if !ok {
		return nil, false
	}
	c.hits.Add(1)
	return io.NopCloser(bytes.NewReader(data)), true
}

// Put stores content by checksum without verifying it, so tests can plant
// corrupt entries.
func (c *MockCache) Put(sum metadata.Checksum, r io.Reader) error {
	if err := cache.CheckKey(sum); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[sum] = data
	return nil
}

// Delete removes content by checksum.
func (c *MockCache) Delete(sum metadata.Checksum) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, sum)
	return nil
}

// MaxBytes returns 0 (unlimited).
func (c *MockCache) MaxBytes() int64 { return 0 }

// SizeBytes returns the total size of stored content.
func (c *MockCache) SizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, data := range c.data {
		total += int64(len(data))
	}
	return total
}

// Prune drops every entry when the cache exceeds targetBytes.
func (c *MockCache) Prune(targetBytes int64) (int64, error) {
	size := c.SizeBytes()
	if size <= targetBytes {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
	return size, nil
}

// Len returns the number of entries.
func (c *MockCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Hits returns the number of successful Get calls.
func (c *MockCache) Hits() int64 {
	return c.hits.Load()
}

// Archive lays out raw file sections in memory while recording metadata.
type Archive struct {
	*metadata.Builder
	data []byte
}

// NewArchive returns an empty archive fixture.
func NewArchive() *Archive {
	return &Archive{Builder: metadata.NewBuilder()}
}

// Raw appends data to the archive body and records it as a file section.
func (a *Archive) Raw(data []byte) *metadata.FileSectionBuilder {
	fs := a.FileSection(int64(len(a.data)), int64(len(data)))
	a.data = append(a.data, data...)
	return fs
}

// Pad appends n filler bytes that no file section covers.
func (a *Archive) Pad(n int) {
	a.data = append(a.data, make([]byte, n)...)
}

// Bytes returns the archive body.
func (a *Archive) Bytes() []byte {
	return a.data
}

// Build returns the metadata and a byte source over the body.
func (a *Archive) Build(t testing.TB) (metadata.Metadata, *MockByteSource) {
	t.Helper()
	md, err := a.Builder.Build()
	if err != nil {
		t.Fatalf("build metadata: %v", err)
	}
	return md, NewMockByteSource(bytes.Clone(a.data))
}

// SHA256 returns the SHA-256 checksum of data.
func SHA256(t testing.TB, data []byte) metadata.Checksum {
	t.Helper()
	return compute(t, metadata.SHA256, data)
}

// CRC32 returns the CRC-32 checksum of data.
func CRC32(t testing.TB, data []byte) metadata.Checksum {
	t.Helper()
	return compute(t, metadata.CRC32, data)
}

func compute(t testing.TB, alg metadata.ChecksumAlgorithm, data []byte) metadata.Checksum {
	t.Helper()
	sum, err := metadata.ComputeChecksum(alg, data)
	if err != nil {
		t.Fatalf("compute %s checksum: %v", alg, err)
	}
	return sum
}

// Zstd compresses data into a single zstd frame.
func Zstd(t testing.TB, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}
