package disk

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meigma/unpack/cache"
	"github.com/meigma/unpack/metadata"
)

func sha256Of(t *testing.T, content []byte) metadata.Checksum {
	t.Helper()
	sum, err := metadata.ComputeChecksum(metadata.SHA256, content)
	if err != nil {
		t.Fatalf("ComputeChecksum() error = %v", err)
	}
	return sum
}

func readEntry(t *testing.T, c *Cache, sum metadata.Checksum) []byte {
	t.Helper()
	rc, ok := c.Get(sum)
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return got
}

func TestCachePutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("hello")
	sum := sha256Of(t, content)

	if err := c.Put(sum, bytes.NewReader(content)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if got := readEntry(t, c, sum); !bytes.Equal(got, content) {
		t.Fatalf("Get() content = %q, want %q", got, content)
	}
	if got := c.SizeBytes(); got != int64(len(content)) {
		t.Fatalf("SizeBytes() = %d, want %d", got, len(content))
	}

	hexHash := hex.EncodeToString(sum.Sum())
	path := filepath.Join(dir, "sha256", hexHash[:defaultShardPrefixLen], hexHash)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file at %s: %v", path, err)
	}
}

func TestCachePutRejectsMismatchedContent(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sum := sha256Of(t, []byte("expected"))
	err = c.Put(sum, bytes.NewReader([]byte("tampered")))
	if !errors.Is(err, metadata.ErrChecksumMismatch) {
		t.Fatalf("Put() error = %v, want ErrChecksumMismatch", err)
	}
	if _, ok := c.Get(sum); ok {
		t.Fatal("Get() ok = true after rejected Put")
	}
	if got := c.SizeBytes(); got != 0 {
		t.Fatalf("SizeBytes() = %d, want 0", got)
	}
}

func TestCacheRejectsWeakKeys(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	weak := metadata.CRC32Checksum(0x0d4a1185)
	if err := c.Put(weak, bytes.NewReader([]byte("hello world"))); !errors.Is(err, cache.ErrWeakChecksum) {
		t.Fatalf("Put() error = %v, want ErrWeakChecksum", err)
	}
	if _, ok := c.Get(weak); ok {
		t.Fatal("Get() ok = true for weak key")
	}
	if err := c.Delete(metadata.Checksum{}); !errors.Is(err, cache.ErrWeakChecksum) {
		t.Fatalf("Delete() error = %v, want ErrWeakChecksum", err)
	}
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("delete me")
	sum := sha256Of(t, content)
	if err := c.Put(sum, bytes.NewReader(content)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Delete(sum); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := c.Get(sum); ok {
		t.Fatal("Get() ok = true after Delete")
	}
	if got := c.SizeBytes(); got != 0 {
		t.Fatalf("SizeBytes() = %d, want 0", got)
	}
	if err := c.Delete(sum); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestCacheShardDisable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithShardPrefixLen(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("flat")
	sum := sha256Of(t, content)
	if err := c.Put(sum, bytes.NewReader(content)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	hexHash := hex.EncodeToString(sum.Sum())
	path := filepath.Join(dir, "sha256", hexHash)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file at %s: %v", path, err)
	}
}

func TestCacheMaxBytesPrunesOldest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithMaxBytes(10))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first := []byte("aaaaaa")
	second := []byte("bbbbbb")
	firstSum := sha256Of(t, first)
	secondSum := sha256Of(t, second)

	if err := c.Put(firstSum, bytes.NewReader(first)); err != nil {
		t.Fatalf("Put(first) error = %v", err)
	}
	hexHash := hex.EncodeToString(firstSum.Sum())
	old := time.Now().Add(-time.Hour)
	firstPath := filepath.Join(dir, "sha256", hexHash[:defaultShardPrefixLen], hexHash)
	if err := os.Chtimes(firstPath, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if err := c.Put(secondSum, bytes.NewReader(second)); err != nil {
		t.Fatalf("Put(second) error = %v", err)
	}
	if _, ok := c.Get(firstSum); ok {
		t.Fatal("oldest entry should have been pruned")
	}
	if got := readEntry(t, c, secondSum); !bytes.Equal(got, second) {
		t.Fatalf("Get(second) = %q, want %q", got, second)
	}
	if got := c.SizeBytes(); got != int64(len(second)) {
		t.Fatalf("SizeBytes() = %d, want %d", got, len(second))
	}
}

func TestCacheSkipsOversizeContent(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir(), WithMaxBytes(4))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("too large")
	sum := sha256Of(t, content)
	if err := c.Put(sum, bytes.NewReader(content)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := c.Get(sum); ok {
		t.Fatal("oversize content should not be cached")
	}
}

func TestCachePruneAndReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, s := range []string{"one", "two", "three"} {
		content := []byte(s)
		if err := c.Put(sha256Of(t, content), bytes.NewReader(content)); err != nil {
			t.Fatalf("Put(%q) error = %v", s, err)
		}
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	if got, want := reopened.SizeBytes(), int64(len("onetwothree")); got != want {
		t.Fatalf("reopened SizeBytes() = %d, want %d", got, want)
	}

	freed, err := reopened.Prune(0)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if freed != int64(len("onetwothree")) {
		t.Fatalf("Prune() freed = %d, want %d", freed, len("onetwothree"))
	}
	if got := reopened.SizeBytes(); got != 0 {
		t.Fatalf("SizeBytes() after prune = %d, want 0", got)
	}
}

func TestNewInvalid(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") error = nil, want error")
	}
	if _, err := New(t.TempDir(), WithShardPrefixLen(-1)); err == nil {
		t.Fatal("New() with negative shard prefix error = nil, want error")
	}
	if _, err := New(t.TempDir(), WithMaxBytes(-1)); err == nil {
		t.Fatal("New() with negative max bytes error = nil, want error")
	}
}
