package http_test

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	unpackhttp "github.com/meigma/unpack/http"
)

func serveData(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "archive.7z", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSource_ReadAt(t *testing.T) {
	t.Parallel()

	data := []byte("hello world")
	server := serveData(t, data)

	src, err := unpackhttp.NewSource(context.Background(), server.URL, unpackhttp.WithConditionalHeaders())
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), src.Size())

	tests := []struct {
		name    string
		bufSize int
		offset  int64
		wantN   int
		wantErr error
		want    string
	}{
		{name: "read from middle", bufSize: 5, offset: 6, wantN: 5, want: "world"},
		{name: "read past end returns EOF", bufSize: 10, offset: int64(len(data) - 3), wantN: 3, wantErr: io.EOF, want: "rld"},
		{name: "offset at end", bufSize: 1, offset: int64(len(data)), wantN: 0, wantErr: io.EOF, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := make([]byte, tt.bufSize)
			n, err := src.ReadAt(buf, tt.offset)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantN, n)
			assert.Equal(t, tt.want, string(buf[:n]))
		})
	}

	_, err = src.ReadAt(make([]byte, 1), -1)
	assert.Error(t, err)
}

func TestSource_ReadRange(t *testing.T) {
	t.Parallel()

	data := []byte("0123456789abcdef")
	src, err := unpackhttp.NewSource(context.Background(), serveData(t, data).URL)
	require.NoError(t, err)

	rc, err := src.ReadRange(context.Background(), 4, 6)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "456789", string(got))

	rc, err = src.ReadRange(context.Background(), 12, 100)
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "cdef", string(got), "range clamped to content size")

	rc, err = src.ReadRange(context.Background(), 3, 0)
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = src.ReadRange(context.Background(), int64(len(data)), 1)
	assert.ErrorIs(t, err, io.EOF)

	_, err = src.ReadRange(context.Background(), 0, -1)
	assert.Error(t, err)
}

func TestSource_ReadRangeHonorsContext(t *testing.T) {
	t.Parallel()

	src, err := unpackhttp.NewSource(context.Background(), serveData(t, []byte("payload")).URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.ReadRange(ctx, 0, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSource_RangeUnsupported(t *testing.T) {
	t.Parallel()

	data := []byte("range unsupported")
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method == nethttp.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	_, err := unpackhttp.NewSource(context.Background(), server.URL)
	assert.ErrorIs(t, err, unpackhttp.ErrRangeNotSupported)
}

func TestNewSource_SizeMismatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method == nethttp.MethodHead {
			w.Header().Set("Content-Length", "99")
			return
		}
		w.Header().Set("Content-Range", "bytes 0-0/10")
		w.WriteHeader(nethttp.StatusPartialContent)
		_, _ = w.Write([]byte{0})
	}))
	t.Cleanup(server.Close)

	_, err := unpackhttp.NewSource(context.Background(), server.URL)
	assert.ErrorIs(t, err, unpackhttp.ErrSizeMismatch)
}

func TestSource_RetriesWithoutIfMatchOn412(t *testing.T) {
	t.Parallel()

	data := []byte("hello world")
	etag := `"retry-test"`
	var withIfMatchRange atomic.Int32
	var withoutIfMatchRange atomic.Int32

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.Method {
		case nethttp.MethodHead:
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.Header().Set("ETag", etag)
		case nethttp.MethodGet:
			if r.Header.Get("Range") == "bytes=6-10" {
				if r.Header.Get("If-Match") != "" {
					withIfMatchRange.Add(1)
					w.WriteHeader(nethttp.StatusPreconditionFailed)
					return
				}
				withoutIfMatchRange.Add(1)
			}
			w.Header().Set("ETag", etag)
			nethttp.ServeContent(w, r, "data", time.Time{}, bytes.NewReader(data))
		default:
			w.WriteHeader(nethttp.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(server.Close)

	src, err := unpackhttp.NewSource(context.Background(), server.URL, unpackhttp.WithConditionalHeaders())
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err := src.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))
	assert.Equal(t, int32(1), withIfMatchRange.Load())
	assert.Equal(t, int32(1), withoutIfMatchRange.Load())
}

func TestSource_SendsHeaders(t *testing.T) {
	t.Parallel()

	data := []byte("authorized")
	var unauthorized atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			unauthorized.Add(1)
			w.WriteHeader(nethttp.StatusUnauthorized)
			return
		}
		nethttp.ServeContent(w, r, "data", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)

	src, err := unpackhttp.NewSource(context.Background(), server.URL,
		unpackhttp.WithHeader("Authorization", "Bearer token"),
		unpackhttp.WithClient(server.Client()),
	)
	require.NoError(t, err)

	buf := make([]byte, len(data))
	n, err := src.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, data, buf[:n])
	assert.Zero(t, unauthorized.Load())
}
