// Package http reads archives over HTTP range requests.
package http //nolint:revive // intentional naming for domain clarity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"strconv"
	"strings"
)

var (
	// ErrRangeNotSupported is returned when the server ignores Range headers.
	ErrRangeNotSupported = errors.New("http: range requests not supported")

	// ErrSizeMismatch is returned when the server reports inconsistent sizes.
	ErrSizeMismatch = errors.New("http: content size mismatch")
)

// Source implements random access reads via HTTP range requests.
// It satisfies unpack.ByteSource (io.ReaderAt plus Size) and
// unpack.RangeReader.
type Source struct {
	url                   string
	client                *nethttp.Client
	headers               nethttp.Header
	logger                *slog.Logger
	size                  int64
	etag                  string
	lastModified          string
	useConditionalHeaders bool
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithConditionalHeaders enables conditional range reads using ETag or Last-Modified.
// This is disabled by default because some servers reject conditional range requests.
func WithConditionalHeaders() Option {
	return func(s *Source) {
		s.useConditionalHeaders = true
	}
}

// WithLogger sets the logger for request events.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a Source backed by HTTP range requests.
// It probes the remote to determine the content size.
func NewSource(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:    url,
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	if err := s.fetchMetadata(ctx); err != nil {
		return nil, err
	}
	s.logger.Debug("http source opened", "url", s.url, "size", s.size, "etag", s.etag)
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// ReadRange returns a reader for the byte range [off, off+length).
// It returns an error if offset or length is negative. If the offset is at or
// beyond the content size, it returns io.EOF. The returned reader must be closed
// by the caller to release the underlying HTTP connection.
func (s *Source) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if length < 0 {
		return nil, fmt.Errorf("http: read range length %d: negative length", length)
	}
	if off < 0 {
		return nil, fmt.Errorf("http: read range %d: negative offset", off)
	}
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	if off >= s.size {
		return io.NopCloser(bytes.NewReader(nil)), io.EOF
	}
	length = min(length, s.size-off)

	body, err := s.fetch(ctx, off, off+length-1)
	if err != nil {
		return nil, err
	}
	return &rangeReadCloser{body: body, reader: io.LimitReader(body, length)}, nil
}

// ReadAt reads len(p) bytes from the remote at the given offset.
// It implements [io.ReaderAt]. If fewer bytes are available than requested, it returns
// the number of bytes read along with io.EOF.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("http: read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}
	expected := int(min(int64(len(p)), s.size-off))

	body, err := s.fetch(context.Background(), off, off+int64(expected)-1)
	if err != nil {
		return 0, err
	}
	defer drain(body)

	n, err := io.ReadFull(body, p[:expected])
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// fetch issues a range GET for [off, end] and returns the body of a partial
// content response. A 412 caused by conditional headers is retried once
// without them.
func (s *Source) fetch(ctx context.Context, off, end int64) (io.ReadCloser, error) {
	resp, err := s.rangeRequest(ctx, off, end, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == nethttp.StatusPreconditionFailed && s.hasConditionalHeaders() {
		drain(resp.Body)
		s.logger.Debug("conditional range rejected, retrying", "url", s.url, "offset", off)
		resp, err = s.rangeRequest(ctx, off, end, false)
		if err != nil {
			return nil, err
		}
	}

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		s.logger.Debug("range read", "url", s.url, "offset", off, "length", end-off+1)
		return resp.Body, nil
	case nethttp.StatusRequestedRangeNotSatisfiable:
		drain(resp.Body)
		return nil, io.EOF
	case nethttp.StatusOK:
		drain(resp.Body)
		return nil, ErrRangeNotSupported
	default:
		drain(resp.Body)
		return nil, fmt.Errorf("http: range request failed: %s", resp.Status)
	}
}

// fetchMetadata retrieves content size and cache validators from the remote server.
// It first attempts a HEAD request, then verifies with a range probe.
func (s *Source) fetchMetadata(ctx context.Context) error {
	headSize := int64(-1)
	if resp, err := s.do(ctx, nethttp.MethodHead, nil, false); err == nil {
		headSize = resp.ContentLength
		s.etag = resp.Header.Get("ETag")
		s.lastModified = resp.Header.Get("Last-Modified")
		drain(resp.Body)
	}

	resp, err := s.do(ctx, nethttp.MethodGet, map[string]string{"Range": "bytes=0-0"}, false)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusOK:
		return ErrRangeNotSupported
	default:
		return fmt.Errorf("http: range probe failed: %s", resp.Status)
	}

	crange := resp.Header.Get("Content-Range")
	if crange == "" {
		return errors.New("http: range probe missing Content-Range")
	}
	size, err := parseContentRange(crange)
	if err != nil {
		return err
	}
	if headSize > 0 && headSize != size {
		return fmt.Errorf("%w: head=%d range=%d", ErrSizeMismatch, headSize, size)
	}
	if s.etag == "" {
		s.etag = resp.Header.Get("ETag")
	}
	if s.lastModified == "" {
		s.lastModified = resp.Header.Get("Last-Modified")
	}
	s.size = size
	return nil
}

// do sends a request with the configured headers plus extra.
func (s *Source) do(ctx context.Context, method string, extra map[string]string, withConditions bool) (*nethttp.Response, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, s.url, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}
	if method == nethttp.MethodGet && withConditions && s.useConditionalHeaders {
		if s.etag != "" && req.Header.Get("If-Match") == "" {
			req.Header.Set("If-Match", s.etag)
		}
		if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
			req.Header.Set("If-Unmodified-Since", s.lastModified)
		}
	}
	return s.client.Do(req)
}

func (s *Source) rangeRequest(ctx context.Context, off, end int64, withConditions bool) (*nethttp.Response, error) {
	return s.do(ctx, nethttp.MethodGet, map[string]string{"Range": fmt.Sprintf("bytes=%d-%d", off, end)}, withConditions)
}

// hasConditionalHeaders reports whether conditional headers are enabled and available.
func (s *Source) hasConditionalHeaders() bool {
	return s.useConditionalHeaders && (s.etag != "" || s.lastModified != "")
}

// rangeReadCloser limits reads to the requested range and drains the body
// on close so the connection can be reused.
type rangeReadCloser struct {
	body   io.ReadCloser
	reader io.Reader
}

func (r *rangeReadCloser) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r *rangeReadCloser) Close() error {
	_, _ = io.Copy(io.Discard, r.body) //nolint:errcheck // best-effort drain for connection reuse
	return r.body.Close()
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body) //nolint:errcheck // best-effort drain for connection reuse
	_ = body.Close()
}

// parseContentRange extracts the total size from a Content-Range header value
// of the form "bytes start-end/size".
func parseContentRange(value string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes ")
	if !ok {
		return 0, fmt.Errorf("http: invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("http: invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("http: invalid Content-Range %q", value)
	}
	return size, nil
}
