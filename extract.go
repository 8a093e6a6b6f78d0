package unpack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/meigma/unpack/cache"
)

// Entries returns the sub-streams of section i in order.
func (a *Archive) Entries(i int) ([]Entry, error) {
	if i < 0 || i >= a.md.NumSections() {
		return nil, fmt.Errorf("unpack: %w: section %d out of range (%d sections)", ErrInvalidArgument, i, a.md.NumSections())
	}
	section := a.md.Section(i)
	offsets := section.SubStreamOffsets()
	entries := make([]Entry, section.NumSubStreams())
	for j := range entries {
		sub := section.SubStream(j)
		sum, _ := sub.Checksum()
		entries[j] = Entry{Section: i, Index: j, Offset: offsets[j], Length: sub.Length(), Checksum: sum}
	}
	return entries, nil
}

// ExtractSection decodes section i and delivers its sub-streams to sink.
//
// Each sub-stream is verified before delivery. A sub-stream that fails
// verification is withheld and reported as a *ChecksumError; the others are
// still delivered. With a cache configured, sub-streams are served from it
// when possible and the section is decoded only if something is missing.
// A sink error stops the section.
func (a *Archive) ExtractSection(ctx context.Context, i int, sink Sink) (Stats, error) {
	var stats Stats
	entries, err := a.Entries(i)
	if err != nil {
		return stats, err
	}

	var total uint64
	pending := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !sink.ShouldProcess(e) {
			stats.Skipped++
			continue
		}
		pending = append(pending, e)
		total += uint64(e.Length) //nolint:gosec // lengths are validated non-negative
	}
	if len(pending) == 0 {
		return stats, nil
	}

	p := &sectionProgress{a: a, section: i, total: total, count: len(pending)}
	p.emit(StageResolving, -1)
	if _, err := a.Plan(i); err != nil {
		stats.Failed += len(pending)
		return stats, err
	}

	pending, err = a.extractCached(pending, sink, &stats, p)
	if err != nil {
		return stats, err
	}
	if len(pending) == 0 {
		return stats, nil
	}

	p.emit(StageDecoding, -1)
	stream, err := a.DecodeSection(ctx, i)
	if err != nil {
		stats.Failed += len(pending)
		return stats, err
	}

	var errs []error
	for n, e := range pending {
		if err := ctx.Err(); err != nil {
			stats.Failed += len(pending) - n
			return stats, errors.Join(append(errs, err)...)
		}
		content := stream[e.Offset : e.Offset+e.Length]
		if e.HasChecksum() {
			if got, ok := e.Checksum.Verify(content); !ok {
				a.log().Warn("sub-stream checksum mismatch", "section", i, "sub_stream", e.Index, "want", e.Checksum, "got", got)
				stats.Failed++
				errs = append(errs, &ChecksumError{Section: i, SubStream: e.Index, Want: e.Checksum, Got: got})
				continue
			}
		}
		if err := deliver(sink, e, content); err != nil {
			stats.Failed += len(pending) - n
			return stats, errors.Join(append(errs, fmt.Errorf("unpack: section %d sub-stream %d: %w", i, e.Index, err))...)
		}
		stats.Processed++
		stats.TotalBytes += uint64(e.Length) //nolint:gosec // lengths are validated non-negative
		a.store(e, content)
		p.done(e)
	}
	return stats, errors.Join(errs...)
}

// extractCached delivers pending entries found in the cache and returns the
// entries still to decode.
func (a *Archive) extractCached(pending []Entry, sink Sink, stats *Stats, p *sectionProgress) ([]Entry, error) {
	if a.cache == nil {
		return pending, nil
	}
	missing := pending[:0:0]
	for n, e := range pending {
		content, ok := a.lookup(e)
		if !ok {
			missing = append(missing, e)
			continue
		}
		if err := deliver(sink, e, content); err != nil {
			stats.Failed += len(pending) - n
			return nil, fmt.Errorf("unpack: section %d sub-stream %d: %w", e.Section, e.Index, err)
		}
		stats.Processed++
		stats.Cached++
		stats.TotalBytes += uint64(e.Length) //nolint:gosec // lengths are validated non-negative
		p.done(e)
	}
	return missing, nil
}

// lookup returns verified cached content for e. Entries that fail
// verification are deleted.
func (a *Archive) lookup(e Entry) ([]byte, bool) {
	if cache.CheckKey(e.Checksum) != nil {
		return nil, false
	}
	rc, ok := a.cache.Get(e.Checksum)
	if !ok {
		return nil, false
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, e.Length+1))
	if err == nil && int64(len(content)) == e.Length {
		if _, match := e.Checksum.Verify(content); match {
			a.log().Debug("cache hit", "section", e.Section, "sub_stream", e.Index, "checksum", e.Checksum)
			return content, true
		}
	}
	a.log().Warn("discarding corrupt cache entry", "checksum", e.Checksum, "error", err)
	if err := a.cache.Delete(e.Checksum); err != nil {
		a.log().Warn("cache delete failed", "checksum", e.Checksum, "error", err)
	}
	return nil, false
}

// store writes verified content to the cache. Failures are logged.
func (a *Archive) store(e Entry, content []byte) {
	if a.cache == nil || cache.CheckKey(e.Checksum) != nil {
		return
	}
	if err := a.cache.Put(e.Checksum, bytes.NewReader(content)); err != nil {
		a.log().Warn("cache put failed", "section", e.Section, "sub_stream", e.Index, "error", err)
	}
}

// ExtractAll extracts every section to sink.
//
// Sections run as independent tasks, up to WithWorkers at once and within
// the WithMaxInFlightBytes budget. A failing section does not stop the
// others; every failure is returned joined. Canceling ctx stops sections
// that have not started and interrupts running ones between steps.
func (a *Archive) ExtractAll(ctx context.Context, sink Sink) (Stats, error) {
	var (
		mu    sync.Mutex
		stats Stats
		errs  []error
	)

	var budget *semaphore.Weighted
	if a.maxInFlightBytes > 0 {
		budget = semaphore.NewWeighted(a.maxInFlightBytes)
	}

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i := range a.md.NumSections() {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			weight := min(a.md.Section(i).Length(), a.maxInFlightBytes)
			if budget != nil {
				if err := budget.Acquire(ctx, weight); err != nil {
					return err
				}
				defer budget.Release(weight)
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			s, err := a.ExtractSection(ctx, i, sink)
			mu.Lock()
			defer mu.Unlock()
			stats.add(s)
			if err != nil {
				a.log().Debug("section extraction failed", "section", i, "error", err)
				errs = append(errs, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	} else if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return stats, errors.Join(errs...)
}

// sectionProgress reports progress events for one section.
type sectionProgress struct {
	a       *Archive
	section int
	total   uint64
	count   int

	bytesDone      uint64
	subStreamsDone int
}

func (p *sectionProgress) emit(stage ProgressStage, subStream int) {
	p.a.report(ProgressEvent{
		Stage:           stage,
		Section:         p.section,
		SubStream:       subStream,
		BytesDone:       p.bytesDone,
		BytesTotal:      p.total,
		SubStreamsDone:  p.subStreamsDone,
		SubStreamsTotal: p.count,
	})
}

func (p *sectionProgress) done(e Entry) {
	p.bytesDone += uint64(e.Length) //nolint:gosec // lengths are validated non-negative
	p.subStreamsDone++
	p.emit(StageExtracting, e.Index)
}
