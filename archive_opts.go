package unpack

import (
	"log/slog"

	"github.com/meigma/unpack/cache"
	"github.com/meigma/unpack/codec"
)

// DefaultMaxStreamSize bounds any single decoded stream or decoder output.
const DefaultMaxStreamSize = 256 << 20

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for decode events.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithRegistry sets the engines used to run decoders.
// Defaults to codec.DefaultRegistry().
func WithRegistry(r *codec.Registry) Option {
	return func(a *Archive) {
		a.registry = r
	}
}

// WithWorkers sets how many sections ExtractAll processes at once.
// Values < 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(a *Archive) {
		a.workers = n
	}
}

// WithStepConcurrency sets how many independent decoders of one section may
// run at once. Defaults to 1 (serial).
func WithStepConcurrency(n int) Option {
	return func(a *Archive) {
		a.stepConcurrency = max(n, 1)
	}
}

// WithMaxStreamSize limits the size of every decoded stream, decoder output
// and raw input. Larger values fail with ErrSizeOverflow.
// Set limit to 0 to disable the limit. Defaults to DefaultMaxStreamSize.
func WithMaxStreamSize(limit int64) Option {
	return func(a *Archive) {
		a.maxStreamSize = max(limit, 0)
	}
}

// WithMaxInFlightBytes caps the decoded bytes ExtractAll holds across
// concurrently processed sections. A section larger than the cap runs alone.
// A value of 0 disables the budget.
func WithMaxInFlightBytes(limit int64) Option {
	return func(a *Archive) {
		a.maxInFlightBytes = max(limit, 0)
	}
}

// WithCache enables content-addressed caching of sub-streams.
//
// Sub-streams with a strong checksum are looked up before decoding and stored
// after verification. Cache errors never fail an extraction.
func WithCache(c cache.Cache) Option {
	return func(a *Archive) {
		a.cache = c
	}
}

// WithProgress sets a callback for extraction progress.
// The callback must be safe for concurrent use when ExtractAll runs more
// than one worker.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Archive) {
		a.progress = fn
	}
}
