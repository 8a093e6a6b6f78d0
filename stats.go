package unpack

// Stats contains statistics from an extraction.
type Stats struct {
	// Processed is the number of sub-streams delivered to the sink,
	// including those served from the cache.
	Processed int

	// Skipped is the number of sub-streams skipped (ShouldProcess returned false).
	Skipped int

	// Cached is the number of delivered sub-streams served from the cache.
	Cached int

	// Failed is the number of sub-streams withheld because they failed
	// verification or their section could not be decoded.
	Failed int

	// TotalBytes is the sum of the lengths of all delivered sub-streams.
	TotalBytes uint64
}

// add accumulates stats from another Stats into this one.
func (s *Stats) add(other Stats) {
	s.Processed += other.Processed
	s.Skipped += other.Skipped
	s.Cached += other.Cached
	s.Failed += other.Failed
	s.TotalBytes += other.TotalBytes
}
