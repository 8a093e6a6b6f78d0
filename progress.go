package unpack

// ProgressEvent represents a progress update during extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Section is the section being processed.
	Section int

	// SubStream is the sub-stream just delivered, or -1.
	SubStream int

	// BytesDone is the number of decoded bytes delivered in this section.
	BytesDone uint64

	// BytesTotal is the decoded length of the section.
	BytesTotal uint64

	// SubStreamsDone is the number of sub-streams handled in this section.
	SubStreamsDone int

	// SubStreamsTotal is the number of sub-streams the sink asked for.
	SubStreamsTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for extraction.
const (
	// StageResolving indicates the section's plan is being resolved.
	StageResolving ProgressStage = iota

	// StageDecoding indicates the section's decoders are running.
	StageDecoding

	// StageExtracting indicates sub-streams are being delivered.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageResolving:
		return "resolving"
	case StageDecoding:
		return "decoding"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
type ProgressFunc func(ProgressEvent)

func (a *Archive) report(ev ProgressEvent) {
	if a.progress != nil {
		a.progress(ev)
	}
}
