// Package metadata models how an archive's compressed content is organized.
//
// An archive stores raw byte ranges ([FileSection]) and one or more
// [Section] values, each a graph of [Decoder] nodes. Decoder inputs are
// [InputBinding] values naming either a file section or an output of another
// decoder in the same section. A section's root binding produces its decoded
// stream, which its [SubStream] list partitions into logical streams.
//
// Every type is an immutable value. Constructors validate eagerly and fail
// with [ErrInvalidArgument] or [ErrLengthMismatch]; a [Builder] defers the
// same checks to a single Build call. Cross references inside a section are
// validated by the resolve package, which also orders the graph.
package metadata
