// Package unpack decodes archives described by a decoder graph.
//
// An archive stores raw byte ranges (file sections) and, per solid block
// (section), a graph of decoders that turns those ranges and each other's
// outputs into one decoded stream. The stream is the concatenation of the
// block's sub-streams, typically one per archived file.
//
// The structural model lives in [metadata], graph resolution in [resolve]
// and byte-level decoders in [codec]. This package ties them together:
// [Archive] resolves a section, executes its plan against a [ByteSource],
// checks every declared length and checksum, and hands verified sub-streams
// to a [Sink].
//
// # Quick Start
//
//	md, err := metafile.Decode(snapshot)
//	if err != nil {
//	    return err
//	}
//	f, err := os.Open("archive.7z")
//	if err != nil {
//	    return err
//	}
//	info, err := f.Stat()
//	if err != nil {
//	    return err
//	}
//	a, err := unpack.New(md, unpack.NewFileSource(f, info.Size()))
//	if err != nil {
//	    return err
//	}
//	sink := unpack.NewMemorySink()
//	stats, err := a.ExtractAll(ctx, sink)
//
// # Remote archives
//
// [github.com/meigma/unpack/http.Source] reads archives with HTTP range
// requests. Requests carry the extraction context, so canceling ctx aborts
// in-flight reads.
//
// # Caching
//
// With [WithCache], sub-streams that carry a strong checksum are served from
// a content-addressed cache. Cached content is verified on every hit; when
// every sub-stream a sink asks for is cached, the section is not decoded.
//
// # Integrity
//
// Structural problems (dangling references, cycles, inconsistent lengths)
// fail the affected section. A sub-stream whose checksum does not match is
// reported as a [*ChecksumError] and withheld from the sink; the rest of the
// section is still delivered.
package unpack
