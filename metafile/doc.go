// Package metafile stores archive metadata as a FlatBuffers snapshot.
//
// A header parser that has already built a metadata.Metadata can persist it
// with Encode and restore it with Decode without parsing the archive header
// again. Decode rebuilds every entity through the metadata constructors, so a
// decoded snapshot is validated exactly like freshly built metadata.
//
// The schema lives in schema/metadata.fbs.
package metafile

//go:generate flatc --go --go-namespace fb -o ../internal schema/metadata.fbs
