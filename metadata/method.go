package metadata

// Method identifies the compression method or filter a decoder applies.
//
// The zero value, MethodUndefined, is never valid in a decoder.
type Method uint8

const (
	MethodUndefined Method = iota
	MethodCopy
	MethodDelta
	MethodBCJ
	MethodBCJ2
	MethodPPC
	MethodIA64
	MethodARM
	MethodARMT
	MethodSPARC
	MethodLZMA
	MethodLZMA2
	MethodPPMD
	MethodDeflate
	MethodDeflate64
	MethodBZip2
	MethodZstd
	MethodLZ4
	MethodAES

	methodCount
)

type methodInfo struct {
	name string
	id   uint64
}

// methods maps each method to its name and the coder ID archive headers use.
var methods = [methodCount]methodInfo{
	MethodUndefined: {name: "undefined"},
	MethodCopy:      {name: "Copy", id: 0x00},
	MethodDelta:     {name: "Delta", id: 0x03},
	MethodBCJ:       {name: "BCJ", id: 0x03030103},
	MethodBCJ2:      {name: "BCJ2", id: 0x0303011B},
	MethodPPC:       {name: "PPC", id: 0x03030205},
	MethodIA64:      {name: "IA64", id: 0x03030401},
	MethodARM:       {name: "ARM", id: 0x03030501},
	MethodARMT:      {name: "ARMT", id: 0x03030701},
	MethodSPARC:     {name: "SPARC", id: 0x03030805},
	MethodLZMA:      {name: "LZMA", id: 0x030101},
	MethodLZMA2:     {name: "LZMA2", id: 0x21},
	MethodPPMD:      {name: "PPMD", id: 0x030401},
	MethodDeflate:   {name: "Deflate", id: 0x040108},
	MethodDeflate64: {name: "Deflate64", id: 0x040109},
	MethodBZip2:     {name: "BZip2", id: 0x040202},
	MethodZstd:      {name: "Zstd", id: 0x04F71101},
	MethodLZ4:       {name: "LZ4", id: 0x04F71104},
	MethodAES:       {name: "AES", id: 0x06F10701},
}

// Valid reports whether m is a recognized, defined method.
func (m Method) Valid() bool {
	return m > MethodUndefined && m < methodCount
}

// String returns the method name.
func (m Method) String() string {
	if m >= methodCount {
		return "unknown"
	}
	return methods[m].name
}

// ID returns the coder ID used for m in archive headers.
// ok is false for undefined or unknown methods.
func (m Method) ID() (id uint64, ok bool) {
	if !m.Valid() {
		return 0, false
	}
	return methods[m].id, true
}

// MethodFromID maps a header coder ID to a Method.
// It returns MethodUndefined for unknown IDs.
func MethodFromID(id uint64) Method {
	for m := MethodCopy; m < methodCount; m++ {
		if methods[m].id == id {
			return m
		}
	}
	return MethodUndefined
}

// ParseMethod maps a method name, as returned by String, to a Method.
// It returns MethodUndefined for unknown names.
func ParseMethod(name string) Method {
	for m := MethodCopy; m < methodCount; m++ {
		if methods[m].name == name {
			return m
		}
	}
	return MethodUndefined
}
