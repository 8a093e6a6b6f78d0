package metadata

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"hash/crc32"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
)

// ChecksumAlgorithm names the digest used by a Checksum.
type ChecksumAlgorithm = digest.Algorithm

// Supported checksum algorithms.
const (
	// CRC32 is the IEEE CRC-32 used natively by archive headers.
	CRC32  ChecksumAlgorithm = "crc32"
	SHA256 ChecksumAlgorithm = digest.SHA256
	SHA512 ChecksumAlgorithm = digest.SHA512
	BLAKE3 ChecksumAlgorithm = "blake3"
)

var checksumSizes = map[ChecksumAlgorithm]int{
	CRC32:  crc32.Size,
	SHA256: sha256.Size,
	SHA512: sha512.Size,
	BLAKE3: 32,
}

// Checksum is a fixed-size digest of a byte range.
//
// Checksums are comparable with ==. The zero value is not a valid checksum;
// entities with an optional checksum report its presence separately.
type Checksum struct {
	d digest.Digest
}

// NewChecksum creates a checksum from a raw digest value.
func NewChecksum(alg ChecksumAlgorithm, sum []byte) (Checksum, error) {
	size, ok := checksumSizes[alg]
	if !ok {
		return Checksum{}, invalidf("unsupported checksum algorithm %q", alg)
	}
	if len(sum) != size {
		return Checksum{}, invalidf("%s checksum must be %d bytes, got %d", alg, size, len(sum))
	}
	return Checksum{d: digest.NewDigestFromEncoded(alg, hex.EncodeToString(sum))}, nil
}

// ParseChecksum parses the "algorithm:hex" form returned by String.
func ParseChecksum(s string) (Checksum, error) {
	alg, encoded, ok := strings.Cut(s, ":")
	if !ok {
		return Checksum{}, invalidf("checksum %q: missing algorithm", s)
	}
	if encoded != strings.ToLower(encoded) {
		return Checksum{}, invalidf("checksum %q: encoding must be lowercase hex", s)
	}
	sum, err := hex.DecodeString(encoded)
	if err != nil {
		return Checksum{}, invalidf("checksum %q: %v", s, err)
	}
	return NewChecksum(ChecksumAlgorithm(alg), sum)
}

// CRC32Checksum wraps an IEEE CRC-32 value as stored in archive headers.
func CRC32Checksum(v uint32) Checksum {
	var sum [crc32.Size]byte
	binary.BigEndian.PutUint32(sum[:], v)
	return Checksum{d: digest.NewDigestFromEncoded(CRC32, hex.EncodeToString(sum[:]))}
}

// ComputeChecksum digests data with the given algorithm.
func ComputeChecksum(alg ChecksumAlgorithm, data []byte) (Checksum, error) {
	h, err := newHash(alg)
	if err != nil {
		return Checksum{}, err
	}
	_, _ = h.Write(data) //nolint:errcheck // hash.Hash writes never fail
	return NewChecksum(alg, h.Sum(nil))
}

// Algorithm returns the digest algorithm.
func (c Checksum) Algorithm() ChecksumAlgorithm {
	return c.d.Algorithm()
}

// Sum returns the raw digest bytes.
func (c Checksum) Sum() []byte {
	sum, err := hex.DecodeString(c.d.Encoded())
	if err != nil {
		return nil
	}
	return sum
}

// Digest returns the checksum in go-digest form.
func (c Checksum) Digest() digest.Digest {
	return c.d
}

// String returns the "algorithm:hex" form.
func (c Checksum) String() string {
	return c.d.String()
}

// IsZero reports whether c is the zero value.
func (c Checksum) IsZero() bool {
	return c.d == ""
}

// Strong reports whether the algorithm is collision resistant enough to be
// used as a content address.
func (c Checksum) Strong() bool {
	switch c.Algorithm() {
	case SHA256, SHA512, BLAKE3:
		return true
	default:
		return false
	}
}

// NewHash returns a hash that produces digests comparable with c.
func (c Checksum) NewHash() (hash.Hash, error) {
	return newHash(c.Algorithm())
}

// Matches reports whether sum, as produced by NewHash, equals c.
func (c Checksum) Matches(sum []byte) bool {
	return !c.IsZero() && bytes.Equal(c.Sum(), sum)
}

// Verify digests data and compares it with c. It returns the computed
// checksum so callers can report what was found.
func (c Checksum) Verify(data []byte) (Checksum, bool) {
	got, err := ComputeChecksum(c.Algorithm(), data)
	if err != nil {
		return Checksum{}, false
	}
	return got, got == c
}

func newHash(alg ChecksumAlgorithm) (hash.Hash, error) {
	switch alg {
	case CRC32:
		return crc32.NewIEEE(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, invalidf("unsupported checksum algorithm %q", alg)
	}
}
