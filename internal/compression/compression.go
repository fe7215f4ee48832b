// Package compression compresses and decompresses revlog chunks. The
// algorithm of a stored chunk is recognized from its first byte.
package compression

import (
	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/utils/sync"
)

// Algorithm is a chunk compression algorithm.
type Algorithm uint8

const (
	// Uncompressed chunks are stored as is.
	Uncompressed Algorithm = iota
	// Zlib chunks are zlib streams, starting with 'x'.
	Zlib
	// Zstd chunks are zstd frames, starting with 0x28.
	Zstd
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case Uncompressed:
		return "none"
	case Zlib:
		return "zlib"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseAlgorithm returns the algorithm named s, as found in configuration.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "none":
		return Uncompressed, nil
	case "zlib":
		return Zlib, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, errors.Newf("unknown compression engine %q", errors.Safe(s))
	}
}

// DefaultZstdLevel is the zstd level used when writing chunks.
const DefaultZstdLevel = 3

// Compress compresses src with a. It returns the input as is for
// Uncompressed.
func Compress(a Algorithm, src []byte) ([]byte, error) {
	switch a {
	case Uncompressed:
		return src, nil
	case Zlib:
		return compressZlib(src)
	case Zstd:
		return compressZstd(src)
	default:
		return nil, errors.Newf("unknown compression algorithm %d", errors.Safe(a))
	}
}

// Decompress decompresses src with a. sizeHint is the expected length of
// the output, used to size buffers; the output may differ from it.
func Decompress(a Algorithm, src []byte, sizeHint int) ([]byte, error) {
	switch a {
	case Uncompressed:
		return src, nil
	case Zlib:
		return decompressZlib(src, sizeHint)
	case Zstd:
		if len(src) == 0 {
			return nil, errors.New("decodeZstd: empty src buffer")
		}
		return decompressZstd(src, sizeHint)
	default:
		return nil, errors.Newf("unknown compression algorithm %d", errors.Safe(a))
	}
}

func compressZlib(src []byte) ([]byte, error) {
	return sync.Deflate(src)
}

func decompressZlib(src []byte, sizeHint int) ([]byte, error) {
	return sync.Inflate(src, sizeHint)
}
