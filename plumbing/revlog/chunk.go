package revlog

import (
	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/internal/compression"
	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/format/idxfile"
)

// Chunk tags, the first byte of a stored chunk.
const (
	tagRaw          = 0
	tagUncompressed = 'u'
	tagZlib         = 'x'
	tagZstd         = 0x28
)

// rawChunk returns the stored bytes of e, still compressed.
func (r *Revlog) rawChunk(e *idxfile.Entry) ([]byte, error) {
	if r.index.IsInline() {
		b, ok := r.index.InlineData(e)
		if !ok {
			return nil, plumbing.CorruptedErrorf("no inline data for revision %d", e.Revision())
		}

		return b, nil
	}

	data := r.data.Bytes()
	start := e.Offset()
	end := start + uint64(e.CompressedLen())
	if end > uint64(len(data)) {
		return nil, plumbing.CorruptedErrorf("revision %d ends at %d, data file is %d bytes long",
			e.Revision(), end, len(data))
	}

	return data[start:end], nil
}

// decompressChunk returns the content of a stored chunk. A snapshot must
// decompress to exactly the uncompressed length recorded in its entry.
func decompressChunk(e *idxfile.Entry, raw []byte, snapshot bool) ([]byte, error) {
	if len(raw) == 0 {
		return []byte{}, nil
	}

	var algo compression.Algorithm
	switch raw[0] {
	case tagRaw:
		return raw, nil
	case tagUncompressed:
		return raw[1:], nil
	case tagZlib:
		algo = compression.Zlib
	case tagZstd:
		algo = compression.Zstd
	default:
		return nil, plumbing.UnknownDataFormatError(raw[0])
	}

	hint := len(raw)
	if snapshot {
		hint = int(e.UncompressedLen())
	}

	out, err := compression.Decompress(algo, raw, hint)
	if err != nil {
		return nil, errors.WithSecondaryError(
			plumbing.CorruptedErrorf("decompressing %s chunk of revision %d: %v", algo, e.Revision(), err),
			err,
		)
	}

	if snapshot && len(out) != int(e.UncompressedLen()) {
		return nil, plumbing.CorruptedErrorf("revision %d decompressed to %d bytes, %d expected",
			e.Revision(), len(out), e.UncompressedLen())
	}

	return out, nil
}

// compressChunk returns the stored form of data: zlib compressed when that
// is smaller, as is otherwise.
func compressChunk(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	compressed, err := compression.Compress(compression.Zlib, data)
	if err != nil {
		return nil, err
	}

	if len(compressed) < len(data) {
		return compressed, nil
	}

	if data[0] == tagRaw {
		return data, nil
	}

	out := make([]byte, 0, len(data)+1)
	out = append(out, tagUncompressed)
	return append(out, data...), nil
}
