// Package idxfile implements reading and writing of revlog index files:
// one 64-byte record per revision, optionally interleaved with the
// revision data when the revlog is inline.
package idxfile

import (
	"encoding/binary"

	"github.com/go-hg/go-hg/plumbing"
	hgbinary "github.com/go-hg/go-hg/utils/binary"
)

const (
	// EntrySize is the size of an index record.
	EntrySize = 64

	// FlagInline tells that revision data follows each index record.
	FlagInline uint16 = 1 << 0
	// FlagGeneralDelta tells that deltas may be against any prior revision.
	FlagGeneralDelta uint16 = 1 << 1

	// VersionSupported is the only supported index format version.
	VersionSupported uint16 = 1
)

// Index is a parsed view over the bytes of a revlog index file.
type Index struct {
	bytes   []byte
	flags   uint16
	version uint16
	// starts holds the position of every record in inline indexes.
	starts []int
}

// NewIndex parses b. An empty b is a valid index without revisions. The
// returned Index borrows b, which must outlive it.
func NewIndex(b []byte) (*Index, error) {
	idx := &Index{bytes: b}
	if len(b) == 0 {
		return idx, nil
	}

	if len(b) < EntrySize {
		return nil, plumbing.CorruptedErrorf("index is %d bytes long, shorter than a record", len(b))
	}

	idx.flags = binary.BigEndian.Uint16(b[0:2])
	idx.version = binary.BigEndian.Uint16(b[2:4])
	if idx.version != VersionSupported {
		return nil, plumbing.UnsupportedVersionError(idx.version)
	}

	if !idx.IsInline() {
		if len(b)%EntrySize != 0 {
			return nil, plumbing.CorruptedErrorf("index length %d is not a multiple of %d", len(b), EntrySize)
		}

		return idx, nil
	}

	starts, err := scanInline(b)
	if err != nil {
		return nil, err
	}

	idx.starts = starts
	return idx, nil
}

func scanInline(b []byte) ([]int, error) {
	var starts []int
	offset := 0
	for offset+EntrySize <= len(b) {
		starts = append(starts, offset)
		compressed := binary.BigEndian.Uint32(b[offset+8 : offset+12])
		offset += EntrySize + int(compressed)
	}

	if offset != len(b) {
		return nil, plumbing.CorruptedErrorf("inline index ends at %d, data expected up to %d", len(b), offset)
	}

	return starts, nil
}

// IsInline tells whether revision data is stored in the index file.
func (idx *Index) IsInline() bool {
	return idx.flags&FlagInline != 0
}

// UsesGeneralDelta tells whether deltas may be computed against any prior
// revision instead of the previous one only.
func (idx *Index) UsesGeneralDelta() bool {
	return idx.flags&FlagGeneralDelta != 0
}

// Flags returns the header flags stored in the first record.
func (idx *Index) Flags() uint16 {
	return idx.flags
}

// Version returns the index format version, 0 for an empty index.
func (idx *Index) Version() uint16 {
	return idx.version
}

// Len returns the number of revisions.
func (idx *Index) Len() int {
	if idx.IsInline() {
		return len(idx.starts)
	}

	return len(idx.bytes) / EntrySize
}

// IsEmpty tells whether the index holds no revision.
func (idx *Index) IsEmpty() bool {
	return idx.Len() == 0
}

// Has tells whether rev is stored in the index.
func (idx *Index) Has(rev plumbing.Revision) bool {
	return rev >= 0 && int(rev) < idx.Len()
}

// Entry returns the record of rev. It returns false for NullRevision and
// revisions out of range.
func (idx *Index) Entry(rev plumbing.Revision) (*Entry, bool) {
	if !idx.Has(rev) {
		return nil, false
	}

	start := int(rev) * EntrySize
	if idx.IsInline() {
		start = idx.starts[rev]
	}

	e := &Entry{
		rev:    rev,
		record: idx.bytes[start : start+EntrySize],
	}

	if idx.IsInline() {
		e.inlineStart = start + EntrySize
	}

	return e, true
}

// Node returns the node of rev, NullNode for NullRevision.
func (idx *Index) Node(rev plumbing.Revision) (plumbing.Node, bool) {
	if rev == plumbing.NullRevision {
		return plumbing.NullNode, true
	}

	e, ok := idx.Entry(rev)
	if !ok {
		return plumbing.Node{}, false
	}

	return e.Node(), true
}

// Parents implements plumbing.Graph.
func (idx *Index) Parents(rev plumbing.Revision) ([2]plumbing.Revision, error) {
	if rev == plumbing.NullRevision {
		return [2]plumbing.Revision{plumbing.NullRevision, plumbing.NullRevision}, nil
	}

	e, ok := idx.Entry(rev)
	if !ok {
		return [2]plumbing.Revision{}, plumbing.ParentOutOfRangeError(rev)
	}

	return [2]plumbing.Revision{e.P1(), e.P2()}, nil
}

// InlineData returns the stored chunk of e in an inline index.
func (idx *Index) InlineData(e *Entry) ([]byte, bool) {
	if e.inlineStart == 0 {
		return nil, false
	}

	end := e.inlineStart + int(e.CompressedLen())
	return idx.bytes[e.inlineStart:end], true
}

var _ plumbing.Graph = (*Index)(nil)

// Entry is a single index record.
type Entry struct {
	rev         plumbing.Revision
	record      []byte
	inlineStart int
}

// Revision returns the revision number of the entry.
func (e *Entry) Revision() plumbing.Revision {
	return e.rev
}

// Offset returns the position of the revision chunk in the data file. It
// is always 0 for the first revision, whose record starts with the index
// header instead.
func (e *Entry) Offset() uint64 {
	if e.rev == 0 {
		return 0
	}

	return hgbinary.Uint48(e.record[0:6])
}

// Flags returns the per revision flags.
func (e *Entry) Flags() uint16 {
	return binary.BigEndian.Uint16(e.record[6:8])
}

// CompressedLen returns the length of the stored chunk.
func (e *Entry) CompressedLen() uint32 {
	return binary.BigEndian.Uint32(e.record[8:12])
}

// UncompressedLen returns the length of the chunk once decompressed, which
// is the full text length for snapshots.
func (e *Entry) UncompressedLen() uint32 {
	return binary.BigEndian.Uint32(e.record[12:16])
}

// BaseRevision returns the delta base, the entry itself for a snapshot.
func (e *Entry) BaseRevision() plumbing.Revision {
	return plumbing.Revision(hgbinary.Int32(e.record[16:20]))
}

// IsSnapshot tells whether the chunk holds a full text.
func (e *Entry) IsSnapshot() bool {
	return e.BaseRevision() == e.rev
}

// LinkRevision returns the changelog revision that introduced the entry.
func (e *Entry) LinkRevision() plumbing.Revision {
	return plumbing.Revision(hgbinary.Int32(e.record[20:24]))
}

// P1 returns the first parent.
func (e *Entry) P1() plumbing.Revision {
	return plumbing.Revision(hgbinary.Int32(e.record[24:28]))
}

// P2 returns the second parent.
func (e *Entry) P2() plumbing.Revision {
	return plumbing.Revision(hgbinary.Int32(e.record[28:32]))
}

// Node returns the node hash of the revision.
func (e *Entry) Node() plumbing.Node {
	var n plumbing.Node
	copy(n[:], e.record[32:32+plumbing.NodeSize])
	return n
}

// Record returns the decoded fields of the entry.
func (e *Entry) Record() Record {
	return Record{
		Offset:          e.Offset(),
		Flags:           e.Flags(),
		CompressedLen:   e.CompressedLen(),
		UncompressedLen: e.UncompressedLen(),
		BaseRevision:    e.BaseRevision(),
		LinkRevision:    e.LinkRevision(),
		P1:              e.P1(),
		P2:              e.P2(),
		Node:            e.Node(),
	}
}
