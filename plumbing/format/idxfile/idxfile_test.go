package idxfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/go-hg/go-hg/plumbing"
)

type IndexSuite struct {
	suite.Suite
}

func TestIndexSuite(t *testing.T) {
	suite.Run(t, new(IndexSuite))
}

func node(b byte) plumbing.Node {
	var n plumbing.Node
	for i := range n {
		n[i] = b
	}
	return n
}

// buildIndex encodes one record per chunk, interleaving chunks when inline.
func buildIndex(t testing.TB, flags uint16, chunks [][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc := NewEncoder(&buf, flags)
	offset := uint64(0)
	for i, c := range chunks {
		rev := plumbing.Revision(i)
		p1 := rev - 1
		r := &Record{
			Offset:          offset,
			CompressedLen:   uint32(len(c)),
			UncompressedLen: uint32(len(c)) + 1,
			BaseRevision:    rev,
			LinkRevision:    rev,
			P1:              p1,
			P2:              plumbing.NullRevision,
			Node:            node(byte(i + 1)),
		}
		require.NoError(t, enc.Encode(rev, r))
		if flags&FlagInline != 0 {
			buf.Write(c)
		}
		offset += uint64(len(c))
	}

	return buf.Bytes()
}

func (s *IndexSuite) TestEmpty() {
	idx, err := NewIndex(nil)
	s.NoError(err)
	s.Equal(0, idx.Len())
	s.True(idx.IsEmpty())
	s.False(idx.IsInline())

	_, ok := idx.Entry(0)
	s.False(ok)
}

func (s *IndexSuite) TestSeparated() {
	b := buildIndex(s.T(), FlagGeneralDelta, [][]byte{[]byte("abc"), []byte("defgh"), []byte("ij")})
	s.Len(b, 3*EntrySize)

	idx, err := NewIndex(b)
	s.NoError(err)
	s.Equal(3, idx.Len())
	s.False(idx.IsInline())
	s.True(idx.UsesGeneralDelta())
	s.Equal(VersionSupported, idx.Version())

	e0, ok := idx.Entry(0)
	s.True(ok)
	s.Equal(uint64(0), e0.Offset())
	s.Equal(uint32(3), e0.CompressedLen())
	s.Equal(uint32(4), e0.UncompressedLen())
	s.True(e0.IsSnapshot())
	s.Equal(plumbing.NullRevision, e0.P1())
	s.Equal(node(1), e0.Node())

	e2, ok := idx.Entry(2)
	s.True(ok)
	s.Equal(uint64(8), e2.Offset())
	s.Equal(plumbing.Revision(1), e2.P1())
	s.Equal(plumbing.NullRevision, e2.P2())
	s.Equal(plumbing.Revision(2), e2.LinkRevision())

	_, ok = idx.InlineData(e2)
	s.False(ok)

	_, ok = idx.Entry(3)
	s.False(ok)
	_, ok = idx.Entry(plumbing.NullRevision)
	s.False(ok)
}

func (s *IndexSuite) TestInline() {
	chunks := [][]byte{[]byte("first"), {}, []byte("third chunk")}
	b := buildIndex(s.T(), FlagInline, chunks)

	idx, err := NewIndex(b)
	s.NoError(err)
	s.True(idx.IsInline())
	s.False(idx.UsesGeneralDelta())
	s.Equal(3, idx.Len())

	for i, c := range chunks {
		e, ok := idx.Entry(plumbing.Revision(i))
		s.True(ok)

		data, ok := idx.InlineData(e)
		s.True(ok)
		s.Equal(c, data)
		s.Equal(node(byte(i+1)), e.Node())
	}
}

func (s *IndexSuite) TestInlineCorrupted() {
	b := buildIndex(s.T(), FlagInline, [][]byte{[]byte("first"), []byte("second")})

	_, err := NewIndex(b[:len(b)-1])
	s.ErrorIs(err, plumbing.ErrCorrupted)

	_, err = NewIndex(append(b, 0))
	s.ErrorIs(err, plumbing.ErrCorrupted)
}

func (s *IndexSuite) TestSeparatedCorrupted() {
	b := buildIndex(s.T(), 0, [][]byte{[]byte("first"), []byte("second")})

	_, err := NewIndex(b[:len(b)-3])
	s.ErrorIs(err, plumbing.ErrCorrupted)

	_, err = NewIndex(b[:10])
	s.ErrorIs(err, plumbing.ErrCorrupted)
}

func (s *IndexSuite) TestUnsupportedVersion() {
	b := buildIndex(s.T(), 0, [][]byte{[]byte("first")})
	binary.BigEndian.PutUint16(b[2:4], 2)

	_, err := NewIndex(b)
	s.ErrorIs(err, plumbing.ErrUnsupportedVersion)
}

func (s *IndexSuite) TestParents() {
	b := buildIndex(s.T(), 0, [][]byte{[]byte("a"), []byte("b")})
	idx, err := NewIndex(b)
	s.NoError(err)

	p, err := idx.Parents(1)
	s.NoError(err)
	s.Equal([2]plumbing.Revision{0, plumbing.NullRevision}, p)

	p, err = idx.Parents(plumbing.NullRevision)
	s.NoError(err)
	s.Equal([2]plumbing.Revision{plumbing.NullRevision, plumbing.NullRevision}, p)

	_, err = idx.Parents(2)
	s.ErrorIs(err, plumbing.ErrParentOutOfRange)

	n, ok := idx.Node(plumbing.NullRevision)
	s.True(ok)
	s.True(n.IsNull())
}

func TestEncoderRecordRoundTrip(t *testing.T) {
	r := Record{
		Offset:          0x0102030405,
		Flags:           0x8000,
		CompressedLen:   10,
		UncompressedLen: 20,
		BaseRevision:    0,
		LinkRevision:    7,
		P1:              0,
		P2:              plumbing.NullRevision,
		Node:            node(0xab),
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf, FlagGeneralDelta)
	first := r
	first.Offset = 0
	first.CompressedLen = 0
	first.BaseRevision = 0
	require.NoError(t, enc.Encode(0, &first))
	r.BaseRevision = 1
	require.NoError(t, enc.Encode(1, &r))
	assert.Error(t, enc.Encode(plumbing.NullRevision, &r))

	raw := buf.Bytes()
	assert.Equal(t, []byte{0x00, 0x02, 0x00, 0x01}, raw[0:4])

	idx, err := NewIndex(raw)
	require.NoError(t, err)

	e, ok := idx.Entry(1)
	require.True(t, ok)
	assert.Equal(t, r, e.Record())
}
