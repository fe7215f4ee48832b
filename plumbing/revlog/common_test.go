package revlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/format/idxfile"
	"github.com/go-hg/go-hg/storage/filesystem"
)

const testIndexPath = "00changelog.i"

var nodemapRequirements = filesystem.Requirements{filesystem.PersistentNodemapRequirement: {}}

func newStorage() *filesystem.Storage {
	return filesystem.NewStorage(memfs.New(), filesystem.Options{})
}

// fixtureRevision describes a revision written by writeFixture.
type fixtureRevision struct {
	// text is the full text, used to compute the node.
	text []byte
	// chunk is the stored chunk, "u"+text when nil.
	chunk  []byte
	base   plumbing.Revision
	p1, p2 plumbing.Revision
	// node overrides the computed node when set.
	node string
}

func snapshot(rev plumbing.Revision, text string) fixtureRevision {
	p1 := rev - 1
	return fixtureRevision{text: []byte(text), base: rev, p1: p1, p2: plumbing.NullRevision}
}

// writeFixture writes a revlog made of revs, with the given header flags,
// and returns the nodes of its revisions.
func writeFixture(t *testing.T, store *filesystem.Storage, indexPath string, flags uint16, revs []fixtureRevision) []plumbing.Node {
	t.Helper()

	var index, data bytes.Buffer
	enc := idxfile.NewEncoder(&index, flags)
	nodes := make([]plumbing.Node, len(revs))
	offset := uint64(0)

	nodeOf := func(rev plumbing.Revision) plumbing.Node {
		if rev == plumbing.NullRevision {
			return plumbing.NullNode
		}
		return nodes[rev]
	}

	for i, fr := range revs {
		rev := plumbing.Revision(i)
		chunk := fr.chunk
		if chunk == nil {
			chunk = append([]byte{'u'}, fr.text...)
		}

		nodes[i] = plumbing.ComputeNode(fr.text, nodeOf(fr.p1), nodeOf(fr.p2))
		if fr.node != "" {
			nodes[i] = padNode(t, fr.node)
		}

		require.NoError(t, enc.Encode(rev, &idxfile.Record{
			Offset:          offset,
			CompressedLen:   uint32(len(chunk)),
			UncompressedLen: uint32(len(fr.text)),
			BaseRevision:    fr.base,
			LinkRevision:    rev,
			P1:              fr.p1,
			P2:              fr.p2,
			Node:            nodes[i],
		}))
		offset += uint64(len(chunk))

		if flags&idxfile.FlagInline != 0 {
			index.Write(chunk)
		} else {
			data.Write(chunk)
		}
	}

	require.NoError(t, store.WriteAtomic(indexPath, index.Bytes()))
	if flags&idxfile.FlagInline == 0 {
		require.NoError(t, store.WriteAtomic(DataPath(indexPath), data.Bytes()))
	}

	return nodes
}

// padNode pads hex with zeros on the right up to a full node.
func padNode(t testing.TB, hex string) plumbing.Node {
	t.Helper()

	n, err := plumbing.NodeFromHex(hex + strings.Repeat("0", plumbing.NodeHexSize-len(hex)))
	require.NoError(t, err)
	return n
}

func prefix(t testing.TB, hex string) plumbing.NodePrefix {
	t.Helper()

	p, err := plumbing.NodePrefixFromHex(hex)
	require.NoError(t, err)
	return p
}

func openRevlog(t *testing.T, store *filesystem.Storage, indexPath string, o Options) *Revlog {
	t.Helper()

	rl, err := Open(store, indexPath, "", o)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rl.Close()) })
	return rl
}

func newWriter(t *testing.T, store *filesystem.Storage, indexPath string, o WriterOptions) *Writer {
	t.Helper()

	w, err := NewWriter(store, indexPath, o)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, w.Close()) })
	return w
}

// generateTexts returns n texts, each one a small edit of the previous.
func generateTexts(n int) [][]byte {
	lines := []string{}
	for i := 0; i < 20; i++ {
		lines = append(lines, "line "+strings.Repeat("x", i))
	}

	texts := make([][]byte, n)
	for i := range texts {
		lines[i%len(lines)] = "edit " + strings.Repeat("y", i)
		texts[i] = []byte(strings.Join(lines, "\n") + "\n")
	}

	return texts
}
