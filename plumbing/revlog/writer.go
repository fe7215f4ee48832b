package revlog

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/format/idxfile"
	"github.com/go-hg/go-hg/plumbing/format/nodemap"
	"github.com/go-hg/go-hg/plumbing/format/patch"
	"github.com/go-hg/go-hg/storage/filesystem"
	"github.com/go-hg/go-hg/storage/filesystem/mmap"
	"github.com/go-hg/go-hg/utils/trace"
)

// DefaultMaxChainLength bounds the number of deltas between a revision
// written by a Writer and its snapshot.
const DefaultMaxChainLength = 1000

// ErrSplitRevlog is returned when appending to a revlog whose data is not
// stored in its index.
var ErrSplitRevlog = errors.New("appending to a non inline revlog is not supported")

// WriterOptions configures a Writer.
type WriterOptions struct {
	// GeneralDelta stores deltas against the first parent instead of the
	// previous revision. It is only used for new revlogs, existing ones
	// keep their own setting.
	GeneralDelta bool
	// MaxChainLength bounds delta chains, DefaultMaxChainLength when zero.
	MaxChainLength int
	// Requirements are used to load the current persisted node map.
	Requirements filesystem.Requirements
}

// Writer appends revisions to an inline revlog and keeps its persisted
// node map up to date. A Writer must not be shared, and nothing else may
// write to the same revlog while it is in use.
type Writer struct {
	store     *filesystem.Storage
	indexPath string
	options   WriterOptions
	flags     uint16

	buf []byte
	rl  *Revlog

	nodemap      *nodemap.NodeTree
	nodemapBytes mmap.Bytes
	docket       *nodemap.Docket
}

// NewWriter returns a Writer appending to the revlog whose index is at
// indexPath, creating it on the first Add if needed.
func NewWriter(store *filesystem.Storage, indexPath string, o WriterOptions) (*Writer, error) {
	if o.MaxChainLength <= 0 {
		o.MaxChainLength = DefaultMaxChainLength
	}

	buf, ok, err := store.ReadIfExists(indexPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", indexPath)
	}

	w := &Writer{
		store:     store,
		indexPath: indexPath,
		options:   o,
		buf:       buf,
		flags:     idxfile.FlagInline,
	}

	if o.GeneralDelta {
		w.flags |= idxfile.FlagGeneralDelta
	}

	w.rl = &Revlog{
		store:      store,
		indexPath:  indexPath,
		dataPath:   DataPath(indexPath),
		options:    Options{CacheEntries: 16},
		indexBytes: mmap.Owned(buf),
	}

	if err := w.rl.load(); err != nil {
		return nil, errors.Wrapf(err, "opening %s", indexPath)
	}

	if ok && !w.rl.IsEmpty() {
		w.flags = w.rl.index.Flags()
	}

	if err := w.loadNodemap(); err != nil {
		return nil, errors.CombineErrors(err, w.Close())
	}

	return w, nil
}

func (w *Writer) loadNodemap() error {
	d, data, err := nodemap.ReadDocket(w.store, w.indexPath, w.options.Requirements)
	if err != nil || d == nil {
		return err
	}

	nt, err := nodemap.LoadBytes(data, d.DataLength)
	if err == nil && w.rl.staleDocket(d) == "" {
		err = nt.InsertFrom(w.rl.index, d.TipRev+1)
		if err == nil {
			w.nodemap, w.nodemapBytes, w.docket = nt, data, d
			return nil
		}
	}

	// a stale node map is rebuilt by the next UpdateNodemap
	trace.NodeMap.Printf("not reusing nodemap of %s: %v", w.indexPath, err)
	return data.Close()
}

// Revlog returns a reader over the revisions written so far. It is only
// valid until the next Add.
func (w *Writer) Revlog() *Revlog {
	return w.rl
}

// Add appends a revision holding data with the given parents, and
// returns its revision and node. link is the changelog revision the
// revision belongs to. Adding data already stored with the same parents
// returns the existing revision.
func (w *Writer) Add(data []byte, p1, p2, link plumbing.Revision) (plumbing.Revision, plumbing.Node, error) {
	if !w.rl.IsEmpty() && !w.rl.index.IsInline() {
		return 0, plumbing.Node{}, errors.Wrapf(ErrSplitRevlog, "%s", w.indexPath)
	}

	p1Node, err := w.rl.Node(p1)
	if err != nil {
		return 0, plumbing.Node{}, plumbing.ParentOutOfRangeError(p1)
	}

	p2Node, err := w.rl.Node(p2)
	if err != nil {
		return 0, plumbing.Node{}, plumbing.ParentOutOfRangeError(p2)
	}

	node := plumbing.ComputeNode(data, p1Node, p2Node)
	if rev, err := w.rl.RevisionOf(node); err == nil && rev != plumbing.NullRevision {
		return rev, node, nil
	}

	rev := plumbing.Revision(w.rl.Len())
	base, payload, err := w.delta(rev, p1, data)
	if err != nil {
		return 0, plumbing.Node{}, err
	}

	chunk, err := compressChunk(payload)
	if err != nil {
		return 0, plumbing.Node{}, err
	}

	record := &idxfile.Record{
		CompressedLen:   uint32(len(chunk)),
		UncompressedLen: uint32(len(data)),
		BaseRevision:    base,
		LinkRevision:    link,
		P1:              p1,
		P2:              p2,
		Node:            node,
	}

	if prev, ok := w.rl.index.Entry(rev - 1); ok {
		record.Offset = prev.Offset() + uint64(prev.CompressedLen())
	}

	var out bytes.Buffer
	if err := idxfile.NewEncoder(&out, w.flags).Encode(rev, record); err != nil {
		return 0, plumbing.Node{}, err
	}
	out.Write(chunk)

	if err := w.store.Append(w.indexPath, out.Bytes()); err != nil {
		return 0, plumbing.Node{}, errors.Wrapf(err, "appending to %s", w.indexPath)
	}

	if err := w.reload(append(w.buf, out.Bytes()...)); err != nil {
		return 0, plumbing.Node{}, err
	}

	if w.nodemap != nil {
		if err := w.nodemap.Insert(w.rl.index, node, rev); err != nil {
			return 0, plumbing.Node{}, err
		}
	}

	trace.Revlog.Printf("%s: added revision %d, %d bytes stored, base %d", w.indexPath, rev, len(chunk), base)
	return rev, node, nil
}

// delta returns the base revision and the payload to store for a new
// revision rev holding data. The payload is data itself for a snapshot.
func (w *Writer) delta(rev, p1 plumbing.Revision, data []byte) (plumbing.Revision, []byte, error) {
	against := rev - 1
	if w.flags&idxfile.FlagGeneralDelta != 0 {
		against = p1
	}

	if against < 0 {
		return rev, data, nil
	}

	n, err := w.rl.chainLength(against)
	if err != nil {
		return 0, nil, err
	}

	if n+1 > w.options.MaxChainLength {
		return rev, data, nil
	}

	old, err := w.rl.RevisionData(against)
	if err != nil {
		return 0, nil, err
	}

	delta := patch.Diff(old, data).Encode()
	if len(delta) >= len(data) {
		return rev, data, nil
	}

	base := against
	if w.flags&idxfile.FlagGeneralDelta == 0 {
		e, _ := w.rl.index.Entry(against)
		base = e.BaseRevision()
	}

	return base, delta, nil
}

func (w *Writer) reload(buf []byte) error {
	idx, err := idxfile.NewIndex(buf)
	if err != nil {
		return err
	}

	w.buf = buf
	w.rl.indexBytes = mmap.Owned(buf)
	w.rl.index = idx
	return nil
}

// UpdateNodemap persists the node map of the revlog, appending to the
// current data file when possible.
func (w *Writer) UpdateNodemap() (*nodemap.Docket, error) {
	nt := w.nodemap
	if nt == nil {
		var err error
		if nt, err = nodemap.Build(w.rl.index); err != nil {
			return nil, err
		}
	}

	d, err := nodemap.Persist(w.store, w.indexPath, w.docket, nt, w.rl.index)
	if err != nil {
		return nil, err
	}

	if err := w.nodemapBytes.Close(); err != nil {
		return nil, err
	}

	w.nodemap, w.docket = nil, nil
	data, err := w.store.Open(nodemap.DataPath(nodemap.DocketPath(w.indexPath), d.UID))
	if err != nil {
		return nil, err
	}

	if w.nodemap, err = nodemap.LoadBytes(data, d.DataLength); err != nil {
		return nil, errors.CombineErrors(err, data.Close())
	}

	w.nodemapBytes, w.docket = data, d
	return d, nil
}

// Close releases the resources held by the Writer.
func (w *Writer) Close() error {
	return errors.CombineErrors(w.rl.Close(), w.nodemapBytes.Close())
}
