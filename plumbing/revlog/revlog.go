// Package revlog reads revision logs: append-only files holding every
// revision of a piece of history as a snapshot or a delta against a
// previous revision, indexed by revision number and by node.
package revlog

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/cache"
	"github.com/go-hg/go-hg/plumbing/format/idxfile"
	"github.com/go-hg/go-hg/plumbing/format/nodemap"
	"github.com/go-hg/go-hg/storage/filesystem"
	"github.com/go-hg/go-hg/storage/filesystem/mmap"
	"github.com/go-hg/go-hg/utils/trace"
)

const (
	indexExt = ".i"
	dataExt  = ".d"
)

// Options configures how a revlog is read.
type Options struct {
	// CacheEntries is the number of revision texts kept in memory. Zero
	// or less disables the cache.
	CacheEntries int
	// Metrics receives statistics about reads. It may be nil.
	Metrics *Metrics
	// UseNodemap loads the persisted node map of the revlog, if any, to
	// resolve nodes without scanning the index.
	UseNodemap bool
	// Requirements are the features of the repository the revlog belongs
	// to. Persisted node maps are only read with the persistent-nodemap
	// requirement.
	Requirements filesystem.Requirements
	// NodemapStorage reads the node map files, the revlog storage when
	// nil.
	NodemapStorage *filesystem.Storage
}

// Revlog is an open revision log. It is safe for concurrent reads.
type Revlog struct {
	store     *filesystem.Storage
	indexPath string
	dataPath  string
	options   Options

	indexBytes mmap.Bytes
	data       mmap.Bytes
	index      *idxfile.Index

	nodemap      *nodemap.NodeTree
	nodemapBytes mmap.Bytes
	docket       *nodemap.Docket

	cache *cache.BufferLRU
}

// DataPath returns the path of the data file paired with the index at
// indexPath.
func DataPath(indexPath string) string {
	return strings.TrimSuffix(indexPath, indexExt) + dataExt
}

// Open opens the revlog whose index is at indexPath in store. dataPath is
// the path of the data file, derived from indexPath when empty. A missing
// index is an empty revlog.
func Open(store *filesystem.Storage, indexPath, dataPath string, o Options) (*Revlog, error) {
	if dataPath == "" {
		dataPath = DataPath(indexPath)
	}

	indexBytes, ok, err := store.OpenIfExists(indexPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", indexPath)
	}

	if !ok {
		trace.Revlog.Printf("%s does not exist, using an empty revlog", indexPath)
	}

	r := &Revlog{
		store:      store,
		indexPath:  indexPath,
		dataPath:   dataPath,
		options:    o,
		indexBytes: indexBytes,
	}

	if err := r.load(); err != nil {
		return nil, errors.CombineErrors(errors.Wrapf(err, "opening %s", indexPath), r.Close())
	}

	return r, nil
}

func (r *Revlog) load() error {
	idx, err := idxfile.NewIndex(r.indexBytes.Bytes())
	if err != nil {
		return err
	}

	r.index = idx
	if r.options.CacheEntries > 0 {
		r.cache = cache.NewBufferLRU(r.options.CacheEntries, cache.DefaultMaxSize)
	}

	if !idx.IsInline() && !idx.IsEmpty() {
		data, ok, err := r.store.OpenIfExists(r.dataPath)
		if err != nil {
			return err
		}

		if !ok {
			trace.Revlog.Printf("%s does not exist, revision data will be unavailable", r.dataPath)
		}

		r.data = data
	}

	trace.Revlog.Printf("opened %s: %d revisions, inline %t, general delta %t",
		r.indexPath, idx.Len(), idx.IsInline(), idx.UsesGeneralDelta())

	if r.options.UseNodemap {
		return r.loadNodemap()
	}

	return nil
}

// loadNodemap loads the persisted node map and catches up with the
// revisions appended since it was written. An unusable node map is
// ignored, node lookups then scan the index.
func (r *Revlog) loadNodemap() error {
	store := r.options.NodemapStorage
	if store == nil {
		store = r.store
	}

	d, data, err := nodemap.ReadDocket(store, r.indexPath, r.options.Requirements)
	if err != nil || d == nil {
		return err
	}

	nt, err := nodemap.LoadBytes(data, d.DataLength)
	if err != nil {
		return errors.CombineErrors(err, data.Close())
	}

	if reason := r.staleDocket(d); reason != "" {
		trace.NodeMap.Printf("ignoring nodemap of %s: %s", r.indexPath, reason)
		r.options.Metrics.nodemapFallback()
		return data.Close()
	}

	if err := nt.InsertFrom(r.index, d.TipRev+1); err != nil {
		return errors.CombineErrors(err, data.Close())
	}

	r.nodemap = nt
	r.nodemapBytes = data
	r.docket = d
	return nil
}

func (r *Revlog) staleDocket(d *nodemap.Docket) string {
	if int(d.TipRev) >= r.index.Len() {
		return "tip revision " + d.TipRev.String() + " is not in the index"
	}

	node, ok := r.index.Node(d.TipRev)
	if !ok || !bytes.Equal(node.Bytes(), d.TipNode) {
		return "tip node does not match the index"
	}

	return ""
}

// Close releases the files of the revlog.
func (r *Revlog) Close() error {
	err := errors.CombineErrors(r.indexBytes.Close(), r.data.Close())
	err = errors.CombineErrors(err, r.nodemapBytes.Close())
	if r.cache != nil {
		r.cache.Clear()
	}

	return err
}

// IndexPath returns the path of the index file.
func (r *Revlog) IndexPath() string {
	return r.indexPath
}

// Index returns the parsed index.
func (r *Revlog) Index() *idxfile.Index {
	return r.index
}

// Nodemap returns the loaded persisted node map, nil if none is in use.
func (r *Revlog) Nodemap() *nodemap.NodeTree {
	return r.nodemap
}

// Docket returns the docket of the loaded node map, nil if none is in use.
func (r *Revlog) Docket() *nodemap.Docket {
	return r.docket
}

// Len returns the number of revisions.
func (r *Revlog) Len() int {
	return r.index.Len()
}

// IsEmpty tells whether the revlog holds no revision.
func (r *Revlog) IsEmpty() bool {
	return r.index.IsEmpty()
}

// HasRevision tells whether rev is stored in the revlog.
func (r *Revlog) HasRevision(rev plumbing.Revision) bool {
	return r.index.Has(rev)
}

// Entry returns the index entry of rev.
func (r *Revlog) Entry(rev plumbing.Revision) (*idxfile.Entry, error) {
	e, ok := r.index.Entry(rev)
	if !ok {
		return nil, plumbing.InvalidRevisionError(rev)
	}

	return e, nil
}

// Node returns the node of rev, NullNode for NullRevision.
func (r *Revlog) Node(rev plumbing.Revision) (plumbing.Node, error) {
	n, ok := r.index.Node(rev)
	if !ok {
		return plumbing.Node{}, plumbing.InvalidRevisionError(rev)
	}

	return n, nil
}

// Parents implements plumbing.Graph.
func (r *Revlog) Parents(rev plumbing.Revision) ([2]plumbing.Revision, error) {
	return r.index.Parents(rev)
}

var _ plumbing.Graph = (*Revlog)(nil)
