package revlog

import (
	"bytes"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/format/idxfile"
	"github.com/go-hg/go-hg/plumbing/format/patch"
	"github.com/go-hg/go-hg/utils/trace"
)

// RevisionData returns the full text of rev, rebuilt from its delta chain
// and checked against its node. NullRevision has an empty text.
func (r *Revlog) RevisionData(rev plumbing.Revision) ([]byte, error) {
	switch rev {
	case plumbing.NullRevision:
		return []byte{}, nil
	case plumbing.WorkingDirectoryRevision:
		return nil, plumbing.ErrWorkingDirectoryUnsupported
	}

	if trace.Enabled(trace.Performance) {
		start := time.Now()
		defer func() {
			trace.Performance.WithFields(logrus.Fields{
				"revlog":   r.indexPath,
				"revision": int32(rev),
				"duration": time.Since(start),
			}, "revision data")
		}()
	}

	e, ok := r.index.Entry(rev)
	if !ok {
		return nil, plumbing.InvalidRevisionError(rev)
	}

	if text, ok := r.cached(rev); ok {
		r.options.Metrics.cacheHit()
		r.options.Metrics.revisionRead(0)
		return bytes.Clone(text), nil
	}

	base, chain, err := r.deltaChain(e)
	if err != nil {
		return nil, err
	}

	text, err := r.applyChain(base, chain)
	if err != nil {
		return nil, err
	}

	if err := r.CheckHash(e, text); err != nil {
		return nil, err
	}

	r.options.Metrics.revisionRead(len(chain))
	if r.cache != nil {
		r.cache.Put(rev, text)
		return bytes.Clone(text), nil
	}

	return text, nil
}

func (r *Revlog) cached(rev plumbing.Revision) ([]byte, bool) {
	if r.cache == nil {
		return nil, false
	}

	return r.cache.Get(rev)
}

// deltaChain returns the text the deltas of e apply to and the entries of
// those deltas, newest first. The text is the one of the chain snapshot,
// or the one of a cached revision met on the way.
func (r *Revlog) deltaChain(e *idxfile.Entry) ([]byte, []*idxfile.Entry, error) {
	var chain []*idxfile.Entry
	generalDelta := r.index.UsesGeneralDelta()

	for cur := e; ; {
		if cur != e {
			if text, ok := r.cached(cur.Revision()); ok {
				r.options.Metrics.cacheHit()
				return text, chain, nil
			}
		}

		if cur.IsSnapshot() {
			text, err := r.chunk(cur, true)
			return text, chain, err
		}

		chain = append(chain, cur)

		next := cur.Revision() - 1
		if generalDelta {
			next = cur.BaseRevision()
		}

		if next < 0 || next >= cur.Revision() {
			return nil, nil, plumbing.CorruptedErrorf("revision %d has delta base %d",
				cur.Revision(), next)
		}

		var ok bool
		if cur, ok = r.index.Entry(next); !ok {
			return nil, nil, plumbing.CorruptedErrorf("delta base %d is not in the index", next)
		}
	}
}

// chunk returns the decompressed chunk of e.
func (r *Revlog) chunk(e *idxfile.Entry, snapshot bool) ([]byte, error) {
	raw, err := r.rawChunk(e)
	if err != nil {
		return nil, err
	}

	return decompressChunk(e, raw, snapshot)
}

// applyChain folds the deltas of chain, newest first, into a single patch
// applied to base. The returned text never shares memory with base.
func (r *Revlog) applyChain(base []byte, chain []*idxfile.Entry) ([]byte, error) {
	if len(chain) == 0 {
		// base may point into the mapped revlog files
		return bytes.Clone(base), nil
	}

	lists := make([]patch.PatchList, len(chain))
	for i, e := range chain {
		delta, err := r.chunk(e, false)
		if err != nil {
			return nil, err
		}

		pl, err := patch.Decode(delta)
		if err != nil {
			return nil, err
		}

		lists[len(chain)-1-i] = pl
	}

	trace.Revlog.Printf("%s: applying %d deltas to revision %d",
		r.indexPath, len(chain), chain[0].Revision())

	folded := patch.Fold(lists)
	if !folded.Fits(len(base)) {
		return nil, plumbing.CorruptedErrorf("delta chain of revision %d does not fit its %d bytes base",
			chain[0].Revision(), len(base))
	}

	return folded.Apply(base), nil
}

// CheckHash verifies that text is the content of e, hashing it with the
// nodes of the parents of e.
func (r *Revlog) CheckHash(e *idxfile.Entry, text []byte) error {
	p1, ok := r.index.Node(e.P1())
	if !ok {
		return plumbing.CorruptedErrorf("revision %d has unknown parent %d", e.Revision(), e.P1())
	}

	p2, ok := r.index.Node(e.P2())
	if !ok {
		return plumbing.CorruptedErrorf("revision %d has unknown parent %d", e.Revision(), e.P2())
	}

	if got := plumbing.ComputeNode(text, p1, p2); got != e.Node() {
		return plumbing.CorruptedErrorf("revision %d hashes to %s, %s expected", e.Revision(), got, e.Node())
	}

	return nil
}

// chainLength returns the number of deltas stored between rev and its
// snapshot.
func (r *Revlog) chainLength(rev plumbing.Revision) (int, error) {
	e, err := r.Entry(rev)
	if err != nil {
		return 0, err
	}

	n := 0
	for !e.IsSnapshot() {
		n++
		next := e.Revision() - 1
		if r.index.UsesGeneralDelta() {
			next = e.BaseRevision()
		}

		base, ok := r.index.Entry(next)
		if !ok || next >= e.Revision() {
			return 0, plumbing.CorruptedErrorf("revision %d has delta base %d", e.Revision(), next)
		}

		e = base
	}

	return n, nil
}
