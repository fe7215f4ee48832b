package revlog

import (
	"io"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/go-hg/go-hg/plumbing"
)

// ErrStop is used to stop a ForEach loop early.
var ErrStop = errors.New("stop iter")

// AncestorsIterator walks the ancestors of a set of revisions, in
// decreasing revision order, each one once.
type AncestorsIterator struct {
	graph   plumbing.Graph
	visit   *binaryheap.Heap
	seen    map[plumbing.Revision]struct{}
	stopRev plumbing.Revision
}

func revisionDescending(a, b interface{}) int {
	ra, rb := a.(plumbing.Revision), b.(plumbing.Revision)
	switch {
	case ra > rb:
		return -1
	case ra < rb:
		return 1
	default:
		return 0
	}
}

// NewAncestorsIterator returns an iterator over the ancestors of revs down
// to stopRev. When inclusive is set, revs themselves are part of the
// iteration.
func NewAncestorsIterator(g plumbing.Graph, revs []plumbing.Revision, stopRev plumbing.Revision, inclusive bool) (*AncestorsIterator, error) {
	iter := &AncestorsIterator{
		graph:   g,
		visit:   binaryheap.NewWith(revisionDescending),
		seen:    make(map[plumbing.Revision]struct{}),
		stopRev: stopRev,
	}

	if inclusive {
		for _, rev := range revs {
			iter.push(rev)
		}

		return iter, nil
	}

	iter.seen[plumbing.NullRevision] = struct{}{}
	for _, rev := range revs {
		if rev < stopRev {
			continue
		}

		parents, err := g.Parents(rev)
		if err != nil {
			return nil, err
		}

		iter.push(parents[0])
		iter.push(parents[1])
	}

	return iter, nil
}

func (iter *AncestorsIterator) push(rev plumbing.Revision) {
	if rev < iter.stopRev {
		return
	}

	if _, ok := iter.seen[rev]; ok {
		return
	}

	iter.seen[rev] = struct{}{}
	iter.visit.Push(rev)
}

// Peek returns the revision the next call to Next will return, false at
// the end of the iteration.
func (iter *AncestorsIterator) Peek() (plumbing.Revision, bool) {
	v, ok := iter.visit.Peek()
	if !ok {
		return plumbing.NullRevision, false
	}

	return v.(plumbing.Revision), true
}

// Next returns the next ancestor, or io.EOF at the end of the iteration.
func (iter *AncestorsIterator) Next() (plumbing.Revision, error) {
	current, ok := iter.Peek()
	if !ok {
		return plumbing.NullRevision, io.EOF
	}

	parents, err := iter.graph.Parents(current)
	if err != nil {
		return plumbing.NullRevision, err
	}

	iter.visit.Pop()
	iter.push(parents[0])
	iter.push(parents[1])
	return current, nil
}

// ForEach calls cb for each remaining ancestor. Returning ErrStop from cb
// ends the iteration without error.
func (iter *AncestorsIterator) ForEach(cb func(plumbing.Revision) error) error {
	for {
		rev, err := iter.Next()
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return err
		}

		if err := cb(rev); err != nil {
			if err == ErrStop {
				return nil
			}

			return err
		}
	}
}

// Contains consumes the iterator until it can tell whether target is one
// of the ancestors.
func (iter *AncestorsIterator) Contains(target plumbing.Revision) (bool, error) {
	if _, ok := iter.seen[target]; ok && target != plumbing.NullRevision {
		return true, nil
	}

	for {
		rev, err := iter.Next()
		if err == io.EOF {
			return false, nil
		}

		if err != nil {
			return false, err
		}

		if rev == target {
			return true, nil
		}

		if rev < target {
			return false, nil
		}
	}
}

// IsEmpty tells whether the iteration covers no revision at all, whether
// or not it has been consumed.
func (iter *AncestorsIterator) IsEmpty() bool {
	if !iter.visit.Empty() || len(iter.seen) > 1 {
		return false
	}

	_, null := iter.seen[plumbing.NullRevision]
	return len(iter.seen) == 0 || null
}

// Heads returns the revisions of revs that are not a parent of another
// revision of revs, sorted.
func Heads(g plumbing.Graph, revs []plumbing.Revision) ([]plumbing.Revision, error) {
	heads := make(map[plumbing.Revision]struct{}, len(revs))
	for _, rev := range revs {
		heads[rev] = struct{}{}
	}

	delete(heads, plumbing.NullRevision)
	for _, rev := range revs {
		if rev == plumbing.NullRevision {
			continue
		}

		parents, err := g.Parents(rev)
		if err != nil {
			return nil, err
		}

		delete(heads, parents[0])
		delete(heads, parents[1])
	}

	out := make([]plumbing.Revision, 0, len(heads))
	for rev := range heads {
		out = append(out, rev)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Heads returns the revisions of the revlog without children.
func (r *Revlog) Heads() ([]plumbing.Revision, error) {
	revs := make([]plumbing.Revision, r.Len())
	for i := range revs {
		revs[i] = plumbing.Revision(i)
	}

	return Heads(r, revs)
}
