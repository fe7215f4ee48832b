package revlog

import (
	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/format/nodemap"
)

// NodeRevision returns the revision whose node starts with prefix. It
// fails with ErrAmbiguousPrefix when several nodes match, and with
// ErrInvalidRevision when none does. The all zero prefixes match
// NullRevision.
func (r *Revlog) NodeRevision(prefix plumbing.NodePrefix) (plumbing.Revision, error) {
	if r.nodemap != nil {
		return r.nodemapRevision(prefix)
	}

	return r.scanRevision(prefix)
}

// RevisionOf returns the revision of node.
func (r *Revlog) RevisionOf(node plumbing.Node) (plumbing.Revision, error) {
	return r.NodeRevision(node.Prefix())
}

func (r *Revlog) nodemapRevision(prefix plumbing.NodePrefix) (plumbing.Revision, error) {
	rev, ok, err := r.nodemap.FindBin(r.index, prefix)
	if errors.Is(err, nodemap.ErrMultipleResults) {
		return 0, ambiguousPrefixError(prefix)
	}

	if err != nil {
		return 0, err
	}

	if !ok {
		return 0, invalidPrefixError(prefix)
	}

	return rev, nil
}

// scanRevision looks for prefix through the whole index, newest revisions
// first.
func (r *Revlog) scanRevision(prefix plumbing.NodePrefix) (plumbing.Revision, error) {
	found, matched := plumbing.NullRevision, false
	for rev := plumbing.Revision(r.index.Len() - 1); rev >= plumbing.NullRevision; rev-- {
		node, ok := r.index.Node(rev)
		if !ok {
			return 0, plumbing.RevisionNotInIndexError(rev)
		}

		if prefix.IsFull() && node == prefix.Node() {
			return rev, nil
		}

		if !prefix.IsPrefixOf(node) {
			continue
		}

		if matched {
			return 0, ambiguousPrefixError(prefix)
		}

		found, matched = rev, true
	}

	if !matched {
		return 0, invalidPrefixError(prefix)
	}

	return found, nil
}

// UniquePrefixLen returns the length of the shortest prefix of node that
// matches no other node.
func (r *Revlog) UniquePrefixLen(node plumbing.Node) (int, error) {
	if r.nodemap != nil {
		n, ok, err := r.nodemap.UniquePrefixLenNode(r.index, node)
		if err != nil {
			return 0, err
		}

		if !ok {
			return 0, invalidPrefixError(node.Prefix())
		}

		return n, nil
	}

	// one more nybble than node shares with any other node, NullNode included
	full := node.Prefix()
	shared, present := 0, false
	for rev := plumbing.Revision(r.index.Len() - 1); rev >= plumbing.NullRevision; rev-- {
		other, ok := r.index.Node(rev)
		if !ok {
			return 0, plumbing.RevisionNotInIndexError(rev)
		}

		n, differ := full.FirstDifferentNybble(other)
		if !differ {
			present = true
			continue
		}

		shared = max(shared, n)
	}

	if !present {
		return 0, invalidPrefixError(full)
	}

	return min(shared+1, plumbing.NodeHexSize), nil
}

func ambiguousPrefixError(prefix plumbing.NodePrefix) error {
	return errors.Wrapf(plumbing.ErrAmbiguousPrefix, "prefix %s", prefix)
}

func invalidPrefixError(prefix plumbing.NodePrefix) error {
	return errors.Wrapf(plumbing.ErrInvalidRevision, "no node matches %s", prefix)
}
