// Package nodemap implements the persistent node map of revlogs: a radix
// tree over node nybbles giving the revision of a node, or of a node
// prefix, without scanning the whole index.
package nodemap

import (
	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/plumbing"
)

// ErrMultipleResults is returned when a prefix matches several nodes.
var ErrMultipleResults = errors.New("multiple results")

func multipleResultsError(prefix plumbing.NodePrefix) error {
	return errors.Wrapf(ErrMultipleResults, "prefix %s", prefix)
}

// Index gives the nodes of the revisions stored in a revlog.
type Index interface {
	// Node returns the node of rev, and false if rev is not in the index.
	Node(rev plumbing.Revision) (plumbing.Node, bool)
}

// FullIndex is an Index that also knows its length.
type FullIndex interface {
	Index
	Len() int
}

// Build returns a tree holding every revision of idx.
func Build(idx FullIndex) (*NodeTree, error) {
	nt := NewNodeTree(nil)
	if err := nt.InsertFrom(idx, 0); err != nil {
		return nil, err
	}

	return nt, nil
}

// InsertFrom inserts the revisions of idx starting at from.
func (nt *NodeTree) InsertFrom(idx FullIndex, from plumbing.Revision) error {
	for rev := max(from, 0); int(rev) < idx.Len(); rev++ {
		node, ok := idx.Node(rev)
		if !ok {
			return plumbing.RevisionNotInIndexError(rev)
		}

		if err := nt.Insert(idx, node, rev); err != nil {
			return err
		}
	}

	return nil
}

// FindBin returns the revision whose node starts with prefix. The boolean
// is false when no node matches.
//
// The all zero prefixes always match NullRevision, so that they are
// ambiguous as soon as a stored node starts with them.
func (nt *NodeTree) FindBin(idx Index, prefix plumbing.NodePrefix) (plumbing.Revision, bool, error) {
	rev, found, _, err := nt.lookupValidated(idx, prefix)
	return rev, found, err
}

// FindNode is FindBin for a full node.
func (nt *NodeTree) FindNode(idx Index, node plumbing.Node) (plumbing.Revision, bool, error) {
	return nt.FindBin(idx, node.Prefix())
}

// UniquePrefixLenBin returns the length of the shortest prefix identifying
// the node matching prefix. The boolean is false when no node matches.
func (nt *NodeTree) UniquePrefixLenBin(idx Index, prefix plumbing.NodePrefix) (int, bool, error) {
	_, found, steps, err := nt.lookupValidated(idx, prefix)
	if err != nil || !found {
		return 0, false, err
	}

	return steps, true, nil
}

// UniquePrefixLenNode is UniquePrefixLenBin for a full node.
func (nt *NodeTree) UniquePrefixLenNode(idx Index, node plumbing.Node) (int, bool, error) {
	return nt.UniquePrefixLenBin(idx, node.Prefix())
}

func (nt *NodeTree) lookupValidated(idx Index, prefix plumbing.NodePrefix) (plumbing.Revision, bool, int, error) {
	rev, found, steps, err := nt.Lookup(prefix)
	if err != nil {
		return 0, false, 0, err
	}

	return validateCandidate(idx, prefix, rev, found, steps)
}

// validateCandidate checks the revision found by a lookup against its real
// node, as the tree only knows about the nybbles needed to tell nodes
// apart. It also handles the prefixes of NullNode.
func validateCandidate(idx Index, prefix plumbing.NodePrefix, rev plumbing.Revision, found bool, steps int) (plumbing.Revision, bool, int, error) {
	if nz, ok := prefix.FirstDifferentNybble(plumbing.NullNode); ok {
		steps = max(steps, nz+1)
		if !found {
			return 0, false, steps, nil
		}

		match, err := hasPrefix(idx, prefix, rev)
		if err != nil {
			return 0, false, 0, err
		}

		if !match {
			return 0, false, steps, nil
		}

		return rev, true, steps, nil
	}

	if !found {
		return plumbing.NullRevision, true, steps + 1, nil
	}

	match, err := hasPrefix(idx, prefix, rev)
	if err != nil {
		return 0, false, 0, err
	}

	if match {
		return 0, false, 0, multipleResultsError(prefix)
	}

	return plumbing.NullRevision, true, steps + 1, nil
}

func hasPrefix(idx Index, prefix plumbing.NodePrefix, rev plumbing.Revision) (bool, error) {
	node, ok := idx.Node(rev)
	if !ok {
		return false, plumbing.RevisionNotInIndexError(rev)
	}

	return prefix.IsPrefixOf(node), nil
}
