package plumbing

import (
	"hash"

	"github.com/pjbgf/sha1cd"
)

// NodeHasher computes the Node of a revision. The parents are fed first, in
// ascending byte order, so that the result does not depend on which parent
// is the first one.
type NodeHasher struct {
	hash.Hash
}

// NewNodeHasher returns a NodeHasher primed with the given parent nodes.
func NewNodeHasher(p1, p2 Node) NodeHasher {
	h := NodeHasher{sha1cd.New()}
	h.Reset(p1, p2)
	return h
}

// Reset restarts the hasher with a new pair of parents.
func (h NodeHasher) Reset(p1, p2 Node) {
	h.Hash.Reset()
	if p1.Compare(p2[:]) > 0 {
		p1, p2 = p2, p1
	}

	// writes to a hash never fail
	_, _ = p1.WriteTo(h.Hash)
	_, _ = p2.WriteTo(h.Hash)
}

// Sum returns the resulting Node.
func (h NodeHasher) Sum() (n Node) {
	copy(n[:], h.Hash.Sum(nil))
	return
}

// ComputeNode returns the Node of data given the nodes of its parents.
func ComputeNode(data []byte, p1, p2 Node) Node {
	h := NewNodeHasher(p1, p2)
	h.Write(data)
	return h.Sum()
}
