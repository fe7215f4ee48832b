package nodemap

import (
	"fmt"
	"strings"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/storage/filesystem/mmap"
)

// NodeTree is a base-16 radix tree mapping node prefixes to revisions.
//
// The tree is a sequence of blocks. A readonly part, usually borrowed from
// a persisted data file, is followed by blocks added in memory, and then
// by the root. Readonly blocks are never written to: a mutation copies
// them into the growable part first, leaving the original one masked.
type NodeTree struct {
	readonly []byte
	growable []Block
	root     Block
	// maskedInner counts readonly blocks superseded by a growable copy,
	// the readonly root excluded.
	maskedInner int
}

// NewNodeTree returns a tree whose readonly part is made of blocks, the
// last one being its root. No blocks at all means an empty tree.
func NewNodeTree(blocks []Block) *NodeTree {
	raw := make([]byte, 0, len(blocks)*BlockSize)
	for i := range blocks {
		raw = blocks[i].AppendBytes(raw)
	}

	return newNodeTree(raw)
}

// LoadBytes returns a tree using the first amount bytes of b as its
// readonly part. b must stay open while the tree is in use.
func LoadBytes(b mmap.Bytes, amount int) (*NodeTree, error) {
	if amount < 0 || amount > b.Len() {
		return nil, plumbing.CorruptedErrorf("nodemap data is %d bytes long, %d expected", b.Len(), amount)
	}

	n := amount / BlockSize
	return newNodeTree(b.Bytes()[:n*BlockSize]), nil
}

func newNodeTree(readonly []byte) *NodeTree {
	nt := &NodeTree{readonly: readonly, root: NewBlock()}
	if n := nt.readonlyLen(); n > 0 {
		nt.root = nt.readonlyBlock(n - 1)
	}

	return nt
}

func (nt *NodeTree) readonlyLen() int {
	return len(nt.readonly) / BlockSize
}

func (nt *NodeTree) readonlyBlock(i int) Block {
	return DecodeBlock(nt.readonly[i*BlockSize:])
}

// Len returns the number of blocks, the root included.
func (nt *NodeTree) Len() int {
	return nt.readonlyLen() + len(nt.growable) + 1
}

// Block returns the i-th block. The root is always the last one.
func (nt *NodeTree) Block(i int) (Block, error) {
	ro := nt.readonlyLen()
	switch {
	case i < 0 || i >= nt.Len():
		return Block{}, plumbing.CorruptedErrorf("nodemap block %d out of %d", i, nt.Len())
	case i < ro:
		return nt.readonlyBlock(i), nil
	case i == ro+len(nt.growable):
		return nt.root, nil
	default:
		return nt.growable[i-ro], nil
	}
}

// Lookup walks down the tree following prefix, up to the first element that
// is not a block. It returns the revision found there, if any, and the
// number of nybbles read to reach it. It fails with ErrMultipleResults when
// the prefix ends on a block.
func (nt *NodeTree) Lookup(prefix plumbing.NodePrefix) (plumbing.Revision, bool, int, error) {
	idx := nt.Len() - 1
	for i := 0; i < prefix.Len(); i++ {
		b, err := nt.Block(idx)
		if err != nil {
			return 0, false, 0, err
		}

		e := b.Get(prefix.Nybble(i))
		if next, ok := e.Block(); ok {
			idx = next
			continue
		}

		rev, ok := e.Revision()
		return rev, ok, i + 1, nil
	}

	return 0, false, 0, multipleResultsError(prefix)
}

type visitStep struct {
	block   int
	nybble  byte
	element Element
}

// visit records every element read while walking down along node.
func (nt *NodeTree) visit(node plumbing.Node) ([]visitStep, error) {
	var steps []visitStep
	idx := nt.Len() - 1
	for i := 0; i < plumbing.NodeHexSize; i++ {
		b, err := nt.Block(idx)
		if err != nil {
			return nil, err
		}

		nybble := node.Nybble(i)
		e := b.Get(nybble)
		steps = append(steps, visitStep{block: idx, nybble: nybble, element: e})

		next, ok := e.Block()
		if !ok {
			break
		}
		idx = next
	}

	return steps, nil
}

// mutableBlock returns a block that can be written to in place of the i-th
// one, along with its index. Readonly blocks are copied at the end of the
// growable part.
func (nt *NodeTree) mutableBlock(i int) (int, *Block) {
	ro := nt.readonlyLen()
	glen := len(nt.growable)
	switch {
	case i < ro:
		nt.maskedInner++
		nt.growable = append(nt.growable, nt.readonlyBlock(i))
		return ro + glen, &nt.growable[glen]
	case i == ro+glen:
		return i, &nt.root
	default:
		return i, &nt.growable[i-ro]
	}
}

// Insert adds node as rev. Inserting a node already present is a no-op.
func (nt *NodeTree) Insert(idx Index, node plumbing.Node, rev plumbing.Revision) error {
	ro := nt.readonlyLen()
	steps, err := nt.visit(node)
	if err != nil {
		return err
	}

	read := len(steps)
	deepest := steps[read-1]
	steps = steps[:read-1]

	oldRev, isRev := deepest.element.Revision()
	var oldNode plumbing.Node
	if isRev {
		var ok bool
		if oldNode, ok = idx.Node(oldRev); !ok {
			return plumbing.RevisionNotInIndexError(oldRev)
		}

		if oldNode == node {
			return nil
		}
	}

	blockIdx, block := nt.mutableBlock(deepest.block)
	if isRev {
		newBlockIdx := ro + len(nt.growable)
		nybble := deepest.nybble
		for pos := read; pos < plumbing.NodeHexSize; pos++ {
			block.Set(nybble, BlockElement(newBlockIdx))

			newNybble, oldNybble := node.Nybble(pos), oldNode.Nybble(pos)
			if newNybble == oldNybble {
				nt.growable = append(nt.growable, NewBlock())
				block = &nt.growable[len(nt.growable)-1]
				newBlockIdx++
				nybble = newNybble
				continue
			}

			split := NewBlock()
			split.Set(oldNybble, RevisionElement(oldRev))
			split.Set(newNybble, RevisionElement(rev))
			nt.growable = append(nt.growable, split)
			break
		}
	} else {
		block.Set(deepest.nybble, RevisionElement(rev))
	}

	for len(steps) > 0 {
		visited := steps[len(steps)-1]
		steps = steps[:len(steps)-1]

		target := BlockElement(blockIdx)
		if len(steps) == 0 {
			nt.root.Set(visited.nybble, target)
			break
		}

		newIdx, b := nt.mutableBlock(visited.block)
		if b.Get(visited.nybble) == target {
			break
		}

		b.Set(visited.nybble, target)
		blockIdx = newIdx
	}

	return nil
}

// InvalidateAll empties the tree, masking the whole readonly part.
func (nt *NodeTree) InvalidateAll() {
	nt.root = NewBlock()
	nt.growable = nil
	nt.maskedInner = nt.readonlyLen()
}

// MaskedReadonlyBlocks returns the number of readonly blocks no longer
// reachable from the root, the readonly root included. It tells how much
// of a persisted data file is wasted.
func (nt *NodeTree) MaskedReadonlyBlocks() int {
	ro := nt.readonlyLen()
	if ro == 0 || nt.readonlyBlock(ro-1) == nt.root {
		return 0
	}

	return nt.maskedInner + 1
}

// IntoReadonlyAndAdded returns the readonly part, as bytes, and the blocks
// to append to it for persisting the current state of the tree. The tree
// must not be mutated afterwards.
func (nt *NodeTree) IntoReadonlyAndAdded() ([]byte, []Block) {
	added := nt.growable
	ro := nt.readonlyLen()
	if ro == 0 || nt.readonlyBlock(ro-1) != nt.root {
		added = append(added, nt.root)
	}

	return nt.readonly, added
}

// IntoReadonlyAndAddedBytes is like IntoReadonlyAndAdded with the added
// blocks in their on-disk form.
func (nt *NodeTree) IntoReadonlyAndAddedBytes() ([]byte, []byte) {
	readonly, added := nt.IntoReadonlyAndAdded()
	raw := make([]byte, 0, len(added)*BlockSize)
	for i := range added {
		raw = added[i].AppendBytes(raw)
	}

	return readonly, raw
}

func (nt *NodeTree) String() string {
	var s strings.Builder
	s.WriteString("readonly: [")
	for i := 0; i < nt.readonlyLen(); i++ {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(nt.readonlyBlock(i).String())
	}

	s.WriteString("], growable: [")
	for i, b := range nt.growable {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(b.String())
	}

	fmt.Fprintf(&s, "], root: %s", nt.root)
	return s.String()
}
