package nodemap

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-hg/go-hg/plumbing"
	hgbinary "github.com/go-hg/go-hg/utils/binary"
)

const (
	// ElementsPerBlock is the fan-out of the tree, one element per nybble.
	ElementsPerBlock = 16
	// BlockSize is the on-disk size of a Block.
	BlockSize = 4 * ElementsPerBlock
)

// Element is a slot of a Block, stored as a big-endian int32: positive
// values and zero are block indexes, -1 is an empty slot and values below
// are revisions, encoded as -rev-2.
type Element int32

// EmptyElement is the content of an unused slot.
const EmptyElement Element = -1

// BlockElement returns the element pointing at the i-th block.
func BlockElement(i int) Element {
	return Element(i)
}

// RevisionElement returns the element holding rev.
func RevisionElement(rev plumbing.Revision) Element {
	return Element(-int32(rev) - 2)
}

// IsEmpty tells whether the slot is unused.
func (e Element) IsEmpty() bool {
	return e == EmptyElement
}

// Block returns the index of the block e points at.
func (e Element) Block() (int, bool) {
	if e < 0 {
		return 0, false
	}

	return int(e), true
}

// Revision returns the revision held by e.
func (e Element) Revision() (plumbing.Revision, bool) {
	if e >= EmptyElement {
		return 0, false
	}

	return plumbing.Revision(-int32(e) - 2), true
}

func (e Element) String() string {
	if i, ok := e.Block(); ok {
		return fmt.Sprintf("Block(%d)", i)
	}

	if rev, ok := e.Revision(); ok {
		return fmt.Sprintf("Rev(%d)", rev)
	}

	return "None"
}

// Block is a node of the tree: one element for each possible value of the
// nybble at its depth.
type Block [ElementsPerBlock]Element

// NewBlock returns a Block where every slot is empty.
func NewBlock() Block {
	var b Block
	for i := range b {
		b[i] = EmptyElement
	}

	return b
}

// DecodeBlock reads a Block from the first BlockSize bytes of raw.
func DecodeBlock(raw []byte) Block {
	var b Block
	for i := range b {
		b[i] = Element(hgbinary.Int32(raw[4*i : 4*i+4]))
	}

	return b
}

// Get returns the element of the given nybble.
func (b *Block) Get(nybble byte) Element {
	return b[nybble]
}

// Set replaces the element of the given nybble.
func (b *Block) Set(nybble byte, e Element) {
	b[nybble] = e
}

// AppendBytes appends the on-disk form of b to dst.
func (b *Block) AppendBytes(dst []byte) []byte {
	for _, e := range b {
		dst = binary.BigEndian.AppendUint32(dst, uint32(e))
	}

	return dst
}

// String lists the non empty slots, as in "{1: Rev(3), 10: Block(0)}".
func (b Block) String() string {
	var s strings.Builder
	s.WriteByte('{')
	first := true
	for i, e := range b {
		if e.IsEmpty() {
			continue
		}

		if !first {
			s.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&s, "%d: %s", i, e)
	}
	s.WriteByte('}')

	return s.String()
}
