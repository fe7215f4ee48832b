// Package plumbing holds the identifiers shared by every layer of go-hg:
// nodes, node prefixes and revision numbers, and the errors reported when
// reading stored history.
package plumbing

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/cockroachdb/errors"
)

const (
	// NodeSize is the length in bytes of a Node.
	NodeSize = 20
	// NodeHexSize is the length of the hexadecimal representation of a Node,
	// which is also its length in nybbles.
	NodeHexSize = 2 * NodeSize

	shortNybbles = 12
)

// WorkingDirectoryHex is the hexadecimal identifier of the virtual
// working directory revision.
const WorkingDirectoryHex = "ffffffffffffffffffffffffffffffffffffffff"

// ErrInvalidNode is returned when a string or slice cannot be turned into a
// Node.
var ErrInvalidNode = errors.New("invalid node")

// Node is the binary identifier of a revision: the SHA-1 of its content
// together with the identifiers of its parents.
type Node [NodeSize]byte

// NullNode is the Node of NullRevision.
var NullNode Node

// WorkingDirectoryNode is the Node of WorkingDirectoryRevision.
var WorkingDirectoryNode = Node{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// NodeFromHex parses a full 40 characters hexadecimal string.
func NodeFromHex(in string) (Node, error) {
	var n Node
	if len(in) != NodeHexSize {
		return n, errors.Wrapf(ErrInvalidNode, "expected %d hex digits, got %d",
			NodeHexSize, len(in))
	}

	if _, err := hex.Decode(n[:], []byte(in)); err != nil {
		return n, errors.Wrapf(ErrInvalidNode, "%q", in)
	}

	return n, nil
}

// NodeFromBytes copies a Node from exactly NodeSize bytes.
func NodeFromBytes(in []byte) (Node, error) {
	var n Node
	if len(in) != NodeSize {
		return n, errors.Wrapf(ErrInvalidNode, "expected %d bytes, got %d",
			NodeSize, len(in))
	}

	copy(n[:], in)
	return n, nil
}

// Bytes returns the slice of bytes containing the node.
func (n Node) Bytes() []byte {
	return n[:]
}

// Compare compares the node with a slice of bytes.
func (n Node) Compare(b []byte) int {
	return bytes.Compare(n[:], b)
}

// IsNull returns true if n is NullNode.
func (n Node) IsNull() bool {
	return n == NullNode
}

// Nybble returns the i-th hexadecimal digit of the node, in numeric form.
func (n Node) Nybble(i int) byte {
	return nybble(n[:], i)
}

// Prefix returns the NodePrefix covering the whole node.
func (n Node) Prefix() NodePrefix {
	return NodePrefix{data: n, len: NodeHexSize}
}

// Short returns the abbreviated form of the node used for display.
func (n Node) Short() NodePrefix {
	return NodePrefix{data: n, len: shortNybbles}
}

// String returns the hexadecimal representation of the node.
func (n Node) String() string {
	return hex.EncodeToString(n[:])
}

// WriteTo writes the raw bytes of the node to w.
func (n Node) WriteTo(w io.Writer) (int64, error) {
	c, err := w.Write(n[:])
	return int64(c), err
}

func nybble(b []byte, i int) byte {
	if i%2 == 0 {
		return b[i/2] >> 4
	}

	return b[i/2] & 0x0f
}
