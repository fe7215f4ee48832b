package plumbing

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
)

const hexDigits = "0123456789abcdef"

// NodePrefix is a prefix of a Node with a half-byte granularity. It is used
// to resolve abbreviated hexadecimal identifiers.
//
// The zero value is the empty prefix, which every Node starts with.
type NodePrefix struct {
	data Node
	len  uint8
}

// NodePrefixFromHex parses a hexadecimal string of up to NodeHexSize digits.
// Both lower and upper case digits are accepted, and odd lengths are valid.
func NodePrefixFromHex(in string) (NodePrefix, error) {
	var p NodePrefix
	if len(in) > NodeHexSize {
		return p, errors.Wrapf(ErrInvalidNode, "prefix %q is too long", in)
	}

	for i := 0; i < len(in); i++ {
		v, ok := fromHexChar(in[i])
		if !ok {
			return p, errors.Wrapf(ErrInvalidNode, "prefix %q", in)
		}

		if i%2 == 0 {
			p.data[i/2] |= v << 4
		} else {
			p.data[i/2] |= v
		}
	}

	p.len = uint8(len(in))
	return p, nil
}

// Len returns the number of nybbles in the prefix.
func (p NodePrefix) Len() int {
	return int(p.len)
}

// Nybble returns the i-th nybble of the prefix. It panics if i is out of
// range.
func (p NodePrefix) Nybble(i int) byte {
	if i < 0 || i >= p.Len() {
		panic("plumbing: nybble index out of range")
	}

	return nybble(p.data[:], i)
}

// IsPrefixOf tells whether n starts with p.
func (p NodePrefix) IsPrefixOf(n Node) bool {
	full := p.Len() / 2
	if !bytes.Equal(p.data[:full], n[:full]) {
		return false
	}

	if p.Len()%2 == 0 {
		return true
	}

	last := p.Len() - 1
	return p.Nybble(last) == n.Nybble(last)
}

// FirstDifferentNybble returns the index of the first nybble of p that
// differs from n. The boolean is false when p is a prefix of n.
func (p NodePrefix) FirstDifferentNybble(n Node) (int, bool) {
	for i := 0; i < p.Len(); i++ {
		if p.Nybble(i) != n.Nybble(i) {
			return i, true
		}
	}

	return 0, false
}

// IsFull tells whether the prefix covers a whole Node.
func (p NodePrefix) IsFull() bool {
	return p.Len() == NodeHexSize
}

// Node returns the prefix padded with zeros up to a full Node.
func (p NodePrefix) Node() Node {
	return p.data
}

// String returns the hexadecimal representation of the prefix.
func (p NodePrefix) String() string {
	var b strings.Builder
	b.Grow(p.Len())
	for i := 0; i < p.Len(); i++ {
		b.WriteByte(hexDigits[p.Nybble(i)])
	}

	return b.String()
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}

	return 0, false
}
