// Package patch implements the binary deltas stored in revlogs. A delta is
// a list of chunks, each one replacing a byte range of the base text.
package patch

import (
	"bytes"
	"encoding/binary"

	"github.com/go-hg/go-hg/plumbing"
)

// chunkHeaderSize is the size of the start, end and length fields.
const chunkHeaderSize = 12

// Chunk replaces the bytes in [Start, End) of the base text with Data.
type Chunk struct {
	Start uint32
	End   uint32
	Data  []byte
}

// lenDiff returns how much the chunk grows the text it is applied to.
func (c *Chunk) lenDiff() int {
	return len(c.Data) - int(c.End-c.Start)
}

// PatchList is a sequence of chunks sorted by Start, without overlaps.
type PatchList struct {
	chunks []Chunk
}

// New returns a PatchList of the given chunks, which must be sorted and
// must not overlap.
func New(chunks ...Chunk) PatchList {
	return PatchList{chunks: chunks}
}

// Decode parses a delta. The chunks borrow data.
func Decode(data []byte) (PatchList, error) {
	var chunks []Chunk
	for len(data) > 0 {
		if len(data) < chunkHeaderSize {
			return PatchList{}, plumbing.CorruptedErrorf("patch chunk header truncated to %d bytes", len(data))
		}

		start := binary.BigEndian.Uint32(data[0:4])
		end := binary.BigEndian.Uint32(data[4:8])
		size := binary.BigEndian.Uint32(data[8:12])
		data = data[chunkHeaderSize:]

		if uint64(size) > uint64(len(data)) {
			return PatchList{}, plumbing.CorruptedErrorf("patch chunk declares %d bytes, %d left", size, len(data))
		}

		if end < start {
			return PatchList{}, plumbing.CorruptedErrorf("patch chunk ends at %d before its start %d", end, start)
		}

		chunks = append(chunks, Chunk{Start: start, End: end, Data: data[:size]})
		data = data[size:]
	}

	return PatchList{chunks: chunks}, nil
}

// Encode returns the binary form of p, as Decode reads it.
func (p PatchList) Encode() []byte {
	size := 0
	for _, c := range p.chunks {
		size += chunkHeaderSize + len(c.Data)
	}

	out := make([]byte, 0, size)
	for _, c := range p.chunks {
		out = binary.BigEndian.AppendUint32(out, c.Start)
		out = binary.BigEndian.AppendUint32(out, c.End)
		out = binary.BigEndian.AppendUint32(out, uint32(len(c.Data)))
		out = append(out, c.Data...)
	}

	return out
}

// Chunks returns the chunks of p.
func (p PatchList) Chunks() []Chunk {
	return p.chunks
}

// Len returns the number of chunks.
func (p PatchList) Len() int {
	return len(p.chunks)
}

// IsEmpty tells whether applying p leaves a text unchanged.
func (p PatchList) IsEmpty() bool {
	return len(p.chunks) == 0
}

// Fits tells whether p can be applied to a text of size bytes: chunks
// are ordered, disjoint and within bounds.
func (p PatchList) Fits(size int) bool {
	last := uint32(0)
	for _, c := range p.chunks {
		if c.Start < last || c.End < c.Start {
			return false
		}
		last = c.End
	}

	return int64(last) <= int64(size)
}

// Apply returns the result of applying p to initial. p must fit initial.
func (p PatchList) Apply(initial []byte) []byte {
	size := len(initial)
	for i := range p.chunks {
		size += p.chunks[i].lenDiff()
	}

	out := make([]byte, 0, size)
	last := uint32(0)
	for _, c := range p.chunks {
		out = append(out, initial[last:c.Start]...)
		out = append(out, c.Data...)
		last = c.End
	}

	return append(out, initial[last:]...)
}

// Combine returns the single patch equivalent to applying p and then
// other. Neither p nor other are modified.
func (p PatchList) Combine(other PatchList) PatchList {
	// pending holds the chunks of p still to be merged, all positions are
	// relative to the text p applies to.
	pending := append([]Chunk(nil), p.chunks...)
	chunks := make([]Chunk, 0, len(pending)+len(other.chunks))

	// offset is how much the chunks of p already consumed grow the text:
	// a position x between chunks of the intermediate text is x-offset in
	// the initial one.
	offset := 0
	pos := 0

	for _, o := range other.chunks {
		oStart, oEnd := int(o.Start), int(o.End)

		for pos < len(pending) {
			c := &pending[pos]
			if int(c.Start)+offset+len(c.Data) > oStart {
				break
			}
			chunks = append(chunks, *c)
			offset += c.lenDiff()
			pos++
		}

		start := oStart - offset
		var prefix []byte
		if pos < len(pending) {
			c := &pending[pos]
			if cStart := int(c.Start) + offset; cStart < oStart {
				prefix = c.Data[:oStart-cStart]
				start = int(c.Start)
			}
		}

		var suffix []byte
		straddling := -1
		for pos < len(pending) {
			c := &pending[pos]
			cStart := int(c.Start) + offset
			if cStart >= oEnd {
				break
			}

			if cEnd := cStart + len(c.Data); cEnd > oEnd {
				suffix = c.Data[oEnd-cStart:]
				straddling = pos
				break
			}

			offset += c.lenDiff()
			pos++
		}

		data := concat(prefix, o.Data, suffix)
		if straddling >= 0 {
			c := pending[straddling]
			// The merged chunk stays pending so that the following chunks
			// of other can still overlap its suffix. Its offset is chosen
			// so that the suffix keeps its intermediate position.
			virtualStart := oEnd - len(prefix) - len(o.Data)
			offset = virtualStart - start
			pending[straddling] = Chunk{Start: uint32(start), End: c.End, Data: data}
			continue
		}

		end := oEnd - offset
		if start == end && len(data) == 0 {
			continue
		}

		chunks = append(chunks, Chunk{Start: uint32(start), End: uint32(end), Data: data})
	}

	chunks = append(chunks, pending[pos:]...)
	return PatchList{chunks: chunks}
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}

	if n == 0 {
		return nil
	}

	return bytes.Join(parts, nil)
}

// Fold combines lists, oldest first, into a single patch.
func Fold(lists []PatchList) PatchList {
	switch len(lists) {
	case 0:
		return PatchList{}
	case 1:
		return lists[0]
	}

	mid := len(lists) / 2
	return Fold(lists[:mid]).Combine(Fold(lists[mid:]))
}
