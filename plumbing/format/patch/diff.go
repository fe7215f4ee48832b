package patch

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/go-hg/go-hg/utils/diff"
)

// Diff returns a line based patch turning old into new.
func Diff(old, new []byte) PatchList {
	var chunks []Chunk
	var cur *Chunk
	pos := uint32(0)

	for _, d := range diff.Do(string(old), string(new)) {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += uint32(len(d.Text))
			cur = nil
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				chunks = append(chunks, Chunk{Start: pos, End: pos})
				cur = &chunks[len(chunks)-1]
			}
			pos += uint32(len(d.Text))
			cur.End = pos
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				chunks = append(chunks, Chunk{Start: pos, End: pos})
				cur = &chunks[len(chunks)-1]
			}
			cur.Data = append(cur.Data, d.Text...)
		}
	}

	return PatchList{chunks: chunks}
}
