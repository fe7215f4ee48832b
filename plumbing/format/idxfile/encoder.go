package idxfile

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/plumbing"
	hgbinary "github.com/go-hg/go-hg/utils/binary"
)

// Record holds the fields of an index entry to be written.
type Record struct {
	Offset          uint64
	Flags           uint16
	CompressedLen   uint32
	UncompressedLen uint32
	BaseRevision    plumbing.Revision
	LinkRevision    plumbing.Revision
	P1, P2          plumbing.Revision
	Node            plumbing.Node
}

// Encoder writes index records to an output stream.
type Encoder struct {
	w     io.Writer
	flags uint16
	buf   [EntrySize]byte
}

// NewEncoder returns a new Encoder writing to w. flags are stored in the
// record of revision 0.
func NewEncoder(w io.Writer, flags uint16) *Encoder {
	return &Encoder{w: w, flags: flags}
}

// Encode writes the record of rev. The chunk of an inline revlog must be
// written by the caller right after it.
func (e *Encoder) Encode(rev plumbing.Revision, r *Record) error {
	if rev < 0 {
		return errors.Newf("cannot encode revision %d", errors.Safe(rev))
	}

	b := e.buf[:]
	clear(b)

	hgbinary.PutUint48(b[0:6], r.Offset)
	binary.BigEndian.PutUint16(b[6:8], r.Flags)
	binary.BigEndian.PutUint32(b[8:12], r.CompressedLen)
	binary.BigEndian.PutUint32(b[12:16], r.UncompressedLen)
	binary.BigEndian.PutUint32(b[16:20], uint32(r.BaseRevision))
	binary.BigEndian.PutUint32(b[20:24], uint32(r.LinkRevision))
	binary.BigEndian.PutUint32(b[24:28], uint32(r.P1))
	binary.BigEndian.PutUint32(b[28:32], uint32(r.P2))
	copy(b[32:52], r.Node[:])

	if rev == 0 {
		binary.BigEndian.PutUint16(b[0:2], e.flags)
		binary.BigEndian.PutUint16(b[2:4], VersionSupported)
	}

	_, err := e.w.Write(b)
	return err
}
