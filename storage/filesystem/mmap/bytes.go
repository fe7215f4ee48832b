// Package mmap gives read-only access to store files, either through a
// memory mapping or through a plain buffer when mapping is not possible.
package mmap

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
)

var (
	ErrNilFile          = errors.New("cannot open mmap: file is nil")
	ErrNoFileDescriptor = errors.New("fs does not support access to file descriptor")
	ErrUnsupported      = errors.New("mmap is only supported in linux or darwin")
)

// Bytes is an immutable byte buffer backed either by a memory mapping or by
// owned memory. Callers must never write to the returned slices.
//
// The zero value is an empty owned buffer.
type Bytes struct {
	data    []byte
	cleanup func() error
}

// Owned wraps a plain slice.
func Owned(b []byte) Bytes {
	return Bytes{data: b}
}

// Bytes returns the underlying data. The slice stays valid until Close.
func (b Bytes) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes.
func (b Bytes) Len() int {
	return len(b.data)
}

// IsMapped tells whether the buffer is a memory mapping.
func (b Bytes) IsMapped() bool {
	return b.cleanup != nil
}

// Slice returns a view of [start, end) sharing the same backing memory. The
// view does not own the mapping and closing it is a no-op.
func (b Bytes) Slice(start, end int) Bytes {
	return Bytes{data: b.data[start:end]}
}

// Close releases the mapping, if any.
func (b *Bytes) Close() error {
	cleanup := b.cleanup
	b.data, b.cleanup = nil, nil
	if cleanup == nil {
		return nil
	}

	return cleanup()
}

// Open maps f into memory when useMmap is set and the platform and
// filesystem allow it, and reads it whole otherwise. f is owned by the
// returned Bytes when it is a mapping, and closed before returning in all
// other cases.
func Open(f billy.File, useMmap bool) (Bytes, error) {
	if f == nil {
		return Bytes{}, ErrNilFile
	}

	if useMmap {
		b, err := Map(f)
		switch {
		case err == nil:
			return b, nil
		case errors.Is(err, ErrNoFileDescriptor), errors.Is(err, ErrUnsupported):
		default:
			return Bytes{}, err
		}
	}

	return ReadAll(f)
}

// ReadAll reads f into an owned buffer and closes it.
func ReadAll(f billy.File) (Bytes, error) {
	if f == nil {
		return Bytes{}, ErrNilFile
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return Bytes{}, errors.CombineErrors(err, f.Close())
	}

	return Owned(data), f.Close()
}
