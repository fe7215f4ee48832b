// Package binary implements the big-endian encodings of revlog indexes,
// patches and nodemap dockets.
package binary

import (
	"encoding/binary"
	"io"
)

// Read reads structured binary data from r into data. Bytes are read and
// decoded in BigEndian order
// https://golang.org/pkg/encoding/binary/#Read
func Read(r io.Reader, data ...interface{}) error {
	for _, v := range data {
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return err
		}
	}

	return nil
}

// ReadUint64 reads 8 bytes and returns them as a BigEndian uint64
func ReadUint64(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, err
	}

	return v, nil
}

// ReadUint8 reads a single byte.
func ReadUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return b[0], nil
}

// Uint48 decodes the 48 bits BigEndian integer in b[0:6].
func Uint48(b []byte) uint64 {
	_ = b[5]
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(binary.BigEndian.Uint32(b[2:]))
}

// Int32 decodes a BigEndian two's complement int32 from b[0:4].
func Int32(b []byte) int32 {
	return int32(binary.BigEndian.Uint32(b))
}
