//go:build !cgo

package compression

import (
	"github.com/klauspost/compress/zstd"
)

// UseStandardZstdLib indicates whether the zstd implementation is a port of the
// official one in the facebook/zstd repository.
const UseStandardZstdLib = false

func compressZstd(src []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(DefaultZstdLevel)))
	if err != nil {
		return nil, err
	}

	result := encoder.EncodeAll(src, nil)
	return result, encoder.Close()
}

func decompressZstd(src []byte, sizeHint int) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(src, make([]byte, 0, max(sizeHint, 0)))
}
