package sync

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// emptyZlibStream is a complete zlib stream of no data, used to build pooled
// readers before they are reset on real input.
var emptyZlibStream = []byte{0x78, 0x9c, 0x01, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00, 0x00, 0x01}

type inflater interface {
	io.ReadCloser
	zlib.Resetter
}

var (
	inflaters = sync.Pool{
		New: func() any {
			r, _ := zlib.NewReader(bytes.NewReader(emptyZlibStream))
			return r.(inflater)
		},
	}
	deflaters = sync.Pool{
		New: func() any {
			return zlib.NewWriter(nil)
		},
	}
)

// Inflate decompresses the zlib stream src with a pooled reader. sizeHint
// is the expected length of the output, zero when unknown. Trailing bytes
// after the end of the stream are ignored.
func Inflate(src []byte, sizeHint int) ([]byte, error) {
	r := inflaters.Get().(inflater)
	defer inflaters.Put(r)

	if err := r.Reset(bytes.NewReader(src), nil); err != nil {
		return nil, err
	}

	out := bytes.NewBuffer(make([]byte, 0, max(sizeHint, 0)))
	if _, err := io.Copy(out, r); err != nil {
		return nil, err
	}

	return out.Bytes(), r.Close()
}

// Deflate compresses src into a new zlib stream with a pooled writer, at
// the default compression level.
func Deflate(src []byte) ([]byte, error) {
	buf := GetBytesBuffer()
	defer PutBytesBuffer(buf)

	w := deflaters.Get().(*zlib.Writer)
	defer deflaters.Put(w)
	w.Reset(buf)

	if _, err := w.Write(src); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return bytes.Clone(buf.Bytes()), nil
}
