//go:build cgo

package compression

import (
	"sync"

	"github.com/DataDog/zstd"
)

// UseStandardZstdLib indicates whether the zstd implementation is a port of the
// official one in the facebook/zstd repository.
const UseStandardZstdLib = true

var zstdCtxPool = sync.Pool{
	New: func() any {
		return zstd.NewCtx()
	},
}

func compressZstd(src []byte) ([]byte, error) {
	ctx := zstdCtxPool.Get().(zstd.Ctx)
	defer zstdCtxPool.Put(ctx)

	dst := make([]byte, 0, zstd.CompressBound(len(src)))
	return ctx.CompressLevel(dst, src, DefaultZstdLevel)
}

func decompressZstd(src []byte, sizeHint int) ([]byte, error) {
	ctx := zstdCtxPool.Get().(zstd.Ctx)
	defer zstdCtxPool.Put(ctx)

	return ctx.Decompress(make([]byte, 0, max(sizeHint, 0)), src)
}
