// Package sync holds sync.Pool backed helpers for buffers and zlib
// streams reused across revlog reads and writes.
package sync

import (
	"bytes"
	"sync"
)

// maxPooledBuffer is the largest buffer capacity kept in the pool, bigger
// ones are left to the garbage collector.
const maxPooledBuffer = 1 << 20

var bytesBuffer = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(nil)
	},
}

// GetBytesBuffer returns a *bytes.Buffer that is managed by a sync.Pool.
// Returns a buffer that is reset and ready for use.
//
// After use, the *bytes.Buffer should be put back into the sync.Pool
// by calling PutBytesBuffer.
func GetBytesBuffer() *bytes.Buffer {
	buf := bytesBuffer.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBytesBuffer puts buf back into its sync.Pool.
func PutBytesBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	bytesBuffer.Put(buf)
}
