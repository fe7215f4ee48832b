// Package cache holds in-memory caches of reconstructed revision texts.
package cache

import "github.com/go-hg/go-hg/plumbing"

const (
	Byte FileSize = 1 << (iota * 10)
	KiByte
	MiByte
	GiByte
)

type FileSize int64

// DefaultMaxSize is the default total size of the texts held by a cache.
const DefaultMaxSize FileSize = 96 * MiByte

// Buffer is an interface to a revision text cache.
type Buffer interface {
	// Put puts a buffer into the cache. If the buffer is already in the
	// cache, it will be marked as used. Otherwise, it will be inserted. A
	// buffer might be evicted to make room for the new one.
	Put(rev plumbing.Revision, data []byte)
	// Get returns a buffer by its revision. It marks the buffer as used.
	// The returned slice must not be modified.
	Get(rev plumbing.Revision) ([]byte, bool)
	// Clear clears every object from the cache.
	Clear()
}
