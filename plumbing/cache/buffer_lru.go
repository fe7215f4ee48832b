package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/go-hg/go-hg/plumbing"
)

// BufferLRU implements a Buffer cache with an LRU eviction policy. It
// evicts when either the number of entries or the total size of the
// buffers goes over its limits.
type BufferLRU struct {
	MaxEntries int
	MaxSize    FileSize

	actualSize FileSize
	ll         *lru.Cache

	mut sync.Mutex
}

// NewBufferLRU creates a new BufferLRU with the given maximum number of
// entries and size. maxEntries zero means no limit on the entry count.
func NewBufferLRU(maxEntries int, maxSize FileSize) *BufferLRU {
	return &BufferLRU{MaxEntries: maxEntries, MaxSize: maxSize}
}

func (c *BufferLRU) init() {
	c.ll = lru.New(c.MaxEntries)
	c.ll.OnEvicted = func(_ lru.Key, value interface{}) {
		c.actualSize -= FileSize(len(value.([]byte)))
	}
}

// Put puts a buffer into the cache. Buffers larger than the cache itself
// are not stored.
func (c *BufferLRU) Put(rev plumbing.Revision, data []byte) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.ll == nil {
		c.init()
	}

	size := FileSize(len(data))
	if size > c.MaxSize {
		return
	}

	if old, ok := c.ll.Get(rev); ok {
		c.actualSize -= FileSize(len(old.([]byte)))
	}

	c.ll.Add(rev, data)
	c.actualSize += size

	for c.actualSize > c.MaxSize && c.ll.Len() > 1 {
		c.ll.RemoveOldest()
	}
}

// Get returns a buffer by its revision.
func (c *BufferLRU) Get(rev plumbing.Revision) ([]byte, bool) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.ll == nil {
		return nil, false
	}

	v, ok := c.ll.Get(rev)
	if !ok {
		return nil, false
	}

	return v.([]byte), true
}

// Clear the content of this buffer cache.
func (c *BufferLRU) Clear() {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.ll != nil {
		c.ll.Clear()
	}
	c.ll = nil
	c.actualSize = 0
}

// Len returns the number of cached buffers.
func (c *BufferLRU) Len() int {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.ll == nil {
		return 0
	}

	return c.ll.Len()
}

var _ Buffer = (*BufferLRU)(nil)
