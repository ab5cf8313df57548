package utils

import (
	"sync"

	"github.com/valyala/bytebufferpool"
)

// BufferPool wraps bytebufferpool for the growing text buffers used by
// streaming sessions. bytebufferpool handles size classes on its own, so
// buffers released after a large document don't pin memory forever.
type BufferPool struct {
	pool *bytebufferpool.Pool
}

var (
	globalPool     *BufferPool
	globalPoolOnce sync.Once
)

// NewBufferPool creates a new buffer pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{pool: &bytebufferpool.Pool{}}
}

// Get retrieves a buffer from the pool.
func (bp *BufferPool) Get() *bytebufferpool.ByteBuffer {
	return bp.pool.Get()
}

// Put returns a buffer to the pool.
func (bp *BufferPool) Put(buf *bytebufferpool.ByteBuffer) {
	bp.pool.Put(buf)
}

// Global returns the process-wide buffer pool.
func Global() *BufferPool {
	globalPoolOnce.Do(func() {
		globalPool = NewBufferPool()
	})
	return globalPool
}

// Get retrieves a buffer from the global pool.
func Get() *bytebufferpool.ByteBuffer {
	return Global().Get()
}

// Put returns a buffer to the global pool.
func Put(buf *bytebufferpool.ByteBuffer) {
	Global().Put(buf)
}
