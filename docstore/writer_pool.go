package docstore

import (
	"bytes"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/pool"
)

// CharBuffer 可池化的序列化缓冲区
type CharBuffer struct {
	bytes.Buffer
}

// WriterPool 序列化缓冲区池
type WriterPool interface {
	// Lease 借出一个空缓冲区
	Lease() *CharBuffer
	// Release 归还一组缓冲区
	Release(writers []*CharBuffer)
}

type charBufferPool struct {
	pool *pool.ObjectPool[*CharBuffer]
}

// NewWriterPool 创建缓冲区池，initialSize 为新缓冲区的初始容量
func NewWriterPool(initialSize int) WriterPool {
	if initialSize <= 0 {
		initialSize = 4096 // 默认4KB
	}
	return &charBufferPool{
		pool: pool.NewObjectPool(func() *CharBuffer {
			b := &CharBuffer{}
			b.Grow(initialSize)
			return b
		}),
	}
}

func (p *charBufferPool) Lease() *CharBuffer {
	return p.pool.Get()
}

func (p *charBufferPool) Release(writers []*CharBuffer) {
	for _, w := range writers {
		if w != nil {
			p.pool.Put(w)
		}
	}
}
