package pool

import (
	"sync"
)

// Poolable 定义可被池化的对象接口
type Poolable interface {
	// Reset 重置对象状态，准备复用
	Reset()
}

// ObjectPool 基于 sync.Pool 的通用对象池
type ObjectPool[T Poolable] struct {
	pool sync.Pool
}

// NewObjectPool 创建一个新的对象池
func NewObjectPool[T Poolable](newFunc func() T) *ObjectPool[T] {
	return &ObjectPool[T]{
		pool: sync.Pool{
			New: func() interface{} {
				return newFunc()
			},
		},
	}
}

// Get 从池中获取一个对象
func (p *ObjectPool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put 将对象放回池中前先重置
func (p *ObjectPool[T]) Put(obj T) {
	obj.Reset()
	p.pool.Put(obj)
}
