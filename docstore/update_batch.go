package docstore

import (
	"context"
	"sync"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/fyerfyer/fyer-docstore/logger"
	"github.com/google/uuid"
)

// UpdateBatch 把存储操作分组为有容量上限的命令，在同一个连接上按创建顺序执行
// Add 与 Sproc 可以被并发调用
type UpdateBatch struct {
	id         uuid.UUID
	options    *StoreOptions
	serializer Serializer
	conn       Connection
	versions   *VersionTracker
	writerPool WriterPool
	handler    Handler
	log        logger.Logger

	mu       sync.RWMutex
	commands []*BatchCommand

	writersMu sync.Mutex
	writers   []*CharBuffer

	closeOnce sync.Once
	closeErr  error
}

// NewUpdateBatch 创建批处理，versions 不能为空
// serializer 与 writerPool 为空时使用 options 中的配置
func NewUpdateBatch(options *StoreOptions, serializer Serializer, conn Connection, versions *VersionTracker, writerPool WriterPool) (*UpdateBatch, error) {
	if versions == nil {
		return nil, ferr.ErrNilVersionTracker
	}
	if conn == nil {
		return nil, ferr.ErrInvalidConnection
	}
	if options == nil {
		options = DefaultStoreOptions()
	}
	if options.UpdateBatchSize <= 0 {
		return nil, ferr.ErrInvalidBatchSize(options.UpdateBatchSize)
	}
	if serializer == nil {
		serializer = options.Serializer
	}
	if serializer == nil {
		serializer = JSONSerializer{}
	}
	if writerPool == nil {
		writerPool = options.WriterPool
	}
	log := options.Logger
	if log == nil {
		log = logger.Nop()
	}

	id := uuid.New()
	b := &UpdateBatch{
		id:         id,
		options:    options,
		serializer: serializer,
		conn:       conn,
		versions:   versions,
		writerPool: writerPool,
		handler:    BuildChain(&coreHandler{conn: conn}, options.Middlewares),
		log:        log.WithField("batch_id", id.String()),
	}
	b.commands = []*BatchCommand{b.newCommand()}
	return b, nil
}

// ID 批处理标识，用于日志与追踪
func (b *UpdateBatch) ID() uuid.UUID {
	return b.id
}

// Versions 调用方持有的版本记录
func (b *UpdateBatch) Versions() *VersionTracker {
	return b.versions
}

// Options 创建批处理时的配置
func (b *UpdateBatch) Options() *StoreOptions {
	return b.options
}

// Connection 批处理使用的连接
func (b *UpdateBatch) Connection() Connection {
	return b.conn
}

func (b *UpdateBatch) newCommand() *BatchCommand {
	return newBatchCommand(b.options.UpdateBatchSize, b.serializer, b.GetWriter)
}

// Current 返回当前未满的命令，满了则新建一个
func (b *UpdateBatch) Current() *BatchCommand {
	b.mu.RLock()
	last := b.commands[len(b.commands)-1]
	b.mu.RUnlock()
	if !last.Sealed() {
		return last
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// 双重检查
	last = b.commands[len(b.commands)-1]
	if !last.Sealed() {
		return last
	}
	last = b.newCommand()
	b.commands = append(b.commands, last)
	return last
}

// Commands 按创建顺序返回所有命令
func (b *UpdateBatch) Commands() []*BatchCommand {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]*BatchCommand, len(b.commands))
	copy(res, b.commands)
	return res
}

// GetWriter 借出一个序列化缓冲区，执行结束时统一归还
func (b *UpdateBatch) GetWriter() *CharBuffer {
	if b.writerPool == nil || !b.options.UseCharBufferPooling {
		return &CharBuffer{}
	}
	w := b.writerPool.Lease()
	b.writersMu.Lock()
	b.writers = append(b.writers, w)
	b.writersMu.Unlock()
	return w
}

func (b *UpdateBatch) releaseWriters() {
	b.writersMu.Lock()
	writers := b.writers
	b.writers = nil
	b.writersMu.Unlock()

	if len(writers) > 0 {
		b.writerPool.Release(writers)
	}
}

// Add 依次加入存储操作，操作实现 Callback 时同时注册为回调
func (b *UpdateBatch) Add(ops ...StorageOperation) error {
	for _, op := range ops {
		if v, ok := op.(versionedOperation); ok {
			v.useVersions(b.versions)
		}
		batch := b.Current()
		if err := op.AddParameters(batch); err != nil {
			return err
		}
		cb, _ := op.(Callback)
		// 并发追加时命令可能刚好被填满
		for !batch.tryAddCall(op, cb) {
			batch = b.Current()
		}
	}
	return nil
}

// Sproc 加入一次存储过程调用，返回的调用在执行前仍可追加参数
func (b *UpdateBatch) Sproc(function FunctionName, cb Callback) (*SprocCall, error) {
	if function.Name == "" {
		return nil, ferr.ErrEmptyFunctionName
	}
	for {
		batch := b.Current()
		call := newSprocCall(batch, function)
		if batch.tryAddCall(call, cb) {
			return call, nil
		}
	}
}

// Execute 按创建顺序执行所有命令
// 回调错误汇总为 AggregateError，连接错误与取消立即返回
func (b *UpdateBatch) Execute(ctx context.Context) error {
	defer b.releaseWriters()

	var failures []error
	for i, batch := range b.Commands() {
		if err := ctx.Err(); err != nil {
			return err
		}

		calls, callbacks := batch.snapshot()
		if len(calls) == 0 {
			continue
		}
		cc := &CommandContext{
			BatchID:   b.id,
			Index:     i,
			QueryType: QueryTypeExec,
			Command:   buildCommand(calls),
			Calls:     calls,
			Callbacks: callbacks,
		}
		if hasCallbacks(callbacks) {
			cc.QueryType = QueryTypeQuery
		}

		if err := b.handler.HandleCommand(ctx, cc); err != nil {
			b.log.Error("batch command failed",
				logger.Int("index", i),
				logger.Int("statements", len(calls)),
				logger.Err(err))
			return err
		}
		for _, f := range cc.Failures {
			b.log.Warn("callback failed", logger.Int("index", i), logger.Err(f))
		}
		b.log.Debug("batch command executed",
			logger.Int("index", i),
			logger.String("query_type", cc.QueryType),
			logger.Int("statements", len(calls)))
		failures = append(failures, cc.Failures...)
	}

	if len(failures) > 0 {
		return &AggregateError{Errors: failures}
	}
	return nil
}

// ExecuteAsync 在后台执行，结果从通道中读取一次后通道关闭
func (b *UpdateBatch) ExecuteAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- b.Execute(ctx)
	}()
	return done
}

// Close 释放连接，重复调用只生效一次
func (b *UpdateBatch) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.conn.Close()
	})
	return b.closeErr
}
