package docstore

import (
	"context"
	"database/sql"

	"github.com/fyerfyer/fyer-docstore/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Store 文档存储入口，负责创建批处理与翻译查询条件
type Store struct {
	options    *StoreOptions
	mappings   *mappingCache
	translator *Translator
	connect    func() Connection
	pooled     *PooledDB
}

// Open 基于 database/sql 打开文档存储
// 命令中的语句在同一个专用连接上逐条发送，需要一次往返发送整条命令时使用 OpenPgx
func Open(db *sql.DB, opts ...Option) (*Store, error) {
	o, err := newStoreOptions(opts)
	if err != nil {
		return nil, err
	}

	var pooled *PooledDB
	switch {
	case o.existingPool != nil:
		pooled = newPooledDBWithPool(db, o.existingPool)
	case o.Pool != nil:
		pooled = NewPooledDB(db, o.Pool)
	}

	s := newStore(o, func() Connection {
		return NewSQLConnection(db, o.Dialect, pooled)
	})
	s.pooled = pooled
	return s, nil
}

// OpenPgx 基于 pgxpool 打开文档存储
func OpenPgx(p *pgxpool.Pool, opts ...Option) (*Store, error) {
	o, err := newStoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return newStore(o, func() Connection {
		return NewPgxConnection(p)
	}), nil
}

// NewStore 使用自定义连接工厂创建文档存储
func NewStore(connect func() Connection, opts ...Option) (*Store, error) {
	o, err := newStoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return newStore(o, connect), nil
}

func newStore(o *StoreOptions, connect func() Connection) *Store {
	o.Logger.Info("document store opened",
		logger.String("schema", o.DatabaseSchema),
		logger.Int("update_batch_size", o.UpdateBatchSize),
		logger.Bool("char_buffer_pooling", o.UseCharBufferPooling))

	return &Store{
		options:    o,
		mappings:   newMappingCache(o.DatabaseSchema),
		translator: NewTranslator(o.Dialect, o.TypeMappings),
		connect:    connect,
	}
}

func (s *Store) Options() *StoreOptions {
	return s.options
}

func (s *Store) Translator() *Translator {
	return s.translator
}

// Mapping 获取文档类型的映射，结果会被缓存
func (s *Store) Mapping(doc any) (*DocumentMapping, error) {
	return s.mappings.get(doc)
}

// Where 翻译过滤条件
func (s *Store) Where(doc any, e Expr) (Fragment, error) {
	m, err := s.Mapping(doc)
	if err != nil {
		return nil, err
	}
	return s.translator.Translate(m, e)
}

// Query 构建文档查询，limit 为 0 时不限制
func (s *Store) Query(doc any, where Expr, limit int) (*Query, error) {
	m, err := s.Mapping(doc)
	if err != nil {
		return nil, err
	}
	return NewDocumentQuery(m).Where(where).Limit(limit).Build(s.translator)
}

// Insert 创建插入操作
func (s *Store) Insert(doc any) (*Insert, error) {
	m, err := s.Mapping(doc)
	if err != nil {
		return nil, err
	}
	return &Insert{Mapping: m, Document: doc}, nil
}

// Update 创建更新操作
func (s *Store) Update(doc any) (*Update, error) {
	m, err := s.Mapping(doc)
	if err != nil {
		return nil, err
	}
	return &Update{Mapping: m, Document: doc}, nil
}

// OptimisticUpdate 创建带版本校验的更新，expected 为空时使用版本记录中的值
func (s *Store) OptimisticUpdate(doc any, expected uuid.UUID) (*OptimisticUpdate, error) {
	m, err := s.Mapping(doc)
	if err != nil {
		return nil, err
	}
	return &OptimisticUpdate{Mapping: m, Document: doc, ExpectedVersion: expected}, nil
}

// Upsert 创建 upsert 操作
func (s *Store) Upsert(doc any) (*Upsert, error) {
	m, err := s.Mapping(doc)
	if err != nil {
		return nil, err
	}
	return &Upsert{Mapping: m, Document: doc}, nil
}

// Delete 创建按主键删除的操作，doc 只用于确定文档类型
func (s *Store) Delete(doc any, id any) (*Delete, error) {
	m, err := s.Mapping(doc)
	if err != nil {
		return nil, err
	}
	return &Delete{Mapping: m, ID: id}, nil
}

// DeleteWhere 创建按条件删除的操作
func (s *Store) DeleteWhere(doc any, e Expr) (*DeleteWhere, error) {
	m, err := s.Mapping(doc)
	if err != nil {
		return nil, err
	}
	where, err := s.translator.Translate(m, e)
	if err != nil {
		return nil, err
	}
	return &DeleteWhere{Mapping: m, Where: where}, nil
}

// NewUpdateBatch 创建批处理，每个批处理独占一个连接
func (s *Store) NewUpdateBatch(versions *VersionTracker) (*UpdateBatch, error) {
	if versions == nil {
		return nil, ErrNilVersionTracker
	}
	return NewUpdateBatch(s.options, s.options.Serializer, s.connect(), versions, s.options.WriterPool)
}

// ExecuteBatches 并发执行多个互相独立的批处理，返回第一个错误
// 任意一个失败时其余批处理的上下文会被取消
func (s *Store) ExecuteBatches(ctx context.Context, batches ...*UpdateBatch) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		batch := batch
		eg.Go(func() error {
			return batch.Execute(ctx)
		})
	}
	return eg.Wait()
}

// Close 关闭专用连接池，不关闭调用方传入的数据库
func (s *Store) Close() error {
	if s.pooled != nil {
		return s.pooled.Close()
	}
	return nil
}
