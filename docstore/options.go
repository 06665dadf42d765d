package docstore

import (
	"reflect"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/fyerfyer/fyer-docstore/logger"
	"github.com/fyerfyer/fyer-kit/pool"
)

// DefaultUpdateBatchSize 单条命令默认的最大语句数
const DefaultUpdateBatchSize = 500

// StoreOptions 文档存储配置
type StoreOptions struct {
	// UpdateBatchSize 单条命令的最大语句数，必须为正数
	UpdateBatchSize int
	// UseCharBufferPooling 序列化时是否复用缓冲区
	UseCharBufferPooling bool

	DatabaseSchema string
	TypeMappings   TypeMappings
	Dialect        Dialect
	Serializer     Serializer
	WriterPool     WriterPool
	Logger         logger.Logger
	Middlewares    []Middleware

	// 连接池相关，只对 database/sql 连接生效
	Pool         *PoolConfig
	existingPool pool.Pool
}

// DefaultStoreOptions 返回默认配置
func DefaultStoreOptions() *StoreOptions {
	return &StoreOptions{
		UpdateBatchSize:      DefaultUpdateBatchSize,
		UseCharBufferPooling: true,
		DatabaseSchema:       defaultSchema,
		TypeMappings:         DefaultTypeMappings(),
		Dialect:              Postgresql{},
		Serializer:           JSONSerializer{},
		WriterPool:           NewWriterPool(0),
		Logger:               logger.Nop(),
	}
}

// Option 定义配置项
type Option func(*StoreOptions) error

// WithUpdateBatchSize 设置单条命令的最大语句数
func WithUpdateBatchSize(size int) Option {
	return func(o *StoreOptions) error {
		if size <= 0 {
			return ferr.ErrInvalidBatchSize(size)
		}
		o.UpdateBatchSize = size
		return nil
	}
}

// WithCharBufferPooling 设置是否复用序列化缓冲区
func WithCharBufferPooling(enabled bool) Option {
	return func(o *StoreOptions) error {
		o.UseCharBufferPooling = enabled
		return nil
	}
}

// WithDatabaseSchema 设置文档表所在的 schema
func WithDatabaseSchema(schema string) Option {
	return func(o *StoreOptions) error {
		o.DatabaseSchema = schema
		return nil
	}
}

// WithTypeMapping 增加或覆盖一个类型的 PostgreSQL 类型
func WithTypeMapping(typ reflect.Type, dbType string) Option {
	return func(o *StoreOptions) error {
		o.TypeMappings = o.TypeMappings.Clone()
		o.TypeMappings[typ] = dbType
		return nil
	}
}

// WithDialect 按注册名设置方言
func WithDialect(name string) Option {
	return func(o *StoreOptions) error {
		d, err := GetDialect(name)
		if err != nil {
			return err
		}
		o.Dialect = d
		return nil
	}
}

func WithSerializer(s Serializer) Option {
	return func(o *StoreOptions) error {
		o.Serializer = s
		return nil
	}
}

func WithWriterPool(p WriterPool) Option {
	return func(o *StoreOptions) error {
		o.WriterPool = p
		return nil
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *StoreOptions) error {
		o.Logger = l
		return nil
	}
}

// WithMiddlewares 追加命令中间件，先添加的先执行
func WithMiddlewares(ms ...Middleware) Option {
	return func(o *StoreOptions) error {
		o.Middlewares = append(o.Middlewares, ms...)
		return nil
	}
}

// WithConnPool 启用专用连接池
func WithConnPool(config *PoolConfig) Option {
	return func(o *StoreOptions) error {
		if config == nil {
			config = DefaultPoolConfig()
		}
		o.Pool = config
		return nil
	}
}

// WithExistingPool 使用已存在的连接池，池中连接的 Raw 必须是 *sql.Conn
func WithExistingPool(p pool.Pool) Option {
	return func(o *StoreOptions) error {
		o.existingPool = p
		return nil
	}
}

func newStoreOptions(opts []Option) (*StoreOptions, error) {
	o := DefaultStoreOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Serializer == nil {
		o.Serializer = JSONSerializer{}
	}
	if o.Dialect == nil {
		o.Dialect = Postgresql{}
	}
	return o, nil
}
