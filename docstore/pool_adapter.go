package docstore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/fyerfyer/fyer-kit/pool"
)

// PoolConfig 专用连接池配置
// 批处理需要独占一个物理连接，池中缓存的是 *sql.Conn
type PoolConfig struct {
	MaxIdle     int           // 最大空闲连接数
	MaxActive   int           // 最大活动连接数(0表示无限制)
	MaxIdleTime time.Duration // 连接最大空闲时间
	MaxLifetime time.Duration // 连接最大生命周期
	InitialSize int           // 初始连接数
	WaitTimeout time.Duration // 等待可用连接的超时时间
	DialTimeout time.Duration // 连接超时时间

	// 健康检查
	HealthCheck func(ctx context.Context, conn *sql.Conn) bool
}

// DefaultPoolConfig 返回默认的连接池配置
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdle:     10,
		MaxActive:   50,
		MaxIdleTime: 5 * time.Minute,
		MaxLifetime: 30 * time.Minute,
		WaitTimeout: 3 * time.Second,
		DialTimeout: 2 * time.Second,
		HealthCheck: defaultHealthCheck,
	}
}

func defaultHealthCheck(ctx context.Context, conn *sql.Conn) bool {
	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	return conn.PingContext(ctx) == nil
}

// dedicatedConn 实现 pool.Connection
type dedicatedConn struct {
	mu          sync.RWMutex
	conn        *sql.Conn
	healthCheck func(ctx context.Context, conn *sql.Conn) bool
	lastUse     time.Time
	closed      bool
}

// Close 由连接池在淘汰连接时调用，把物理连接还给 database/sql
func (c *dedicatedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *dedicatedConn) Raw() interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *dedicatedConn) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	return c.healthCheck(context.Background(), c.conn)
}

func (c *dedicatedConn) ResetState() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUse = time.Now()
	return nil
}

// connFactory 从 *sql.DB 中取出专用连接
type connFactory struct {
	db          *sql.DB
	healthCheck func(ctx context.Context, conn *sql.Conn) bool
}

func (f *connFactory) Create(ctx context.Context) (pool.Connection, error) {
	if f.db == nil {
		return nil, ferr.ErrCreateConnectionFailed(ferr.ErrInvalidConnection)
	}
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, ferr.ErrCreateConnectionFailed(err)
	}
	if !f.healthCheck(ctx, conn) {
		_ = conn.Close()
		return nil, ferr.ErrCreateConnectionFailed(ferr.ErrInvalidConnection)
	}
	return &dedicatedConn{
		conn:        conn,
		healthCheck: f.healthCheck,
		lastUse:     time.Now(),
	}, nil
}

// PooledDB 缓存专用连接，供批处理复用
type PooledDB struct {
	db     *sql.DB
	pool   pool.Pool
	config *PoolConfig
}

// NewPooledDB 创建连接池
func NewPooledDB(db *sql.DB, config *PoolConfig) *PooledDB {
	if config == nil {
		config = DefaultPoolConfig()
	}
	healthCheck := config.HealthCheck
	if healthCheck == nil {
		healthCheck = defaultHealthCheck
	}
	factory := &connFactory{db: db, healthCheck: healthCheck}

	options := []pool.Option{
		pool.WithMaxIdle(config.MaxIdle),
		pool.WithMaxActive(config.MaxActive),
		pool.WithMaxIdleTime(config.MaxIdleTime),
		pool.WithMaxLifetime(config.MaxLifetime),
		pool.WithWaitTimeout(config.WaitTimeout),
		pool.WithDialTimeout(config.DialTimeout),
		pool.WithInitialSize(config.InitialSize),
	}

	return &PooledDB{
		db:     db,
		pool:   pool.NewPool(factory, options...),
		config: config,
	}
}

// newPooledDBWithPool 使用已存在的连接池
func newPooledDBWithPool(db *sql.DB, p pool.Pool) *PooledDB {
	return &PooledDB{db: db, pool: p}
}

// GetConn 借出一个专用连接，lease 用于归还
func (p *PooledDB) GetConn(ctx context.Context) (*sql.Conn, pool.Connection, error) {
	lease, err := p.pool.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	conn, ok := lease.Raw().(*sql.Conn)
	if !ok {
		p.pool.Put(lease, ferr.ErrInvalidConnection)
		return nil, nil, ferr.ErrInvalidConnection
	}
	return conn, lease, nil
}

// PutConn 归还连接，err 不为空时连接会被丢弃
func (p *PooledDB) PutConn(lease pool.Connection, err error) {
	if lease != nil {
		p.pool.Put(lease, err)
	}
}

// Close 关闭连接池，不关闭底层 *sql.DB
func (p *PooledDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.pool.Shutdown(ctx)
}

// Stats 连接池统计信息
func (p *PooledDB) Stats() pool.Stats {
	return p.pool.Stats()
}
