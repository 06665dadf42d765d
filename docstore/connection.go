package docstore

import (
	"context"
	"database/sql"
	"sync"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/fyerfyer/fyer-kit/pool"
)

// ResultSet 按语句顺序排列的多结果集读取器，*sql.Rows 满足该接口
type ResultSet interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	// NextResultSet 前进到下一条语句的结果集
	NextResultSet() bool
	Err() error
	Close() error
}

// CommandExecutor 以查询或执行的方式发送一条命令
type CommandExecutor interface {
	Query(ctx context.Context) (ResultSet, error)
	Exec(ctx context.Context) (int64, error)
}

// Connection 批处理使用的数据库连接
// 同一个批处理的所有命令在同一个物理连接上执行
type Connection interface {
	Execute(ctx context.Context, cmd *Command, fn func(ctx context.Context, exec CommandExecutor) error) error
	Close() error
}

// SQLConnection 基于 database/sql 的连接
// 第一次执行时才获取专用连接，Close 只会释放一次
type SQLConnection struct {
	db      *sql.DB
	pooled  *PooledDB
	dialect Dialect

	mu     sync.Mutex
	conn   *sql.Conn
	lease  pool.Connection
	closed bool
}

// NewSQLConnection pooled 为空时直接从 db 取连接
func NewSQLConnection(db *sql.DB, d Dialect, pooled *PooledDB) *SQLConnection {
	if d == nil {
		d = Postgresql{}
	}
	return &SQLConnection{
		db:      db,
		pooled:  pooled,
		dialect: d,
	}
}

func (c *SQLConnection) acquire(ctx context.Context) (*sql.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}
	if c.conn != nil {
		return c.conn, nil
	}

	if c.pooled != nil {
		conn, lease, err := c.pooled.GetConn(ctx)
		if err != nil {
			return nil, err
		}
		c.conn, c.lease = conn, lease
		return conn, nil
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}

func (c *SQLConnection) Execute(ctx context.Context, cmd *Command, fn func(ctx context.Context, exec CommandExecutor) error) error {
	conn, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	stmts := make([]Statement, 0, len(cmd.Statements))
	for _, stmt := range cmd.Statements {
		stmt.SQL = Rebind(c.dialect, stmt.SQL)
		stmts = append(stmts, stmt)
	}
	return fn(ctx, &sqlCommand{conn: conn, stmts: stmts})
}

func (c *SQLConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.lease != nil {
		c.pooled.PutConn(c.lease, nil)
		c.conn, c.lease = nil, nil
		return nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// sqlCommand 在同一个连接上逐条发送语句，每条语句的占位符单独编号
type sqlCommand struct {
	conn  *sql.Conn
	stmts []Statement
}

func (s *sqlCommand) Query(ctx context.Context) (ResultSet, error) {
	rs := &statementResultSet{ctx: ctx, conn: s.conn, stmts: s.stmts}
	if err := rs.advance(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *sqlCommand) Exec(ctx context.Context) (int64, error) {
	var affected int64
	for _, stmt := range s.stmts {
		res, err := s.conn.ExecContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return affected, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return affected, err
		}
		affected += n
	}
	return affected, nil
}

// statementResultSet 每条返回数据的语句对应一个结果集
// 不返回数据的语句在前进时直接执行，剩余语句在 Close 时执行完
type statementResultSet struct {
	ctx    context.Context
	conn   *sql.Conn
	stmts  []Statement
	next   int
	rows   *sql.Rows
	err    error
	closed bool
}

func (rs *statementResultSet) advance() error {
	if rs.rows != nil {
		err := rs.rows.Close()
		if err == nil {
			err = rs.rows.Err()
		}
		rs.rows = nil
		if err != nil {
			return err
		}
	}
	for rs.next < len(rs.stmts) {
		stmt := rs.stmts[rs.next]
		rs.next++
		if stmt.NoData {
			if _, err := rs.conn.ExecContext(rs.ctx, stmt.SQL, stmt.Args...); err != nil {
				return err
			}
			continue
		}
		rows, err := rs.conn.QueryContext(rs.ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return err
		}
		rs.rows = rows
		return nil
	}
	return nil
}

func (rs *statementResultSet) Columns() ([]string, error) {
	if rs.rows == nil {
		return nil, ferr.ErrNoRows
	}
	return rs.rows.Columns()
}

func (rs *statementResultSet) Next() bool {
	return rs.rows != nil && rs.rows.Next()
}

func (rs *statementResultSet) Scan(dest ...any) error {
	if rs.rows == nil {
		return ferr.ErrNoRows
	}
	return rs.rows.Scan(dest...)
}

func (rs *statementResultSet) NextResultSet() bool {
	if rs.err != nil {
		return false
	}
	if err := rs.advance(); err != nil {
		rs.err = err
		return false
	}
	return rs.rows != nil
}

func (rs *statementResultSet) Err() error {
	if rs.err != nil {
		return rs.err
	}
	if rs.rows != nil {
		return rs.rows.Err()
	}
	return nil
}

// Close 出错或取消后不再执行剩余语句
func (rs *statementResultSet) Close() error {
	if rs.closed {
		return nil
	}
	rs.closed = true
	if rs.err != nil || rs.ctx.Err() != nil {
		if rs.rows != nil {
			_ = rs.rows.Close()
			rs.rows = nil
		}
		return nil
	}
	for rs.rows != nil || rs.next < len(rs.stmts) {
		if err := rs.advance(); err != nil {
			if rs.rows != nil {
				_ = rs.rows.Close()
				rs.rows = nil
			}
			return err
		}
	}
	return nil
}
