package docstore

import (
	"context"
	"sync"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// batchSender 发送 pgx 批量语句，*pgx.Conn 与 *pgxpool.Conn 都满足
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PgxConnection 基于 pgx 的连接
// 每条语句单独排入 pgx.Batch，一次往返发送
type PgxConnection struct {
	pool *pgxpool.Pool

	mu      sync.Mutex
	sender  batchSender
	release func()
	closed  bool
}

// NewPgxConnection 第一次执行时从 pgxpool 中获取连接
func NewPgxConnection(p *pgxpool.Pool) *PgxConnection {
	return &PgxConnection{pool: p}
}

// newPgxConnectionWithSender 使用已持有的连接
func newPgxConnectionWithSender(sender batchSender, release func()) *PgxConnection {
	return &PgxConnection{sender: sender, release: release}
}

func (c *PgxConnection) acquire(ctx context.Context) (batchSender, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}
	if c.sender != nil {
		return c.sender, nil
	}
	if c.pool == nil {
		return nil, ferr.ErrInvalidConnection
	}

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	c.sender, c.release = conn, conn.Release
	return conn, nil
}

func (c *PgxConnection) Execute(ctx context.Context, cmd *Command, fn func(ctx context.Context, exec CommandExecutor) error) error {
	sender, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, &pgxCommand{sender: sender, cmd: cmd})
}

func (c *PgxConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.release != nil {
		c.release()
	}
	c.sender, c.release = nil, nil
	return nil
}

type pgxCommand struct {
	sender batchSender
	cmd    *Command
}

func (p *pgxCommand) batch() *pgx.Batch {
	b := &pgx.Batch{}
	for _, stmt := range p.cmd.Statements {
		b.Queue(Rebind(Postgresql{}, stmt.SQL), stmt.Args...)
	}
	return b
}

func (p *pgxCommand) Query(ctx context.Context) (ResultSet, error) {
	br := p.sender.SendBatch(ctx, p.batch())
	rs := &batchResultSet{results: br, remaining: len(p.cmd.Statements)}
	if err := rs.advance(); err != nil {
		_ = br.Close()
		return nil, err
	}
	return rs, nil
}

func (p *pgxCommand) Exec(ctx context.Context) (int64, error) {
	br := p.sender.SendBatch(ctx, p.batch())
	var affected int64
	for range p.cmd.Statements {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return affected, err
		}
		affected += tag.RowsAffected()
	}
	return affected, br.Close()
}

// batchResultSet 把 pgx 的批量结果适配为 ResultSet
// 不返回列的语句会被跳过，与 database/sql 的多结果集行为一致
type batchResultSet struct {
	results   pgx.BatchResults
	remaining int
	rows      pgx.Rows
	err       error
	closed    bool
}

func (rs *batchResultSet) advance() error {
	if rs.rows != nil {
		rs.rows.Close()
		err := rs.rows.Err()
		rs.rows = nil
		if err != nil {
			return err
		}
	}
	for rs.remaining > 0 {
		rs.remaining--
		rows, err := rs.results.Query()
		if err != nil {
			return err
		}
		if len(rows.FieldDescriptions()) > 0 {
			rs.rows = rows
			return nil
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (rs *batchResultSet) Columns() ([]string, error) {
	if rs.rows == nil {
		return nil, ferr.ErrNoRows
	}
	fields := rs.rows.FieldDescriptions()
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, f.Name)
	}
	return cols, nil
}

func (rs *batchResultSet) Next() bool {
	return rs.rows != nil && rs.rows.Next()
}

func (rs *batchResultSet) Scan(dest ...any) error {
	if rs.rows == nil {
		return ferr.ErrNoRows
	}
	return rs.rows.Scan(dest...)
}

func (rs *batchResultSet) NextResultSet() bool {
	if rs.err != nil {
		return false
	}
	if err := rs.advance(); err != nil {
		rs.err = err
		return false
	}
	return rs.rows != nil
}

func (rs *batchResultSet) Err() error {
	if rs.err != nil {
		return rs.err
	}
	if rs.rows != nil {
		return rs.rows.Err()
	}
	return nil
}

func (rs *batchResultSet) Close() error {
	if rs.closed {
		return nil
	}
	rs.closed = true
	if rs.rows != nil {
		rs.rows.Close()
		rs.rows = nil
	}
	return rs.results.Close()
}
