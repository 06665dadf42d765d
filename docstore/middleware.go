package docstore

import (
	"context"
	"errors"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/google/uuid"
)

const (
	QueryTypeQuery = "query"
	QueryTypeExec  = "exec"
)

// CommandContext 一条批处理命令的执行上下文
type CommandContext struct {
	BatchID   uuid.UUID
	Index     int
	QueryType string
	Command   *Command
	Calls     []Call
	Callbacks []Callback
	// Failures 回调报告的错误，由核心处理器填充
	Failures []error
}

// Handler 处理器接口定义
type Handler interface {
	HandleCommand(ctx context.Context, cc *CommandContext) error
}

// HandlerFunc 用于将函数转换为 Handler 接口
type HandlerFunc func(ctx context.Context, cc *CommandContext) error

func (h HandlerFunc) HandleCommand(ctx context.Context, cc *CommandContext) error {
	return h(ctx, cc)
}

// Middleware 中间件定义
type Middleware func(Handler) Handler

// BuildChain 构建处理器调用链
func BuildChain(core Handler, ms []Middleware) Handler {
	h := core
	// 从后往前构建,保证最先添加的中间件最先执行
	for i := len(ms) - 1; i >= 0; i-- {
		h = ms[i](h)
	}
	return h
}

// coreHandler 调用链的最后一环，在连接上执行命令
type coreHandler struct {
	conn Connection
}

func (c *coreHandler) HandleCommand(ctx context.Context, cc *CommandContext) error {
	return c.conn.Execute(ctx, cc.Command, func(ctx context.Context, exec CommandExecutor) error {
		if cc.QueryType != QueryTypeQuery {
			_, err := exec.Exec(ctx)
			return err
		}

		rs, err := exec.Query(ctx)
		if err != nil {
			return err
		}
		return postprocess(ctx, rs, cc)
	})
}

// postprocess 依次调用回调
// 第 i 个回调之前，只有第 i-1 条语句产生了结果集才前进一次
func postprocess(ctx context.Context, rs ResultSet, cc *CommandContext) (err error) {
	defer func() {
		if cerr := rs.Close(); err == nil {
			err = cerr
		}
	}()

	for i := range cc.Calls {
		if err = ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			if _, ok := cc.Calls[i-1].(NoDataReturnedCall); !ok && !rs.NextResultSet() {
				// 前进失败说明后续语句出错，剩下的回调不再执行
				if err = rs.Err(); err != nil {
					return err
				}
			}
		}

		if i >= len(cc.Callbacks) || cc.Callbacks[i] == nil {
			continue
		}
		if cerr := invokeCallback(ctx, cc.Callbacks[i], rs); cerr != nil {
			if isCancellation(cerr) {
				return cerr
			}
			if err = ctx.Err(); err != nil {
				return err
			}
			cc.Failures = append(cc.Failures, cerr)
		}
	}
	return rs.Err()
}

// invokeCallback 回调中的 panic 转为错误
func invokeCallback(ctx context.Context, cb Callback, rs ResultSet) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ferr.ErrCallbackPanic(r)
		}
	}()
	return cb.Postprocess(ctx, rs)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
