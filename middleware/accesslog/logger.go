package accesslog

import (
	"context"
	"time"

	"github.com/fyerfyer/fyer-docstore/docstore"
	"github.com/fyerfyer/fyer-docstore/logger"
)

type MiddlewareBuilder struct {
	logger logger.Logger
	// slowThreshold 超过该耗时的命令以 Warn 级别输出
	slowThreshold time.Duration
	logSQL        bool
}

func (m *MiddlewareBuilder) SetLogger(l logger.Logger) *MiddlewareBuilder {
	m.logger = l
	return m
}

func (m *MiddlewareBuilder) SlowThreshold(d time.Duration) *MiddlewareBuilder {
	m.slowThreshold = d
	return m
}

// LogSQL 输出完整语句，参数不会被记录
func (m *MiddlewareBuilder) LogSQL(enabled bool) *MiddlewareBuilder {
	m.logSQL = enabled
	return m
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logger:        logger.New(),
		slowThreshold: time.Second,
	}
}

func (m *MiddlewareBuilder) Build() docstore.Middleware {
	return func(next docstore.Handler) docstore.Handler {
		return docstore.HandlerFunc(func(ctx context.Context, cc *docstore.CommandContext) error {
			startTime := time.Now()
			err := next.HandleCommand(ctx, cc)
			duration := time.Since(startTime)

			fields := []logger.Field{
				logger.String("batch_id", cc.BatchID.String()),
				logger.Int("index", cc.Index),
				logger.String("query_type", cc.QueryType),
				logger.Int("statements", len(cc.Calls)),
				logger.Int("callback_failures", len(cc.Failures)),
				logger.Duration("duration", duration),
			}
			if m.logSQL && cc.Command != nil {
				fields = append(fields, logger.String("sql", cc.Command.SQL()))
			}

			switch {
			case err != nil:
				m.logger.Error("batch command failed", append(fields, logger.Err(err))...)
			case len(cc.Failures) > 0 || (m.slowThreshold > 0 && duration > m.slowThreshold):
				m.logger.Warn("batch command executed", fields...)
			default:
				m.logger.Info("batch command executed", fields...)
			}
			return err
		})
	}
}
