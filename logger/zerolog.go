package logger

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// zerologLogger 使用 zerolog 实现的日志记录器
type zerologLogger struct {
	mu   sync.RWMutex
	zlog zerolog.Logger
}

// New 创建一个基于 zerolog 的日志记录器
func New(opts ...Option) Logger {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat
	zlog := zerolog.New(cfg.Output).With().Timestamp().Logger()

	return &zerologLogger{zlog: zlog.Level(toZerologLevel(cfg.Level))}
}

// Nop 返回一个丢弃所有输出的日志记录器
func Nop() Logger {
	return &zerologLogger{zlog: zerolog.Nop()}
}

func (l *zerologLogger) logger() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	zlog := l.zlog
	return &zlog
}

func (l *zerologLogger) Debug(msg string, fields ...Field) {
	write(l.logger().Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...Field) {
	write(l.logger().Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...Field) {
	write(l.logger().Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...Field) {
	write(l.logger().Error(), msg, fields)
}

func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(Field{Key: key, Value: value})
}

func (l *zerologLogger) WithFields(fields ...Field) Logger {
	ctx := l.logger().With()
	for _, field := range fields {
		ctx = addFieldToContext(ctx, field)
	}
	return &zerologLogger{zlog: ctx.Logger()}
}

func (l *zerologLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zlog = l.zlog.Level(toZerologLevel(level))
}

// write 填充字段后输出，级别被过滤时 event 为 nil
func write(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, field := range fields {
		addFieldToEvent(event, field)
	}
	event.Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case Disabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// addFieldToEvent 将字段添加到日志事件
func addFieldToEvent(event *zerolog.Event, field Field) {
	switch v := field.Value.(type) {
	case string:
		event.Str(field.Key, v)
	case int:
		event.Int(field.Key, v)
	case int64:
		event.Int64(field.Key, v)
	case bool:
		event.Bool(field.Key, v)
	case time.Duration:
		event.Dur(field.Key, v)
	case error:
		event.AnErr(field.Key, v)
	default:
		event.Interface(field.Key, v)
	}
}

func addFieldToContext(ctx zerolog.Context, field Field) zerolog.Context {
	switch v := field.Value.(type) {
	case string:
		return ctx.Str(field.Key, v)
	case int:
		return ctx.Int(field.Key, v)
	case int64:
		return ctx.Int64(field.Key, v)
	case bool:
		return ctx.Bool(field.Key, v)
	case time.Duration:
		return ctx.Dur(field.Key, v)
	case error:
		return ctx.AnErr(field.Key, v)
	default:
		return ctx.Interface(field.Key, v)
	}
}
