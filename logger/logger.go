package logger

import (
	"io"
	"os"
	"time"
)

// Level 定义日志级别
type Level int

const (
	// DebugLevel 调试级别
	DebugLevel Level = iota
	// InfoLevel 信息级别
	InfoLevel
	// WarnLevel 警告级别
	WarnLevel
	// ErrorLevel 错误级别
	ErrorLevel
	// Disabled 关闭日志
	Disabled
)

// Field 表示结构化日志的字段
type Field struct {
	Key   string
	Value interface{}
}

// Logger 定义日志接口
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithField 返回附带单个字段的子日志
	WithField(key string, value interface{}) Logger
	// WithFields 返回附带多个字段的子日志
	WithFields(fields ...Field) Logger

	// SetLevel 设置日志级别
	SetLevel(level Level)
}

// Option 日志配置选项函数
type Option func(*Config)

// Config 日志配置
type Config struct {
	Level      Level
	Output     io.Writer
	TimeFormat string
}

// WithLevel 设置日志级别选项
func WithLevel(level Level) Option {
	return func(cfg *Config) {
		cfg.Level = level
	}
}

// WithOutput 设置日志输出选项
func WithOutput(w io.Writer) Option {
	return func(cfg *Config) {
		cfg.Output = w
	}
}

// WithTimeFormat 设置时间格式选项
func WithTimeFormat(format string) Option {
	return func(cfg *Config) {
		cfg.TimeFormat = format
	}
}

func defaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

// String 创建字符串类型的日志字段
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int 创建整数类型的日志字段
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 创建64位整数类型的日志字段
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool 创建布尔类型的日志字段
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration 创建时长类型的日志字段
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err 创建错误类型的日志字段
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any 创建任意类型的日志字段
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
