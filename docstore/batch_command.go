package docstore

import (
	"context"
	"strings"
	"sync"
)

// Call 批处理命令中的一条语句
// Build 写入语句文本，并按占位符顺序追加参数
type Call interface {
	Build(builder *strings.Builder, args *[]any)
}

// NoDataReturnedCall 标记不产生结果集的语句
// 结果集顺序读取时，这类语句之后不需要前进到下一个结果集
type NoDataReturnedCall interface {
	Call
	NoDataReturned()
}

// Callback 读取语句对应的结果集
// 返回的错误会被记录，不影响后续回调；只有取消会中止执行
type Callback interface {
	Postprocess(ctx context.Context, rs ResultSet) error
}

// CallbackFunc 用于将函数转换为 Callback 接口
type CallbackFunc func(ctx context.Context, rs ResultSet) error

func (f CallbackFunc) Postprocess(ctx context.Context, rs ResultSet) error {
	return f(ctx, rs)
}

// Statement 单条语句及其参数
type Statement struct {
	SQL  string
	Args []any
	// NoData 语句不返回结果集
	NoData bool
}

// Command 由一个 BatchCommand 编译出的多语句命令
type Command struct {
	Statements []Statement
}

const statementSeparator = ";\n"

// SQL 拼接所有语句
func (c *Command) SQL() string {
	var builder strings.Builder
	for i, stmt := range c.Statements {
		if i > 0 {
			builder.WriteString(statementSeparator)
		}
		builder.WriteString(stmt.SQL)
	}
	return builder.String()
}

// Args 按语句顺序拼接所有参数
func (c *Command) Args() []any {
	var args []any
	for _, stmt := range c.Statements {
		args = append(args, stmt.Args...)
	}
	return args
}

// BatchCommand 有容量上限的语句集合，只追加不删除
// 语句数达到上限后不再接受新语句
type BatchCommand struct {
	mu         sync.Mutex
	limit      int
	serializer Serializer
	writer     func() *CharBuffer
	calls      []Call
	callbacks  []Callback
}

func newBatchCommand(limit int, serializer Serializer, writer func() *CharBuffer) *BatchCommand {
	return &BatchCommand{
		limit:      limit,
		serializer: serializer,
		writer:     writer,
	}
}

// Serializer 参数绑定时使用的序列化器
func (b *BatchCommand) Serializer() Serializer {
	return b.serializer
}

// Writer 借出一个序列化缓冲区，执行结束后统一归还
func (b *BatchCommand) Writer() *CharBuffer {
	if b.writer == nil {
		return &CharBuffer{}
	}
	return b.writer()
}

// Count 当前语句数
func (b *BatchCommand) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// Sealed 是否已达到容量上限
func (b *BatchCommand) Sealed() bool {
	return b.Count() >= b.limit
}

// tryAddCall 在容量允许时追加语句
func (b *BatchCommand) tryAddCall(call Call, cb Callback) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) >= b.limit {
		return false
	}
	b.calls = append(b.calls, call)
	b.callbacks = append(b.callbacks, cb)
	return true
}

// snapshot 同时复制语句与回调，保证两者位置对应
func (b *BatchCommand) snapshot() ([]Call, []Callback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	calls := make([]Call, len(b.calls))
	copy(calls, b.calls)
	callbacks := make([]Callback, len(b.callbacks))
	copy(callbacks, b.callbacks)
	return calls, callbacks
}

// Calls 返回语句副本
func (b *BatchCommand) Calls() []Call {
	calls, _ := b.snapshot()
	return calls
}

// Callbacks 返回回调副本，与 Calls 按位置对应，未注册回调的位置为 nil
func (b *BatchCommand) Callbacks() []Callback {
	_, callbacks := b.snapshot()
	return callbacks
}

// HasCallbacks 是否至少有一个非空回调
func (b *BatchCommand) HasCallbacks() bool {
	return hasCallbacks(b.Callbacks())
}

func hasCallbacks(callbacks []Callback) bool {
	for _, cb := range callbacks {
		if cb != nil {
			return true
		}
	}
	return false
}

// BuildCommand 编译为一条多语句命令
func (b *BatchCommand) BuildCommand() *Command {
	return buildCommand(b.Calls())
}

func buildCommand(calls []Call) *Command {
	cmd := &Command{Statements: make([]Statement, 0, len(calls))}
	for _, call := range calls {
		var (
			builder strings.Builder
			args    []any
		)
		call.Build(&builder, &args)
		_, noData := call.(NoDataReturnedCall)
		cmd.Statements = append(cmd.Statements, Statement{SQL: builder.String(), Args: args, NoData: noData})
	}
	return cmd
}
