package docstore

import (
	"strings"
	"sync"
)

// FunctionName 存储过程名
type FunctionName struct {
	Schema string
	Name   string
}

// QualifiedName 带 schema 的函数名
func (f FunctionName) QualifiedName() string {
	if f.Schema == "" {
		return f.Name
	}
	return f.Schema + "." + f.Name
}

func (f FunctionName) String() string {
	return f.QualifiedName()
}

type sprocArg struct {
	name  string
	value any
}

// SprocCall 存储过程调用，加入批处理后仍可继续追加参数，直到命令被编译
type SprocCall struct {
	mu       sync.Mutex
	function FunctionName
	args     []sprocArg
	batch    *BatchCommand
}

func newSprocCall(batch *BatchCommand, function FunctionName) *SprocCall {
	return &SprocCall{batch: batch, function: function}
}

// Function 调用的函数
func (s *SprocCall) Function() FunctionName {
	return s.function
}

// With 追加参数，name 为空时按位置传参
func (s *SprocCall) With(name string, value any) *SprocCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.args = append(s.args, sprocArg{name: name, value: value})
	return s
}

// JSON 把文档序列化后作为参数
func (s *SprocCall) JSON(name string, doc any) (*SprocCall, error) {
	data, err := serializeDocument(s.batch, doc)
	if err != nil {
		return s, err
	}
	return s.With(name, data), nil
}

func (s *SprocCall) Build(builder *strings.Builder, args *[]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	builder.WriteString("select ")
	builder.WriteString(s.function.QualifiedName())
	builder.WriteByte('(')
	for i, arg := range s.args {
		if i > 0 {
			builder.WriteString(", ")
		}
		if arg.name != "" {
			builder.WriteString(arg.name)
			builder.WriteString(" => ")
		}
		builder.WriteByte('?')
		*args = append(*args, arg.value)
	}
	builder.WriteByte(')')
}
