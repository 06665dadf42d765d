package docstore

import (
	"strings"
)

// Fragment 翻译后的 SQL 条件片段
// 渲染结果总是一个完整的布尔表达式，可以直接组合
type Fragment interface {
	Build(builder *strings.Builder, args *[]any)
}

// WhereFragment 叶子条件，SQL 中最多包含一个占位符
type WhereFragment struct {
	SQL      string
	Param    any
	HasParam bool
}

// NewWhereFragment 创建不带参数的条件
func NewWhereFragment(sql string) *WhereFragment {
	return &WhereFragment{SQL: sql}
}

// NewWhereFragmentWithParam 创建带一个绑定参数的条件
func NewWhereFragmentWithParam(sql string, param any) *WhereFragment {
	return &WhereFragment{SQL: sql, Param: param, HasParam: true}
}

func (w *WhereFragment) Build(builder *strings.Builder, args *[]any) {
	builder.WriteString(w.SQL)
	if w.HasParam {
		*args = append(*args, w.Param)
	}
}

const (
	connectorAnd = "and"
	connectorOr  = "or"
)

// CompoundFragment 用 and/or 连接两个片段
type CompoundFragment struct {
	Connector string
	Left      Fragment
	Right     Fragment
}

func (c *CompoundFragment) Build(builder *strings.Builder, args *[]any) {
	builder.WriteByte('(')
	c.Left.Build(builder, args)
	builder.WriteString(") ")
	builder.WriteString(c.Connector)
	builder.WriteString(" (")
	c.Right.Build(builder, args)
	builder.WriteByte(')')
}

// ToSQL 单独渲染片段
func ToSQL(f Fragment) (string, []any) {
	var (
		builder strings.Builder
		args    []any
	)
	f.Build(&builder, &args)
	return builder.String(), args
}
