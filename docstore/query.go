package docstore

import (
	"strconv"
	"strings"
)

// Query 构建完成、可直接交给驱动的语句
type Query struct {
	SQL  string
	Args []any
}

// DocumentQuery 按条件查询文档
type DocumentQuery struct {
	mapping *DocumentMapping
	where   Expr
	limit   int
}

// NewDocumentQuery 创建文档查询
func NewDocumentQuery(mapping *DocumentMapping) *DocumentQuery {
	return &DocumentQuery{mapping: mapping}
}

// Where 设置过滤条件
func (q *DocumentQuery) Where(e Expr) *DocumentQuery {
	q.where = e
	return q
}

// Limit 限制返回的文档数
func (q *DocumentQuery) Limit(num int) *DocumentQuery {
	q.limit = num
	return q
}

// Build 翻译条件并生成 SQL，占位符按方言改写
func (q *DocumentQuery) Build(t *Translator) (*Query, error) {
	var (
		builder strings.Builder
		args    []any
	)

	builder.WriteString("select ")
	builder.WriteString(DataColumn)
	builder.WriteString(" from ")
	builder.WriteString(q.mapping.QualifiedTableName())

	if q.where != nil {
		where, err := t.Translate(q.mapping, q.where)
		if err != nil {
			return nil, err
		}
		builder.WriteString(" where ")
		where.Build(&builder, &args)
	}

	if q.limit > 0 {
		builder.WriteString(" limit ")
		builder.WriteString(strconv.Itoa(q.limit))
	}

	return &Query{
		SQL:  Rebind(t.dialect, builder.String()),
		Args: args,
	}, nil
}
