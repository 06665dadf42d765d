package docstore

import (
	"strconv"
	"strings"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
)

type Dialect interface {
	// Quote 对标识符(表名、列名等)进行引用
	Quote(name string) string

	// QuoteLiteral 生成字符串字面量
	QuoteLiteral(val string) string

	// Placeholder 生成第 index 个参数占位符，index 从 1 开始
	Placeholder(index int) string

	// JsonExtract 提取 JSON 子结构
	JsonExtract(jsonExpr string, key string) string

	// JsonExtractText 以文本形式提取 JSON 字段
	JsonExtractText(jsonExpr string, key string) string

	// Cast 类型转换
	Cast(expr string, dbType string) string
}

var dialects = make(map[string]Dialect)

func RegisterDialect(name string, dialect Dialect) {
	dialects[name] = dialect
}

// GetDialect 获取已注册的方言
func GetDialect(name string) (Dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return nil, ferr.ErrInvalidDialect(name)
	}
	return d, nil
}

type Postgresql struct{}

// Quote PostgreSQL使用双引号作为标识符引用符
func (p Postgresql) Quote(name string) string {
	return "\"" + strings.ReplaceAll(name, "\"", "\"\"") + "\""
}

func (p Postgresql) QuoteLiteral(val string) string {
	return "'" + strings.ReplaceAll(val, "'", "''") + "'"
}

// Placeholder PostgreSQL使用$n作为参数占位符
func (p Postgresql) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// JsonExtract PostgreSQL的JSON提取操作
func (p Postgresql) JsonExtract(jsonExpr string, key string) string {
	return jsonExpr + " -> " + p.QuoteLiteral(key)
}

// JsonExtractText PostgreSQL的JSON文本提取操作
func (p Postgresql) JsonExtractText(jsonExpr string, key string) string {
	return jsonExpr + " ->> " + p.QuoteLiteral(key)
}

func (p Postgresql) Cast(expr string, dbType string) string {
	return "CAST(" + expr + " AS " + dbType + ")"
}

// Rebind 把 ? 占位符依次改写为方言的占位符
// 单引号字面量与双引号标识符内的 ? 保持不变
func Rebind(d Dialect, sql string) string {
	if d == nil || d.Placeholder(1) == "?" {
		return sql
	}

	var (
		builder strings.Builder
		quote   byte
		index   = 1
	)
	builder.Grow(len(sql) + 8)

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			// 字面量中用连续两个引号表示转义，会自然地关闭再打开
			if c == quote {
				quote = 0
			}
			builder.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			builder.WriteByte(c)
		case c == '?':
			builder.WriteString(d.Placeholder(index))
			index++
		default:
			builder.WriteByte(c)
		}
	}

	return builder.String()
}

// BaseDialect 使用 ? 占位符的方言，SQL 原样交给驱动
type BaseDialect struct {
	Postgresql
}

func (b BaseDialect) Placeholder(int) string {
	return "?"
}

func init() {
	RegisterDialect("postgresql", Postgresql{})
	RegisterDialect("postgresql-qmark", BaseDialect{})
}
