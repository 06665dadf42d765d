package docstore

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/patrickmn/go-cache"
)

const (
	locatorExpiration      = 10 * time.Minute
	locatorCleanupInterval = 10 * time.Minute
)

// Translator 把过滤条件语法树翻译为 SQL 片段
// 翻译是 (mapping, expr) 的纯函数，可被并发调用
type Translator struct {
	dialect  Dialect
	mappings TypeMappings
	// locators 缓存字段定位器，键为表名与字段路径
	locators *cache.Cache
}

// NewTranslator 创建翻译器，类型映射会被复制，之后的修改不影响翻译结果
func NewTranslator(d Dialect, mappings TypeMappings) *Translator {
	if d == nil {
		d = Postgresql{}
	}
	if mappings == nil {
		mappings = DefaultTypeMappings()
	}
	return &Translator{
		dialect:  d,
		mappings: mappings.Clone(),
		locators: cache.New(locatorExpiration, locatorCleanupInterval),
	}
}

// Translate 翻译过滤条件
func (t *Translator) Translate(mapping *DocumentMapping, e Expr) (Fragment, error) {
	switch e := e.(type) {
	case *Comparison:
		return t.comparison(mapping, e)
	case *And:
		return t.compound(mapping, connectorAnd, e.Left, e.Right)
	case *Or:
		return t.compound(mapping, connectorOr, e.Left, e.Right)
	case *Member:
		if isBool(e.Type) {
			locator, err := t.memberLocator(mapping, e)
			if err != nil {
				return nil, err
			}
			return NewWhereFragment("(" + locator + ")::Boolean = True"), nil
		}
	case *Not:
		return t.not(mapping, e)
	case *MethodCall:
		return t.methodCall(mapping, e)
	case *Convert:
		return t.Translate(mapping, e.Operand)
	}
	return nil, ferr.ErrUnsupportedNodeOf(e)
}

func (t *Translator) comparison(mapping *DocumentMapping, e *Comparison) (Fragment, error) {
	op, ok := e.Op.Keyword()
	if !ok {
		return nil, ferr.ErrUnsupportedNodeOf(e)
	}

	locator, err := t.JSONLocator(mapping, e.Left)
	if err != nil {
		return nil, err
	}

	val, err := constantValue(e.Right)
	if err != nil {
		return nil, err
	}

	if isNil(val) {
		return NewWhereFragment(locator + " is null"), nil
	}
	return NewWhereFragmentWithParam(locator+" "+op+" ?", val), nil
}

func (t *Translator) compound(mapping *DocumentMapping, connector string, left, right Expr) (Fragment, error) {
	l, err := t.Translate(mapping, left)
	if err != nil {
		return nil, err
	}
	r, err := t.Translate(mapping, right)
	if err != nil {
		return nil, err
	}
	return &CompoundFragment{Connector: connector, Left: l, Right: r}, nil
}

// not 只支持对布尔字段取反
func (t *Translator) not(mapping *DocumentMapping, e *Not) (Fragment, error) {
	m, ok := e.Operand.(*Member)
	if !ok || !isBool(m.Type) {
		return nil, ferr.ErrUnsupportedNegation(e.Operand)
	}
	locator, err := t.memberLocator(mapping, m)
	if err != nil {
		return nil, err
	}
	return NewWhereFragment("(" + locator + ")::Boolean = False"), nil
}

func (t *Translator) methodCall(mapping *DocumentMapping, e *MethodCall) (Fragment, error) {
	if !isText(staticType(e.Receiver)) || len(e.Args) != 1 {
		return nil, ferr.ErrMethodNotImplemented(e.Method.String())
	}
	arg, ok := e.Args[0].(*Constant)
	if !ok {
		return nil, ferr.ErrMethodNotImplemented(e.Method.String())
	}
	val, ok := arg.Value.(string)
	if !ok {
		return nil, ferr.ErrMethodNotImplemented(e.Method.String())
	}

	switch e.Method {
	case MethodContains, MethodStartsWith, MethodEndsWith:
	default:
		return nil, ferr.ErrMethodNotImplemented(e.Method.String())
	}

	locator, err := t.JSONLocator(mapping, e.Receiver)
	if err != nil {
		return nil, err
	}
	return NewWhereFragmentWithParam(locator+" like ?", e.Method.pattern(val)), nil
}

// JSONLocator 生成字段定位器，类型转换节点对定位器透明
func (t *Translator) JSONLocator(mapping *DocumentMapping, e Expr) (string, error) {
	switch e := e.(type) {
	case *Member:
		return t.memberLocator(mapping, e)
	case *Convert:
		return t.JSONLocator(mapping, e.Operand)
	}
	return "", ferr.ErrUnsupportedNodeOf(e)
}

func (t *Translator) memberLocator(mapping *DocumentMapping, m *Member) (string, error) {
	// 从叶子走到根，得到的是倒序的字段名
	names := []string{m.Name}
	for parent, ok := m.Owner.(*Member); ok; parent, ok = parent.Owner.(*Member) {
		names = append(names, parent.Name)
	}

	key := cacheKey(mapping, names, m.Type)
	if locator, ok := t.locators.Get(key); ok {
		return locator.(string), nil
	}

	locator := DataColumn
	for i := len(names) - 1; i > 0; i-- {
		locator = t.dialect.JsonExtract(locator, names[i])
	}
	locator = strings.TrimRight(t.dialect.JsonExtractText(locator, names[0]), " ")

	if !isText(m.Type) {
		var err error
		locator, err = t.mappings.ApplyCast(t.dialect, locator, m.Type)
		if err != nil {
			return "", err
		}
	}

	t.locators.Set(key, locator, cache.DefaultExpiration)
	return locator, nil
}

// cacheKey 每段名字都带长度前缀，类型用进程内唯一编号，不同的字段路径不会得到相同的键
func cacheKey(mapping *DocumentMapping, reversed []string, typ reflect.Type) string {
	var builder strings.Builder
	if mapping != nil {
		writeKeyPart(&builder, mapping.QualifiedTableName())
	} else {
		builder.WriteByte('-')
	}
	for i := len(reversed) - 1; i >= 0; i-- {
		writeKeyPart(&builder, reversed[i])
	}
	builder.WriteByte('#')
	builder.WriteString(strconv.FormatUint(typeID(typ), 10))
	return builder.String()
}

func writeKeyPart(builder *strings.Builder, part string) {
	builder.WriteString(strconv.Itoa(len(part)))
	builder.WriteByte(':')
	builder.WriteString(part)
}

var (
	typeIDs    sync.Map // reflect.Type -> uint64
	lastTypeID atomic.Uint64
)

// typeID 同名的局部类型也会得到不同的编号，nil 为 0
func typeID(typ reflect.Type) uint64 {
	if typ == nil {
		return 0
	}
	if id, ok := typeIDs.Load(typ); ok {
		return id.(uint64)
	}
	id, _ := typeIDs.LoadOrStore(typ, lastTypeID.Add(1))
	return id.(uint64)
}

// constantValue 比较右侧只支持常量
func constantValue(e Expr) (any, error) {
	c, ok := e.(*Constant)
	if !ok {
		return nil, ferr.ErrUnsupportedValueOf(e)
	}
	return c.Value, nil
}

func isNil(val any) bool {
	if val == nil {
		return true
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func isBool(typ reflect.Type) bool {
	return typ != nil && typ.Kind() == reflect.Bool
}
