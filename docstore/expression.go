package docstore

import (
	"reflect"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
)

// Expr 过滤条件语法树的节点
// 节点创建后不可修改，且构成一棵树
type Expr interface {
	expr()
}

// CompareOp 比较运算符
type CompareOp uint8

const (
	OpEqual CompareOp = iota + 1
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
)

var compareKeywords = map[CompareOp]string{
	OpEqual:              "=",
	OpNotEqual:           "!=",
	OpGreaterThan:        ">",
	OpGreaterThanOrEqual: ">=",
	OpLessThan:           "<",
	OpLessThanOrEqual:    "<=",
}

// Keyword 返回运算符对应的 SQL 关键字，未知运算符返回 false
func (op CompareOp) Keyword() (string, bool) {
	kw, ok := compareKeywords[op]
	return kw, ok
}

func (op CompareOp) String() string {
	if kw, ok := op.Keyword(); ok {
		return kw
	}
	return "unknown"
}

// StringMethod 字符串匹配方法
type StringMethod uint8

const (
	MethodContains StringMethod = iota + 1
	MethodStartsWith
	MethodEndsWith
)

var stringMethods = map[string]StringMethod{
	"Contains":   MethodContains,
	"StartsWith": MethodStartsWith,
	"EndsWith":   MethodEndsWith,
}

// ParseStringMethod 在构建语法树时解析方法名
func ParseStringMethod(name string) (StringMethod, error) {
	m, ok := stringMethods[name]
	if !ok {
		return 0, ferr.ErrMethodNotImplemented(name)
	}
	return m, nil
}

func (m StringMethod) String() string {
	switch m {
	case MethodContains:
		return "Contains"
	case MethodStartsWith:
		return "StartsWith"
	case MethodEndsWith:
		return "EndsWith"
	}
	return "unknown"
}

// pattern 按方法在值的两侧放置通配符
func (m StringMethod) pattern(value string) string {
	switch m {
	case MethodStartsWith:
		return value + "%"
	case MethodEndsWith:
		return "%" + value
	default:
		return "%" + value + "%"
	}
}

// Comparison 二元比较
type Comparison struct {
	Left  Expr
	Op    CompareOp
	Right Expr
}

func (*Comparison) expr() {}

// And 逻辑与
type And struct {
	Left  Expr
	Right Expr
}

func (*And) expr() {}

// Or 逻辑或
type Or struct {
	Left  Expr
	Right Expr
}

func (*Or) expr() {}

// Not 逻辑非
type Not struct {
	Operand Expr
}

func (*Not) expr() {}

// Member 访问文档中的字段
// Owner 为 nil 时表示文档根上的字段
type Member struct {
	Owner Expr
	Name  string
	Type  reflect.Type
}

func (*Member) expr() {}

// Field 访问当前字段下的子字段
func (m *Member) Field(name string, typ reflect.Type) *Member {
	return &Member{Owner: m, Name: name, Type: typ}
}

// MethodCall 字符串方法调用
type MethodCall struct {
	Receiver Expr
	Method   StringMethod
	Args     []Expr
}

func (*MethodCall) expr() {}

// Constant 常量
type Constant struct {
	Value any
}

func (*Constant) expr() {}

// Convert 类型转换，对定位器透明
type Convert struct {
	Operand Expr
	Type    reflect.Type
}

func (*Convert) expr() {}

// Field 访问文档根上的字段
func Field(name string, typ reflect.Type) *Member {
	return &Member{Name: name, Type: typ}
}

// Const 创建常量节点
func Const(val any) *Constant {
	return &Constant{Value: val}
}

func Eq(left Expr, val any) *Comparison {
	return &Comparison{Left: left, Op: OpEqual, Right: Const(val)}
}

func NotEq(left Expr, val any) *Comparison {
	return &Comparison{Left: left, Op: OpNotEqual, Right: Const(val)}
}

func Gt(left Expr, val any) *Comparison {
	return &Comparison{Left: left, Op: OpGreaterThan, Right: Const(val)}
}

func Gte(left Expr, val any) *Comparison {
	return &Comparison{Left: left, Op: OpGreaterThanOrEqual, Right: Const(val)}
}

func Lt(left Expr, val any) *Comparison {
	return &Comparison{Left: left, Op: OpLessThan, Right: Const(val)}
}

func Lte(left Expr, val any) *Comparison {
	return &Comparison{Left: left, Op: OpLessThanOrEqual, Right: Const(val)}
}

func AndAlso(left, right Expr) *And {
	return &And{Left: left, Right: right}
}

func OrElse(left, right Expr) *Or {
	return &Or{Left: left, Right: right}
}

func Negate(operand Expr) *Not {
	return &Not{Operand: operand}
}

// NewMethodCall 创建方法调用节点，只接受 Contains/StartsWith/EndsWith
func NewMethodCall(receiver Expr, method string, args ...Expr) (*MethodCall, error) {
	m, err := ParseStringMethod(method)
	if err != nil {
		return nil, err
	}
	return &MethodCall{Receiver: receiver, Method: m, Args: args}, nil
}

func Contains(receiver Expr, val string) *MethodCall {
	return &MethodCall{Receiver: receiver, Method: MethodContains, Args: []Expr{Const(val)}}
}

func StartsWith(receiver Expr, val string) *MethodCall {
	return &MethodCall{Receiver: receiver, Method: MethodStartsWith, Args: []Expr{Const(val)}}
}

func EndsWith(receiver Expr, val string) *MethodCall {
	return &MethodCall{Receiver: receiver, Method: MethodEndsWith, Args: []Expr{Const(val)}}
}

// staticType 返回节点的静态类型，无法确定时返回 nil
func staticType(e Expr) reflect.Type {
	switch e := e.(type) {
	case *Member:
		return e.Type
	case *Convert:
		if e.Type != nil {
			return e.Type
		}
		return staticType(e.Operand)
	case *Constant:
		return reflect.TypeOf(e.Value)
	}
	return nil
}
