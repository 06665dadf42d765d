package docstore

import (
	"fmt"
	"reflect"
	"time"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/google/uuid"
)

// TypeMappings 字段类型到 PostgreSQL 类型名的映射
type TypeMappings map[reflect.Type]string

// DefaultTypeMappings 返回默认的类型映射
func DefaultTypeMappings() TypeMappings {
	return TypeMappings{
		reflect.TypeOf(int(0)):      "integer",
		reflect.TypeOf(int8(0)):     "smallint",
		reflect.TypeOf(int16(0)):    "smallint",
		reflect.TypeOf(int32(0)):    "integer",
		reflect.TypeOf(int64(0)):    "bigint",
		reflect.TypeOf(uint8(0)):    "smallint",
		reflect.TypeOf(uint16(0)):   "integer",
		reflect.TypeOf(uint32(0)):   "bigint",
		reflect.TypeOf(float32(0)):  "real",
		reflect.TypeOf(float64(0)):  "double precision",
		reflect.TypeOf(false):       "boolean",
		reflect.TypeOf(time.Time{}): "timestamp with time zone",
		reflect.TypeOf(uuid.UUID{}): "uuid",
		reflect.TypeOf(""):          "varchar",
	}
}

// Clone 复制一份映射
func (m TypeMappings) Clone() TypeMappings {
	res := make(TypeMappings, len(m))
	for k, v := range m {
		res[k] = v
	}
	return res
}

// PgType 查找类型对应的数据库类型，指针类型按其元素类型查找
func (m TypeMappings) PgType(typ reflect.Type) (string, bool) {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil {
		return "", false
	}
	dbType, ok := m[typ]
	return dbType, ok
}

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// isEnum 带有 String 方法的具名整数类型视为枚举
func isEnum(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return false
	}
	if typ.PkgPath() == "" {
		return false
	}
	return typ.Implements(stringerType) || reflect.PointerTo(typ).Implements(stringerType)
}

// isText 字段是否按文本比较，不需要转换
func isText(typ reflect.Type) bool {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ != nil && typ.Kind() == reflect.String
}

// ApplyCast 给 JSON 文本定位器加上类型转换
// ->> 总是返回文本，非字符串字段必须显式转换才能得到正确的比较语义
func (m TypeMappings) ApplyCast(d Dialect, locator string, typ reflect.Type) (string, error) {
	elem := typ
	for elem != nil && elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem != nil && isEnum(elem) {
		return "(" + locator + ")::int", nil
	}

	dbType, ok := m.PgType(typ)
	if !ok {
		return "", ferr.ErrUnmappedTypeOf(typ)
	}
	return d.Cast(locator, dbType), nil
}
