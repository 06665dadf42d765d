package docstore

import (
	"reflect"
	"strings"
	"sync"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
	"github.com/fyerfyer/fyer-docstore/docstore/internal/utils"
)

// DataColumn 存放文档 JSON 的列
const DataColumn = "data"

const (
	defaultSchema = "public"
	tablePrefix   = "mt_doc_"
	upsertPrefix  = "mt_upsert_"
)

// DocumentField 文档字段元数据
type DocumentField struct {
	Name     string
	JSONName string
	Type     reflect.Type
	index    []int
}

// DocumentMapping 文档类型到存储表的映射
type DocumentMapping struct {
	DocumentType   reflect.Type
	Alias          string
	DatabaseSchema string

	fields  map[string]*DocumentField
	idField *DocumentField
}

// NewDocumentMapping 解析文档类型，只支持结构体或结构体指针
func NewDocumentMapping(doc any, schema string) (*DocumentMapping, error) {
	typ := reflect.TypeOf(doc)
	if typ == nil {
		return nil, ferr.ErrPointerOnly
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, ferr.ErrPointerOnly
	}
	if schema == "" {
		schema = defaultSchema
	}

	m := &DocumentMapping{
		DocumentType:   typ,
		Alias:          utils.CamelToSnake(typ.Name()),
		DatabaseSchema: schema,
		fields:         make(map[string]*DocumentField, typ.NumField()),
	}

	for _, sf := range reflect.VisibleFields(typ) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		jsonName, ok := jsonFieldName(sf)
		if !ok {
			continue
		}
		f := &DocumentField{
			Name:     sf.Name,
			JSONName: jsonName,
			Type:     sf.Type,
			index:    sf.Index,
		}
		m.fields[sf.Name] = f

		if sf.Tag.Get("docstore") == "id" {
			m.idField = f
		}
	}

	if m.idField == nil {
		for _, name := range []string{"ID", "Id"} {
			if f, ok := m.fields[name]; ok {
				m.idField = f
				break
			}
		}
	}

	return m, nil
}

// jsonFieldName 与 encoding/json 保持一致的字段名
func jsonFieldName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	return name, true
}

// TableName 文档表名
func (m *DocumentMapping) TableName() string {
	return tablePrefix + m.Alias
}

// QualifiedTableName 带 schema 的表名
func (m *DocumentMapping) QualifiedTableName() string {
	return m.DatabaseSchema + "." + m.TableName()
}

// UpsertFunction 文档的 upsert 存储过程
func (m *DocumentMapping) UpsertFunction() FunctionName {
	return FunctionName{Schema: m.DatabaseSchema, Name: upsertPrefix + m.Alias}
}

// Field 按 Go 字段名查找字段
func (m *DocumentMapping) Field(name string) (*DocumentField, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Member 按 Go 字段名路径构建字段访问节点，支持嵌套结构体
func (m *DocumentMapping) Member(path ...string) (*Member, error) {
	if len(path) == 0 {
		return nil, ferr.ErrInvalidMember(m.DocumentType, "")
	}

	var (
		owner Expr
		res   *Member
		typ   = m.DocumentType
	)
	for _, name := range path {
		for typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		if typ.Kind() != reflect.Struct {
			return nil, ferr.ErrInvalidMember(typ, name)
		}
		sf, ok := typ.FieldByName(name)
		if !ok || !sf.IsExported() {
			return nil, ferr.ErrInvalidMember(typ, name)
		}
		jsonName, ok := jsonFieldName(sf)
		if !ok {
			return nil, ferr.ErrInvalidMember(typ, name)
		}

		res = &Member{Owner: owner, Name: jsonName, Type: sf.Type}
		owner = res
		typ = sf.Type
	}
	return res, nil
}

// Identity 读取文档的主键值
func (m *DocumentMapping) Identity(doc any) (any, error) {
	if m.idField == nil {
		return nil, ferr.ErrMissingIdentity(m.DocumentType)
	}
	val := reflect.ValueOf(doc)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, ferr.ErrPointerOnly
		}
		val = val.Elem()
	}
	if val.Type() != m.DocumentType {
		return nil, ferr.ErrPointerOnly
	}
	return val.FieldByIndex(m.idField.index).Interface(), nil
}

type mappingCache struct {
	sync.RWMutex
	schema   string
	mappings map[reflect.Type]*DocumentMapping
}

func newMappingCache(schema string) *mappingCache {
	return &mappingCache{
		schema:   schema,
		mappings: make(map[reflect.Type]*DocumentMapping),
	}
}

func (c *mappingCache) get(doc any) (*DocumentMapping, error) {
	typ := reflect.TypeOf(doc)
	c.RLock()
	m, ok := c.mappings[typ]
	c.RUnlock()
	if ok {
		return m, nil
	}

	c.Lock()
	defer c.Unlock()
	// 双重检查
	if m, ok = c.mappings[typ]; ok {
		return m, nil
	}

	m, err := NewDocumentMapping(doc, c.schema)
	if err != nil {
		return nil, err
	}
	c.mappings[typ] = m
	return m, nil
}
