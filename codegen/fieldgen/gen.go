package fieldgen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

const docstoreImport = "github.com/fyerfyer/fyer-docstore/docstore"

type Field struct {
	Name     string // Go 字段名
	JSONName string // 文档中的字段名
	Type     string
}

type ImportInfo struct {
	Path  string // 完整导入路径
	Alias string // 别名（如果有）
}

type StructInfo struct {
	Name    string
	Fields  []Field
	Pkg     string
	Imports []ImportInfo
}

// Generate 为 inputFile 中的每个导出结构体生成文档字段访问器
func Generate(inputFile string, outputDir string) error {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, inputFile, nil, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parse file error: %w", err)
	}

	structs, err := collectStructs(node)
	if err != nil {
		return err
	}

	for _, st := range structs {
		if err := generateForStruct(st, outputDir); err != nil {
			return fmt.Errorf("generate code error: %w", err)
		}
	}
	return nil
}

func collectStructs(node *ast.File) ([]StructInfo, error) {
	importMap := make(map[string]ImportInfo)
	for _, imp := range node.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		parts := strings.Split(importPath, "/")

		info := ImportInfo{Path: importPath}
		if imp.Name != nil {
			info.Alias = imp.Name.Name
			importMap[imp.Name.Name] = info
		} else {
			importMap[parts[len(parts)-1]] = info
		}
	}

	var (
		structs []StructInfo
		walkErr error
	)
	pkg := node.Name.Name

	ast.Inspect(node, func(n ast.Node) bool {
		t, ok := n.(*ast.TypeSpec)
		if !ok || walkErr != nil {
			return walkErr == nil
		}
		structType, ok := t.Type.(*ast.StructType)
		if !ok || !ast.IsExported(t.Name.Name) {
			return true
		}

		info := StructInfo{Name: t.Name.Name, Pkg: pkg}
		used := make(map[string]ImportInfo)
		for _, field := range structType.Fields.List {
			// 匿名字段不生成
			if len(field.Names) == 0 {
				continue
			}
			var tag reflect.StructTag
			if field.Tag != nil {
				raw, err := strconv.Unquote(field.Tag.Value)
				if err != nil {
					walkErr = fmt.Errorf("struct %s: invalid tag %s", t.Name.Name, field.Tag.Value)
					return false
				}
				tag = reflect.StructTag(raw)
			}
			for _, pkgName := range packageRefs(field.Type) {
				imp, exists := importMap[pkgName]
				if !exists {
					walkErr = fmt.Errorf("struct %s: package %s not found in imports", t.Name.Name, pkgName)
					return false
				}
				used[pkgName] = imp
			}

			for _, name := range field.Names {
				if !ast.IsExported(name.Name) {
					continue
				}
				jsonName, ok := jsonFieldName(name.Name, tag)
				if !ok {
					continue
				}
				info.Fields = append(info.Fields, Field{
					Name:     name.Name,
					JSONName: jsonName,
					Type:     types.ExprString(field.Type),
				})
			}
		}
		if len(info.Fields) == 0 {
			return true
		}
		for _, imp := range used {
			info.Imports = append(info.Imports, imp)
		}
		sort.Slice(info.Imports, func(i, j int) bool {
			return info.Imports[i].Path < info.Imports[j].Path
		})
		structs = append(structs, info)
		return true
	})
	return structs, walkErr
}

// packageRefs 字段类型中引用到的包名
func packageRefs(expr ast.Expr) []string {
	var res []string
	ast.Inspect(expr, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if ident, ok := sel.X.(*ast.Ident); ok {
				res = append(res, ident.Name)
			}
			return false
		}
		return true
	})
	return res
}

// jsonFieldName 与 encoding/json 的命名规则一致
func jsonFieldName(goName string, tag reflect.StructTag) (string, bool) {
	jsonTag := tag.Get("json")
	if jsonTag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(jsonTag, ",")
	if name == "" {
		name = goName
	}
	return name, true
}

func generateForStruct(info StructInfo, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	src, err := render(info)
	if err != nil {
		return err
	}

	fileName := strings.ToLower(info.Name) + "_fields.gen.go"
	return os.WriteFile(filepath.Join(outputDir, fileName), src, 0644)
}

func render(info StructInfo) ([]byte, error) {
	tmpl, err := template.New("fields").Parse(fieldsTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, struct {
		StructInfo
		Docstore string
	}{StructInfo: info, Docstore: docstoreImport}); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

const fieldsTemplate = `// Code generated by fieldgen. DO NOT EDIT.

package {{.Pkg}}

import (
	"reflect"

	"{{.Docstore}}"
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)

// {{.Name}}Fields {{.Name}} 文档的字段访问器
var {{.Name}}Fields = struct {
{{- range .Fields}}
	{{.Name}} *docstore.Member
{{- end}}
}{
{{- range .Fields}}
	{{.Name}}: docstore.Field({{printf "%q" .JSONName}}, reflect.TypeOf((*{{.Type}})(nil)).Elem()),
{{- end}}
}
`
