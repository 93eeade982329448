package structparse

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
)

// UnderlyingType 在目录中查找本地命名类型的底层类型
// 例如 `type UserID string` 返回 ("string", true)
// 仅处理非结构体、非接口的简单类型定义；别名（type X = Y）同样返回 Y
// 用于 setter(into) 的参数类型推断
func UnderlyingType(dir, typeName string) (string, bool) {
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return "", false
	}

	for _, filePath := range files {
		if strings.HasSuffix(filePath, "_test.go") {
			continue
		}

		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, filePath, nil, 0)
		if err != nil {
			continue
		}

		for _, decl := range node.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Name.Name != typeName {
					continue
				}
				switch ts.Type.(type) {
				case *ast.StructType, *ast.InterfaceType:
					return "", false
				}
				return exprText(fset, ts.Type), true
			}
		}
	}

	return "", false
}
