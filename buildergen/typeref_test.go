package buildergen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dave/jennifer/jen"

	"github.com/donutnomad/buildergen/internal/structparse"
)

// renderDecl 把单条声明放进完整文件渲染，返回格式化后的源码文本
// 裸片段无法通过 gofmt，类型代码必须在声明上下文中检验
func renderDecl(t *testing.T, decl *jen.Statement) string {
	t.Helper()
	f := jen.NewFile("models")
	f.Add(decl)
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	return buf.String()
}

func TestTypeCode(t *testing.T) {
	imports := map[string]*structparse.ImportInfo{
		"time": {PackageName: "time", ImportPath: "time"},
		"xstr": {Alias: "xstr", PackageName: "xstr", ImportPath: "strings"},
	}

	tests := []struct {
		typ  string
		want string
		expr bool // 值表达式（默认值）而不是类型
	}{
		{typ: "string", want: "string"},
		{typ: "*bool", want: "*bool"},
		{typ: "[]byte", want: "[]byte"},
		{typ: "[4]int", want: "[4]int"},
		{typ: "map[string]int", want: "map[string]int"},
		{typ: "chan int", want: "chan int"},
		{typ: "<-chan int", want: "<-chan int"},
		{typ: "time.Time", want: "time.Time"},
		{typ: "xstr.Builder", want: "strings.Builder"},
		{typ: "func(a int, b int) error", want: "func(a int, b int) error"},
		{typ: "List[int]", want: "List[int]"},
		{typ: "time.Now()", want: "time.Now()", expr: true},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			decl := jen.Var().Id("v")
			if tt.expr {
				decl = decl.Op("=")
			}
			decl = decl.Add(typeCode(tt.typ, imports))

			got := renderDecl(t, decl)
			if !strings.Contains(got, tt.want) {
				t.Errorf("typeCode(%q) 渲染为:\n%s\n应包含 %q", tt.typ, got, tt.want)
			}
		})
	}
}

func TestTypeCodeQualifiedImport(t *testing.T) {
	imports := map[string]*structparse.ImportInfo{
		"time": {PackageName: "time", ImportPath: "time"},
	}

	// 跨包类型经 Qual 输出，渲染的文件必须带上 import
	got := renderDecl(t, jen.Var().Id("v").Add(typeCode("time.Time", imports)))
	if !strings.Contains(got, `"time"`) {
		t.Errorf("渲染结果缺少 time 导入:\n%s", got)
	}
}

func TestFuncRefCode(t *testing.T) {
	imports := map[string]*structparse.ImportInfo{
		"apperr": {PackageName: "apperr", ImportPath: "example.com/pkg/apperr"},
	}

	local := ParseFuncRef("checkToken")
	got := renderDecl(t, jen.Var().Id("_").Op("=").Add(funcRefCode(&local, imports)))
	if !strings.Contains(got, "var _ = checkToken") {
		t.Errorf("本地引用渲染为:\n%s", got)
	}

	qualified := ParseFuncRef("apperr.Wrap")
	got = renderDecl(t, jen.Var().Id("_").Op("=").Add(funcRefCode(&qualified, imports)))
	if !strings.Contains(got, "apperr.Wrap") || !strings.Contains(got, `"example.com/pkg/apperr"`) {
		t.Errorf("跨包引用渲染为:\n%s", got)
	}
}
