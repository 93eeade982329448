package structparse

import (
	"os"
	"path/filepath"
	"testing"
)

const testSource = `package models

import (
	"time"
	xstr "strings"
)

// Token 令牌类型
type Token string

// Channel 推送通道
// @Builder(pattern=mutable, derive="clone,string")
type Channel struct {
	// Token 通道令牌
	// @Builder(required)
	Token string
	// @Builder(optional)
	Special *bool
	CreatedAt time.Time
	_ xstr.Builder
}

// Pair 泛型示例
// @Builder
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// NotAStruct 接口类型
// @Builder
type NotAStruct interface {
	Do()
}
`

func writeTestFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "models.go")
	if err := os.WriteFile(path, []byte(testSource), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}
	return path
}

func TestParse(t *testing.T) {
	path := writeTestFile(t)

	input, err := Parse(path, "Channel", "Builder")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if input.Name != "Channel" {
		t.Errorf("Name = %q, want Channel", input.Name)
	}
	if input.PackageName != "models" {
		t.Errorf("PackageName = %q, want models", input.PackageName)
	}
	if !input.Exported {
		t.Error("Exported = false, want true")
	}
	if !input.HasAttr {
		t.Fatal("HasAttr = false, want true")
	}
	if input.Attr != `pattern=mutable, derive="clone,string"` {
		t.Errorf("Attr = %q", input.Attr)
	}

	// 匿名字段 _ 被跳过
	if len(input.Fields) != 3 {
		t.Fatalf("字段数 = %d, want 3", len(input.Fields))
	}

	token := input.Fields[0]
	if token.Name != "Token" || token.Type != "string" {
		t.Errorf("字段 0 = %s %s", token.Name, token.Type)
	}
	if !token.HasAttr || token.Attr != "required" {
		t.Errorf("字段 0 注解 = %q (has=%v)", token.Attr, token.HasAttr)
	}

	special := input.Fields[1]
	if special.Type != "*bool" {
		t.Errorf("字段 1 类型 = %q, want *bool", special.Type)
	}

	created := input.Fields[2]
	if created.HasAttr {
		t.Error("字段 2 不应有注解")
	}
	if created.Type != "time.Time" {
		t.Errorf("字段 2 类型 = %q, want time.Time", created.Type)
	}
}

func TestParseImports(t *testing.T) {
	path := writeTestFile(t)

	input, err := Parse(path, "Channel", "Builder")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	imp, ok := input.Imports["time"]
	if !ok {
		t.Fatal("缺少 time 导入")
	}
	if imp.ImportPath != "time" {
		t.Errorf("ImportPath = %q", imp.ImportPath)
	}

	// 别名导入按别名索引
	aliased, ok := input.Imports["xstr"]
	if !ok {
		t.Fatal("缺少 xstr 别名导入")
	}
	if aliased.ImportPath != "strings" {
		t.Errorf("别名导入路径 = %q, want strings", aliased.ImportPath)
	}
}

func TestParseTypeParams(t *testing.T) {
	path := writeTestFile(t)

	input, err := Parse(path, "Pair", "Builder")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(input.TypeParams) != 2 {
		t.Fatalf("类型参数数 = %d, want 2", len(input.TypeParams))
	}
	if input.TypeParams[0].Name != "K" || input.TypeParams[0].Constraint != "comparable" {
		t.Errorf("类型参数 0 = %+v", input.TypeParams[0])
	}
	if input.TypeParams[1].Name != "V" || input.TypeParams[1].Constraint != "any" {
		t.Errorf("类型参数 1 = %+v", input.TypeParams[1])
	}
}

func TestParseNotAStruct(t *testing.T) {
	path := writeTestFile(t)

	if _, err := Parse(path, "NotAStruct", "Builder"); err == nil {
		t.Error("接口目标应返回错误")
	}
	if _, err := Parse(path, "Missing", "Builder"); err == nil {
		t.Error("不存在的类型应返回错误")
	}
}

func TestUnderlyingType(t *testing.T) {
	path := writeTestFile(t)
	dir := filepath.Dir(path)

	underlying, ok := UnderlyingType(dir, "Token")
	if !ok {
		t.Fatal("应能推断 Token 的底层类型")
	}
	if underlying != "string" {
		t.Errorf("底层类型 = %q, want string", underlying)
	}

	// 结构体类型不可推断
	if _, ok := UnderlyingType(dir, "Channel"); ok {
		t.Error("结构体类型不应可推断")
	}
	if _, ok := UnderlyingType(dir, "Nope"); ok {
		t.Error("不存在的类型不应可推断")
	}
}
