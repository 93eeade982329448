package utils

import (
	"strings"
	"unicode"
)

// goKeywords Go 关键词集合，用于参数命名时避让
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// IsGoKeyword 检查是否是 Go 关键词
func IsGoKeyword(s string) bool {
	return goKeywords[s]
}

// UpperFirst 将首字母转换为大写
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// LowerFirst 将首字母转换为小写
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// IsExported 检查标识符是否导出（首字母大写）
func IsExported(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper([]rune(name)[0])
}

// ExportCase 按可见性调整标识符首字母大小写
func ExportCase(name string, exported bool) string {
	if exported {
		return UpperFirst(name)
	}
	return LowerFirst(name)
}

// JoinCamel 将前缀与名称按驼峰规则拼接
// 例如 JoinCamel("with", "Token") => "withToken"
func JoinCamel(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + UpperFirst(name)
}

// SafeParamName 生成安全的参数名（避免 Go 关键词和空名）
func SafeParamName(fieldName string) string {
	paramName := LowerFirst(fieldName)
	if IsGoKeyword(paramName) {
		return paramName + "Val"
	}
	if paramName == "" {
		return "value"
	}
	return paramName
}

// ReceiverName 根据类型名生成接收器变量名
// 例如 "ChannelBuilder" => "c"（取类型名首字母的小写形式）
func ReceiverName(typeName string) string {
	if typeName == "" {
		return "v"
	}
	r := strings.ToLower(typeName[:1])
	if IsGoKeyword(r) {
		return r + "v"
	}
	return r
}
