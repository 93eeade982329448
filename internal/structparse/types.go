package structparse

import "go/token"

// ImportInfo 导入信息
type ImportInfo struct {
	Alias       string // 显式别名（如果有）
	PackageName string // 在源文件中的引用名（别名优先，否则取路径末段）
	ImportPath  string // 完整导入路径
}

// TypeParam 泛型类型参数
type TypeParam struct {
	Name       string // 参数名，如 "T"
	Constraint string // 约束表达式，如 "comparable"、"any"
}

// FieldInput 表示结构体的一个字段
// 字段顺序与源码声明顺序一致，生成时保持该顺序
type FieldInput struct {
	Name     string         // 字段名（匿名嵌入字段取类型基名）
	Type     string         // 声明类型的源码文本
	Exported bool           // 字段是否导出
	Embedded bool           // 是否为匿名嵌入字段
	Doc      string         // 文档注释（已去除注释前缀，含注解行）
	Tag      string         // 字段标签原文
	Attr     string         // 注解参数原始文本，如 `setter(into), default="42"`
	HasAttr  bool           // 是否存在注解（无参数的裸注解 Attr 为空但 HasAttr 为 true）
	Pos      token.Position // 字段声明位置
}

// StructInput 表示一次生成的输入：一个已解析的结构体声明
// 创建后不可变，供属性解析与配置合并消费
type StructInput struct {
	Name        string
	PackageName string
	FilePath    string
	Exported    bool
	TypeParams  []TypeParam
	Doc         string
	Attr        string // 结构体级注解参数原始文本
	HasAttr     bool
	Pos         token.Position
	Fields      []FieldInput

	// Imports 文件内可见的导入，key 为引用名
	Imports map[string]*ImportInfo
}
