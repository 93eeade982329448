package buildergen

import (
	"go/token"
	"strings"

	"github.com/spf13/cast"
)

// Opt 三态配置项：区分"未出现"、"显式开启/赋值"、"显式关闭"
// 合并父子作用域时，只有 Present 的项才会覆盖父级
type Opt[T any] struct {
	Present bool
	Val     T
}

// Set 构造一个已出现的配置项
func Set[T any](v T) Opt[T] {
	return Opt[T]{Present: true, Val: v}
}

// Or 返回配置值，未出现时返回默认值
func (o Opt[T]) Or(def T) T {
	if o.Present {
		return o.Val
	}
	return def
}

// SetterFragment setter(...) 嵌套块的稀疏解析结果
// 结构体级出现时作为所有字段的继承默认值
type SetterFragment struct {
	Skip    Opt[bool]
	Name    Opt[string]
	Prefix  Opt[string]
	Into    Opt[bool]
	Param   Opt[string]
	Convert Opt[string]
	Try     Opt[bool]
}

// BuildFragment build(...) 嵌套块的稀疏解析结果
type BuildFragment struct {
	Name     Opt[string]
	Skip     Opt[bool]
	Validate Opt[string]
	ErrorFn  Opt[string]
}

// StructFragment 结构体级注解的稀疏解析结果
type StructFragment struct {
	Name      Opt[string]
	Pattern   Opt[string]
	Public    Opt[bool]
	Private   Opt[bool]
	Prefix    Opt[string]
	Derive    Opt[string]
	Default   Opt[bool]
	Setter    *SetterFragment
	Build     *BuildFragment
	ToBuilder Opt[bool]
	Output    Opt[string]
}

// FieldFragment 字段级注解的稀疏解析结果
type FieldFragment struct {
	Required  Opt[bool]
	Optional  Opt[bool]
	Default   Opt[string] // 裸 default 为 Present 且值为空，表示零值
	Skip      Opt[bool]
	Setter    *SetterFragment
	Try       Opt[bool]
	Validate  Opt[string]
	Transform Opt[string]
	Public    Opt[bool]
	Private   Opt[bool]
}

// entryKind 单个配置项的形态
type entryKind int

const (
	entryFlag   entryKind = iota // 裸标志: into
	entryValue                   // 键值对: name="x" 或 into=false
	entryNested                  // 嵌套块: setter(...)
)

// entry 一个逗号分隔的配置项
type entry struct {
	Key   string
	Kind  entryKind
	Value string // entryValue 时为去引号后的值，entryNested 时为括号内原文
}

// ParseStructFragment 解析结构体级注解参数
func ParseStructFragment(args string, pos token.Position) (*StructFragment, DiagList) {
	var diags DiagList
	frag := &StructFragment{}

	for _, e := range splitEntries(args) {
		switch e.Key {
		case "name":
			setString(&frag.Name, e, pos, "", &diags)
		case "pattern":
			setString(&frag.Pattern, e, pos, "", &diags)
		case "public":
			setBool(&frag.Public, e, pos, "", &diags)
		case "private":
			setBool(&frag.Private, e, pos, "", &diags)
		case "prefix":
			setString(&frag.Prefix, e, pos, "", &diags)
		case "derive":
			setString(&frag.Derive, e, pos, "", &diags)
		case "default":
			setBool(&frag.Default, e, pos, "", &diags)
		case "to_builder":
			setBool(&frag.ToBuilder, e, pos, "", &diags)
		case "output":
			setString(&frag.Output, e, pos, "", &diags)
		case "setter":
			if frag.Setter != nil {
				diags.Add(pos, "配置项 setter 重复出现")
				continue
			}
			if e.Kind != entryNested {
				diags.Add(pos, "配置项 setter 需要嵌套块形式 setter(...)")
				continue
			}
			frag.Setter = parseSetterFragment(e.Value, pos, "", &diags)
		case "build":
			if frag.Build != nil {
				diags.Add(pos, "配置项 build 重复出现")
				continue
			}
			if e.Kind != entryNested {
				diags.Add(pos, "配置项 build 需要嵌套块形式 build(...)")
				continue
			}
			frag.Build = parseBuildFragment(e.Value, pos, &diags)
		default:
			diags.Add(pos, "未知的配置项: %s", e.Key)
		}
	}

	return frag, diags
}

// ParseFieldFragment 解析字段级注解参数
func ParseFieldFragment(args string, pos token.Position, fieldName string) (*FieldFragment, DiagList) {
	var diags DiagList
	frag := &FieldFragment{}

	for _, e := range splitEntries(args) {
		switch e.Key {
		case "required":
			setBool(&frag.Required, e, pos, fieldName, &diags)
		case "optional":
			setBool(&frag.Optional, e, pos, fieldName, &diags)
		case "default":
			// 裸 default 与 default="expr" 都合法
			if frag.Default.Present {
				diags.AddField(pos, fieldName, "配置项 default 重复出现")
				continue
			}
			frag.Default = Set(e.Value)
		case "skip":
			setBool(&frag.Skip, e, pos, fieldName, &diags)
		case "try":
			setBool(&frag.Try, e, pos, fieldName, &diags)
		case "validate":
			setString(&frag.Validate, e, pos, fieldName, &diags)
		case "transform":
			setString(&frag.Transform, e, pos, fieldName, &diags)
		case "public":
			setBool(&frag.Public, e, pos, fieldName, &diags)
		case "private":
			setBool(&frag.Private, e, pos, fieldName, &diags)
		case "setter":
			if frag.Setter != nil {
				diags.AddField(pos, fieldName, "配置项 setter 重复出现")
				continue
			}
			if e.Kind != entryNested {
				diags.AddField(pos, fieldName, "配置项 setter 需要嵌套块形式 setter(...)")
				continue
			}
			frag.Setter = parseSetterFragment(e.Value, pos, fieldName, &diags)
		default:
			diags.AddField(pos, fieldName, "未知的配置项: %s", e.Key)
		}
	}

	return frag, diags
}

// parseSetterFragment 解析 setter(...) 嵌套块
func parseSetterFragment(args string, pos token.Position, fieldName string, diags *DiagList) *SetterFragment {
	frag := &SetterFragment{}

	for _, e := range splitEntries(args) {
		switch e.Key {
		case "skip":
			setBool(&frag.Skip, e, pos, fieldName, diags)
		case "name":
			setString(&frag.Name, e, pos, fieldName, diags)
		case "prefix":
			setString(&frag.Prefix, e, pos, fieldName, diags)
		case "into":
			setBool(&frag.Into, e, pos, fieldName, diags)
		case "param":
			setString(&frag.Param, e, pos, fieldName, diags)
		case "convert":
			setString(&frag.Convert, e, pos, fieldName, diags)
		case "try":
			setBool(&frag.Try, e, pos, fieldName, diags)
		default:
			diags.AddField(pos, fieldName, "setter 中未知的配置项: %s", e.Key)
		}
	}

	return frag
}

// parseBuildFragment 解析 build(...) 嵌套块
func parseBuildFragment(args string, pos token.Position, diags *DiagList) *BuildFragment {
	frag := &BuildFragment{}

	for _, e := range splitEntries(args) {
		switch e.Key {
		case "name":
			setString(&frag.Name, e, pos, "", diags)
		case "skip":
			setBool(&frag.Skip, e, pos, "", diags)
		case "validate":
			setString(&frag.Validate, e, pos, "", diags)
		case "error":
			setString(&frag.ErrorFn, e, pos, "", diags)
		default:
			diags.Add(pos, "build 中未知的配置项: %s", e.Key)
		}
	}

	return frag
}

// setBool 解析标志项，支持裸标志与显式赋值（into=false）
func setBool(dst *Opt[bool], e entry, pos token.Position, fieldName string, diags *DiagList) {
	if dst.Present {
		addDiag(diags, pos, fieldName, "配置项 %s 重复出现", e.Key)
		return
	}
	switch e.Kind {
	case entryFlag:
		*dst = Set(true)
	case entryValue:
		v, err := cast.ToBoolE(e.Value)
		if err != nil {
			addDiag(diags, pos, fieldName, "配置项 %s 的值 %q 不是布尔值", e.Key, e.Value)
			return
		}
		*dst = Set(v)
	default:
		addDiag(diags, pos, fieldName, "配置项 %s 不支持嵌套块", e.Key)
	}
}

// setString 解析键值项
func setString(dst *Opt[string], e entry, pos token.Position, fieldName string, diags *DiagList) {
	if dst.Present {
		addDiag(diags, pos, fieldName, "配置项 %s 重复出现", e.Key)
		return
	}
	if e.Kind != entryValue {
		addDiag(diags, pos, fieldName, "配置项 %s 需要值", e.Key)
		return
	}
	*dst = Set(e.Value)
}

func addDiag(diags *DiagList, pos token.Position, fieldName, format string, args ...any) {
	if fieldName != "" {
		diags.AddField(pos, fieldName, format, args...)
	} else {
		diags.Add(pos, format, args...)
	}
}

// splitEntries 将参数文本按顶层逗号切分为配置项
// 引号与嵌套括号内的逗号不参与切分
func splitEntries(args string) []entry {
	var entries []entry

	for _, part := range splitTopLevel(args, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entries = append(entries, parseEntry(part))
	}

	return entries
}

// parseEntry 解析单个配置项
func parseEntry(s string) entry {
	// 先找顶层的 = 或 (
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' && quote == '"' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '`':
			quote = c
		case '(':
			if depth == 0 {
				key := strings.TrimSpace(s[:i])
				inner := s[i:]
				if strings.HasSuffix(inner, ")") {
					return entry{Key: key, Kind: entryNested, Value: inner[1 : len(inner)-1]}
				}
				// 括号不闭合，按原文保留交由上层报未知项
				return entry{Key: key, Kind: entryNested, Value: inner[1:]}
			}
			depth++
		case '=':
			if depth == 0 {
				key := strings.TrimSpace(s[:i])
				value := strings.TrimSpace(s[i+1:])
				return entry{Key: key, Kind: entryValue, Value: unquote(value)}
			}
		}
	}

	return entry{Key: strings.TrimSpace(s), Kind: entryFlag}
}

// splitTopLevel 按顶层分隔符切分，忽略引号与括号内的分隔符
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' && quote == '"' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])

	return parts
}

// unquote 去除值两侧的双引号或反引号
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
