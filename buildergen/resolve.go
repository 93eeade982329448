package buildergen

import (
	"go/token"
	"path/filepath"
	"strings"

	"github.com/donutnomad/buildergen/internal/structparse"
	"github.com/donutnomad/buildergen/internal/utils"
)

// MarkerName 注解名称
const MarkerName = "Builder"

// Resolve 把一个已解析的结构体声明解析为最终生效配置
// 解析流程：结构体级注解 -> 内置默认值 -> 字段级注解按父子作用域合并 -> 类型推断 -> 校验
// 所有独立错误一次性累积返回，任何错误都不产生输出
func Resolve(input *structparse.StructInput) (*ResolvedConfig, DiagList) {
	var diags DiagList

	structFrag, fdiags := ParseStructFragment(input.Attr, input.Pos)
	diags.Merge(fdiags)

	cfg := &ResolvedConfig{
		StructName:  input.Name,
		PackageName: input.PackageName,
		FilePath:    input.FilePath,
		Pos:         input.Pos,
		TypeParams:  input.TypeParams,
		Imports:     input.Imports,
	}

	// 可见性：默认跟随目标结构体
	exported := input.Exported
	if structFrag.Public.Present && structFrag.Private.Present {
		diags.Add(input.Pos, "public 与 private 不能同时出现")
	} else if structFrag.Public.Present {
		exported = structFrag.Public.Val
	} else if structFrag.Private.Present {
		exported = !structFrag.Private.Val
	}
	if !input.Exported && exported {
		diags.Add(input.Pos, "未导出的结构体 %s 不能生成导出的 builder", input.Name)
		exported = false
	}
	cfg.Exported = exported

	// builder 类型名
	if structFrag.Name.Present {
		if structFrag.Name.Val == "" {
			diags.Add(input.Pos, "name 的值不能为空")
		}
		cfg.BuilderName = structFrag.Name.Val
	} else {
		cfg.BuilderName = utils.ExportCase(input.Name+"Builder", exported)
	}

	// setter 风格
	if structFrag.Pattern.Present {
		style, ok := parseSetterStyle(structFrag.Pattern.Val)
		if !ok {
			diags.Add(input.Pos, "未知的 pattern: %s（支持 owned、mutable、inplace）", structFrag.Pattern.Val)
		}
		cfg.Pattern = style
	}

	cfg.Prefix = structFrag.Prefix.Or("")
	cfg.ToBuilder = structFrag.ToBuilder.Or(false)
	cfg.Output = structFrag.Output.Or("")

	// derive 列表
	if structFrag.Derive.Present {
		for _, item := range strings.Split(structFrag.Derive.Val, ",") {
			switch strings.TrimSpace(item) {
			case "clone":
				cfg.DeriveClone = true
			case "string":
				cfg.DeriveString = true
			case "":
			default:
				diags.Add(input.Pos, "未知的 derive 项: %s（支持 clone、string）", strings.TrimSpace(item))
			}
		}
	}

	// build(...) 配置
	cfg.BuildName = utils.ExportCase("Build", exported)
	if b := structFrag.Build; b != nil {
		if b.Name.Present {
			if b.Name.Val == "" {
				diags.Add(input.Pos, "build(name) 的值不能为空")
			} else {
				cfg.BuildName = b.Name.Val
			}
		}
		cfg.BuildSkip = b.Skip.Or(false)
		cfg.BuildValidate = resolveFuncRef(b.Validate, "build(validate)", input.Pos, "", &diags)
		cfg.BuildErrorFn = resolveFuncRef(b.ErrorFn, "build(error)", input.Pos, "", &diags)
	}

	// 字段解析
	dir := filepath.Dir(input.FilePath)
	structDefault := structFrag.Default.Or(false)
	for i := range input.Fields {
		fi := &input.Fields[i]
		ffrag := &FieldFragment{}
		if fi.HasAttr {
			parsed, fd := ParseFieldFragment(fi.Attr, fi.Pos, fi.Name)
			diags.Merge(fd)
			ffrag = parsed
		}
		cfg.Fields = append(cfg.Fields, resolveField(cfg, fi, ffrag, structFrag.Setter, structDefault, dir, &diags))
	}

	methods := checkNameCollisions(cfg, &diags)
	assignBuilderFieldNames(cfg, methods)

	if len(diags) > 0 {
		return nil, diags
	}
	return cfg, nil
}

// resolveFuncRef 解析函数引用配置项，空值报错
func resolveFuncRef(opt Opt[string], key string, pos token.Position, fieldName string, diags *DiagList) *FuncRef {
	if !opt.Present {
		return nil
	}
	if opt.Val == "" {
		addDiag(diags, pos, fieldName, "配置项 %s 的值不能为空", key)
		return nil
	}
	ref := ParseFuncRef(opt.Val)
	return &ref
}

// resolveField 解析单个字段的最终配置
// 结构体级的 setter(...) 作为父作用域，字段级显式出现的项覆盖父级
func resolveField(cfg *ResolvedConfig, fi *structparse.FieldInput, ffrag *FieldFragment, parentSetter *SetterFragment, structDefault bool, dir string, diags *DiagList) *ResolvedFieldConfig {
	sf := mergeSetter(parentSetter, ffrag.Setter)

	rf := &ResolvedFieldConfig{
		Name: fi.Name,
		Type: fi.Type,
		Pos:  fi.Pos,
		Doc:  forwardDocLines(fi.Doc),
	}

	isPointer := strings.HasPrefix(fi.Type, "*")
	if isPointer {
		rf.ElemType = strings.TrimSpace(fi.Type[1:])
	}

	// default
	if ffrag.Default.Present {
		rf.HasDefault = true
		rf.DefaultExpr = ffrag.Default.Val
	} else if structDefault {
		rf.HasDefault = true
	}

	// required / optional
	explicitRequired := ffrag.Required.Present && ffrag.Required.Val
	explicitOptional := ffrag.Optional.Present && ffrag.Optional.Val
	if explicitRequired && explicitOptional {
		diags.AddField(fi.Pos, fi.Name, "required 与 optional 不能同时出现")
	}
	if explicitRequired && ffrag.Default.Present {
		diags.AddField(fi.Pos, fi.Name, "required 与 default 不能同时出现")
	}
	switch {
	case explicitRequired:
		rf.Required = true
		rf.HasDefault = false // required 覆盖结构体级 default
	case explicitOptional, isPointer, rf.HasDefault:
		rf.Required = false
	default:
		rf.Required = true
	}

	// skip
	rf.Skip = ffrag.Skip.Or(false) || sf.Skip.Or(false)
	if rf.Skip {
		if explicitRequired {
			diags.AddField(fi.Pos, fi.Name, "skip 的字段不能标记为 required")
		}
		rf.Repr = ReprPlain
		rf.Required = false
		rf.HasDefault = true
		if ffrag.Default.Present {
			rf.DefaultExpr = ffrag.Default.Val
		}
	} else if isPointer {
		rf.Repr = ReprPointer
	} else {
		rf.Repr = ReprWrapped
	}

	// setter 可见性
	exported := cfg.Exported
	if ffrag.Public.Present && ffrag.Private.Present {
		diags.AddField(fi.Pos, fi.Name, "public 与 private 不能同时出现")
	} else if ffrag.Public.Present {
		exported = ffrag.Public.Val
	} else if ffrag.Private.Present {
		exported = !ffrag.Private.Val
	}
	rf.Exported = exported

	// setter 名称：显式 name 原样使用，否则前缀拼接后按可见性折叠大小写
	if sf.Name.Present {
		if sf.Name.Val == "" {
			diags.AddField(fi.Pos, fi.Name, "setter(name) 的值不能为空")
		}
		rf.SetterName = sf.Name.Val
	} else {
		prefix := cfg.Prefix
		if sf.Prefix.Present {
			prefix = sf.Prefix.Val
		}
		rf.SetterName = utils.ExportCase(utils.JoinCamel(prefix, fi.Name), exported)
	}

	// setter 参数类型
	paramType := fi.Type
	if rf.Repr == ReprPointer {
		paramType = rf.ElemType
	}
	hasParamSource := false
	if sf.Param.Present {
		if sf.Param.Val == "" {
			diags.AddField(fi.Pos, fi.Name, "setter(param) 的值不能为空")
		} else {
			paramType = sf.Param.Val
			hasParamSource = true
		}
	} else if sf.Into.Or(false) {
		baseType := fi.Type
		if isPointer {
			baseType = rf.ElemType
		}
		if !isLocalIdent(baseType) {
			diags.AddField(fi.Pos, fi.Name, "setter(into) 要求字段类型是本地命名类型，%s 不满足", baseType)
		} else if underlying, ok := structparse.UnderlyingType(dir, baseType); ok {
			paramType = underlying
			hasParamSource = true
		} else {
			diags.AddField(fi.Pos, fi.Name, "无法推断 %s 的底层类型，请改用 setter(param)", baseType)
		}
	}
	rf.ParamType = paramType

	// convert / try
	rf.Convert = resolveFuncRef(sf.Convert, "setter(convert)", fi.Pos, fi.Name, diags)
	if rf.Convert != nil && !hasParamSource {
		diags.AddField(fi.Pos, fi.Name, "setter(convert) 需要 setter(param) 或 setter(into) 提供参数类型")
	}
	rf.Try = ffrag.Try.Or(false) || sf.Try.Or(false)
	if rf.Try {
		if rf.Convert == nil {
			diags.AddField(fi.Pos, fi.Name, "try 需要配合 setter(convert) 使用")
		}
		if cfg.Pattern == StyleOwned {
			diags.AddField(fi.Pos, fi.Name, "pattern=owned 不支持 try setter（失败会吞掉整个 builder）")
		}
	}

	rf.Validate = resolveFuncRef(ffrag.Validate, "validate", fi.Pos, fi.Name, diags)
	rf.Transform = resolveFuncRef(ffrag.Transform, "transform", fi.Pos, fi.Name, diags)

	return rf
}

// mergeSetter 合并父子 setter 片段，子级显式出现的项覆盖父级
func mergeSetter(parent, child *SetterFragment) *SetterFragment {
	merged := &SetterFragment{}
	for _, src := range []*SetterFragment{parent, child} {
		if src == nil {
			continue
		}
		overlayOpt(&merged.Skip, src.Skip)
		overlayOpt(&merged.Name, src.Name)
		overlayOpt(&merged.Prefix, src.Prefix)
		overlayOpt(&merged.Into, src.Into)
		overlayOpt(&merged.Param, src.Param)
		overlayOpt(&merged.Convert, src.Convert)
		overlayOpt(&merged.Try, src.Try)
	}
	return merged
}

func overlayOpt[T any](dst *Opt[T], src Opt[T]) {
	if src.Present {
		*dst = src
	}
}

// checkNameCollisions 检查生成的方法名是否互相冲突，返回占用的方法名集合
func checkNameCollisions(cfg *ResolvedConfig, diags *DiagList) map[string]string {
	reserved := make(map[string]string)
	if !cfg.BuildSkip {
		reserved[cfg.BuildName] = "build 方法"
	}
	if cfg.DeriveClone {
		reserved["Clone"] = "derive clone"
	}
	if cfg.DeriveString {
		reserved["String"] = "derive string"
	}

	for _, f := range cfg.Fields {
		if f.Skip {
			continue
		}
		name := f.FinalSetterName()
		if owner, ok := reserved[name]; ok {
			diags.AddField(f.Pos, f.Name, "setter 名 %s 与%s冲突", name, owner)
			continue
		}
		reserved[name] = "字段 " + f.Name + " 的 setter"
	}
	return reserved
}

// assignBuilderFieldNames 为每个字段分配 builder 内的存储字段名
// Go 不允许字段与方法同名，首字母小写后仍冲突时追加下划线
func assignBuilderFieldNames(cfg *ResolvedConfig, methods map[string]string) {
	used := make(map[string]bool)
	for _, f := range cfg.Fields {
		name := utils.SafeParamName(utils.LowerFirst(f.Name))
		for {
			_, taken := methods[name]
			if !taken && !used[name] {
				break
			}
			name += "_"
		}
		used[name] = true
		f.BuilderField = name
	}
}

// isLocalIdent 检查类型文本是否是一个普通标识符（本地命名类型）
func isLocalIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// forwardDocLines 提取字段文档中需要转发到 setter 的注释行
// 注解本身以及因此产生的空行不转发
func forwardDocLines(doc string) []string {
	stripped := structparse.StripMarker(doc, MarkerName)
	var lines []string
	for _, line := range strings.Split(stripped, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
