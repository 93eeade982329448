package buildergen

import (
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/donutnomad/buildergen/internal/structparse"
)

func makeInput(attr string, fields ...structparse.FieldInput) *structparse.StructInput {
	return &structparse.StructInput{
		Name:        "Channel",
		PackageName: "models",
		FilePath:    "/src/models/channel.go",
		Exported:    true,
		Attr:        attr,
		HasAttr:     true,
		Pos:         token.Position{Filename: "channel.go", Line: 5},
		Fields:      fields,
	}
}

func field(name, typ, attr string) structparse.FieldInput {
	return structparse.FieldInput{
		Name:     name,
		Type:     typ,
		Exported: true,
		Attr:     attr,
		HasAttr:  attr != "",
		Pos:      token.Position{Filename: "channel.go", Line: 7},
	}
}

func TestResolveDefaults(t *testing.T) {
	input := makeInput("",
		field("Token", "string", ""),
		field("Special", "*bool", ""),
	)

	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}

	if cfg.BuilderName != "ChannelBuilder" {
		t.Errorf("BuilderName = %q", cfg.BuilderName)
	}
	if cfg.Pattern != StyleMutable {
		t.Errorf("Pattern = %v, want mutable", cfg.Pattern)
	}
	if cfg.BuildName != "Build" {
		t.Errorf("BuildName = %q", cfg.BuildName)
	}

	token := cfg.Fields[0]
	// 非指针、无 default 的字段默认必填
	if !token.Required {
		t.Error("Token 应为必填")
	}
	if token.Repr != ReprWrapped {
		t.Errorf("Token Repr = %v, want wrapped", token.Repr)
	}
	if token.SetterName != "Token" || token.ParamType != "string" {
		t.Errorf("Token setter = %q(%q)", token.SetterName, token.ParamType)
	}

	special := cfg.Fields[1]
	// 指针字段默认可选
	if special.Required {
		t.Error("Special 应为可选")
	}
	if special.Repr != ReprPointer || special.ElemType != "bool" {
		t.Errorf("Special = %v elem %q", special.Repr, special.ElemType)
	}
	// 指针字段的 setter 参数收元素类型
	if special.ParamType != "bool" {
		t.Errorf("Special ParamType = %q, want bool", special.ParamType)
	}
}

func TestResolveStructDefault(t *testing.T) {
	// 结构体级 default 让所有字段默认可选
	input := makeInput("default",
		field("Token", "string", ""),
		field("Count", "int", "required"),
	)

	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}

	if cfg.Fields[0].Required || !cfg.Fields[0].HasDefault {
		t.Errorf("Token = required=%v hasDefault=%v", cfg.Fields[0].Required, cfg.Fields[0].HasDefault)
	}
	// 字段级 required 覆盖结构体级 default
	if !cfg.Fields[1].Required || cfg.Fields[1].HasDefault {
		t.Errorf("Count = required=%v hasDefault=%v", cfg.Fields[1].Required, cfg.Fields[1].HasDefault)
	}
}

func TestResolvePrefix(t *testing.T) {
	input := makeInput("prefix=with",
		field("Token", "string", ""),
		field("Body", "string", "setter(prefix=set)"),
		field("URL", "string", "setter(name=Endpoint)"),
	)

	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}

	if cfg.Fields[0].SetterName != "WithToken" {
		t.Errorf("Token setter = %q, want WithToken", cfg.Fields[0].SetterName)
	}
	// 字段级 prefix 覆盖结构体级
	if cfg.Fields[1].SetterName != "SetBody" {
		t.Errorf("Body setter = %q, want SetBody", cfg.Fields[1].SetterName)
	}
	// 显式 name 原样使用，不加前缀
	if cfg.Fields[2].SetterName != "Endpoint" {
		t.Errorf("URL setter = %q, want Endpoint", cfg.Fields[2].SetterName)
	}
}

func TestResolveConflicts(t *testing.T) {
	tests := []struct {
		name    string
		attr    string
		fields  []structparse.FieldInput
		wantMsg string
	}{
		{
			name:    "required with default",
			fields:  []structparse.FieldInput{field("Token", "string", `required, default="x"`)},
			wantMsg: "required 与 default 不能同时出现",
		},
		{
			name:    "required with optional",
			fields:  []structparse.FieldInput{field("Token", "string", "required, optional")},
			wantMsg: "required 与 optional 不能同时出现",
		},
		{
			name:    "skip with required",
			fields:  []structparse.FieldInput{field("Token", "string", "required, skip")},
			wantMsg: "skip 的字段不能标记为 required",
		},
		{
			name:    "try without convert",
			fields:  []structparse.FieldInput{field("Token", "string", "try")},
			wantMsg: "try 需要配合 setter(convert) 使用",
		},
		{
			name:    "owned with try",
			attr:    "pattern=owned",
			fields:  []structparse.FieldInput{field("Token", "string", "setter(param=string, convert=parse, try)")},
			wantMsg: "pattern=owned 不支持 try",
		},
		{
			name:    "convert without param source",
			fields:  []structparse.FieldInput{field("Token", "string", "setter(convert=parse)")},
			wantMsg: "setter(convert) 需要",
		},
		{
			name:    "unknown pattern",
			attr:    "pattern=frozen",
			fields:  []structparse.FieldInput{field("Token", "string", "")},
			wantMsg: "未知的 pattern: frozen",
		},
		{
			name: "setter name collision",
			fields: []structparse.FieldInput{
				field("Token", "string", "setter(name=Same)"),
				field("Body", "string", "setter(name=Same)"),
			},
			wantMsg: "冲突",
		},
		{
			name:    "setter collides with build",
			fields:  []structparse.FieldInput{field("Token", "string", "setter(name=Build)")},
			wantMsg: "build 方法",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, diags := Resolve(makeInput(tt.attr, tt.fields...))
			err := diags.Err()
			if err == nil {
				t.Fatal("应产生诊断")
			}
			if cfg != nil {
				t.Error("有诊断时不应返回配置")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("诊断 = %q, 应包含 %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestResolveVisibility(t *testing.T) {
	// private 折叠 builder 名与 setter 名
	input := makeInput("private",
		field("Token", "string", ""),
	)
	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}
	if cfg.BuilderName != "channelBuilder" {
		t.Errorf("BuilderName = %q, want channelBuilder", cfg.BuilderName)
	}
	if cfg.BuildName != "build" {
		t.Errorf("BuildName = %q, want build", cfg.BuildName)
	}
	if cfg.Fields[0].SetterName != "token" {
		t.Errorf("setter = %q, want token", cfg.Fields[0].SetterName)
	}

	// 未导出结构体不能要求导出 builder
	unexported := makeInput("public", field("Token", "string", ""))
	unexported.Name = "channel"
	unexported.Exported = false
	_, diags = Resolve(unexported)
	if diags.Err() == nil || !strings.Contains(diags.Err().Error(), "未导出的结构体") {
		t.Errorf("诊断 = %v", diags.Err())
	}
}

func TestResolveBuilderFieldNames(t *testing.T) {
	// 私有 builder 下 setter 名与存储字段名同为小写，存储字段追加下划线避让
	input := makeInput("private",
		field("Token", "string", ""),
	)
	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}
	if cfg.Fields[0].BuilderField != "token_" {
		t.Errorf("BuilderField = %q, want token_", cfg.Fields[0].BuilderField)
	}

	// 导出 builder 下无冲突，直接取首字母小写
	cfg, diags = Resolve(makeInput("", field("Token", "string", "")))
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}
	if cfg.Fields[0].BuilderField != "token" {
		t.Errorf("BuilderField = %q, want token", cfg.Fields[0].BuilderField)
	}

	// 关键词字段名避让
	cfg, diags = Resolve(makeInput("", field("Type", "string", "")))
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}
	if cfg.Fields[0].BuilderField != "typeVal" {
		t.Errorf("BuilderField = %q, want typeVal", cfg.Fields[0].BuilderField)
	}
}

func TestResolveTrySetterName(t *testing.T) {
	input := makeInput("",
		field("Body", "[]byte", "setter(param=any, convert=encode, try)"),
	)
	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}

	f := cfg.Fields[0]
	if !f.Try || f.Convert == nil || f.Convert.Name != "encode" {
		t.Errorf("字段 = try=%v convert=%v", f.Try, f.Convert)
	}
	if f.FinalSetterName() != "TryBody" {
		t.Errorf("FinalSetterName = %q, want TryBody", f.FinalSetterName())
	}
	if f.ParamType != "any" {
		t.Errorf("ParamType = %q, want any", f.ParamType)
	}
}

func TestResolveInto(t *testing.T) {
	dir := t.TempDir()
	source := `package models

type Token string

type Channel struct {
	Token Token
}
`
	path := filepath.Join(dir, "models.go")
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	input := makeInput("",
		field("Token", "Token", "setter(into)"),
	)
	input.FilePath = path

	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}
	if cfg.Fields[0].ParamType != "string" {
		t.Errorf("ParamType = %q, want string", cfg.Fields[0].ParamType)
	}

	// 非本地命名类型不可推断
	input = makeInput("", field("CreatedAt", "time.Time", "setter(into)"))
	input.FilePath = path
	_, diags = Resolve(input)
	if diags.Err() == nil || !strings.Contains(diags.Err().Error(), "本地命名类型") {
		t.Errorf("诊断 = %v", diags.Err())
	}
}

func TestResolveSkip(t *testing.T) {
	input := makeInput("",
		field("CreatedAt", "time.Time", `skip, default="time.Now()"`),
		field("Token", "string", ""),
	)
	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}

	created := cfg.Fields[0]
	if created.Repr != ReprPlain || !created.HasDefault || created.DefaultExpr != "time.Now()" {
		t.Errorf("CreatedAt = %+v", created)
	}

	setters := cfg.SetterFields()
	if len(setters) != 1 || setters[0].Name != "Token" {
		t.Errorf("SetterFields = %+v", setters)
	}
}

func TestResolveBuildOptions(t *testing.T) {
	input := makeInput(`build(name="Create", validate=checkAll, error=apperr.Wrap)`,
		field("Token", "string", ""),
	)
	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}

	if cfg.BuildName != "Create" {
		t.Errorf("BuildName = %q", cfg.BuildName)
	}
	if cfg.BuildValidate == nil || cfg.BuildValidate.Name != "checkAll" {
		t.Errorf("BuildValidate = %v", cfg.BuildValidate)
	}
	if cfg.BuildErrorFn == nil || cfg.BuildErrorFn.Pkg != "apperr" || cfg.BuildErrorFn.Name != "Wrap" {
		t.Errorf("BuildErrorFn = %v", cfg.BuildErrorFn)
	}
}

func TestResolveDocForwarding(t *testing.T) {
	f := field("Token", "string", "required")
	f.Doc = "Token 通道令牌\n@Builder(required)\n"
	input := makeInput("", f)

	cfg, diags := Resolve(input)
	if diags.Err() != nil {
		t.Fatalf("诊断 = %v", diags.Err())
	}
	doc := cfg.Fields[0].Doc
	if len(doc) != 1 || doc[0] != "Token 通道令牌" {
		t.Errorf("Doc = %q", doc)
	}
}
