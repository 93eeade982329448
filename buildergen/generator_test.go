package buildergen

import (
	"bytes"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/buildergen/internal/structparse"
	"github.com/donutnomad/buildergen/plugin"
)

// renderStruct 解析 -> 配置合并 -> 生成 -> 渲染，返回生成的源码文本
func renderStruct(t *testing.T, source, structName string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "models.go")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	input, err := structparse.Parse(path, structName, MarkerName)
	require.NoError(t, err)

	cfg, diags := Resolve(input)
	require.NoError(t, diags.Err())

	f := jen.NewFile(cfg.PackageName)
	emitSupportTypes(f)
	emitBuilder(f, cfg)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf))
	return buf.String()
}

// requireContains 断言生成代码包含片段，失败时输出完整代码便于定位
func requireContains(t *testing.T, code string, fragments ...string) {
	t.Helper()
	for _, frag := range fragments {
		if !strings.Contains(code, frag) {
			t.Fatalf("生成代码缺少片段 %q\n--- 完整代码 ---\n%s", frag, code)
		}
	}
}

const channelSource = `package models

// Channel 推送通道
// @Builder
type Channel struct {
	// Token 通道令牌
	// @Builder(required)
	Token string
	// @Builder(optional)
	Special *bool
}
`

func TestGenerateChannel(t *testing.T) {
	code := renderStruct(t, channelSource, "Channel")

	requireContains(t, code,
		"type ChannelBuilder struct",
		"token *string",
		"special *bool",
		"func NewChannelBuilder() *ChannelBuilder",
		"func (c *ChannelBuilder) Token(v string) *ChannelBuilder",
		"func (c *ChannelBuilder) Special(v bool) *ChannelBuilder",
		"func (c *ChannelBuilder) Build() (Channel, error)",
	)

	// 必填字段未设置时返回 UninitializedFieldError
	requireContains(t, code,
		"if c.token == nil {",
		`&UninitializedFieldError{Field: "Token"}`,
	)

	// 文档注释转发到 setter
	require.Contains(t, code, "// Token 通道令牌")

	// 可选指针字段不做必填检查，直接透传
	require.Contains(t, code, "special := c.special")
	require.NotContains(t, code, "if c.special == nil {\n\t\treturn Channel{}")
}

func TestGenerateOwned(t *testing.T) {
	source := `package models

// @Builder(pattern=owned, build(name="Create"))
type Request struct {
	Body string
}
`
	code := renderStruct(t, source, "Request")

	requireContains(t, code,
		"func NewRequestBuilder() RequestBuilder",
		"func (r RequestBuilder) Body(v string) RequestBuilder",
		"func (r RequestBuilder) Create() (Request, error)",
	)
	// owned 风格不产生指针接收者
	require.NotContains(t, code, "*RequestBuilder)")
}

func TestGenerateInplace(t *testing.T) {
	source := `package models

// @Builder(pattern=inplace)
type Config struct {
	Addr string
}
`
	code := renderStruct(t, source, "Config")

	// inplace setter 无返回值
	requireContains(t, code, "func (c *ConfigBuilder) Addr(v string) {")
	require.NotContains(t, code, "Addr(v string) *ConfigBuilder")
}

func TestGenerateTrySetter(t *testing.T) {
	source := `package models

// @Builder
type Message struct {
	// @Builder(setter(param=string, convert=parseBody, try))
	Body []byte
}
`
	code := renderStruct(t, source, "Message")

	requireContains(t, code,
		"func (m *MessageBuilder) TryBody(v string) (*MessageBuilder, error)",
		"x, err := parseBody(v)",
		"return m, err",
		"return m, nil",
	)
}

func TestGenerateConvertQualified(t *testing.T) {
	source := `package models

import "strconv"

// @Builder
type Page struct {
	// @Builder(setter(param=string, convert=strconv.Atoi, try))
	Size int
}

var _ = strconv.Itoa
`
	code := renderStruct(t, source, "Page")

	// 跨包函数引用按源文件导入表限定
	requireContains(t, code,
		`"strconv"`,
		"strconv.Atoi(v)",
	)
}

func TestGenerateDerive(t *testing.T) {
	source := `package models

// @Builder(prefix=with, derive="clone,string", to_builder)
type Lorem struct {
	Ipsum string
	Dolor *int
}
`
	code := renderStruct(t, source, "Lorem")

	requireContains(t, code,
		"func (l *LoremBuilder) WithIpsum(v string) *LoremBuilder",
		"func (l *LoremBuilder) Clone() *LoremBuilder",
		"func (l *LoremBuilder) String() string",
		"Ipsum=<unset>",
		"func (l Lorem) ToBuilder() *LoremBuilder",
	)

	// Clone 逐指针单元复制，而不是共享
	requireContains(t, code,
		"c := *l",
		"if l.ipsum != nil {",
		"x := *l.ipsum",
	)
}

func TestGenerateValidateTransform(t *testing.T) {
	source := `package models

import "strings"

// @Builder(build(error=wrapErr))
type Post struct {
	// @Builder(required, validate=checkTitle, transform=strings.TrimSpace)
	Title string
}

var _ = strings.TrimSpace
`
	code := renderStruct(t, source, "Post")

	requireContains(t, code,
		"title = strings.TrimSpace(title)",
		"if err := checkTitle(title); err != nil {",
		`&FieldValidationError{`,
		// build(error) 包装所有错误返回
		"wrapErr(",
	)
}

func TestGenerateDefaults(t *testing.T) {
	source := `package models

import "time"

// @Builder
type Event struct {
	// @Builder(default="time.Now()")
	At time.Time
	// @Builder(skip, default="42")
	Magic int
}
`
	code := renderStruct(t, source, "Event")

	requireContains(t, code,
		"at = time.Now()",
		"magic := 42",
	)
	// skip 字段没有 setter
	require.NotContains(t, code, "Magic(v int)")
}

func TestGenerateGeneric(t *testing.T) {
	source := `package models

// @Builder
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}
`
	code := renderStruct(t, source, "Pair")

	requireContains(t, code,
		"type PairBuilder[K comparable, V any] struct",
		"func NewPairBuilder[K comparable, V any]() *PairBuilder[K, V]",
		"func (p *PairBuilder[K, V]) Key(v K) *PairBuilder[K, V]",
		"Build() (Pair[K, V], error)",
	)
}

// methodBody 提取生成代码中指定方法的函数体文本
func methodBody(t *testing.T, code, signature string) string {
	t.Helper()
	idx := strings.Index(code, signature)
	if idx < 0 {
		t.Fatalf("生成代码缺少方法 %q\n--- 完整代码 ---\n%s", signature, code)
	}
	rest := code[idx:]
	end := strings.Index(rest, "\nfunc ")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

func TestSetterIndependence(t *testing.T) {
	// 每个 setter 只写入自己的存储字段；不同字段的 setter
	// 调用顺序因此不影响构建结果
	code := renderStruct(t, channelSource, "Channel")

	tokenBody := methodBody(t, code, "func (c *ChannelBuilder) Token(v string)")
	require.Contains(t, tokenBody, "c.token = &v")
	require.NotContains(t, tokenBody, "c.special")

	specialBody := methodBody(t, code, "func (c *ChannelBuilder) Special(v bool)")
	require.Contains(t, specialBody, "c.special = &v")
	require.NotContains(t, specialBody, "c.token")

	// 构建方法读取两个存储字段，字段取值互不依赖
	buildBody := methodBody(t, code, "func (c *ChannelBuilder) Build()")
	require.Contains(t, buildBody, "c.token")
	require.Contains(t, buildBody, "c.special")
}

func TestGenerateDeterministic(t *testing.T) {
	// 同一输入渲染两次必须产出相同文本
	first := renderStruct(t, channelSource, "Channel")
	second := renderStruct(t, channelSource, "Channel")

	if first != second {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(first),
			B:        difflib.SplitLines(second),
			FromFile: "第一次渲染",
			ToFile:   "第二次渲染",
			Context:  3,
		})
		t.Fatalf("两次渲染不一致:\n%s", diff)
	}
}

func TestGeneratorPlugin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.go")
	require.NoError(t, os.WriteFile(path, []byte(channelSource), 0644))

	g := New()
	require.Equal(t, GeneratorName, g.Name())
	require.Equal(t, []string{MarkerName}, g.Annotations())

	ctx := &plugin.GenerateContext{
		Targets: []*plugin.AnnotatedTarget{
			{
				Target: &plugin.Target{
					Kind:        plugin.TargetStruct,
					Name:        "Channel",
					PackageName: "models",
					FilePath:    path,
					Pos:         token.Position{Filename: path, Line: 4},
				},
				Annotations: []*plugin.Annotation{{Name: MarkerName}},
			},
		},
	}

	result, err := g.Generate(ctx)
	require.NoError(t, err)
	require.False(t, result.HasErrors(), "生成错误: %v", result.Errors)

	wantPath := filepath.Join(dir, "models_builder.go")
	f, ok := result.Definitions[wantPath]
	require.True(t, ok, "缺少输出文件 %s, 实际: %v", wantPath, result.Definitions)

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf))
	requireContains(t, buf.String(),
		"package models",
		"type ChannelBuilder struct",
	)
}

func TestGeneratorRejectsBadConfig(t *testing.T) {
	source := `package models

// @Builder
type Broken struct {
	// @Builder(required, default="1")
	N int
}
`
	dir := t.TempDir()
	path := filepath.Join(dir, "models.go")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	g := New()
	result, err := g.Generate(&plugin.GenerateContext{
		Targets: []*plugin.AnnotatedTarget{
			{
				Target: &plugin.Target{
					Kind:     plugin.TargetStruct,
					Name:     "Broken",
					FilePath: path,
					Pos:      token.Position{Filename: path, Line: 3},
				},
				Annotations: []*plugin.Annotation{{Name: MarkerName}},
			},
		},
	})
	require.NoError(t, err)

	// 配置错误不产生任何输出文件
	require.True(t, result.HasErrors())
	require.Empty(t, result.Definitions)
	require.Equal(t, 1, result.Skipped)
	require.Contains(t, result.Errors[0].Error(), "required 与 default 不能同时出现")
}
