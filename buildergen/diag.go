package buildergen

import (
	"fmt"
	"go/token"
	"strings"
)

// Diagnostic 单条配置诊断，携带注解所在的源码位置
type Diagnostic struct {
	Pos   token.Position
	Field string // 字段名，空表示结构体级
	Msg   string
}

func (d *Diagnostic) Error() string {
	if d.Field != "" {
		return fmt.Sprintf("%s: 字段 %s: %s", d.Pos, d.Field, d.Msg)
	}
	return fmt.Sprintf("%s: %s", d.Pos, d.Msg)
}

// DiagList 诊断列表
// 解析与校验过程中累积所有独立错误，而不是遇到第一个就停止
type DiagList []*Diagnostic

// Add 追加一条结构体级诊断
func (l *DiagList) Add(pos token.Position, format string, args ...any) {
	*l = append(*l, &Diagnostic{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// AddField 追加一条字段级诊断
func (l *DiagList) AddField(pos token.Position, field, format string, args ...any) {
	*l = append(*l, &Diagnostic{Pos: pos, Field: field, Msg: fmt.Sprintf(format, args...)})
}

// Merge 合并另一个诊断列表
func (l *DiagList) Merge(other DiagList) {
	*l = append(*l, other...)
}

// Err 列表为空时返回 nil，否则返回自身
func (l DiagList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l DiagList) Error() string {
	msgs := make([]string, 0, len(l))
	for _, d := range l {
		msgs = append(msgs, d.Error())
	}
	return strings.Join(msgs, "\n")
}
