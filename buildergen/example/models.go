package example

import (
	"fmt"
	"strings"
	"time"
)

// Token 通道令牌，演示 setter(into) 的底层类型推断
type Token string

// 示例 1: 默认配置 - 所有字段必填，指针字段自动可选
// @Builder
type Channel struct {
	Token   string
	Special *bool
}

// 示例 2: 链式调用 + 前缀 + derive
// @Builder(prefix=with, derive="clone,string", to_builder)
type Lorem struct {
	// Ipsum 主标识
	Ipsum string
	// @Builder(default="42")
	Dolor int32
	// @Builder(optional)
	Sit time.Duration
}

// 示例 3: owned 模式，每次 setter 返回副本
// @Builder(pattern=owned, build(name="Create"))
type Request struct {
	URL string
	// @Builder(default)
	Timeout time.Duration
}

// 示例 4: 转换 setter 与字段校验
// @Builder
type Message struct {
	// @Builder(setter(into))
	Token Token
	// @Builder(validate=CheckBody, transform=TrimBody)
	Body string
	// @Builder(skip, default="time.Now()")
	CreatedAt time.Time
}

// CheckBody 校验消息体非空
func CheckBody(body string) error {
	if body == "" {
		return fmt.Errorf("消息体不能为空")
	}
	return nil
}

// TrimBody 去除消息体两侧空白
func TrimBody(body string) string {
	return strings.TrimSpace(body)
}
