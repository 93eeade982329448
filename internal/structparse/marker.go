package structparse

import "strings"

// ExtractMarker 在文档注释文本中查找 @<marker> 注解并返回其原始参数文本
// 支持跨行的参数列表，括号匹配时忽略字符串与反引号内的括号
// 返回值: (参数文本, 是否找到注解)；裸注解 @Marker 返回 ("", true)
func ExtractMarker(text, marker string) (string, bool) {
	needle := "@" + marker
	idx := 0
	for {
		pos := strings.Index(text[idx:], needle)
		if pos < 0 {
			return "", false
		}
		pos += idx
		end := pos + len(needle)

		// 确认后继字符不是标识符的一部分（避免 @BuilderField 匹配 @Builder）
		if end < len(text) && isIdentChar(text[end]) {
			idx = end
			continue
		}

		if end >= len(text) || text[end] != '(' {
			return "", true
		}

		args, ok := matchParens(text[end:])
		if !ok {
			// 括号不闭合，按裸注解处理，交由上层语法检查报错
			return text[end+1:], true
		}
		return args, true
	}
}

// StripMarker 从文档文本中移除 @<marker> 注解（含参数），返回剩余文本
// 用于把非注解的文档行转发到生成的代码
func StripMarker(text, marker string) string {
	needle := "@" + marker
	idx := 0
	for {
		pos := strings.Index(text[idx:], needle)
		if pos < 0 {
			return text
		}
		pos += idx
		end := pos + len(needle)

		if end < len(text) && isIdentChar(text[end]) {
			idx = end
			continue
		}

		if end < len(text) && text[end] == '(' {
			if args, ok := matchParens(text[end:]); ok {
				end += len(args) + 2
			} else {
				end = len(text)
			}
		}
		return text[:pos] + StripMarker(text[end:], marker)
	}
}

// matchParens 从开括号起匹配到对应的闭括号，返回括号内的文本
func matchParens(s string) (string, bool) {
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
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], true
			}
		}
	}
	return "", false
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
