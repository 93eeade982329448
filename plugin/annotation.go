package plugin

import (
	"regexp"
	"strings"
)

// annotationStartPattern 注解起始匹配: @大写开头的标识符
var annotationStartPattern = regexp.MustCompile(`@([A-Z][a-zA-Z0-9_]*)`)

// ParseAnnotations 解析文档注释文本中的所有注解
// 注解格式: @Name 或 @Name(args)，参数可跨行，括号匹配时忽略字符串内的括号
// text 应为 CommentGroup.Text() 的结果（已去除注释前缀）
func ParseAnnotations(text string) []*Annotation {
	var annotations []*Annotation

	for idx := 0; idx < len(text); {
		loc := annotationStartPattern.FindStringSubmatchIndex(text[idx:])
		if loc == nil {
			break
		}
		start := idx + loc[0]
		end := idx + loc[1]
		name := text[idx+loc[2] : idx+loc[3]]

		if end >= len(text) || text[end] != '(' {
			// 裸注解
			annotations = append(annotations, &Annotation{
				Name: name,
				Raw:  text[start:end],
			})
			idx = end
			continue
		}

		args, length, ok := matchArgParens(text[end:])
		if !ok {
			// 括号不闭合，按裸注解处理
			annotations = append(annotations, &Annotation{
				Name: name,
				Raw:  text[start:end],
			})
			idx = end
			continue
		}

		annotations = append(annotations, &Annotation{
			Name: name,
			Args: strings.TrimSpace(args),
			Raw:  text[start : end+length],
		})
		idx = end + length
	}

	return annotations
}

// matchArgParens 从开括号匹配到对应闭括号
// 返回值: (括号内文本, 含括号的总长度, 是否闭合)
func matchArgParens(s string) (string, int, bool) {
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
				return s[1:i], i + 1, true
			}
		}
	}
	return "", 0, false
}

// HasAnnotation 检查注解列表中是否包含指定名称
func HasAnnotation(annotations []*Annotation, name string) bool {
	for _, a := range annotations {
		if a.Name == name {
			return true
		}
	}
	return false
}

// GetAnnotation 获取指定名称的第一个注解
func GetAnnotation(annotations []*Annotation, name string) *Annotation {
	for _, a := range annotations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// FilterByNames 按名称集合过滤注解
func FilterByNames(annotations []*Annotation, names []string) []*Annotation {
	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}
	var result []*Annotation
	for _, a := range annotations {
		if nameSet[a.Name] {
			result = append(result, a)
		}
	}
	return result
}
