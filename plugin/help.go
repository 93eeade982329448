package plugin

import (
	"fmt"
	"strings"
)

// FormatHelpText 为所有注册的生成器生成帮助文本
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder

	for _, gen := range generators {
		annotations := gen.Annotations()
		if len(annotations) == 0 {
			continue
		}

		mainAnnotation := annotations[0]
		options := gen.Options()

		sb.WriteString(fmt.Sprintf("  @%s - %s\n", mainAnnotation, gen.Name()))

		sb.WriteString("    配置项:\n")
		sb.WriteString("      output - 输出文件路径（支持 $FILE、$PACKAGE 模板变量）\n")

		for _, opt := range options {
			defaultVal := ""
			if opt.Default != "" {
				defaultVal = fmt.Sprintf(" [默认: %s]", opt.Default)
			}
			sb.WriteString(fmt.Sprintf("      %s%s - %s\n",
				opt.Name, defaultVal, opt.Description))
		}

		sb.WriteString("    示例:\n")
		sb.WriteString(fmt.Sprintf("      @%s\n", mainAnnotation))
		sb.WriteString(fmt.Sprintf("      @%s(output=`$FILE_builder`)\n", mainAnnotation))
		for i, opt := range options {
			if i >= 2 {
				break
			}
			if opt.Default != "" {
				sb.WriteString(fmt.Sprintf("      @%s(%s=%s)\n",
					mainAnnotation, opt.Name, opt.Default))
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatOptionDef 格式化单个配置项定义
func FormatOptionDef(opt OptionDef) string {
	parts := []string{opt.Name}

	if opt.Default != "" {
		parts = append(parts, fmt.Sprintf("default=%s", opt.Default))
	}
	if opt.Description != "" {
		parts = append(parts, opt.Description)
	}

	return strings.Join(parts, ", ")
}
