package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

// FormatSource 格式化 Go 源码并整理 imports
// filename 仅用于错误定位，不要求文件存在
func FormatSource(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Fragment:  false,
		AllErrors: true,
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("格式化失败: %w", err)
	}
	return out, nil
}

// WriteFormat 将源码格式化后写入文件
// 格式化失败时写入原始内容，方便排查生成的代码问题
func WriteFormat(path string, src []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	formatted, err := FormatSource(path, src)
	if err != nil {
		if writeErr := os.WriteFile(path, src, 0644); writeErr != nil {
			return writeErr
		}
		return err
	}

	return os.WriteFile(path, formatted, 0644)
}
