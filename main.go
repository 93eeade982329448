package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/donutnomad/buildergen/buildergen"
	"github.com/donutnomad/buildergen/plugin"
)

var builderGen = buildergen.New()

func init() {
	plugin.MustRegister(builderGen)
}

var (
	verbose    = flag.Bool("v", false, "详细输出")
	help       = flag.Bool("h", false, "显示帮助信息")
	output     = flag.String("output", "", "默认输出路径（支持模板变量 $FILE, $PACKAGE）")
	async      = flag.Bool("async", true, "异步执行生成器（默认 true）")
	dumpConfig = flag.Bool("dump-config", false, "以 JSON 输出每个结构体的最终生效配置")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	builderGen.DumpConfig = *dumpConfig

	args := flag.Args()

	// 默认命令是 gen
	if len(args) == 0 {
		runGen([]string{"./..."})
		return
	}

	cmd := args[0]
	switch cmd {
	case "gen":
		runGen(args[1:])
	case "dev":
		runDev(args[1:])
	default:
		// 不是子命令，当作路径参数处理，执行 gen
		runGen(args)
	}
}

func runGen(args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		fmt.Fprintln(os.Stderr, "错误: 没有已注册的生成器")
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("已注册 %d 个生成器:\n", len(registry.Generators()))
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, index int) string {
				return "@" + item
			})
			fmt.Printf("  - %s (%s)\n", gen.Name(), strings.Join(anns, ","))
		}
		fmt.Println()
	}

	ctx := context.Background()

	opts := &plugin.RunOptions{
		Registry: registry,
		Patterns: patterns,
		Verbose:  *verbose,
		Output:   *output,
		Async:    *async,
	}

	stats, err := plugin.RunWithOptionsAndStats(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	// 输出统计信息
	if stats != nil && (stats.FileCount > 0 || *verbose) {
		fmt.Printf("\n统计: 扫描 %d 个目标, 生成 %d 个文件", stats.TargetCount, stats.FileCount)
		if stats.SkippedCount > 0 {
			fmt.Printf(", 跳过 %d 个", stats.SkippedCount)
		}
		fmt.Println()
		fmt.Printf("耗时: 扫描 %v, 生成 %v, 总计 %v\n", stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
	}
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `buildergen - Go builder 模式代码生成工具

用法:
  buildergen [选项] [路径...]
  buildergen gen [选项] [路径...]
  buildergen dev [选项] [路径...]

命令:
  gen     执行代码生成（默认）
  dev     启动开发模式，监听文件变动自动生成

路径:
  支持 Go 包路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./pkg/...      递归扫描指定目录
    ./models/...   递归扫描 models 目录

选项:
`)
	flag.PrintDefaults()

	// 动态生成注解帮助信息
	registry := plugin.Global()
	if len(registry.Generators()) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "\n支持的注解:\n")
		_, _ = fmt.Fprint(os.Stderr, plugin.FormatHelpText(registry))
	}

	_, _ = fmt.Fprintf(os.Stderr, `模板变量:
  $FILE     - 源文件名（不含 .go 后缀）
  $PACKAGE  - 包名

示例:
  buildergen                                扫描当前目录（默认 ./...）
  buildergen ./...                          递归扫描当前目录
  buildergen -v ./models/...                详细模式扫描 models 目录
  buildergen -output $FILE_builder ./...    指定输出文件名
  buildergen -dump-config ./models/...      输出每个结构体的最终生效配置
  buildergen dev ./...                      开发模式，监听文件变动
  buildergen -v dev ./models/...            开发模式，详细输出
`)
}
