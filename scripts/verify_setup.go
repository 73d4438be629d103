package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/RecoveryAshes/maincrawl/internal/config"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  maincrawl 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)
	if strings.HasPrefix(goVersion, "go1.1") || strings.HasPrefix(goVersion, "go1.20") ||
		strings.HasPrefix(goVersion, "go1.21") || strings.HasPrefix(goVersion, "go1.22") {
		fmt.Println("⚠️  警告: 建议使用Go 1.23+版本")
	}

	// 检查操作系统
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查项目结构
	fmt.Println()
	fmt.Println("检查项目结构...")
	requiredPaths := []string{
		"go.mod",
		"cmd/maincrawl",
		"internal/config",
		"internal/core",
		"internal/crawlers",
		"internal/models",
		"internal/utils",
	}
	for _, p := range requiredPaths {
		if _, err := os.Stat(p); err == nil {
			fmt.Printf("✅ %s\n", p)
		} else {
			fmt.Printf("❌ %s 不存在\n", p)
			allOK = false
		}
	}

	// 检查配置文件
	fmt.Println()
	configPath := config.DefaultConfigFile
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	fmt.Printf("检查配置文件 %s...\n", configPath)

	cfg, err := config.NewLoader(configPath).Load()
	switch {
	case err != nil:
		fmt.Printf("❌ 加载失败: %v\n", err)
		allOK = false
	case cfg.Validate() != nil:
		fmt.Printf("❌ 配置无效: %v\n", cfg.Validate())
		allOK = false
	default:
		fmt.Printf("✅ 配置有效: %d个种子地址, 最大深度 %d\n", len(cfg.StartURLs), cfg.MaxDepth)
		if err := checkWritable(filepath.Dir(filepath.Clean(cfg.OutputDir))); err != nil {
			fmt.Printf("❌ 输出目录不可写: %v\n", err)
			allOK = false
		} else {
			fmt.Printf("✅ 输出目录可写: %s\n", cfg.OutputDir)
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build ./cmd/maincrawl' 构建项目")
		fmt.Println("  2. 运行 './maincrawl --check-config' 检查配置")
		fmt.Println("  3. 运行 './maincrawl' 开始爬取")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}

// checkWritable 在目录中创建临时文件以确认可写
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".maincrawl-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
