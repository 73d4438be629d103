package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/maincrawl/internal/config"
	"github.com/RecoveryAshes/maincrawl/internal/core"
	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/RecoveryAshes/maincrawl/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	logLevel   string

	// HTTP头部参数
	headers     []string
	checkConfig bool

	// 爬取参数
	urls          []string
	urlFile       string
	depth         int
	maxWorkers    int
	outputDir     string
	contentFormat string
	showProgress  bool
)

var rootCmd = &cobra.Command{
	Use:   "maincrawl",
	Short: "按深度爬取站点并按路径分组保存<main>内容",
	Long: `maincrawl - 有界深度的同域站点爬取工具

从配置的种子地址开始广度爬取同域页面,提取每个页面第一个 <main>
区域的内容,按 主机+路径前缀 分组追加到输出目录下的文本文件中。

示例:
  # 使用 config.json
  maincrawl

  # 指定配置文件并覆盖深度
  maincrawl -c site.yaml -d 1

  # 命令行追加种子地址和请求头
  maincrawl -u https://example.com/docs/ -H "User-Agent: MyBot/1.0"

  # 检查配置文件
  maincrawl --check-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCrawl,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("maincrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if err := ValidateFlags(depth, maxWorkers, contentFormat, logLevel); err != nil {
		return err
	}

	cfg, err := config.NewLoader(configFile).Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	extra := urls
	if urlFile != "" {
		fileURLs, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return fmt.Errorf("读取URL文件失败: %w", err)
		}
		extra = append(extra, fileURLs...)
	}

	cfg.MergeCLIFlags(config.CLIOverrides{
		Depth:         depth,
		Workers:       maxWorkers,
		OutputDir:     outputDir,
		ContentFormat: contentFormat,
		LogLevel:      logLevel,
		URLs:          extra,
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}

	if err := utils.InitLogger(cfg.LogConfig()); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}

	headerManager, err := core.NewHeaderManager(cfg.Headers, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	if checkConfig {
		printConfigCheck(cfg, headerManager)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl+C 停止派发新任务,已完成的内容保留
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			utils.Warnf("收到中断信号: %v, 正在停止...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	crawler := core.NewCrawler(cfg, headerManager)
	crawler.EnableProgress(showProgress)

	report, err := crawler.Run(ctx)
	if report != nil {
		printSummary(report)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			utils.Warn("爬取已中断")
			return nil
		}
		return err
	}

	utils.Info("✨ 爬取任务完成!")
	return nil
}

// printConfigCheck 输出生效的配置与脱敏后的头部
func printConfigCheck(cfg *config.Config, hm *core.HeaderManager) {
	ok := color.New(color.FgGreen, color.Bold)
	ok.Println("✅ 配置验证通过!")
	fmt.Printf("种子地址 (%d个):\n", len(cfg.StartURLs))
	for _, u := range cfg.StartURLs {
		fmt.Printf("  %s\n", u)
	}
	fmt.Printf("最大深度: %d, worker数: %d, 输出目录: %s, 内容格式: %s\n",
		cfg.MaxDepth, cfg.MaxWorkers, cfg.OutputDir, cfg.ContentFormat)

	merged := hm.GetMergedHeaders()
	fmt.Printf("当前有效的HTTP头部 (%d个): %s\n", len(merged), utils.NewHeaderRedactor().RedactToString(merged))
}

// printSummary 输出爬取统计
func printSummary(report *models.CrawlReport) {
	title := color.New(color.FgCyan, color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	stats := report.Stats
	fmt.Println("\n==================================================")
	title.Println("📊 爬取统计")
	fmt.Println("==================================================")
	good.Printf("✅ 访问URL数: %d\n", stats.Claimed)
	good.Printf("✅ 抓取成功: %d\n", stats.Fetched)
	good.Printf("✅ 写入页面: %d (分组文件 %d 个)\n", stats.Recorded, len(report.Buckets))
	fmt.Printf("➖ 无<main>页面: %d\n", stats.NoMain)
	fmt.Printf("➖ 重复跳过: %d, 深度跳过: %d\n", stats.Duplicates, stats.DepthSkipped)
	if stats.Failed > 0 {
		bad.Printf("❌ 抓取失败: %d\n", stats.Failed)
	} else {
		fmt.Printf("❌ 抓取失败: %d\n", stats.Failed)
	}
	fmt.Printf("📁 输出目录: %s\n", report.OutputDir)
	fmt.Printf("⏱️  总耗时: %.2f秒\n", report.Duration)
	fmt.Println("==================================================")
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认 config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.Flags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.Flags().BoolVar(&checkConfig, "check-config", false, "只检查配置,不执行爬取")

	// 爬取参数
	rootCmd.Flags().StringArrayVarP(&urls, "url", "u", nil, "追加种子地址,可多次指定")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含种子地址列表的文件路径")
	rootCmd.Flags().IntVarP(&depth, "depth", "d", -1, "最大爬取深度 (覆盖 max_depth)")
	rootCmd.Flags().IntVar(&maxWorkers, "workers", 0, "并发worker数 (覆盖 max_workers)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (覆盖 output_dir)")
	rootCmd.Flags().StringVar(&contentFormat, "format", "", "内容格式: text(纯文本) | html(<main>原始标记)")
	rootCmd.Flags().BoolVar(&showProgress, "progress", false, "显示进度条")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
