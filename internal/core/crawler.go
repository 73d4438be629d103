package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/maincrawl/internal/config"
	"github.com/RecoveryAshes/maincrawl/internal/crawlers"
	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/RecoveryAshes/maincrawl/internal/utils"
)

const (
	mb = 1024 * 1024

	// monitorInterval 爬取期间资源采样间隔
	monitorInterval = 2 * time.Second
)

// Crawler 主爬取器协调器
// 负责准备输出目录、组装引擎、执行爬取并生成报告
type Crawler struct {
	cfg *config.Config

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// fetcher 为空时使用静态抓取器
	fetcher crawlers.Fetcher

	showProgress bool

	visited  crawlers.VisitedSet
	bucketer *crawlers.Bucketer
	engine   *crawlers.Engine
}

// NewCrawler 创建主爬取器
// cfg 应已通过 Validate
func NewCrawler(cfg *config.Config, headerProvider models.HeaderProvider) *Crawler {
	return &Crawler{
		cfg:            cfg,
		headerProvider: headerProvider,
	}
}

// SetFetcher 替换页面抓取器
func (c *Crawler) SetFetcher(f crawlers.Fetcher) {
	c.fetcher = f
}

// EnableProgress 在标准错误输出显示进度条
func (c *Crawler) EnableProgress(enabled bool) {
	c.showProgress = enabled
}

// Run 执行爬取任务
// 执行流程:
//  1. 解析并去重种子地址
//  2. 清空并重建输出目录
//  3. 评估资源并确定worker数
//  4. 运行爬取引擎
//  5. 生成爬取报告
//
// ctx 被取消时返回已完成部分的报告与 ctx.Err()
func (c *Crawler) Run(ctx context.Context) (*models.CrawlReport, error) {
	startTime := time.Now()
	runID := models.NewRunID()

	utils.Infof("🚀 开始爬取任务 [%s]", runID)
	utils.Infof("最大深度: %d, 输出目录: %s, 内容格式: %s", c.cfg.MaxDepth, c.cfg.OutputDir, c.cfg.ContentFormat)

	startURLs := utils.DedupeStrings(c.cfg.StartURLs)
	seeds, err := parseSeeds(startURLs)
	if err != nil {
		return nil, err
	}

	if err := c.resetOutputDir(); err != nil {
		return nil, err
	}

	monitor := c.newResourceMonitor()
	workers := c.planWorkers(monitor)
	c.buildEngine(workers)

	var bar *progressbar.ProgressBar
	if c.showProgress {
		bar = utils.NewProgressBar(-1, "爬取页面")
		c.engine.OnTaskDone(func(models.CrawlTask, models.TaskState) {
			_ = bar.Add(1)
		})
	}

	monitor.StartMonitoring(monitorInterval)
	stats, runErr := c.engine.Run(ctx, seeds)
	monitor.StopMonitoring()
	if bar != nil {
		_ = bar.Finish()
	}

	usage := monitor.Usage()
	if usage.PeakMemoryPressure != "normal" {
		utils.Warnf("爬取期间内存压力峰值: %s, 最低可用 %dMB", usage.PeakMemoryPressure, usage.MinAvailableMB)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return nil, fmt.Errorf("爬取失败: %w", runErr)
	}

	endTime := time.Now()
	report := &models.CrawlReport{
		RunID:       runID,
		StartURLs:   startURLs,
		StartTime:   startTime,
		EndTime:     endTime,
		Duration:    endTime.Sub(startTime).Seconds(),
		Stats:       stats,
		OutputDir:   c.cfg.OutputDir,
		Buckets:     c.bucketer.Buckets(),
		FailedPages: c.engine.FailedPages(),
		Resource:    usage,
		Config:      c.cfg.CrawlConfig,
	}

	if c.cfg.ReportDir != "" {
		if err := utils.NewReporter(c.cfg.ReportDir).GenerateReport(report, c.visited.URLs()); err != nil {
			utils.Warnf("生成报告失败: %v", err)
		}
	}

	if runErr != nil {
		utils.Warnf("⚠️  爬取被中断: %v", runErr)
		return report, runErr
	}

	utils.Infof("✅ 爬取完成: 页面 %d, 写入 %d, 失败 %d, 耗时 %.2fs",
		stats.Fetched, stats.Recorded, stats.Failed, report.Duration)
	return report, nil
}

// parseSeeds 解析种子地址,任何一个无效都返回错误
func parseSeeds(raws []string) ([]*url.URL, error) {
	seeds := make([]*url.URL, 0, len(raws))
	for _, raw := range raws {
		u, err := crawlers.ParseSeed(raw)
		if err != nil {
			return nil, fmt.Errorf("无效的种子URL [%s]: %w", raw, err)
		}
		seeds = append(seeds, u)
	}
	if len(seeds) == 0 {
		return nil, models.ErrNoStartURLs
	}
	return seeds, nil
}

// resetOutputDir 清空上一次运行的输出
func (c *Crawler) resetOutputDir() error {
	if err := os.RemoveAll(c.cfg.OutputDir); err != nil {
		return fmt.Errorf("清空输出目录失败 [%s]: %w", c.cfg.OutputDir, err)
	}
	if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败 [%s]: %w", c.cfg.OutputDir, err)
	}
	utils.Debugf("输出目录已重置: %s", c.cfg.OutputDir)
	return nil
}

// newResourceMonitor 按配置(MB)创建资源监控器
func (c *Crawler) newResourceMonitor() *crawlers.ResourceMonitor {
	return crawlers.NewResourceMonitor(crawlers.ResourceMonitorConfig{
		SafetyReserveMemory: int64(c.cfg.Resource.SafetyReserveMemory) * mb,
		SafetyThreshold:     int64(c.cfg.Resource.SafetyThreshold) * mb,
		MaxWorkersLimit:     c.cfg.Resource.MaxWorkersLimit,
	})
}

// planWorkers 根据可用内存调整worker数
func (c *Crawler) planWorkers(monitor *crawlers.ResourceMonitor) int {
	workers := monitor.CalculateMaxWorkers(c.cfg.MaxWorkers)
	status := monitor.GetStatus()
	if workers < c.cfg.MaxWorkers {
		utils.Warnf("可用内存 %dMB (%s), worker数从 %d 降为 %d",
			status.AvailableMemory/mb, status.MemoryPressure, c.cfg.MaxWorkers, workers)
	} else {
		utils.Debugf("可用内存 %dMB, worker数: %d", status.AvailableMemory/mb, workers)
	}
	return workers
}

// buildEngine 组装爬取引擎
func (c *Crawler) buildEngine(workers int) {
	fetcher := c.fetcher
	if fetcher == nil {
		fetcher = crawlers.NewStaticFetcher(c.cfg.CrawlConfig, workers, c.headerProvider)
	}

	c.visited = crawlers.NewVisitedSet()
	c.bucketer = crawlers.NewBucketer(c.cfg.OutputDir, c.cfg.ContentFormat)
	c.engine = crawlers.NewEngine(c.cfg.CrawlConfig, fetcher, c.visited, c.bucketer, crawlers.NewURLExtractor(c.cfg.SameSite))
	c.engine.SetWorkers(workers)
}

// VisitedURLs 返回本次运行认领过的地址
func (c *Crawler) VisitedURLs() []string {
	if c.visited == nil {
		return nil
	}
	return c.visited.URLs()
}
