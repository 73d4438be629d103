package models

import (
	"fmt"
	"time"
)

// TaskState 爬取任务状态
// 状态流转: pending → claiming → (skipped | fetching) → (failed | extracting) → recursing → done
type TaskState string

const (
	TaskStatePending    TaskState = "pending"    // 待处理
	TaskStateClaiming   TaskState = "claiming"   // 正在认领(访问集合test-and-set)
	TaskStateSkipped    TaskState = "skipped"    // 已跳过(深度超限或已访问)
	TaskStateFetching   TaskState = "fetching"   // 正在抓取
	TaskStateFailed     TaskState = "failed"     // 抓取失败
	TaskStateExtracting TaskState = "extracting" // 正在提取内容和链接
	TaskStateRecursing  TaskState = "recursing"  // 正在派生子任务
	TaskStateDone       TaskState = "done"       // 已完成
)

// IsTerminal 判断状态是否为终态
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateSkipped, TaskStateFailed, TaskStateDone:
		return true
	}
	return false
}

// ContentFormat 桶内容格式
type ContentFormat string

const (
	ContentFormatText ContentFormat = "text" // html2text转换后的纯文本
	ContentFormatHTML ContentFormat = "html" // <main>的原始内部HTML
)

const (
	// DefaultMaxDepth 默认最大深度
	DefaultMaxDepth = 5

	// DefaultMaxWorkers 默认并发worker数
	DefaultMaxWorkers = 4

	// DefaultOutputDir 默认输出目录
	DefaultOutputDir = "crawled_pages"

	// DefaultRequestTimeout 默认请求超时(秒)
	DefaultRequestTimeout = 30
)

// TaskStats 爬取统计
type TaskStats struct {
	Claimed      int     `json:"claimed"`       // 成功认领的URL数
	Duplicates   int     `json:"duplicates"`    // 因已访问而跳过的任务数
	DepthSkipped int     `json:"depth_skipped"` // 因深度超限而跳过的任务数
	Fetched      int     `json:"fetched"`       // 抓取成功的页面数
	Failed       int     `json:"failed"`        // 抓取失败的页面数
	Recorded     int     `json:"recorded"`      // 写入桶的页面数
	NoMain       int     `json:"no_main"`       // 没有<main>区域的页面数
	LinksFound   int     `json:"links_found"`   // 发现的同域链接数(去重后)
	Duration     float64 `json:"duration"`      // 总耗时(秒)
}

// CrawlConfig 爬取配置
type CrawlConfig struct {
	MaxDepth           int           `json:"max_depth" mapstructure:"max_depth"`                       // 最大深度 (默认:5)
	MaxWorkers         int           `json:"max_workers" mapstructure:"max_workers"`                   // 并发worker数 (默认:4)
	OutputDir          string        `json:"output_dir" mapstructure:"output_dir"`                     // 输出目录 (默认:crawled_pages)
	ContentFormat      ContentFormat `json:"content_format" mapstructure:"content_format"`             // 内容格式 (默认:text, html保留原始标记)
	SameSite           bool          `json:"same_site" mapstructure:"same_site"`                       // 按可注册域名(eTLD+1)判断同域
	RequestTimeout     int           `json:"request_timeout" mapstructure:"request_timeout"`           // 请求超时(秒)
	InsecureSkipVerify bool          `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"` // 跳过TLS证书验证
}

// DefaultCrawlConfig 默认爬取配置
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		MaxDepth:       DefaultMaxDepth,
		MaxWorkers:     DefaultMaxWorkers,
		OutputDir:      DefaultOutputDir,
		ContentFormat:  ContentFormatText,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("最大深度不能为负数: %d", c.MaxDepth)
	}
	if c.MaxWorkers < 1 || c.MaxWorkers > 100 {
		return fmt.Errorf("并发数必须在1-100之间")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("输出目录不能为空")
	}
	if c.ContentFormat != ContentFormatText && c.ContentFormat != ContentFormatHTML {
		return fmt.Errorf("无效的内容格式: %s (有效值: text, html)", c.ContentFormat)
	}
	if c.RequestTimeout < 0 || c.RequestTimeout > 300 {
		return fmt.Errorf("请求超时必须在0-300秒之间")
	}
	return nil
}

// Timeout 返回请求超时时长
func (c *CrawlConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
