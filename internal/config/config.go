package config

import (
	"fmt"
	"strings"

	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/RecoveryAshes/maincrawl/internal/utils"
)

// Config 应用程序配置
// 爬取参数平铺在顶层,与 config.json 的结构一致:
//
//	{
//	  "start_urls": ["https://example.com/docs/"],
//	  "max_depth": 2
//	}
type Config struct {
	models.CrawlConfig `mapstructure:",squash"`

	// StartURLs 种子地址(必填)
	StartURLs []string `mapstructure:"start_urls"`

	// Headers 自定义HTTP头部,优先级高于默认头部、低于命令行 -H
	Headers map[string]string `mapstructure:"headers"`

	// ReportDir 报告目录,为空时不生成报告
	ReportDir string `mapstructure:"report_dir"`

	Logging  LoggingConfig  `mapstructure:"logging"`
	Resource ResourceConfig `mapstructure:"resource"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// ResourceConfig 资源限制配置(单位MB)
type ResourceConfig struct {
	SafetyReserveMemory int `mapstructure:"safety_reserve_memory"`
	SafetyThreshold     int `mapstructure:"safety_threshold"`
	MaxWorkersLimit     int `mapstructure:"max_workers_limit"`
}

// CLIOverrides 命令行参数覆盖项
// 零值字段表示未指定; Depth 使用-1表示未指定
type CLIOverrides struct {
	Depth         int
	Workers       int
	OutputDir     string
	ContentFormat string
	LogLevel      string
	URLs          []string
}

// DefaultConfig 返回默认配置(不含种子地址)
func DefaultConfig() *Config {
	return &Config{
		CrawlConfig: models.DefaultCrawlConfig(),
		Headers:     make(map[string]string),
		ReportDir:   "reports",
		Logging: LoggingConfig{
			Level:  "info",
			LogDir: "logs",
			Rotation: RotationConfig{
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
				Compress:   true,
			},
		},
		Resource: ResourceConfig{
			SafetyReserveMemory: 512,
			SafetyThreshold:     256,
			MaxWorkersLimit:     100,
		},
	}
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件, --url 追加到 start_urls 之后
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.Depth >= 0 {
		c.MaxDepth = o.Depth
	}
	if o.Workers > 0 {
		c.MaxWorkers = o.Workers
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.ContentFormat != "" {
		c.ContentFormat = models.ContentFormat(strings.ToLower(o.ContentFormat))
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	c.StartURLs = append(c.StartURLs, o.URLs...)
}

// Validate 验证配置
// 任何一个种子地址无效都视为致命错误
func (c *Config) Validate() error {
	if len(c.StartURLs) == 0 {
		return models.ErrNoStartURLs
	}
	for _, raw := range c.StartURLs {
		if err := models.ValidateURL(raw); err != nil {
			return fmt.Errorf("无效的种子URL [%s]: %w", raw, err)
		}
	}

	if err := c.CrawlConfig.Validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("无效的日志级别: %s (有效值: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Resource.SafetyReserveMemory < 0 || c.Resource.SafetyThreshold < 0 || c.Resource.MaxWorkersLimit < 0 {
		return fmt.Errorf("资源限制配置不能为负数")
	}
	return nil
}

// LogConfig 转换为日志初始化参数
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      strings.ToLower(c.Logging.Level),
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}
