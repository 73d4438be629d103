package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/RecoveryAshes/maincrawl/internal/models"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试配置失败: %v", err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	t.Run("最小配置使用默认值", func(t *testing.T) {
		path := writeConfig(t, "config.json", `{"start_urls": ["https://x.test/a"]}`)

		cfg, err := NewLoader(path).Load()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if !reflect.DeepEqual(cfg.StartURLs, []string{"https://x.test/a"}) {
			t.Errorf("StartURLs = %v", cfg.StartURLs)
		}
		if cfg.MaxDepth != models.DefaultMaxDepth || cfg.MaxWorkers != models.DefaultMaxWorkers {
			t.Errorf("默认值错误: depth=%d workers=%d", cfg.MaxDepth, cfg.MaxWorkers)
		}
		if cfg.OutputDir != "crawled_pages" || cfg.ContentFormat != models.ContentFormatText {
			t.Errorf("默认输出错误: %s %s", cfg.OutputDir, cfg.ContentFormat)
		}
		if cfg.ReportDir != "reports" || cfg.Logging.Level != "info" || cfg.Logging.LogDir != "logs" {
			t.Errorf("默认报告/日志配置错误: %+v", cfg)
		}
		if cfg.Headers == nil {
			t.Error("Headers map应该被初始化")
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() 返回错误: %v", err)
		}
	})

	t.Run("完整配置", func(t *testing.T) {
		path := writeConfig(t, "config.json", `{
  "start_urls": ["https://x.test/a", "https://x.test/b"],
  "max_depth": 1,
  "max_workers": 8,
  "output_dir": "out",
  "content_format": "html",
  "same_site": true,
  "request_timeout": 10,
  "headers": {"User-Agent": "Test Bot/1.0", "X-Custom": "test value"},
  "report_dir": "",
  "logging": {"level": "debug", "rotation": {"max_size": 5}},
  "resource": {"max_workers_limit": 16}
}`)

		cfg, err := NewLoader(path).Load()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if cfg.MaxDepth != 1 || cfg.MaxWorkers != 8 || cfg.OutputDir != "out" {
			t.Errorf("爬取配置错误: %+v", cfg.CrawlConfig)
		}
		if cfg.ContentFormat != models.ContentFormatHTML || !cfg.SameSite || cfg.RequestTimeout != 10 {
			t.Errorf("爬取选项错误: %+v", cfg.CrawlConfig)
		}
		if cfg.ReportDir != "" {
			t.Errorf("ReportDir = %q, 期望为空", cfg.ReportDir)
		}
		if cfg.Logging.Level != "debug" || cfg.Logging.Rotation.MaxSize != 5 || cfg.Logging.Rotation.MaxBackups != 3 {
			t.Errorf("日志配置错误: %+v", cfg.Logging)
		}
		if cfg.Resource.MaxWorkersLimit != 16 || cfg.Resource.SafetyReserveMemory != 512 {
			t.Errorf("资源配置错误: %+v", cfg.Resource)
		}

		// viper会把键转为小写
		if cfg.Headers["user-agent"] != "Test Bot/1.0" || cfg.Headers["x-custom"] != "test value" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
	})

	t.Run("YAML配置", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", "start_urls:\n  - https://x.test/\nmax_depth: 0\n")

		cfg, err := NewLoader(path).Load()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if cfg.MaxDepth != 0 || len(cfg.StartURLs) != 1 {
			t.Errorf("YAML配置解析错误: %+v", cfg)
		}
	})

	t.Run("环境变量覆盖", func(t *testing.T) {
		t.Setenv("MAINCRAWL_MAX_DEPTH", "3")
		path := writeConfig(t, "config.json", `{"start_urls": ["https://x.test/"], "max_depth": 1}`)

		cfg, err := NewLoader(path).Load()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if cfg.MaxDepth != 3 {
			t.Errorf("MaxDepth = %d, 期望 3", cfg.MaxDepth)
		}
	})
}

func TestLoader_Errors(t *testing.T) {
	t.Run("文件不存在", func(t *testing.T) {
		_, err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).Load()
		var configErr *models.ConfigError
		if !errors.As(err, &configErr) {
			t.Fatalf("错误类型应为ConfigError, 实际: %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("应包装os.ErrNotExist: %v", err)
		}
	})

	t.Run("JSON格式错误", func(t *testing.T) {
		path := writeConfig(t, "config.json", `{"start_urls": [`)
		var configErr *models.ConfigError
		if _, err := NewLoader(path).Load(); !errors.As(err, &configErr) {
			t.Fatalf("错误类型应为ConfigError, 实际: %v", err)
		}
	})

	t.Run("类型错误", func(t *testing.T) {
		path := writeConfig(t, "config.json", `{"start_urls": ["https://x.test/"], "max_depth": "deep"}`)
		var configErr *models.ConfigError
		if _, err := NewLoader(path).Load(); !errors.As(err, &configErr) {
			t.Fatalf("错误类型应为ConfigError, 实际: %v", err)
		}
	})

	t.Run("文件过大", func(t *testing.T) {
		path := writeConfig(t, "config.json", `{"pad": "`+strings.Repeat("x", MaxConfigFileSize)+`"}`)
		err := NewLoader(path).ValidateFile()
		if err == nil || !strings.Contains(err.Error(), "配置文件过大") {
			t.Errorf("ValidateFile() = %v, 期望文件过大错误", err)
		}
	})

	t.Run("路径是目录", func(t *testing.T) {
		if err := NewLoader(t.TempDir()).ValidateFile(); err == nil {
			t.Error("目录应返回错误")
		}
	})
}

func TestNewLoader_DefaultPath(t *testing.T) {
	if got := NewLoader("").Path(); got != DefaultConfigFile {
		t.Errorf("Path() = %s, 期望 %s", got, DefaultConfigFile)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		target  error
	}{
		{"有效配置", func(c *Config) {}, false, nil},
		{"没有种子", func(c *Config) { c.StartURLs = nil }, true, models.ErrNoStartURLs},
		{"无效种子", func(c *Config) { c.StartURLs = append(c.StartURLs, "ftp://x.test/") }, true, nil},
		{"深度为负数", func(c *Config) { c.MaxDepth = -1 }, true, nil},
		{"无效格式", func(c *Config) { c.ContentFormat = "markdown" }, true, nil},
		{"无效日志级别", func(c *Config) { c.Logging.Level = "verbose" }, true, nil},
		{"日志级别大写", func(c *Config) { c.Logging.Level = "DEBUG" }, false, nil},
		{"资源配置为负数", func(c *Config) { c.Resource.SafetyThreshold = -1 }, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.StartURLs = []string{"https://x.test/"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Validate() = %v, 期望 %v", err, tt.target)
			}
		})
	}
}

func TestConfig_MergeCLIFlags(t *testing.T) {
	t.Run("未指定时保持配置文件的值", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StartURLs = []string{"https://x.test/"}
		cfg.MaxDepth = 2

		cfg.MergeCLIFlags(CLIOverrides{Depth: -1})
		if cfg.MaxDepth != 2 || cfg.MaxWorkers != models.DefaultMaxWorkers || len(cfg.StartURLs) != 1 {
			t.Errorf("不应修改配置: %+v", cfg)
		}
	})

	t.Run("命令行覆盖配置文件", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StartURLs = []string{"https://x.test/"}

		cfg.MergeCLIFlags(CLIOverrides{
			Depth:         0,
			Workers:       12,
			OutputDir:     "pages",
			ContentFormat: "HTML",
			LogLevel:      "debug",
			URLs:          []string{"https://x.test/extra"},
		})

		if cfg.MaxDepth != 0 || cfg.MaxWorkers != 12 || cfg.OutputDir != "pages" {
			t.Errorf("爬取参数未覆盖: %+v", cfg.CrawlConfig)
		}
		if cfg.ContentFormat != models.ContentFormatHTML || cfg.Logging.Level != "debug" {
			t.Errorf("格式/日志级别未覆盖: %s %s", cfg.ContentFormat, cfg.Logging.Level)
		}
		if !reflect.DeepEqual(cfg.StartURLs, []string{"https://x.test/", "https://x.test/extra"}) {
			t.Errorf("StartURLs = %v", cfg.StartURLs)
		}
	})
}

func TestConfig_LogConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "WARN"

	lc := cfg.LogConfig()
	if lc.Level != "warn" || lc.LogDir != "logs" || lc.MaxSize != 10 || !lc.Compress {
		t.Errorf("LogConfig() = %+v", lc)
	}
}

func TestLoader_ExampleConfigs(t *testing.T) {
	for _, name := range []string{"config.example.json", "config.example.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := NewLoader(filepath.Join("..", "..", name)).Load()
			if err != nil {
				t.Fatalf("加载示例配置失败: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("示例配置无效: %v", err)
			}
			if cfg.ContentFormat != models.ContentFormatText || cfg.MaxDepth != 2 {
				t.Errorf("示例配置内容不符: format=%s depth=%d", cfg.ContentFormat, cfg.MaxDepth)
			}
			if cfg.Headers["user-agent"] != "maincrawl/1.0" {
				t.Errorf("Headers = %v", cfg.Headers)
			}
		})
	}
}
