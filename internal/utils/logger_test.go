package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func initTestLogger(t *testing.T, level string) string {
	t.Helper()
	dir := t.TempDir()
	config := LogConfig{
		Level:      level,
		LogDir:     dir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
	}
	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}
	t.Cleanup(func() {
		Logger = zerolog.Logger{}
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})
	return dir
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	return string(content)
}

func TestInitLogger(t *testing.T) {
	dir := initTestLogger(t, "debug")

	Info("测试信息日志")
	Debugf("测试调试日志: %d", 1)

	content := readLog(t, filepath.Join(dir, "maincrawl.log"))
	if !strings.Contains(content, "测试信息日志") || !strings.Contains(content, "测试调试日志: 1") {
		t.Errorf("主日志缺少内容: %s", content)
	}
}

func TestLogLevels(t *testing.T) {
	dir := initTestLogger(t, "info")

	Infof("格式化信息日志: %s", "爬取中")
	Warnf("格式化警告日志: %d", 123)
	Debugf("调试日志测试 - 级别为%s时不应写入", "info")

	content := readLog(t, filepath.Join(dir, "maincrawl.log"))
	if !strings.Contains(content, "爬取中") || !strings.Contains(content, "123") {
		t.Errorf("主日志缺少info/warn内容: %s", content)
	}
	if strings.Contains(content, "调试日志测试") {
		t.Error("info级别不应写入debug日志")
	}
}

func TestErrorLogOnlyErrors(t *testing.T) {
	dir := initTestLogger(t, "debug")

	Info("普通信息")
	Warn("普通警告")
	Errorf("抓取失败 [%s]: 状态码 %d", "https://x.test/missing", 404)

	content := readLog(t, filepath.Join(dir, "maincrawl_error.log"))
	if !strings.Contains(content, "状态码 404") {
		t.Errorf("错误日志缺少错误内容: %s", content)
	}
	if strings.Contains(content, "普通信息") || strings.Contains(content, "普通警告") {
		t.Errorf("错误日志不应包含低于error级别的内容: %s", content)
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	for _, level := range []string{"verbose", ""} {
		initTestLogger(t, level)
		if zerolog.GlobalLevel() != zerolog.InfoLevel {
			t.Errorf("级别 %q 应回退为info, 实际: %s", level, zerolog.GlobalLevel())
		}
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 {
		t.Errorf("默认轮转参数错误: %+v", config)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}
