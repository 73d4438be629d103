package main

import (
	"fmt"
	"strings"
)

// ValidateFlags 验证命令行标志
// 未指定的参数 (depth=-1, workers=0, 空字符串) 不做检查
func ValidateFlags(depth, maxWorkers int, contentFormat, logLevel string) error {
	if depth < -1 {
		return fmt.Errorf("爬取深度不能为负数,当前值: %d", depth)
	}

	if maxWorkers < 0 || maxWorkers > 100 {
		return fmt.Errorf("并发数必须在1-100之间,当前值: %d", maxWorkers)
	}

	switch strings.ToLower(contentFormat) {
	case "", "text", "html":
	default:
		return fmt.Errorf("无效的内容格式: %s (有效值: text, html)", contentFormat)
	}

	switch strings.ToLower(logLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("无效的日志级别: %s (有效值: debug, info, warn, error)", logLevel)
	}

	return nil
}
