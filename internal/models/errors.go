package models

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrQueueClosed 队列已关闭
	ErrQueueClosed = errors.New("队列已关闭")

	// ErrNoStartURLs 没有配置种子URL
	ErrNoStartURLs = errors.New("没有配置种子URL(start_urls)")
)

// NormalizationError 链接规范化错误
// 链接文本不是合法的URL或相对引用时返回
type NormalizationError struct {
	// Href 原始链接文本
	Href string

	// Cause 底层解析错误
	Cause error
}

// Error 实现error接口
func (e *NormalizationError) Error() string {
	return fmt.Sprintf("无法解析链接 [%s]: %v", e.Href, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *NormalizationError) Unwrap() error {
	return e.Cause
}

// TransportError 抓取错误
// 网络错误或非2xx状态码
type TransportError struct {
	// URL 请求地址
	URL string

	// StatusCode HTTP状态码 (网络错误时为0)
	StatusCode int

	// Cause 底层错误 (状态码错误时可为nil)
	Cause error
}

// Error 实现error接口
func (e *TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("抓取失败 [%s]: 状态码 %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("抓取失败 [%s]: 状态码 %d: %v", e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("抓取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsStatus 是否为状态码错误(而非网络错误)
func (e *TransportError) IsStatus() bool {
	return e.StatusCode != 0
}
