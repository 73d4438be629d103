package models

import (
	"encoding/json"
	"time"
)

// CrawlReport 爬取报告
type CrawlReport struct {
	// 运行信息
	RunID     string   `json:"run_id"`
	StartURLs []string `json:"start_urls"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 输出
	OutputDir string       `json:"output_dir"`
	Buckets   []BucketInfo `json:"buckets"`

	// 失败页面
	FailedPages []FailedPage `json:"failed_pages"`

	// 资源使用
	Resource ResourceUsage `json:"resource"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// ResourceUsage 运行期间的资源使用汇总
type ResourceUsage struct {
	PeakMemoryPressure string  `json:"peak_memory_pressure"` // normal/warning/critical/emergency
	MinAvailableMB     int64   `json:"min_available_mb"`     // 扣除安全保留后的最低可用内存
	PeakCPUUsage       float64 `json:"peak_cpu_usage"`       // 最高CPU使用率(%)
	Samples            int     `json:"samples"`              // 后台采样次数
}

// BucketInfo 输出桶信息
type BucketInfo struct {
	Key     string `json:"key"`
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

// FailedPage 失败页面信息
type FailedPage struct {
	URL        string `json:"url"`
	Depth      int    `json:"depth"`
	StatusCode int    `json:"status_code,omitempty"`
	ErrorMsg   string `json:"error_msg"`
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
