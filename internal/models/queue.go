package models

import "net/url"

// CrawlTask 表示一个待处理的(地址, 深度)任务
// 用途:
//   - 种子任务深度为0
//   - 每跳一次深度+1
type CrawlTask struct {
	// URL 规范化后的绝对地址(已去除fragment)
	URL *url.URL

	// Depth 任务深度
	//   - 0: 种子URL
	//   - 1: 从种子页面发现的链接
	//   - 以此类推...
	Depth int

	// SourceURL 发现此URL的源页面(种子为空,用于调试)
	SourceURL string
}

// String 返回任务地址的规范字符串
func (t CrawlTask) String() string {
	if t.URL == nil {
		return ""
	}
	return t.URL.String()
}

// Child 创建深度+1的子任务
func (t CrawlTask) Child(u *url.URL) CrawlTask {
	return CrawlTask{
		URL:       u,
		Depth:     t.Depth + 1,
		SourceURL: t.String(),
	}
}
