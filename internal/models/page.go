package models

// FetchResult 传输层返回的抓取结果
type FetchResult struct {
	StatusCode  int    // HTTP状态码
	ContentType string // Content-Type头部
	Body        []byte // 已解压的响应体
}

// IsSuccess 状态码是否为2xx
func (r *FetchResult) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// PageRecord 页面主内容记录,写入桶后即丢弃
type PageRecord struct {
	URL     string // 来源地址
	Content string // <main>区域内容
}
