package crawlers

import (
	"bytes"
	"compress/flate"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/RecoveryAshes/maincrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// Fetcher 页面抓取接口
// 返回2xx响应,其余情况返回*models.TransportError
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (*models.FetchResult, error)
}

// resultKey 请求上下文中保存抓取结果的键
const resultKey = "fetch_result"

var errNoResponse = errors.New("未收到响应")

// StaticFetcher 静态抓取器(使用Colly)
// 每次Fetch同步执行一个请求,可被多个工作协程并发调用
type StaticFetcher struct {
	collector *colly.Collector
	config    models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewStaticFetcher 创建静态抓取器
// parallelism 限制同时进行的请求数,通常等于工作协程数
func NewStaticFetcher(config models.CrawlConfig, parallelism int, headerProvider models.HeaderProvider) *StaticFetcher {
	// 不使用Colly的深度、域名和去重控制,全部由引擎管理
	// 非2xx响应也进入OnResponse,由Fetch统一判定
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
	)

	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
		MaxIdleConnsPerHost: parallelism,
	})
	if config.InsecureSkipVerify {
		utils.Debugf("静态抓取器: TLS证书验证已禁用")
	}

	if timeout := config.Timeout(); timeout > 0 {
		c.SetRequestTimeout(timeout)
		utils.Debugf("静态抓取器: 请求超时设置为 %d 秒", config.RequestTimeout)
	}

	if parallelism < 1 {
		parallelism = 1
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
	}); err != nil {
		utils.Warnf("设置并发限制失败: %v", err)
	}

	sf := &StaticFetcher{
		collector:      c,
		config:         config,
		headerProvider: headerProvider,
	}
	sf.setupCallbacks()
	return sf
}

// setupCallbacks 设置Colly回调
func (sf *StaticFetcher) setupCallbacks() {
	sf.collector.OnRequest(func(r *colly.Request) {
		if sf.headerProvider != nil {
			headers, err := sf.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}
		utils.Debugf("请求: %s", r.URL)
	})

	sf.collector.OnResponse(func(r *colly.Response) {
		requestURL := r.Request.URL.String()
		body := r.Body

		// gzip已由Colly解压,这里只处理br和deflate
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", requestURL, encoding, err)
			} else {
				body = decompressed
			}
		}

		r.Ctx.Put(resultKey, &models.FetchResult{
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        body,
		})
	})

	sf.collector.OnError(func(r *colly.Response, err error) {
		utils.Debugf("请求错误 [%s]: %v", r.Request.URL, err)
	})
}

// Fetch 同步抓取一个页面
func (sf *StaticFetcher) Fetch(ctx context.Context, u *url.URL) (*models.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqCtx := colly.NewContext()
	if err := sf.collector.Request(http.MethodGet, u.String(), nil, reqCtx, nil); err != nil {
		return nil, &models.TransportError{URL: u.String(), Cause: err}
	}

	result, ok := reqCtx.GetAny(resultKey).(*models.FetchResult)
	if !ok {
		return nil, &models.TransportError{URL: u.String(), Cause: errNoResponse}
	}
	if !result.IsSuccess() {
		return nil, &models.TransportError{URL: u.String(), StatusCode: result.StatusCode}
	}
	return result, nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "gzip", "identity":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
