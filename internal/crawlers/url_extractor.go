package crawlers

import (
	"net/url"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// linkSelector 页面链接选择器
const linkSelector = "a[href]"

// URLExtractor URL提取器
// 职责: 从页面中提取同域链接,输出排序去重后的绝对地址
type URLExtractor struct {
	// 域名匹配规则
	sameDomain DomainMatcher
}

// NewURLExtractor 创建URL提取器实例
// sameSite=true时按可注册域名匹配,否则按主机名匹配
func NewURLExtractor(sameSite bool) *URLExtractor {
	return &URLExtractor{sameDomain: MatcherFor(sameSite)}
}

// ExtractLinks 提取页面中所有可跟随的链接
//   - 相对链接以base解析
//   - 无法解析的链接记录警告后跳过
//   - 跨域链接记录调试日志后跳过
//
// 返回按字符串排序且去重的地址,不访问任何全局状态
func (e *URLExtractor) ExtractLinks(doc *goquery.Document, base *url.URL) []*url.URL {
	found := make(map[string]*url.URL)

	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}

		link, err := Resolve(base, href)
		if err != nil {
			log.Warn().Err(err).Str("page", base.String()).Msg("链接解析失败,已跳过")
			return
		}

		if follow, reason := e.ShouldFollowLink(base, link); !follow {
			log.Debug().Str("page", base.String()).Str("link", link.String()).Msg(reason)
			return
		}

		found[link.String()] = link
	})

	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	links := make([]*url.URL, 0, len(keys))
	for _, k := range keys {
		links = append(links, found[k])
	}
	return links
}

// ShouldFollowLink 判断链接是否应该被跟随,不跟随时返回原因
func (e *URLExtractor) ShouldFollowLink(page, link *url.URL) (bool, string) {
	if link.Scheme != "http" && link.Scheme != "https" {
		return false, "不支持的协议,跳过链接"
	}
	if !e.sameDomain(page, link) {
		return false, "跨域链接已过滤"
	}
	return true, ""
}
