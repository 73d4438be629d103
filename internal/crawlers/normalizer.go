package crawlers

import (
	"net/url"
	"strings"

	"github.com/RecoveryAshes/maincrawl/internal/models"
	"golang.org/x/net/publicsuffix"
)

// DomainMatcher 判断链接是否与当前页面属于同一站点
type DomainMatcher func(page, link *url.URL) bool

// Resolve 将链接文本相对base解析为绝对地址
// 结果已规范化(去除fragment,主机名小写),解析失败返回*models.NormalizationError
func Resolve(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, &models.NormalizationError{Href: href, Cause: err}
	}
	return Canonicalize(base.ResolveReference(ref)), nil
}

// ParseSeed 解析并规范化种子URL
func ParseSeed(raw string) (*url.URL, error) {
	if err := models.ValidateURL(raw); err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &models.NormalizationError{Href: raw, Cause: err}
	}
	return Canonicalize(u), nil
}

// Canonicalize 返回规范化后的副本
//   - 去除fragment
//   - 主机名转小写
//   - http(s)地址的空路径补为"/"
func Canonicalize(u *url.URL) *url.URL {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	c.Host = strings.ToLower(c.Host)
	if c.Path == "" && c.Opaque == "" && c.Host != "" {
		c.Path = "/"
		c.RawPath = ""
	}
	return &c
}

// SameHost 主机名相同(忽略大小写和端口)
// 没有主机名的地址(mailto:, javascript:等)永远不匹配
func SameHost(page, link *url.URL) bool {
	a, b := page.Hostname(), link.Hostname()
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// SameSite 可注册域名相同(基于公共后缀列表)
// 例如 www.example.com 与 blog.example.com 视为同一站点
func SameSite(page, link *url.URL) bool {
	if SameHost(page, link) {
		return true
	}
	a, b := strings.ToLower(page.Hostname()), strings.ToLower(link.Hostname())
	if a == "" || b == "" {
		return false
	}
	siteA, err := publicsuffix.EffectiveTLDPlusOne(a)
	if err != nil {
		return false
	}
	siteB, err := publicsuffix.EffectiveTLDPlusOne(b)
	if err != nil {
		return false
	}
	return siteA == siteB
}

// MatcherFor 根据配置选择域名匹配规则
func MatcherFor(sameSite bool) DomainMatcher {
	if sameSite {
		return SameSite
	}
	return SameHost
}
