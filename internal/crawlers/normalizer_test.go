package crawlers

import (
	"errors"
	"net/url"
	"testing"

	"github.com/RecoveryAshes/maincrawl/internal/models"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("解析URL失败 [%s]: %v", raw, err)
	}
	return u
}

func TestResolve(t *testing.T) {
	base := mustParse(t, "https://x.test/a/b/c")

	tests := []struct {
		name string
		href string
		want string
	}{
		{"相对路径", "d", "https://x.test/a/b/d"},
		{"绝对路径", "/root", "https://x.test/root"},
		{"上级目录", "../up", "https://x.test/a/up"},
		{"去除fragment", "/page#section", "https://x.test/page"},
		{"仅fragment", "#top", "https://x.test/a/b/c"},
		{"主机名大写", "https://X.TEST/Path", "https://x.test/Path"},
		{"空路径补斜杠", "https://x.test", "https://x.test/"},
		{"首尾空白", "  /trim  ", "https://x.test/trim"},
		{"保留查询", "/s?q=1#frag", "https://x.test/s?q=1"},
		{"其他主机", "https://other.test/x", "https://other.test/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(base, tt.href)
			if err != nil {
				t.Fatalf("Resolve() 返回错误: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("Resolve(%q) = %s, 期望 %s", tt.href, got, tt.want)
			}
			if got.Fragment != "" {
				t.Errorf("结果不应包含fragment: %s", got.Fragment)
			}
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	base := mustParse(t, "https://x.test/dir/")
	hrefs := []string{"a", "/b#c", "../d?e=f", "HTTPS://X.TEST", "https://x.test/%E4%B8%AD"}

	for _, href := range hrefs {
		first, err := Resolve(base, href)
		if err != nil {
			t.Fatalf("Resolve(%q) 返回错误: %v", href, err)
		}
		second, err := Resolve(base, first.String())
		if err != nil {
			t.Fatalf("二次Resolve(%q) 返回错误: %v", first, err)
		}
		if first.String() != second.String() {
			t.Errorf("规范化不幂等: %s != %s", first, second)
		}
	}
}

func TestResolve_InvalidHref(t *testing.T) {
	base := mustParse(t, "https://x.test/")

	for _, href := range []string{"http://[::1", "%zz", "http://a b.test/"} {
		t.Run(href, func(t *testing.T) {
			_, err := Resolve(base, href)
			if err == nil {
				t.Fatal("应该返回错误")
			}
			var normErr *models.NormalizationError
			if !errors.As(err, &normErr) {
				t.Fatalf("错误类型应为NormalizationError, 实际: %T", err)
			}
			if normErr.Href != href {
				t.Errorf("Href = %q, 期望 %q", normErr.Href, href)
			}
		})
	}
}

func TestParseSeed(t *testing.T) {
	u, err := ParseSeed("https://Example.COM#intro")
	if err != nil {
		t.Fatalf("ParseSeed() 返回错误: %v", err)
	}
	if u.String() != "https://example.com/" {
		t.Errorf("ParseSeed() = %s", u)
	}

	for _, raw := range []string{"", "example.com", "ftp://example.com", "mailto:a@b.test"} {
		if _, err := ParseSeed(raw); err == nil {
			t.Errorf("ParseSeed(%q) 应该返回错误", raw)
		}
	}
}

func TestSameHost(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"相同主机", "https://x.test/a", "https://x.test/b", true},
		{"大小写不同", "https://x.test/", "https://X.Test/", true},
		{"端口不同", "http://x.test:8080/", "http://x.test/", true},
		{"协议不同", "http://x.test/", "https://x.test/", true},
		{"子域名", "https://x.test/", "https://www.x.test/", false},
		{"不同主机", "https://x.test/", "https://y.test/", false},
		{"无主机", "https://x.test/", "mailto:a@x.test", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameHost(mustParse(t, tt.a), mustParse(t, tt.b)); got != tt.want {
				t.Errorf("SameHost(%s, %s) = %v, 期望 %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSameSite(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"相同主机", "https://example.com/", "https://example.com/x", true},
		{"子域名", "https://www.example.com/", "https://blog.example.com/", true},
		{"多级后缀", "https://a.example.co.uk/", "https://b.example.co.uk/", true},
		{"不同注册域", "https://example.com/", "https://example.org/", false},
		{"公共后缀下的不同站点", "https://alice.github.io/", "https://bob.github.io/", false},
		{"无主机", "https://example.com/", "javascript:void(0)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameSite(mustParse(t, tt.a), mustParse(t, tt.b)); got != tt.want {
				t.Errorf("SameSite(%s, %s) = %v, 期望 %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
