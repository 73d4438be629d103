package crawlers

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/RecoveryAshes/maincrawl/internal/utils"
	"github.com/jaytaylor/html2text"
)

const (
	// MaxSegments 分组键保留的路径段数,超过的部分合并到同一文件
	MaxSegments = 3

	// mainSelector 正文选择器
	mainSelector = "main"

	separatorLine = "========================================"

	bucketExt = ".txt"
)

// BucketKey 计算地址的分组键
// 去掉协议后,非字母数字且非"."的字符替换为"_"并按"_"切分(丢弃空段)
// 主机部分全部保留,路径和查询最多保留前MaxSegments段
func BucketKey(u *url.URL) string {
	segments := splitSegments(u.Host)

	rest := u.EscapedPath()
	if u.RawQuery != "" {
		rest += "?" + u.RawQuery
	}
	pathSegments := splitSegments(rest)
	if len(pathSegments) > MaxSegments {
		pathSegments = pathSegments[:MaxSegments]
	}

	key := strings.Join(append(segments, pathSegments...), "_")
	if key == "" {
		return "index"
	}
	return key
}

func splitSegments(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '.' {
			return r
		}
		return '_'
	}, s)
	return strings.FieldsFunc(cleaned, func(r rune) bool { return r == '_' })
}

// EntryHeader 每条记录前的分隔头
func EntryHeader(pageURL string) string {
	return fmt.Sprintf("\n\n%s\nURL: %s\n%s\n", separatorLine, pageURL, separatorLine)
}

// Bucketer 内容分组写入器
// 职责: 提取页面<main>内容并追加到分组文件
// 同一分组的写入互斥,不同分组可并发写入
type Bucketer struct {
	outputDir string
	format    models.ContentFormat

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	entries map[string]int
}

// NewBucketer 创建分组写入器
func NewBucketer(outputDir string, format models.ContentFormat) *Bucketer {
	if format == "" {
		format = models.ContentFormatText
	}
	return &Bucketer{
		outputDir: outputDir,
		format:    format,
		locks:     make(map[string]*sync.Mutex),
		entries:   make(map[string]int),
	}
}

// Record 提取第一个<main>元素并追加到分组文件
// 页面没有<main>时返回false且不写入任何内容
func (b *Bucketer) Record(u *url.URL, doc *goquery.Document) (bool, error) {
	main := doc.Find(mainSelector).First()
	if main.Length() == 0 {
		utils.Debugf("页面没有<main>元素,跳过保存: %s", u)
		return false, nil
	}

	content, err := b.render(main)
	if err != nil {
		return false, fmt.Errorf("提取正文失败 [%s]: %w", u, err)
	}

	if err := b.Append(models.PageRecord{URL: u.String(), Content: content}, BucketKey(u)); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Bucketer) render(main *goquery.Selection) (string, error) {
	inner, err := main.Html()
	if err != nil {
		return "", err
	}
	if b.format == models.ContentFormatHTML {
		return inner, nil
	}
	return html2text.FromString(inner)
}

// Append 以追加方式写入一条记录
func (b *Bucketer) Append(record models.PageRecord, key string) error {
	lock := b.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	path := b.Path(key)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("打开分组文件失败 [%s]: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(EntryHeader(record.URL) + record.Content); err != nil {
		return fmt.Errorf("写入分组文件失败 [%s]: %w", path, err)
	}

	b.mu.Lock()
	b.entries[key]++
	b.mu.Unlock()

	utils.Debugf("已保存: %s -> %s", record.URL, path)
	return nil
}

// Path 返回分组文件路径
func (b *Bucketer) Path(key string) string {
	return filepath.Join(b.outputDir, key+bucketExt)
}

// Buckets 返回本次运行写入过的分组,按键排序
func (b *Bucketer) Buckets() []models.BucketInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	buckets := make([]models.BucketInfo, 0, len(b.entries))
	for key, n := range b.entries {
		buckets = append(buckets, models.BucketInfo{Key: key, Path: b.Path(key), Entries: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

func (b *Bucketer) lockFor(key string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[key] = lock
	}
	return lock
}
