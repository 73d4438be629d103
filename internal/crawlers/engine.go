package crawlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/RecoveryAshes/maincrawl/internal/utils"
	"golang.org/x/sync/errgroup"
)

// Engine 有界深度遍历引擎
// 职责:
//   - 固定数量的工作协程从URLQueue取任务
//   - 先认领(TryClaim)再抓取,同一地址最多抓取一次
//   - 抓取成功后保存正文并提取链接,深度未达上限时创建子任务
//   - 未完成任务数归零时Run返回
type Engine struct {
	config    models.CrawlConfig
	fetcher   Fetcher
	visited   VisitedSet
	bucketer  *Bucketer
	extractor *URLExtractor
	workers   int

	// 任务结束回调(进度条等),可为nil
	onTaskDone func(task models.CrawlTask, state models.TaskState)

	claimed      atomic.Int64
	duplicates   atomic.Int64
	depthSkipped atomic.Int64
	fetched      atomic.Int64
	failed       atomic.Int64
	recorded     atomic.Int64
	noMain       atomic.Int64
	linksFound   atomic.Int64

	failedMu    sync.Mutex
	failedPages []models.FailedPage
}

// NewEngine 创建遍历引擎
func NewEngine(config models.CrawlConfig, fetcher Fetcher, visited VisitedSet, bucketer *Bucketer, extractor *URLExtractor) *Engine {
	workers := config.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		config:    config,
		fetcher:   fetcher,
		visited:   visited,
		bucketer:  bucketer,
		extractor: extractor,
		workers:   workers,
	}
}

// SetWorkers 设置工作协程数(例如按资源监控结果下调)
func (e *Engine) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// Workers 返回工作协程数
func (e *Engine) Workers() int {
	return e.workers
}

// OnTaskDone 注册任务结束回调,回调可能被多个协程并发调用
func (e *Engine) OnTaskDone(fn func(task models.CrawlTask, state models.TaskState)) {
	e.onTaskDone = fn
}

// Run 从种子地址开始遍历,直到所有可达任务结束
// 所有种子任务在任何子任务之前创建,ctx取消时返回ctx.Err()
func (e *Engine) Run(ctx context.Context, seeds []*url.URL) (models.TaskStats, error) {
	if len(seeds) == 0 {
		return models.TaskStats{}, models.ErrNoStartURLs
	}
	startTime := time.Now()

	queue := NewURLQueue()
	for _, seed := range seeds {
		if err := queue.Push(models.CrawlTask{URL: Canonicalize(seed)}); err != nil {
			return models.TaskStats{}, err
		}
	}

	utils.Infof("开始遍历: %d 个种子, 最大深度 %d, 工作协程 %d", len(seeds), e.config.MaxDepth, e.workers)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			return e.worker(gctx, queue)
		})
	}

	// 未完成任务数归零即爬取结束; ctx取消时丢弃剩余任务
	waitErr := queue.Wait(gctx)
	if waitErr != nil {
		utils.Warnf("遍历中断: 剩余 %d 个待处理任务, %d 个未完成", queue.Len(), queue.Outstanding())
		queue.Close()
	}

	err := g.Wait()
	if err == nil {
		err = waitErr
	}

	stats := e.Stats()
	stats.Duration = time.Since(startTime).Seconds()
	return stats, err
}

func (e *Engine) worker(ctx context.Context, queue *URLQueue) error {
	for {
		task, ok := queue.Pop(ctx)
		if !ok {
			return ctx.Err()
		}

		state := e.process(ctx, queue, task)
		queue.Done()

		if e.onTaskDone != nil {
			e.onTaskDone(task, state)
		}
	}
}

// process 处理单个任务,返回终止状态
func (e *Engine) process(ctx context.Context, queue *URLQueue, task models.CrawlTask) models.TaskState {
	if task.Depth > e.config.MaxDepth {
		e.depthSkipped.Add(1)
		return models.TaskStateSkipped
	}

	if !e.visited.TryClaim(task.String()) {
		e.duplicates.Add(1)
		utils.Debugf("已访问,跳过: %s", task)
		return models.TaskStateSkipped
	}
	e.claimed.Add(1)

	utils.Infof("爬取中: %s (深度 %d)", task, task.Depth)

	result, err := e.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		e.recordFailure(task, err)
		return models.TaskStateFailed
	}
	e.fetched.Add(1)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		e.recordFailure(task, fmt.Errorf("解析HTML失败: %w", err))
		return models.TaskStateFailed
	}

	recorded, err := e.bucketer.Record(task.URL, doc)
	switch {
	case err != nil:
		utils.Errorf("保存页面失败 [%s]: %v", task, err)
	case recorded:
		e.recorded.Add(1)
	default:
		e.noMain.Add(1)
	}

	links := e.extractor.ExtractLinks(doc, task.URL)
	e.linksFound.Add(int64(len(links)))

	if task.Depth >= e.config.MaxDepth {
		return models.TaskStateDone
	}
	for _, link := range links {
		if err := queue.Push(task.Child(link)); err != nil {
			utils.Warnf("子任务入队失败 [%s]: %v", link, err)
		}
	}
	return models.TaskStateDone
}

func (e *Engine) recordFailure(task models.CrawlTask, err error) {
	e.failed.Add(1)

	page := models.FailedPage{
		URL:      task.String(),
		Depth:    task.Depth,
		ErrorMsg: err.Error(),
	}
	var transportErr *models.TransportError
	if errors.As(err, &transportErr) {
		page.StatusCode = transportErr.StatusCode
	}

	e.failedMu.Lock()
	e.failedPages = append(e.failedPages, page)
	e.failedMu.Unlock()

	utils.Errorf("%v", err)
}

// Stats 返回当前统计快照
func (e *Engine) Stats() models.TaskStats {
	return models.TaskStats{
		Claimed:      int(e.claimed.Load()),
		Duplicates:   int(e.duplicates.Load()),
		DepthSkipped: int(e.depthSkipped.Load()),
		Fetched:      int(e.fetched.Load()),
		Failed:       int(e.failed.Load()),
		Recorded:     int(e.recorded.Load()),
		NoMain:       int(e.noMain.Load()),
		LinksFound:   int(e.linksFound.Load()),
	}
}

// FailedPages 返回失败页面列表的副本
func (e *Engine) FailedPages() []models.FailedPage {
	e.failedMu.Lock()
	defer e.failedMu.Unlock()
	out := make([]models.FailedPage, len(e.failedPages))
	copy(out, e.failedPages)
	return out
}
