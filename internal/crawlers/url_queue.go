package crawlers

import (
	"context"
	"sync"

	"github.com/RecoveryAshes/maincrawl/internal/models"
)

// URLQueue 待处理任务队列
// 职责:
//   - 无界FIFO,Push永不阻塞(避免工作协程互相等待造成死锁)
//   - 记录未完成任务数,归零时自动关闭,作为"爬取完成"事件
//
// 每个Push必须对应一次Done,Done在任务处理完成(含子任务入队)之后调用
type URLQueue struct {
	mu sync.Mutex

	// 待处理任务
	items []models.CrawlTask

	// 已入队但尚未Done的任务数
	outstanding int

	// 队列是否已关闭
	closed bool

	// 有新任务时发出信号(容量1)
	notify chan struct{}

	// 关闭时close
	done chan struct{}
}

// NewURLQueue 创建URL队列实例
func NewURLQueue() *URLQueue {
	return &URLQueue{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push 添加任务到队尾
func (q *URLQueue) Push(task models.CrawlTask) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return models.ErrQueueClosed
	}
	q.items = append(q.items, task)
	q.outstanding++
	q.mu.Unlock()

	q.signal()
	return nil
}

// Pop 从队首取出任务,队列为空时阻塞
// 队列关闭或ctx取消时返回false
func (q *URLQueue) Pop(ctx context.Context) (models.CrawlTask, bool) {
	for {
		if ctx.Err() != nil {
			return models.CrawlTask{}, false
		}

		q.mu.Lock()
		if len(q.items) > 0 {
			task := q.items[0]
			q.items[0] = models.CrawlTask{}
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()

			// 还有剩余任务时唤醒下一个等待者
			if remaining > 0 {
				q.signal()
			}
			return task, true
		}
		if q.closed {
			q.mu.Unlock()
			return models.CrawlTask{}, false
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.CrawlTask{}, false
		case <-q.notify:
		case <-q.done:
		}
	}
}

// Done 标记一个任务处理完成
// 未完成数归零时关闭队列
func (q *URLQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.outstanding--
	if q.outstanding < 0 {
		panic("crawlers: URLQueue.Done调用次数多于Push")
	}
	if q.outstanding == 0 {
		q.closeLocked()
	}
}

// Wait 阻塞直到队列关闭或ctx取消
func (q *URLQueue) Wait(ctx context.Context) error {
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 强制关闭队列,丢弃剩余任务
func (q *URLQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.closeLocked()
}

// Len 返回待处理任务数
func (q *URLQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Outstanding 返回未完成任务数(含处理中的任务)
func (q *URLQueue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}

func (q *URLQueue) closeLocked() {
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func (q *URLQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
