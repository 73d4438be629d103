// Package crawlers 提供有界深度的站内爬取组件
//
// # 组件概览
//
// ## Engine (遍历引擎)
//
// 固定数量的工作协程从URLQueue取任务,每个任务依次经过:
//   - 深度检查: 深度超过上限的任务直接跳过
//   - 认领: VisitedSet.TryClaim 原子地检查并记录地址,失败即跳过
//   - 抓取: Fetcher 返回2xx响应,其余情况记录失败且不派生子任务
//   - 提取: Bucketer 保存<main>正文, URLExtractor 提取同域链接
//   - 派生: 深度小于上限时每个链接创建深度+1的子任务
//
// 使用示例:
//
//	engine := NewEngine(config, fetcher, NewVisitedSet(), bucketer, NewURLExtractor(false))
//	stats, err := engine.Run(ctx, seeds)
//
// ## URLQueue (任务队列)
//
// 无界FIFO队列,记录未完成任务数。每个Push对应一次Done,
// 计数归零时队列关闭,工作协程全部退出,Run返回。
//
//	queue := NewURLQueue()
//	queue.Push(models.CrawlTask{URL: seed})
//	task, ok := queue.Pop(ctx)
//	queue.Done()
//
// ## VisitedSet (访问集合)
//
// 基于golang-set的线程安全集合,TryClaim在一把锁内完成检查和插入。
// 抓取期间不持有任何锁。
//
// ## URLExtractor (链接提取器)
//
// 从goquery文档中提取 a[href],以当前页面地址解析相对链接,
// 去除fragment后按主机名过滤(same_site=true时按可注册域名过滤),
// 返回排序去重后的地址列表。
//
// ## Bucketer (内容分组)
//
// 地址去掉协议后按非字母数字字符切分,主机部分加上最多 MaxSegments 个路径段
// 组成分组键。同组页面追加写入 <output_dir>/<key>.txt,每条记录前写入分隔头:
//
//	========================================
//	URL: https://example.com/docs/a
//	========================================
//
// ## StaticFetcher (静态抓取器)
//
// 基于Colly的同步抓取,支持自定义HTTP头部、br/deflate解压、跳过TLS验证。
//
// ## ResourceMonitor (资源监控器)
//
// 采样系统可用内存和CPU负载,按 resource.* 配置下调工作协程数。
//
// # 配置参数
//
//	max_depth: 5            # 最大深度, 0表示只抓取种子
//	max_workers: 4          # 工作协程数
//	output_dir: crawled_pages
//	content_format: text    # text(html2text纯文本) 或 html(<main>原始内部标记)
//	same_site: false        # 是否按可注册域名匹配
//
// # 并发安全
//
//   - URLQueue: sync.Mutex + 信号channel
//   - VisitedSet: golang-set线程安全集合
//   - Bucketer: 每个分组一把sync.Mutex
//   - Engine: 统计使用sync/atomic
package crawlers
