package crawlers

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// VisitedSet 已访问URL集合
// TryClaim 必须是原子的"检查并插入": 同一地址并发调用时只有一个调用者返回true
type VisitedSet interface {
	// TryClaim 首次出现返回true并记录,已存在返回false
	TryClaim(canonical string) bool

	// Len 已记录的地址数
	Len() int

	// URLs 已记录地址的有序快照
	URLs() []string
}

// setVisited 基于线程安全集合的实现
type setVisited struct {
	set mapset.Set[string]
}

// NewVisitedSet 创建并发安全的访问集合
func NewVisitedSet() VisitedSet {
	return &setVisited{set: mapset.NewSet[string]()}
}

// TryClaim 集合的Add在同一把锁内完成检查和插入
func (v *setVisited) TryClaim(canonical string) bool {
	return v.set.Add(canonical)
}

// Len 返回已访问地址数
func (v *setVisited) Len() int {
	return v.set.Cardinality()
}

// URLs 返回排序后的快照
func (v *setVisited) URLs() []string {
	urls := v.set.ToSlice()
	sort.Strings(urls)
	return urls
}
