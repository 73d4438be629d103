package crawlers

import (
	"context"
	"sync"
	"time"

	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源监控器
// 职责: 采样可用内存和CPU负载,计算工作协程上限
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 采样函数,测试时可替换
	sampleMemory func() (available uint64, total uint64, err error)
	sampleCPU    func() (float64, error)

	mu           sync.RWMutex
	available    uint64
	total        uint64
	lastCPUUsage float64

	// 运行期间的峰值
	minAvailable int64
	peakPressure string
	peakCPUUsage float64
	samples      int

	cancelFunc context.CancelFunc
	loopDone   chan struct{}
	isRunning  bool
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64 // 安全保留内存(字节)
	SafetyThreshold     int64 // 安全阈值(字节)
	MaxWorkersLimit     int   // 绝对最大工作协程数
	WorkerMemoryUsage   int64 // 单个工作协程平均内存消耗(字节)
}

// ResourceStatus 资源状态快照
type ResourceStatus struct {
	TotalMemory     uint64  // 系统总内存(字节)
	AvailableMemory int64   // 扣除安全保留后的可用内存(字节)
	CPUUsage        float64 // 最近一次采样的CPU使用率(%)
	MemoryPressure  string  // 内存压力等级
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.WorkerMemoryUsage == 0 {
		config.WorkerMemoryUsage = 20 * 1024 * 1024 // 20MB
	}

	rm := &ResourceMonitor{
		config:       config,
		sampleMemory: virtualMemory,
		sampleCPU:    cpuPercent,
	}
	rm.refreshMemory()

	rm.mu.RLock()
	log.Debug().Msgf("系统总内存: %.2f GB, 可用: %.2f GB",
		float64(rm.total)/(1024*1024*1024), float64(rm.available)/(1024*1024*1024))
	rm.mu.RUnlock()
	return rm
}

func virtualMemory() (uint64, uint64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vmStat.Available, vmStat.Total, nil
}

func cpuPercent() (float64, error) {
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, nil
	}
	return percentages[0], nil
}

// 内存压力等级,数值越大越紧张
var pressureRank = map[string]int{
	"normal":    0,
	"warning":   1,
	"critical":  2,
	"emergency": 3,
}

// StartMonitoring 启动后台采样(幂等)
func (rm *ResourceMonitor) StartMonitoring(interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.cancelFunc = cancel
	rm.loopDone = make(chan struct{})
	rm.isRunning = true

	go rm.monitoringLoop(ctx, interval, rm.loopDone)
}

// monitoringLoop 启动时立即采样一次,之后按interval采样
func (rm *ResourceMonitor) monitoringLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rm.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm.sample()
		}
	}
}

// sample 采样一次内存和CPU并更新峰值
// 内存压力升级时记录警告
func (rm *ResourceMonitor) sample() {
	rm.refreshMemory()
	usage := rm.getCPUUsage()
	status := rm.GetStatus()

	rm.mu.Lock()
	rm.lastCPUUsage = usage
	status.CPUUsage = usage
	worse := rm.observeLocked(status)
	rm.mu.Unlock()

	if worse {
		log.Warn().
			Str("pressure", status.MemoryPressure).
			Int64("available_mb", status.AvailableMemory/(1024*1024)).
			Float64("cpu", usage).
			Msg("内存压力升高")
	}
}

// observeLocked 更新峰值,压力等级比之前更高时返回true
func (rm *ResourceMonitor) observeLocked(status ResourceStatus) bool {
	if rm.samples == 0 || status.AvailableMemory < rm.minAvailable {
		rm.minAvailable = status.AvailableMemory
	}
	if status.CPUUsage > rm.peakCPUUsage {
		rm.peakCPUUsage = status.CPUUsage
	}
	rm.samples++

	prev := rm.peakPressure
	worse := pressureRank[status.MemoryPressure] > pressureRank[prev]
	if prev == "" || worse {
		rm.peakPressure = status.MemoryPressure
	}
	return worse
}

// getCPUUsage 获取所有核心的平均CPU使用率
func (rm *ResourceMonitor) getCPUUsage() float64 {
	usage, err := rm.sampleCPU()
	if err != nil {
		log.Warn().Err(err).Msg("获取CPU使用率失败")
		return 0.0
	}
	return usage
}

// StopMonitoring 停止资源监控并等待采样协程退出
func (rm *ResourceMonitor) StopMonitoring() {
	rm.mu.Lock()
	if !rm.isRunning {
		rm.mu.Unlock()
		return
	}
	rm.cancelFunc()
	done := rm.loopDone
	rm.isRunning = false
	rm.cancelFunc = nil
	rm.loopDone = nil
	rm.mu.Unlock()

	<-done
}

// CalculateMaxWorkers 计算实际可用的工作协程数
// 结果不超过requested和MaxWorkersLimit,且至少为1
func (rm *ResourceMonitor) CalculateMaxWorkers(requested int) int {
	availableMemory := rm.availableMemory()

	byMemory := 1
	if availableMemory > rm.config.SafetyThreshold {
		surplus := availableMemory - rm.config.SafetyThreshold
		byMemory = int(surplus / rm.config.WorkerMemoryUsage)
	}

	result := requested
	if byMemory < result {
		log.Warn().Msgf("可用内存不足(当前%dMB),工作协程数降至%d", availableMemory/(1024*1024), byMemory)
		result = byMemory
	}
	if rm.config.MaxWorkersLimit > 0 && rm.config.MaxWorkersLimit < result {
		result = rm.config.MaxWorkersLimit
	}
	if result < 1 {
		result = 1
	}
	return result
}

// GetStatus 获取当前资源状态
func (rm *ResourceMonitor) GetStatus() ResourceStatus {
	availableMemory := rm.availableMemory()

	rm.mu.RLock()
	total := rm.total
	usage := rm.lastCPUUsage
	rm.mu.RUnlock()

	var pressure string
	availableMB := availableMemory / (1024 * 1024)
	switch {
	case availableMB < 200:
		pressure = "emergency"
	case availableMB < 300:
		pressure = "critical"
	case availableMB < 500:
		pressure = "warning"
	default:
		pressure = "normal"
	}

	return ResourceStatus{
		TotalMemory:     total,
		AvailableMemory: availableMemory,
		CPUUsage:        usage,
		MemoryPressure:  pressure,
	}
}

func (rm *ResourceMonitor) availableMemory() int64 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return int64(rm.available) - rm.config.SafetyReserveMemory
}

// Usage 返回运行期间的资源使用汇总
// 没有任何后台采样时按当前状态计算
func (rm *ResourceMonitor) Usage() models.ResourceUsage {
	status := rm.GetStatus()

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if rm.samples == 0 {
		return models.ResourceUsage{
			PeakMemoryPressure: status.MemoryPressure,
			MinAvailableMB:     status.AvailableMemory / (1024 * 1024),
			PeakCPUUsage:       status.CPUUsage,
		}
	}
	return models.ResourceUsage{
		PeakMemoryPressure: rm.peakPressure,
		MinAvailableMB:     rm.minAvailable / (1024 * 1024),
		PeakCPUUsage:       rm.peakCPUUsage,
		Samples:            rm.samples,
	}
}
