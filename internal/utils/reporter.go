package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/maincrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

const (
	reportFile  = "crawl_report.json"
	visitedFile = "visited_urls.json"
	failedFile  = "failed_pages.json"
)

// Reporter 报告生成器
type Reporter struct {
	reportDir string
}

// NewReporter 创建报告生成器
// reportDir 应位于输出目录之外,避免被下一次运行清空
func NewReporter(reportDir string) *Reporter {
	return &Reporter{reportDir: reportDir}
}

// Dir 返回报告目录
func (r *Reporter) Dir() string {
	return r.reportDir
}

// GenerateReport 生成爬取报告
//   - crawl_report.json: 运行信息、统计、分组文件
//   - visited_urls.json: 已认领的地址列表
//   - failed_pages.json: 抓取失败的页面
func (r *Reporter) GenerateReport(report *models.CrawlReport, visited []string) error {
	if err := os.MkdirAll(r.reportDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	if visited == nil {
		visited = []string{}
	}
	failed := report.FailedPages
	if failed == nil {
		failed = []models.FailedPage{}
	}

	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := r.writeFile(reportFile, data); err != nil {
		return err
	}

	if err := r.saveJSONReport(visitedFile, visited); err != nil {
		return err
	}
	if err := r.saveJSONReport(failedFile, failed); err != nil {
		return err
	}

	Infof("报告已生成: %s", r.reportDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(filename string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	return r.writeFile(filename, jsonData)
}

func (r *Reporter) writeFile(filename string, data []byte) error {
	path := filepath.Join(r.reportDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}
	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
// 爬取总数事先未知时 max 传-1,显示为计数器
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("页"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
