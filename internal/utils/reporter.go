package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/officescreen/officescreen/internal/models"
)

// MetricsFileName 指标快照文件名
const MetricsFileName = "performance_metrics.json"

// Reporter 指标报告器
// 周期性将会话指标快照写入固定路径,每次整体覆盖
type Reporter struct {
	path      string
	sessionID string
}

// NewReporter 创建报告器
func NewReporter(logDir string) *Reporter {
	return &Reporter{
		path:      filepath.Join(logDir, MetricsFileName),
		sessionID: uuid.New().String(),
	}
}

// Path 快照文件路径
func (r *Reporter) Path() string {
	return r.path
}

// Persist 持久化指标快照
// 写入失败仅记录日志并吞掉,绝不让持久化失败拖垮进程
func (r *Reporter) Persist(state *models.SessionState, samples []models.MemorySample) {
	snapshot := r.buildSnapshot(state, samples)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		Errorf("序列化指标快照失败: %v", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		Errorf("创建指标目录失败: %v", err)
		return
	}

	if err := os.WriteFile(r.path, data, 0644); err != nil {
		Errorf("写入指标快照失败: %v", err)
		return
	}

	Info("指标快照已保存")
}

// buildSnapshot 由会话状态派生快照
func (r *Reporter) buildSnapshot(state *models.SessionState, samples []models.MemorySample) models.MetricsSnapshot {
	avgMemory := 0.0
	if len(samples) > 0 {
		sum := 0.0
		for _, s := range samples {
			sum += s.Percent
		}
		avgMemory = sum / float64(len(samples))
	}

	// 成功率分母至少为1,避免除零
	total := state.TotalVisits
	if total < 1 {
		total = 1
	}

	return models.MetricsSnapshot{
		SessionID:        r.sessionID,
		SessionDuration:  time.Since(state.StartTime).Round(time.Second).String(),
		TotalVisits:      state.TotalVisits,
		SuccessfulVisits: state.SuccessfulVisits,
		SuccessRate:      float64(state.SuccessfulVisits) / float64(total),
		BrowserRestarts:  state.BrowserRestartCount,
		AvgLoadTime:      state.AvgLoadTime,
		AvgMemoryPercent: avgMemory,
		FailedURLs:       state.FailedURLs(),
	}
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
