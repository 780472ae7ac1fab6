package core

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/officescreen/officescreen/internal/models"
	"github.com/officescreen/officescreen/internal/utils"
)

// maxMemorySamples 内存采样环形窗口大小
const maxMemorySamples = 100

// MemoryMonitor 进程内存监控器
// 按需采样当前进程的内存占用,保留最近100次采样供指标快照使用
type MemoryMonitor struct {
	maxPercent float64
	samples    []models.MemorySample
	proc       *process.Process
}

// NewMemoryMonitor 创建内存监控器
func NewMemoryMonitor(maxPercent float64) *MemoryMonitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// 拿不到进程句柄时采样会降级为"始终正常"
		utils.Warnf("获取进程句柄失败: %v", err)
	}
	return &MemoryMonitor{
		maxPercent: maxPercent,
		proc:       proc,
	}
}

// Check 采样一次内存占用
// 返回是否在阈值以内;采样本身出错时视为正常,不因监控故障触发重启
func (m *MemoryMonitor) Check() bool {
	if m.proc == nil {
		return true
	}

	percent, err := m.proc.MemoryPercent()
	if err != nil {
		utils.Errorf("检查内存占用失败: %v", err)
		return true
	}

	rssMB := 0.0
	if memInfo, err := m.proc.MemoryInfo(); err == nil {
		rssMB = float64(memInfo.RSS) / 1024 / 1024
	}

	m.record(models.MemorySample{
		Timestamp: time.Now(),
		Percent:   float64(percent),
		RSSMB:     rssMB,
	})

	if float64(percent) > m.maxPercent {
		utils.Warnf("内存占用过高: %.1f%% (%.1fMB)", percent, rssMB)
		return false
	}

	return true
}

// record 追加采样,窗口满时丢弃最旧的
func (m *MemoryMonitor) record(sample models.MemorySample) {
	m.samples = append(m.samples, sample)
	if len(m.samples) > maxMemorySamples {
		m.samples = m.samples[len(m.samples)-maxMemorySamples:]
	}
}

// Samples 返回当前窗口内的采样
func (m *MemoryMonitor) Samples() []models.MemorySample {
	return append([]models.MemorySample{}, m.samples...)
}
