package models

import (
	"time"
)

// VisitStatus 单次访问结果的状态标签
type VisitStatus string

const (
	VisitSuccess          VisitStatus = "success"
	VisitValidationFailed VisitStatus = "validation_failed"
	VisitTimeout          VisitStatus = "timeout"
	VisitBrowserCrashed   VisitStatus = "browser_crashed"
	VisitUnknownError     VisitStatus = "unknown_error"
)

// VisitOutcome 一次导航尝试的带标签结果
// 韧性管理器产出,调度器和自适应调速器消费
type VisitOutcome struct {
	Status VisitStatus
	Reason string
}

// OK 访问是否成功
func (o VisitOutcome) OK() bool {
	return o.Status == VisitSuccess
}

// SessionState 会话状态
// 由访问调度器单线程独占持有,进程启动时创建,退出时销毁
type SessionState struct {
	TotalVisits         int
	SuccessfulVisits    int
	BrowserRestartCount int     // 单调递增,受重启预算约束
	MetricsRestarts     int     // 重启尝试计数(写入指标快照)
	AvgLoadTime         float64 // 增量滑动平均(秒)
	CycleCount          int
	LastMemoryCheckAt   time.Time
	StartTime           time.Time

	failedURLs map[string]bool // 本轮巡回中失败的URL,轮末清空
	failedList []string        // 保持失败顺序,用于快照输出
}

// NewSessionState 创建会话状态
func NewSessionState() *SessionState {
	return &SessionState{
		StartTime:         time.Now(),
		LastMemoryCheckAt: time.Now(),
		failedURLs:        make(map[string]bool),
	}
}

// MarkFailed 将URL标记为本轮失败
func (s *SessionState) MarkFailed(url string) {
	if !s.failedURLs[url] {
		s.failedURLs[url] = true
		s.failedList = append(s.failedList, url)
	}
}

// FailedURLs 返回本轮失败的URL列表(按失败顺序)
func (s *SessionState) FailedURLs() []string {
	return append([]string{}, s.failedList...)
}

// ResetFailed 清空失败集合(每轮巡回结束时调用)
func (s *SessionState) ResetFailed() {
	s.failedURLs = make(map[string]bool)
	s.failedList = nil
}

// WorkingURLs 工作集 = 目录URL - 本轮失败URL
func (s *SessionState) WorkingURLs(all []string) []string {
	working := make([]string, 0, len(all))
	for _, u := range all {
		if !s.failedURLs[u] {
			working = append(working, u)
		}
	}
	return working
}

// RecordSuccess 记录一次成功访问并更新平均加载时间
// avg' = (avg*(n-1) + loadTime) / n,n为递增后的成功次数
func (s *SessionState) RecordSuccess(loadTime float64) {
	s.SuccessfulVisits++
	n := float64(s.SuccessfulVisits)
	s.AvgLoadTime = (s.AvgLoadTime*(n-1) + loadTime) / n
}

// SuccessRate 累计成功率,无访问时为0
func (s *SessionState) SuccessRate() float64 {
	if s.TotalVisits == 0 {
		return 0
	}
	return float64(s.SuccessfulVisits) / float64(s.TotalVisits)
}

// MemorySample 单次内存采样
type MemorySample struct {
	Timestamp time.Time `json:"timestamp"`
	Percent   float64   `json:"percent"`
	RSSMB     float64   `json:"mb"`
}

// MetricsSnapshot 持久化的指标快照
// 每次写入整体覆盖,不追加
type MetricsSnapshot struct {
	SessionID        string   `json:"session_id"`
	SessionDuration  string   `json:"session_duration"`
	TotalVisits      int      `json:"total_visits"`
	SuccessfulVisits int      `json:"successful_visits"`
	SuccessRate      float64  `json:"success_rate"`
	BrowserRestarts  int      `json:"browser_restarts"`
	AvgLoadTime      float64  `json:"avg_load_time"`
	AvgMemoryPercent float64  `json:"avg_memory_usage"`
	FailedURLs       []string `json:"failed_urls"`
}
