package core

import (
	"context"
	"errors"
	"testing"

	"github.com/officescreen/officescreen/internal/models"
)

// fakeVisitor 计数访问器,每次访问前先执行hook
type fakeVisitor struct {
	visits  int
	outcome models.VisitOutcome
	hook    func(f *fakeVisitor, url string)
}

func (f *fakeVisitor) Visit(ctx context.Context, url string) models.VisitOutcome {
	f.visits++
	if f.hook != nil {
		f.hook(f, url)
	}
	return f.outcome
}

type fakeReporter struct {
	persists int
}

func (f *fakeReporter) Persist(state *models.SessionState, samples []models.MemorySample) {
	f.persists++
}

type fakeSampler struct{}

func (fakeSampler) Samples() []models.MemorySample { return nil }

// newSchedulerFixture 零延迟的调度器测试装置
func newSchedulerFixture(urls []string, ctrl *fakeController, v *fakeVisitor) (*Scheduler, *fakeReporter, *models.SessionState) {
	cfg := models.DefaultConfig()
	cfg.AdaptiveInterval = false
	state := models.NewSessionState()
	reporter := &fakeReporter{}

	s := NewScheduler(cfg, urls, state, ctrl, v, NewPacer(cfg, state), reporter, fakeSampler{})
	s.warmupDelay = 0
	s.jitterMin = 0
	s.jitterMax = 0
	return s, reporter, state
}

func TestScheduler_CancelledContextShutsDownCleanly(t *testing.T) {
	ctrl := &fakeController{healthy: true, openResults: []openResult{okPage("https://example.com/")}}
	visitor := &fakeVisitor{outcome: models.VisitOutcome{Status: models.VisitSuccess, Reason: "ok"}}
	s, reporter, _ := newSchedulerFixture([]string{"https://example.com/"}, ctrl, visitor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if ctrl.startCalls != 1 {
		t.Errorf("startCalls = %d, want 1", ctrl.startCalls)
	}
	if ctrl.stopCalls != 1 {
		t.Errorf("stopCalls = %d, want 1", ctrl.stopCalls)
	}
	// 取消路径也恰好落盘一次
	if reporter.persists != 1 {
		t.Errorf("persists = %d, want 1", reporter.persists)
	}
	if visitor.visits != 0 {
		t.Errorf("取消后不应再访问: visits = %d", visitor.visits)
	}
}

func TestScheduler_StartFailureIsFatal(t *testing.T) {
	ctrl := &fakeController{healthy: true, startErr: errors.New("chrome not found"), openResults: []openResult{okPage("x")}}
	visitor := &fakeVisitor{outcome: models.VisitOutcome{Status: models.VisitSuccess}}
	s, reporter, _ := newSchedulerFixture([]string{"https://example.com/"}, ctrl, visitor)

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("Run() = nil, want error")
	}
	// 启动失败时尚未进入关停流程
	if ctrl.stopCalls != 0 {
		t.Errorf("stopCalls = %d, want 0", ctrl.stopCalls)
	}
	if reporter.persists != 0 {
		t.Errorf("persists = %d, want 0", reporter.persists)
	}
}

func TestScheduler_EmptyCatalogExitsCleanly(t *testing.T) {
	ctrl := &fakeController{healthy: true, openResults: []openResult{okPage("x")}}
	visitor := &fakeVisitor{outcome: models.VisitOutcome{Status: models.VisitSuccess}}
	s, reporter, _ := newSchedulerFixture(nil, ctrl, visitor)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if visitor.visits != 0 {
		t.Errorf("visits = %d, want 0", visitor.visits)
	}
	if ctrl.stopCalls != 1 {
		t.Errorf("stopCalls = %d, want 1", ctrl.stopCalls)
	}
	if reporter.persists != 1 {
		t.Errorf("persists = %d, want 1", reporter.persists)
	}
}

func TestScheduler_PeriodicPersistEveryFiveCycles(t *testing.T) {
	ctrl := &fakeController{healthy: true, openResults: []openResult{okPage("x")}}

	// 2个URL,第11次访问后取消: 恰好跑完5轮(10次)再进入第6轮
	ctx, cancel := context.WithCancel(context.Background())
	visitor := &fakeVisitor{
		outcome: models.VisitOutcome{Status: models.VisitSuccess, Reason: "ok"},
		hook: func(f *fakeVisitor, url string) {
			if f.visits >= 11 {
				cancel()
			}
		},
	}
	urls := []string{"https://a.example/", "https://b.example/"}
	s, reporter, state := newSchedulerFixture(urls, ctrl, visitor)

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if visitor.visits != 11 {
		t.Errorf("visits = %d, want 11", visitor.visits)
	}
	if state.CycleCount != 6 {
		t.Errorf("CycleCount = %d, want 6", state.CycleCount)
	}
	// 第5轮末的周期性落盘 + 关停落盘
	if reporter.persists != 2 {
		t.Errorf("persists = %d, want 2", reporter.persists)
	}
}

func TestScheduler_FailedURLsResetEachCycle(t *testing.T) {
	ctrl := &fakeController{healthy: true, openResults: []openResult{okPage("x")}}

	ctx, cancel := context.WithCancel(context.Background())
	var sched *Scheduler
	visitor := &fakeVisitor{
		outcome: models.VisitOutcome{Status: models.VisitSuccess, Reason: "ok"},
		hook: func(f *fakeVisitor, url string) {
			// 每轮都把b标记为失败,验证轮末会被清掉
			if url == "https://b.example/" {
				sched.state.MarkFailed(url)
			}
			if f.visits >= 4 {
				cancel()
			}
		},
	}
	urls := []string{"https://a.example/", "https://b.example/"}
	s, _, state := newSchedulerFixture(urls, ctrl, visitor)
	sched = s

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	// 失败集每轮重置,两轮各访问2个URL
	if visitor.visits != 4 {
		t.Errorf("visits = %d, want 4", visitor.visits)
	}
	if state.CycleCount != 2 {
		t.Errorf("CycleCount = %d, want 2", state.CycleCount)
	}
}
