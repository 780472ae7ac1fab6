package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/officescreen/officescreen/internal/browser"
	"github.com/officescreen/officescreen/internal/models"
	"github.com/officescreen/officescreen/internal/utils"
)

const (
	// browserWarmupDelay 首次启动后等待浏览器完全就绪的时间
	browserWarmupDelay = 15 * time.Second
	// persistEveryCycles 每几轮巡回持久化一次指标快照
	persistEveryCycles = 5
)

// visitor 单URL访问能力(由韧性管理器实现)
type visitor interface {
	Visit(ctx context.Context, url string) models.VisitOutcome
}

// snapshotter 指标快照持久化能力
type snapshotter interface {
	Persist(state *models.SessionState, samples []models.MemorySample)
}

// memorySampler 内存采样窗口读取能力
type memorySampler interface {
	Samples() []models.MemorySample
}

// Scheduler 访问调度器
// 单协程驱动无限轮巡: 每轮打乱工作集逐一访问,轮末清空失败集,周期性落盘指标
type Scheduler struct {
	cfg        *models.AppConfig
	urls       []string
	state      *models.SessionState
	controller browser.Controller
	visitor    visitor
	pacer      *Pacer
	reporter   snapshotter
	memory     memorySampler
	rng        *rand.Rand

	warmupDelay time.Duration
	jitterMin   time.Duration
	jitterMax   time.Duration
}

// NewScheduler 创建调度器
// urls为本次巡回范围(完整目录或按分类过滤后的子集)
func NewScheduler(
	cfg *models.AppConfig,
	urls []string,
	state *models.SessionState,
	controller browser.Controller,
	v visitor,
	pacer *Pacer,
	reporter snapshotter,
	memory memorySampler,
) *Scheduler {
	return &Scheduler{
		cfg:         cfg,
		urls:        urls,
		state:       state,
		controller:  controller,
		visitor:     v,
		pacer:       pacer,
		reporter:    reporter,
		memory:      memory,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		warmupDelay: browserWarmupDelay,
		jitterMin:   1 * time.Second,
		jitterMax:   3 * time.Second,
	}
}

// Run 无限巡回主循环
// 返回nil表示干净退出(取消信号或目录耗尽);返回错误仅在初始化致命失败时
func (s *Scheduler) Run(ctx context.Context) error {
	utils.Info("启动 office-screen 巡回...")

	// 浏览器启动失败是进程级致命错误,不在此层重试
	if err := s.controller.Start(ctx); err != nil {
		utils.Error(err, "浏览器启动失败")
		return fmt.Errorf("浏览器启动失败: %w", err)
	}

	// 关停顺序: 先落盘指标快照,再尽力关闭浏览器(错误只记日志)
	defer func() {
		s.reporter.Persist(s.state, s.memory.Samples())
		if err := s.controller.Stop(); err != nil {
			utils.Errorf("关闭浏览器出错: %v", err)
		}
		utils.Info("关停完成")
	}()

	// 等待浏览器完全就绪
	if err := ctxSleep(ctx, s.warmupDelay); err != nil {
		return nil
	}

	for {
		if ctx.Err() != nil {
			utils.Info("收到取消信号,正在优雅关停...")
			return nil
		}

		s.state.CycleCount++
		working := s.state.WorkingURLs(s.urls)
		if len(working) == 0 {
			// 目录耗尽: 记错误但仍然干净退出
			utils.Error(nil, "没有可用的URL,退出巡回")
			return nil
		}

		utils.Infof("开始第 %d 轮巡回,共 %d 个URL...", s.state.CycleCount, len(working))

		// 每轮打乱顺序,避免固定访问模式
		s.rng.Shuffle(len(working), func(i, j int) {
			working[i], working[j] = working[j], working[i]
		})

		for _, url := range working {
			if ctx.Err() != nil {
				utils.Info("收到取消信号,正在优雅关停...")
				return nil
			}

			outcome := s.visitor.Visit(ctx, url)
			if !outcome.OK() {
				utils.Warnf("访问失败 [%s]: %s", url, outcome.Reason)
			}

			// URL之间的随机抖动延迟
			if err := ctxSleep(ctx, s.jitter()); err != nil {
				utils.Info("收到取消信号,正在优雅关停...")
				return nil
			}

			// 根据累计成功率刷新停留时间
			s.pacer.Adjust()
		}

		utils.Infof("第 %d 轮巡回完成", s.state.CycleCount)

		if failed := s.state.FailedURLs(); len(failed) > 0 {
			utils.Warnf("本轮失败的URL: %v", failed)
		}

		// 简单的按轮数持久化策略,不基于时间
		if s.state.CycleCount%persistEveryCycles == 0 {
			s.reporter.Persist(s.state, s.memory.Samples())
		}

		// 失败集只在本轮生效,下一轮全部URL重新可用
		s.state.ResetFailed()
	}
}

// jitter 返回[jitterMin, jitterMax]内的均匀随机延迟
func (s *Scheduler) jitter() time.Duration {
	if s.jitterMax <= s.jitterMin {
		return s.jitterMin
	}
	return s.jitterMin + time.Duration(s.rng.Int63n(int64(s.jitterMax-s.jitterMin)))
}
