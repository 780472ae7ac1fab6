package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/officescreen/officescreen/internal/browser"
	"github.com/officescreen/officescreen/internal/models"
	"github.com/officescreen/officescreen/internal/utils"
)

const (
	// PageLoadTimeout 页面加载超时
	PageLoadTimeout = 30 * time.Second
	// settleDelay 加载完成后到页面检查之间的等待
	settleDelay = 5 * time.Second
	// restartDelay 浏览器重启前等待系统回收资源的时间
	restartDelay = 5 * time.Second
)

// urlErrorMarkers 到达URL中出现即视为错误页
var urlErrorMarkers = []string{"error", "404", "not found"}

// contentErrorIndicators 页面内容中的错误迹象(仅告警,不影响结果判定)
var contentErrorIndicators = []string{"error", "not found", "404", "unavailable", "maintenance"}

// urlProber URL可达性探测能力
type urlProber interface {
	Validate(url string) (ok bool, status string)
}

// memoryChecker 内存占用检查能力
type memoryChecker interface {
	Check() bool
}

// Resilience 韧性管理器
// 把一次导航包装成带健康检查、校验、重试和重启升级的状态机
// 所有按URL粒度的错误都被拦在这一层,只以VisitOutcome和日志形式上报调度器
type Resilience struct {
	cfg        *models.AppConfig
	state      *models.SessionState
	controller browser.Controller
	prober     urlProber
	memory     memoryChecker

	pageLoadTimeout time.Duration
	settleDelay     time.Duration
	restartDelay    time.Duration
}

// NewResilience 创建韧性管理器
func NewResilience(
	cfg *models.AppConfig,
	state *models.SessionState,
	controller browser.Controller,
	prober urlProber,
	memory memoryChecker,
) *Resilience {
	return &Resilience{
		cfg:             cfg,
		state:           state,
		controller:      controller,
		prober:          prober,
		memory:          memory,
		pageLoadTimeout: PageLoadTimeout,
		settleDelay:     settleDelay,
		restartDelay:    restartDelay,
	}
}

// Visit 访问一个URL
// 显式有界循环代替递归重试: 只有超时和"重启后重试"的传输错误会消耗重试名额,
// 校验失败单次即终止且不占名额
func (rm *Resilience) Visit(ctx context.Context, url string) models.VisitOutcome {
	for retry := 0; ; retry++ {
		if retry >= rm.cfg.MaxRetries {
			utils.Errorf("已达最大重试次数,跳过: %s", url)
			rm.state.MarkFailed(url)
			return models.VisitOutcome{
				Status: models.VisitTimeout,
				Reason: fmt.Sprintf("重试%d次后仍然失败", rm.cfg.MaxRetries),
			}
		}

		outcome, retryAgain := rm.attempt(ctx, url)
		if !retryAgain {
			return outcome
		}
	}
}

// attempt 单次访问尝试
// 返回结果以及是否应消耗一个重试名额再来一次
func (rm *Resilience) attempt(ctx context.Context, url string) (models.VisitOutcome, bool) {
	start := time.Now()
	rm.state.TotalVisits++

	// 内存检查闸门: 超过检查周期才采样,超阈值强制重启浏览器
	if time.Since(rm.state.LastMemoryCheckAt) > time.Duration(rm.cfg.MemoryCheckInterval)*time.Second {
		memOK := rm.memory.Check()
		rm.state.LastMemoryCheckAt = time.Now()
		if !memOK {
			utils.Warn("内存占用过高,重启浏览器")
			if !rm.restartBrowser(ctx) {
				return models.VisitOutcome{Status: models.VisitBrowserCrashed, Reason: "内存超限且浏览器重启失败"}, false
			}
		}
	}

	// 导航前的轻量可达性探测
	// 校验失败对本次调用是终止性的: 标记本轮失败,不重试
	if ok, status := rm.prober.Validate(url); !ok {
		utils.Warnf("URL校验失败 [%s]: %s", url, status)
		rm.state.MarkFailed(url)
		return models.VisitOutcome{Status: models.VisitValidationFailed, Reason: status}, false
	}

	// 浏览器活性检查
	if !rm.controller.IsHealthy() {
		utils.Warn("浏览器无响应,尝试重启")
		if !rm.restartBrowser(ctx) {
			return models.VisitOutcome{Status: models.VisitBrowserCrashed, Reason: "浏览器无响应且重启预算已耗尽"}, false
		}
	}

	// 新标签页导航,超时由pageLoadTimeout约束
	utils.Infof("访问: %s", url)
	info, err := rm.controller.OpenTab(ctx, url, rm.pageLoadTimeout)
	if err != nil {
		switch {
		case browser.IsTimeoutError(err):
			utils.Warnf("加载超时 [%s],准备重试...", url)
			rm.cleanupTab()
			return models.VisitOutcome{Status: models.VisitTimeout, Reason: err.Error()}, true
		case browser.IsTransportError(err):
			utils.Errorf("浏览器传输错误 [%s]: %v", url, err)
			if rm.restartBrowser(ctx) {
				return models.VisitOutcome{Status: models.VisitBrowserCrashed, Reason: err.Error()}, true
			}
			return models.VisitOutcome{Status: models.VisitBrowserCrashed, Reason: err.Error()}, false
		default:
			utils.Errorf("访问出错 [%s]: %v", url, err)
			rm.cleanupTab()
			return models.VisitOutcome{Status: models.VisitUnknownError, Reason: err.Error()}, false
		}
	}

	// 等待页面稳定后再检查
	if err := ctxSleep(ctx, rm.settleDelay); err != nil {
		rm.cleanupTab()
		return models.VisitOutcome{Status: models.VisitUnknownError, Reason: "已取消"}, false
	}

	// 到达URL中的错误标记走通用失败路径(清理标签页,不重试)
	lowerURL := strings.ToLower(info.URL)
	for _, marker := range urlErrorMarkers {
		if strings.Contains(lowerURL, marker) {
			utils.Errorf("访问出错 [%s]: 页面返回错误状态 (%s)", url, info.URL)
			rm.cleanupTab()
			return models.VisitOutcome{Status: models.VisitUnknownError, Reason: "页面返回错误状态"}, false
		}
	}

	// 页面内容中的错误迹象仅告警,不影响结果判定
	lowerContent := strings.ToLower(info.Content)
	for _, indicator := range contentErrorIndicators {
		if strings.Contains(lowerContent, indicator) {
			utils.Warnf("页面内容中发现错误迹象: %s", url)
			break
		}
	}

	// 按当前停留时间驻留页面
	utils.Infof("停留 %.0f 秒...", rm.cfg.Interval)
	if err := ctxSleep(ctx, time.Duration(rm.cfg.Interval*float64(time.Second))); err != nil {
		rm.cleanupTab()
		return models.VisitOutcome{Status: models.VisitUnknownError, Reason: "已取消"}, false
	}

	// 关闭标签页并切回首屏
	if err := rm.controller.CloseActiveTab(); err != nil {
		utils.Errorf("访问出错 [%s]: %v", url, err)
		rm.cleanupTab()
		return models.VisitOutcome{Status: models.VisitUnknownError, Reason: err.Error()}, false
	}

	loadTime := time.Since(start).Seconds()
	rm.state.RecordSuccess(loadTime)

	return models.VisitOutcome{Status: models.VisitSuccess, Reason: "ok"}, false
}

// cleanupTab 防御性清理: 尽力关闭出事的标签页并切回首屏,二次错误一律吞掉
func (rm *Resilience) cleanupTab() {
	if err := rm.controller.CloseActiveTab(); err != nil {
		utils.Debugf("清理标签页失败(忽略): %v", err)
	}
}

// restartBrowser 有界重启子过程
// 预算耗尽时直接拒绝,不做任何关停/启动动作;否则关停、等待系统回收、换代理换UA重启
func (rm *Resilience) restartBrowser(ctx context.Context) bool {
	if rm.state.BrowserRestartCount >= rm.cfg.MaxBrowserRestarts {
		utils.Error(nil, "已达最大浏览器重启次数")
		return false
	}

	utils.Warnf("重启浏览器 (第%d/%d次)", rm.state.BrowserRestartCount+1, rm.cfg.MaxBrowserRestarts)
	rm.state.MetricsRestarts++

	if err := rm.controller.Stop(); err != nil {
		utils.Warnf("关闭浏览器出错(忽略): %v", err)
	}

	if err := ctxSleep(ctx, rm.restartDelay); err != nil {
		return false
	}

	if err := rm.controller.Start(ctx); err != nil {
		utils.Errorf("重启浏览器失败: %v", err)
		return false
	}

	rm.state.BrowserRestartCount++
	return true
}

// ctxSleep 可取消的等待
func ctxSleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
