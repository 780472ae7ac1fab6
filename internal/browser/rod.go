package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/officescreen/officescreen/internal/models"
	"github.com/officescreen/officescreen/internal/utils"
)

// stealthScript 抹掉navigator.webdriver痕迹
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

// ProxyProvider 代理提供者
// 每次浏览器(重)启动恰好前进一个位置
type ProxyProvider interface {
	Next() string
}

// RodController 基于Rod的浏览器控制器实现
type RodController struct {
	headless   bool
	userAgents []string
	proxies    ProxyProvider
	rng        *rand.Rand

	// SessionHook 每次会话启动后回调(当前代理与User-Agent),可为nil
	SessionHook func(proxy, userAgent string)

	launcher  *launcher.Launcher
	browser   *rod.Browser
	firstPage *rod.Page
	activeTab *rod.Page
}

// NewRodController 创建Rod控制器
func NewRodController(cfg *models.AppConfig, proxies ProxyProvider) *RodController {
	return &RodController{
		headless:   cfg.Headless,
		userAgents: cfg.EffectiveUserAgents(),
		proxies:    proxies,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start 启动新的浏览器会话
// 每次启动都会前进代理轮换器并随机挑选User-Agent
func (r *RodController) Start(ctx context.Context) error {
	l := launcher.New().
		Headless(r.headless).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("window-size", "1920,1080").
		Set("start-maximized").
		Set("disable-blink-features", "AutomationControlled").
		Set("ignore-certificate-errors")

	// 随机User-Agent
	userAgent := r.userAgents[r.rng.Intn(len(r.userAgents))]
	l = l.Set("user-agent", userAgent)

	// 代理: 每次(重)启动恰好轮换一个位置
	proxy := ""
	if r.proxies != nil {
		proxy = r.proxies.Next()
	}
	if proxy != "" {
		l = l.Set("proxy-server", proxy)
		utils.Infof("使用代理: %s", proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	// 首个标签页作为"主屏",巡回标签页关闭后切回这里
	firstPage, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return fmt.Errorf("创建初始标签页失败: %w", err)
	}

	if _, err := firstPage.EvalOnNewDocument(stealthScript); err != nil {
		utils.Warnf("注入stealth脚本失败: %v", err)
	}

	r.launcher = l
	r.browser = browser
	r.firstPage = firstPage
	r.activeTab = nil

	if r.SessionHook != nil {
		r.SessionHook(proxy, userAgent)
	}

	utils.Infof("浏览器启动成功 (headless=%v)", r.headless)
	return nil
}

// OpenTab 打开新标签页并导航
func (r *RodController) OpenTab(ctx context.Context, url string, timeout time.Duration) (*PageInfo, error) {
	if r.browser == nil {
		return nil, ErrNotStarted
	}

	start := time.Now()

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败(%w): %v", ErrBrowserCrashed, err)
	}
	r.activeTab = page

	// 注入stealth脚本后再导航
	if _, err := page.EvalOnNewDocument(stealthScript); err != nil {
		utils.Debugf("注入stealth脚本失败: %v", err)
	}

	bounded := page.Context(ctx).Timeout(timeout)
	if err := bounded.Navigate(url); err != nil {
		return nil, err
	}
	if err := bounded.WaitLoad(); err != nil {
		return nil, err
	}

	if _, err := page.Activate(); err != nil {
		utils.Debugf("激活标签页失败: %v", err)
	}

	info, err := page.Info()
	if err != nil {
		return nil, err
	}
	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	return &PageInfo{
		URL:      info.URL,
		Content:  html,
		LoadTime: time.Since(start),
	}, nil
}

// CloseActiveTab 关闭当前标签页并切回首个标签页
func (r *RodController) CloseActiveTab() error {
	if r.activeTab == nil {
		return nil
	}

	err := r.activeTab.Close()
	r.activeTab = nil

	if r.firstPage != nil {
		if _, actErr := r.firstPage.Activate(); actErr != nil {
			utils.Debugf("切回首个标签页失败: %v", actErr)
		}
	}

	return err
}

// IsHealthy 浏览器是否仍可响应
// 通过列举target探测连接是否存活
func (r *RodController) IsHealthy() bool {
	if r.browser == nil {
		return false
	}
	_, err := r.browser.Pages()
	return err == nil
}

// Stop 关闭浏览器会话(幂等)
func (r *RodController) Stop() error {
	if r.browser == nil {
		return nil
	}

	err := r.browser.Close()
	if r.launcher != nil {
		r.launcher.Kill()
	}

	r.browser = nil
	r.firstPage = nil
	r.activeTab = nil
	r.launcher = nil

	if err != nil {
		return fmt.Errorf("关闭浏览器失败: %w", err)
	}
	utils.Info("浏览器已关闭")
	return nil
}
