package browser

import (
	"context"
	"errors"
	"strings"
	"time"
)

// 错误类型定义
var (
	// ErrNotStarted 浏览器尚未启动
	ErrNotStarted = errors.New("浏览器尚未启动")
	// ErrBrowserCrashed 浏览器崩溃或连接断开
	ErrBrowserCrashed = errors.New("浏览器崩溃")
)

// PageInfo 一次导航完成后的页面信息
type PageInfo struct {
	URL      string        // 实际到达的URL(可能经过重定向)
	Content  string        // 页面HTML内容
	LoadTime time.Duration // 从发起导航到加载完成的耗时
}

// Controller 浏览器控制能力接口
// 核心逻辑只依赖此接口,真实实现由RodController提供,测试用伪实现
type Controller interface {
	// Start 启动一个新的浏览器会话
	Start(ctx context.Context) error

	// OpenTab 打开新标签页并导航到URL,超时由timeout约束
	// 成功后新标签页处于激活状态
	OpenTab(ctx context.Context, url string, timeout time.Duration) (*PageInfo, error)

	// CloseActiveTab 关闭当前标签页并切回首个标签页
	CloseActiveTab() error

	// IsHealthy 浏览器是否仍可响应
	IsHealthy() bool

	// Stop 关闭浏览器会话(幂等)
	Stop() error
}

// transportErrorPatterns 浏览器传输层错误的特征串
// 命中即认为浏览器会话已不可用,需要重启
var transportErrorPatterns = []string{
	"not reachable",
	"session deleted",
	"浏览器崩溃",
	"websocket",
	"connection refused",
	"connection reset",
	"cdp connection",
}

// IsTimeoutError 判断是否为页面加载超时
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// IsTransportError 判断是否为浏览器传输层错误(需要重启浏览器)
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBrowserCrashed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transportErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
