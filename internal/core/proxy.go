package core

import "sync"

// ProxyRotator 代理轮换器
// 在配置的代理列表上循环取值,每次浏览器(重)启动恰好前进一个位置
// 列表为空时始终返回空串("无代理")
type ProxyRotator struct {
	proxies []string
	index   int
	mu      sync.Mutex
}

// NewProxyRotator 创建代理轮换器
func NewProxyRotator(proxies []string) *ProxyRotator {
	return &ProxyRotator{
		proxies: append([]string{}, proxies...),
	}
}

// Next 取下一个代理,按模长回绕
func (r *ProxyRotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return ""
	}

	proxy := r.proxies[r.index]
	r.index = (r.index + 1) % len(r.proxies)
	return proxy
}

// Len 配置的代理数量
func (r *ProxyRotator) Len() int {
	return len(r.proxies)
}
