package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	xproxy "golang.org/x/net/proxy"

	"github.com/officescreen/officescreen/internal/models"
)

const (
	// ProbeTimeout URL可达性探测超时
	ProbeTimeout = 10 * time.Second
)

// URLValidator URL可达性校验器
// 在真正导航之前用HEAD请求做轻量探测: 格式非法、状态码>=400或传输错误均视为校验失败
type URLValidator struct {
	timeout    time.Duration
	userAgents []string
	proxyURL   string // 当前代理,可为空
	rng        *rand.Rand
}

// NewURLValidator 创建校验器
func NewURLValidator(userAgents []string) *URLValidator {
	if len(userAgents) == 0 {
		userAgents = models.DefaultUserAgents
	}
	return &URLValidator{
		timeout:    ProbeTimeout,
		userAgents: userAgents,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetProxy 设置探测使用的代理(跟随浏览器当前代理)
func (v *URLValidator) SetProxy(proxyURL string) {
	v.proxyURL = proxyURL
}

// Validate 校验URL是否可访问
// 返回是否可达以及人类可读的状态描述
func (v *URLValidator) Validate(rawURL string) (bool, string) {
	// 格式校验: 必须含协议和主机
	if err := models.ValidateURL(rawURL); err != nil {
		return false, fmt.Sprintf("URL格式无效: %v", err)
	}

	transport, err := v.buildTransport()
	if err != nil {
		return false, fmt.Sprintf("构建探测传输层失败: %v", err)
	}

	c := colly.NewCollector(
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(transport)
	c.SetRequestTimeout(v.timeout)

	// 每次探测随机选择User-Agent
	ua := v.userAgents[v.rng.Intn(len(v.userAgents))]
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", ua)
	})

	statusCode := 0
	var transportErr error
	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		transportErr = err
	})

	if err := c.Head(rawURL); err != nil && transportErr == nil {
		transportErr = err
	}

	if statusCode == 0 && transportErr != nil {
		return false, fmt.Sprintf("连接错误: %v", transportErr)
	}
	if statusCode >= 400 {
		return false, fmt.Sprintf("HTTP %d", statusCode)
	}
	if statusCode == 0 {
		return false, "无响应"
	}

	return true, fmt.Sprintf("HTTP %d", statusCode)
}

// buildTransport 按当前代理构建HTTP传输层
// socks5代理走x/net的拨号器,http/https代理走标准Proxy字段
func (v *URLValidator) buildTransport() (*http.Transport, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, // 与浏览器一致,容忍自签名证书
		},
	}

	if v.proxyURL == "" {
		return transport, nil
	}

	parsed, err := url.Parse(v.proxyURL)
	if err != nil {
		return nil, fmt.Errorf("解析代理地址失败: %w", err)
	}

	switch parsed.Scheme {
	case "socks5", "socks5h":
		var auth *xproxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			auth = &xproxy.Auth{User: parsed.User.Username(), Password: password}
		}
		dialer, err := xproxy.SOCKS5("tcp", parsed.Host, auth, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("创建SOCKS5拨号器失败: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if contextDialer, ok := dialer.(xproxy.ContextDialer); ok {
				return contextDialer.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	default:
		transport.Proxy = http.ProxyURL(parsed)
	}

	return transport, nil
}
