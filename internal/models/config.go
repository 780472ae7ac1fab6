package models

import "fmt"

// 默认值与原始行为保持一致
const (
	DefaultInterval            = 90.0 // 页面停留时间(秒)
	DefaultMinInterval         = 30.0
	DefaultMaxInterval         = 180.0
	DefaultMaxRetries          = 3
	DefaultMaxBrowserRestarts  = 5
	DefaultMemoryCheckInterval = 300 // 内存检查间隔(秒)
	DefaultMaxMemoryPercent    = 80.0
)

// DefaultUserAgents 内置User-Agent列表(配置缺失时的兜底)
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// AppConfig 应用程序配置
// 启动时加载一次,此后只有Interval会被自适应调速器原地改写
type AppConfig struct {
	Interval            float64  `mapstructure:"interval"`              // 页面停留时间(秒)
	AdaptiveInterval    bool     `mapstructure:"adaptive_interval"`     // 是否根据成功率自适应调整
	MinInterval         float64  `mapstructure:"min_interval"`          // 停留时间下限(秒)
	MaxInterval         float64  `mapstructure:"max_interval"`          // 停留时间上限(秒)
	MaxRetries          int      `mapstructure:"max_retries"`           // 单URL最大重试次数
	MaxBrowserRestarts  int      `mapstructure:"max_browser_restarts"`  // 浏览器重启预算(进程生命周期内)
	MemoryCheckInterval int      `mapstructure:"memory_check_interval"` // 内存检查间隔(秒)
	MaxMemoryPercent    float64  `mapstructure:"max_memory_usage"`      // 内存占用阈值(%)
	Headless            bool     `mapstructure:"headless"`              // 无头浏览器模式
	Proxies             []string `mapstructure:"proxies"`               // 代理列表(可为空)
	UserAgents          []string `mapstructure:"user_agents"`           // User-Agent列表

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// DefaultConfig 全默认配置
// 配置文件缺失或损坏时整体回退到这里,绝不因配置问题启动失败
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Interval:            DefaultInterval,
		AdaptiveInterval:    true,
		MinInterval:         DefaultMinInterval,
		MaxInterval:         DefaultMaxInterval,
		MaxRetries:          DefaultMaxRetries,
		MaxBrowserRestarts:  DefaultMaxBrowserRestarts,
		MemoryCheckInterval: DefaultMemoryCheckInterval,
		MaxMemoryPercent:    DefaultMaxMemoryPercent,
		Headless:            true,
		Proxies:             []string{},
		UserAgents:          append([]string{}, DefaultUserAgents...),
		Logging: LoggingConfig{
			Level:  "info",
			LogDir: "logs",
			Rotation: RotationConfig{
				MaxSize:    10,
				MaxBackups: 5,
				MaxAge:     28,
				Compress:   true,
			},
		},
	}
}

// Validate 校验配置不变量
// 不变量: MinInterval <= Interval <= MaxInterval
func (c *AppConfig) Validate() error {
	if c.MinInterval <= 0 || c.MaxInterval <= 0 || c.Interval <= 0 {
		return fmt.Errorf("停留时间必须为正数: interval=%.1f min=%.1f max=%.1f",
			c.Interval, c.MinInterval, c.MaxInterval)
	}
	if c.MinInterval > c.Interval || c.Interval > c.MaxInterval {
		return fmt.Errorf("停留时间不满足 min <= interval <= max: interval=%.1f min=%.1f max=%.1f",
			c.Interval, c.MinInterval, c.MaxInterval)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries 必须大于0: %d", c.MaxRetries)
	}
	if c.MaxBrowserRestarts < 0 {
		return fmt.Errorf("max_browser_restarts 不能为负数: %d", c.MaxBrowserRestarts)
	}
	if c.MaxMemoryPercent <= 0 || c.MaxMemoryPercent > 100 {
		return fmt.Errorf("max_memory_usage 必须在(0,100]区间内: %.1f", c.MaxMemoryPercent)
	}
	return nil
}

// EffectiveUserAgents 返回User-Agent列表,空列表时回退到内置值
func (c *AppConfig) EffectiveUserAgents() []string {
	if len(c.UserAgents) == 0 {
		return DefaultUserAgents
	}
	return c.UserAgents
}
