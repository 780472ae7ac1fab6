package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/officescreen/officescreen/internal/browser"
	"github.com/officescreen/officescreen/internal/core"
	"github.com/officescreen/officescreen/internal/models"
	"github.com/officescreen/officescreen/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 目录参数
	urlsFile string
	category string

	// 浏览器参数
	headless bool
)

var rootCmd = &cobra.Command{
	Use:   "officescreen",
	Short: "办公大屏网页轮播守护进程",
	Long: `OfficeScreen - 办公大屏网页轮播守护进程 (Go版本)

持续轮播一组网页的无人值守守护进程,专为树莓派等大屏终端设计,支持:
  • 按分类组织的URL目录,每轮随机打乱顺序
  • 导航前可达性探测,失败URL本轮跳过
  • 页面加载超时重试与浏览器崩溃自动重启(有预算上限)
  • 根据成功率自适应调整页面停留时间
  • 内存超限自动重启浏览器
  • 代理轮换与随机User-Agent
  • 周期性落盘性能指标快照

使用示例:
  # 使用默认配置和内置URL列表
  officescreen

  # 指定配置和URL目录
  officescreen -c configs/config.json -f configs/urls.json

  # 只轮播某个分类
  officescreen -f configs/urls.json --category news

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := core.LoadConfig(configFile)

		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := core.LoadConfig(configFile)
		if cmd.Flags().Changed("headless") {
			cfg.Headless = headless
		}

		urls, err := resolveURLs()
		if err != nil {
			return err
		}

		// 浏览器、探测器与代理轮换器共享同一份会话参数:
		// 每次浏览器(重)启动轮换代理,探测器跟随当前代理
		rotator := core.NewProxyRotator(cfg.Proxies)
		validator := utils.NewURLValidator(cfg.EffectiveUserAgents())
		controller := browser.NewRodController(cfg, rotator)
		controller.SessionHook = func(proxy, userAgent string) {
			validator.SetProxy(proxy)
		}

		state := models.NewSessionState()
		memory := core.NewMemoryMonitor(cfg.MaxMemoryPercent)
		reporter := utils.NewReporter(cfg.Logging.LogDir)
		resilience := core.NewResilience(cfg, state, controller, validator, memory)
		pacer := core.NewPacer(cfg, state)

		scheduler := core.NewScheduler(cfg, urls, state, controller, resilience, pacer, reporter, memory)

		// Ctrl+C / SIGTERM 优雅关停
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return scheduler.Run(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("OfficeScreen %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 办公大屏网页轮播守护进程")
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "批量校验URL目录中所有URL的可达性",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := core.LoadConfig(configFile)

		urls, err := resolveURLs()
		if err != nil {
			return err
		}

		validator := utils.NewURLValidator(cfg.EffectiveUserAgents())
		bar := utils.NewProgressBar(len(urls), "校验URL")

		type failure struct {
			url    string
			status string
		}
		var failures []failure

		for _, u := range urls {
			if ok, status := validator.Validate(u); !ok {
				failures = append(failures, failure{url: u, status: status})
			}
			_ = bar.Add(1)
		}
		fmt.Println()

		fmt.Println("==================================================")
		fmt.Println("📊 校验结果")
		fmt.Println("==================================================")
		fmt.Printf("✅ 可达: %d\n", len(urls)-len(failures))
		fmt.Printf("❌ 不可达: %d\n", len(failures))
		for _, f := range failures {
			fmt.Printf("   %s (%s)\n", f.url, f.status)
		}
		fmt.Println("==================================================")

		if len(failures) > 0 {
			return fmt.Errorf("%d个URL不可达", len(failures))
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "列出URL目录中的所有分类",
	Run: func(cmd *cobra.Command, args []string) {
		catalog := core.LoadCatalog(urlsFile)
		for _, cat := range catalog.Categories {
			fmt.Printf("%-20s %d个URL\n", cat.Name, len(cat.URLs))
		}
	},
}

// resolveURLs 加载URL目录并按分类过滤
func resolveURLs() ([]string, error) {
	catalog := core.LoadCatalog(urlsFile)

	if category == "" {
		return catalog.AllURLs(), nil
	}

	urls := catalog.URLsByCategory(category)
	if len(urls) == 0 {
		return nil, fmt.Errorf("分类 %q 不存在或为空 (可用分类: %s)",
			category, strings.Join(catalog.CategoryNames(), ", "))
	}
	return urls, nil
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 目录参数
	rootCmd.PersistentFlags().StringVarP(&urlsFile, "urls", "f", "configs/urls.json", "URL目录文件路径")
	rootCmd.PersistentFlags().StringVar(&category, "category", "", "只轮播指定分类的URL")

	// 浏览器参数
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
