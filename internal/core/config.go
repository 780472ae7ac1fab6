package core

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/officescreen/officescreen/internal/models"
	"github.com/officescreen/officescreen/internal/utils"
)

// LoadConfig 加载应用配置
// 文件缺失、JSON损坏或不变量被破坏都回退到全默认配置并告警,绝不因配置问题启动失败
func LoadConfig(configPath string) *models.AppConfig {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".officescreen"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			utils.Warn("未找到配置文件,使用默认配置")
		} else {
			utils.Warnf("读取配置文件失败: %v,使用默认配置", err)
			return models.DefaultConfig()
		}
	} else {
		utils.Infof("已加载配置文件: %s", v.ConfigFileUsed())
	}

	var cfg models.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		utils.Warnf("解析配置失败: %v,使用默认配置", err)
		return models.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		utils.Warnf("配置不合法: %v,使用默认配置", err)
		return models.DefaultConfig()
	}

	return &cfg
}

// setDefaults 设置默认配置值(未知字段由viper自然忽略)
func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", models.DefaultInterval)
	v.SetDefault("adaptive_interval", true)
	v.SetDefault("min_interval", models.DefaultMinInterval)
	v.SetDefault("max_interval", models.DefaultMaxInterval)
	v.SetDefault("max_retries", models.DefaultMaxRetries)
	v.SetDefault("max_browser_restarts", models.DefaultMaxBrowserRestarts)
	v.SetDefault("memory_check_interval", models.DefaultMemoryCheckInterval)
	v.SetDefault("max_memory_usage", models.DefaultMaxMemoryPercent)
	v.SetDefault("headless", true)
	v.SetDefault("proxies", []string{})
	v.SetDefault("user_agents", models.DefaultUserAgents)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// LoadCatalog 加载URL目录
// 目录文件缺失或损坏时回退到内置默认列表并告警
func LoadCatalog(catalogPath string) *models.Catalog {
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		utils.Warnf("未找到URL目录文件 %s,使用内置默认列表", catalogPath)
		return models.DefaultCatalog()
	}

	var catalog models.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		utils.Warnf("解析URL目录失败: %v,使用内置默认列表", err)
		return models.DefaultCatalog()
	}

	if catalog.Len() == 0 {
		utils.Warnf("URL目录 %s 为空,使用内置默认列表", catalogPath)
		return models.DefaultCatalog()
	}

	utils.Infof("已从 %s 加载 %d 个URL (%d个分类)", catalogPath, catalog.Len(), len(catalog.Categories))
	return &catalog
}
