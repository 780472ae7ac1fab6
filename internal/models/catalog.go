package models

import (
	"fmt"
	"net/url"
	"strings"
)

// Category URL分类
type Category struct {
	Name string   `json:"category"`
	URLs []string `json:"urls"`
}

// Catalog URL目录
// 启动时加载一次,此后不可变;每轮巡回派生出的工作集才是可变的
type Catalog struct {
	Categories []Category `json:"urls"`
}

// DefaultCatalog 内置默认URL列表(目录文件缺失或损坏时的兜底)
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{
			{
				Name: "default",
				URLs: []string{
					"https://news.ycombinator.com/",
					"https://github.com/trending",
					"https://tldr.tech/",
					"https://www.theverge.com/",
					"https://techcrunch.com/",
				},
			},
		},
	}
}

// AllURLs 展平视图: 按文件顺序拼接所有分类的URL
func (c *Catalog) AllURLs() []string {
	all := make([]string, 0)
	for _, cat := range c.Categories {
		all = append(all, cat.URLs...)
	}
	return all
}

// URLsByCategory 按分类名过滤URL(不区分大小写)
// 分类不存在时返回空列表
func (c *Catalog) URLsByCategory(name string) []string {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, name) {
			return append([]string{}, cat.URLs...)
		}
	}
	return []string{}
}

// CategoryNames 返回所有分类名称(保持文件顺序)
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// Len 目录中URL总数
func (c *Catalog) Len() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.URLs)
	}
	return n
}

// ValidateURL 校验URL格式(必须含协议和主机)
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL不能为空")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL解析失败: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("不支持的协议: %s (仅支持http/https)", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名: %s", rawURL)
	}

	return nil
}
