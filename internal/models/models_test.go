package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/path/to/page", false},
		{"带查询参数的URL", "https://forecast.weather.gov/MapClick.php?CityName=Las+Vegas", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalog_AllURLs(t *testing.T) {
	catalog := &Catalog{
		Categories: []Category{
			{Name: "A", URLs: []string{"https://a.example.com/1", "https://a.example.com/2"}},
			{Name: "B", URLs: []string{"https://b.example.com/3"}},
		},
	}

	want := []string{"https://a.example.com/1", "https://a.example.com/2", "https://b.example.com/3"}
	got := catalog.AllURLs()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllURLs() = %v, want %v", got, want)
	}

	if catalog.Len() != 3 {
		t.Errorf("Len() = %d, want 3", catalog.Len())
	}
}

func TestCatalog_URLsByCategory(t *testing.T) {
	catalog := &Catalog{
		Categories: []Category{
			{Name: "A", URLs: []string{"https://a.example.com/1", "https://a.example.com/2"}},
			{Name: "B", URLs: []string{"https://b.example.com/3"}},
		},
	}

	tests := []struct {
		name     string
		category string
		want     []string
	}{
		{"存在的分类", "A", []string{"https://a.example.com/1", "https://a.example.com/2"}},
		{"分类名不区分大小写", "a", []string{"https://a.example.com/1", "https://a.example.com/2"}},
		{"不存在的分类", "C", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalog.URLsByCategory(tt.category)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("URLsByCategory(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestCatalog_UnmarshalJSON(t *testing.T) {
	data := `{"urls": [{"category": "news", "urls": ["https://news.ycombinator.com/"]}, {"category": "tech", "urls": ["https://tldr.tech/", "https://github.com/trending"]}]}`

	var catalog Catalog
	if err := json.Unmarshal([]byte(data), &catalog); err != nil {
		t.Fatalf("解析目录JSON失败: %v", err)
	}

	if len(catalog.Categories) != 2 {
		t.Fatalf("分类数 = %d, want 2", len(catalog.Categories))
	}
	if got := catalog.CategoryNames(); !reflect.DeepEqual(got, []string{"news", "tech"}) {
		t.Errorf("CategoryNames() = %v", got)
	}
	if catalog.Len() != 3 {
		t.Errorf("Len() = %d, want 3", catalog.Len())
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"默认配置有效", func(c *AppConfig) {}, false},
		{"停留时间低于下限", func(c *AppConfig) { c.Interval = 10 }, true},
		{"停留时间高于上限", func(c *AppConfig) { c.Interval = 300 }, true},
		{"停留时间为负数", func(c *AppConfig) { c.Interval = -1 }, true},
		{"重试次数为0", func(c *AppConfig) { c.MaxRetries = 0 }, true},
		{"重启预算为负数", func(c *AppConfig) { c.MaxBrowserRestarts = -1 }, true},
		{"内存阈值超过100", func(c *AppConfig) { c.MaxMemoryPercent = 120 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionState_FailedURLs(t *testing.T) {
	state := NewSessionState()
	all := []string{"https://a.example.com/", "https://b.example.com/", "https://c.example.com/"}

	state.MarkFailed("https://b.example.com/")
	state.MarkFailed("https://b.example.com/") // 重复标记不产生重复项

	working := state.WorkingURLs(all)
	want := []string{"https://a.example.com/", "https://c.example.com/"}
	if !reflect.DeepEqual(working, want) {
		t.Errorf("WorkingURLs() = %v, want %v", working, want)
	}

	if got := state.FailedURLs(); !reflect.DeepEqual(got, []string{"https://b.example.com/"}) {
		t.Errorf("FailedURLs() = %v", got)
	}

	// 轮末重置后全部URL重新可用
	state.ResetFailed()
	if got := state.WorkingURLs(all); !reflect.DeepEqual(got, all) {
		t.Errorf("重置后 WorkingURLs() = %v, want %v", got, all)
	}
	if got := state.FailedURLs(); len(got) != 0 {
		t.Errorf("重置后 FailedURLs() = %v, want 空", got)
	}
}

func TestSessionState_RecordSuccess(t *testing.T) {
	state := NewSessionState()

	state.RecordSuccess(2.0)
	state.RecordSuccess(4.0)

	if state.SuccessfulVisits != 2 {
		t.Errorf("SuccessfulVisits = %d, want 2", state.SuccessfulVisits)
	}
	if state.AvgLoadTime != 3.0 {
		t.Errorf("AvgLoadTime = %v, want 3.0", state.AvgLoadTime)
	}
}

func TestSessionState_SuccessRate(t *testing.T) {
	state := NewSessionState()

	// 零访问时不应除零
	if got := state.SuccessRate(); got != 0 {
		t.Errorf("零访问 SuccessRate() = %v, want 0", got)
	}

	state.TotalVisits = 10
	state.SuccessfulVisits = 2
	if got := state.SuccessRate(); got != 0.2 {
		t.Errorf("SuccessRate() = %v, want 0.2", got)
	}
}
