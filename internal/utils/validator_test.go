package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestURLValidator_Validate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	v := NewURLValidator(nil)

	tests := []struct {
		name       string
		url        string
		wantOK     bool
		wantStatus string
	}{
		{"可达URL", server.URL + "/ok", true, "HTTP 200"},
		{"404视为不可达", server.URL + "/gone", false, "HTTP 404"},
		{"500视为不可达", server.URL + "/broken", false, "HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, status := v.Validate(tt.url)
			if ok != tt.wantOK {
				t.Errorf("Validate(%s) = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if status != tt.wantStatus {
				t.Errorf("状态描述 = %q, want %q", status, tt.wantStatus)
			}
		})
	}
}

func TestURLValidator_MalformedURL(t *testing.T) {
	v := NewURLValidator(nil)

	tests := []string{
		"",
		"not-a-url",
		"ftp://example.com/",
		"https://",
	}
	for _, raw := range tests {
		if ok, status := v.Validate(raw); ok {
			t.Errorf("Validate(%q) = true (%s), want false", raw, status)
		}
	}
}

func TestURLValidator_ConnectionError(t *testing.T) {
	// 先起再关,拿一个必然拒绝连接的地址
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead := server.URL
	server.Close()

	v := NewURLValidator(nil)
	ok, status := v.Validate(dead)

	if ok {
		t.Fatalf("Validate(%s) = true, want false", dead)
	}
	if !strings.Contains(status, "连接错误") {
		t.Errorf("状态描述 = %q, want 连接错误前缀", status)
	}
}

func TestURLValidator_BadProxyAddress(t *testing.T) {
	v := NewURLValidator(nil)
	v.SetProxy("://bad proxy")

	if ok, _ := v.Validate("https://example.com/"); ok {
		t.Error("代理地址非法时 Validate() = true, want false")
	}
}
