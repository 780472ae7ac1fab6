package core

import (
	"testing"
)

func TestMemoryMonitor_CheckRecordsSample(t *testing.T) {
	m := NewMemoryMonitor(100)

	if !m.Check() {
		t.Error("阈值100%下 Check() = false, want true")
	}
	samples := m.Samples()
	if len(samples) != 1 {
		t.Fatalf("采样数 = %d, want 1", len(samples))
	}
	if samples[0].Percent < 0 || samples[0].Percent > 100 {
		t.Errorf("采样占用不合理: %v%%", samples[0].Percent)
	}
	if samples[0].Timestamp.IsZero() {
		t.Error("采样时间戳为零值")
	}
}

func TestMemoryMonitor_OverThreshold(t *testing.T) {
	// 阈值为0时任何真实采样都超限
	m := NewMemoryMonitor(0)

	if m.Check() {
		t.Error("阈值0%下 Check() = true, want false")
	}
	// 超限采样同样进入窗口
	if len(m.Samples()) != 1 {
		t.Errorf("采样数 = %d, want 1", len(m.Samples()))
	}
}

func TestMemoryMonitor_WindowCapped(t *testing.T) {
	m := NewMemoryMonitor(100)

	for i := 0; i < maxMemorySamples+50; i++ {
		m.Check()
	}
	if got := len(m.Samples()); got != maxMemorySamples {
		t.Errorf("采样窗口 = %d, want %d", got, maxMemorySamples)
	}
}

func TestMemoryMonitor_SamplesIsCopy(t *testing.T) {
	m := NewMemoryMonitor(100)
	m.Check()

	samples := m.Samples()
	samples[0].Percent = -1
	if m.Samples()[0].Percent == -1 {
		t.Error("Samples()返回值不应与内部窗口共享存储")
	}
}
