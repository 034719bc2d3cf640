package core

import (
	"math"
	"testing"
)

func TestFrameMetricsFPS(t *testing.T) {
	m := NewFrameMetrics()
	published := 0
	// 120 frames of 10ms: one second passes after the 101st frame.
	for i := 0; i < 120; i++ {
		if m.Update(0.010) {
			published++
		}
	}
	if published != 1 {
		t.Fatalf("published %d times, want 1", published)
	}
	if m.FPS() != 101 {
		t.Errorf("FPS() = %v, want 101", m.FPS())
	}
}

func TestFrameMetricsRollingAverage(t *testing.T) {
	m := NewFrameMetrics()
	if m.FrameTime() != 0 {
		t.Errorf("FrameTime() before any frame = %v, want 0", m.FrameTime())
	}
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.020)
	}
	// The old samples fall out of the window.
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.010)
	}
	if got := m.FrameTime(); math.Abs(got-10) > 1e-9 {
		t.Errorf("FrameTime() = %v, want 10", got)
	}
}
