package core

import (
	"math"
	"testing"
)

func TestMetricsRollingFrameTime(t *testing.T) {
	if err := MetricsInitialize(); err != nil {
		t.Fatalf("MetricsInitialize() error = %v", err)
	}

	// A full window of identical frames must average to that frame time.
	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsUpdate(0.016)
	}
	if got := MetricsFrameTime(); math.Abs(got-16.0) > 1e-9 {
		t.Errorf("MetricsFrameTime() = %v, want 16.0", got)
	}
}

func TestMetricsFPSAfterOneSecond(t *testing.T) {
	if err := MetricsInitialize(); err != nil {
		t.Fatalf("MetricsInitialize() error = %v", err)
	}

	// Accumulate more than one second of frame time so the FPS counter
	// latches a value.
	for i := 0; i < 60; i++ {
		MetricsUpdate(0.020)
	}
	if got := MetricsFPS(); got <= 0 {
		t.Errorf("MetricsFPS() = %v, want > 0", got)
	}

	fps, frameTime := MetricsFrame()
	if fps != MetricsFPS() {
		t.Errorf("MetricsFrame() fps = %v, want %v", fps, MetricsFPS())
	}
	if frameTime != MetricsFrameTime() {
		t.Errorf("MetricsFrame() frame time = %v, want %v", frameTime, MetricsFrameTime())
	}
}
