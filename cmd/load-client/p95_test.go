package main

import (
	"testing"
	"time"
)

func TestP95(t *testing.T) {
	samples := make([]int64, 0, 100)
	for i := 100; i >= 1; i-- {
		samples = append(samples, int64(i))
	}
	if got := p95(samples); got != 96 {
		t.Errorf("p95() = %d, want 96", got)
	}
	if samples[0] != 100 {
		t.Error("p95() must not reorder its input")
	}
	if got := p95([]int64{7}); got != 7 {
		t.Errorf("p95(single) = %d, want 7", got)
	}
}

func TestTrackP95(t *testing.T) {
	ch := make(chan time.Duration, 20)
	for i := 1; i <= 20; i++ {
		ch <- time.Duration(i) * time.Millisecond
	}
	close(ch)

	var result PerfResult
	trackP95(ch, &result)

	if got := time.Duration(result.P95Latency); got != 20*time.Millisecond {
		t.Errorf("P95Latency = %v, want 20ms", got)
	}
}
