package reporter

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestReporter_CollectsPeriodically(t *testing.T) {
	var calls atomic.Int64
	collect := func() []slog.Attr {
		calls.Add(1)
		return []slog.Attr{slog.Int64("n", calls.Load())}
	}

	r := New(Config{Interval: 10 * time.Millisecond}, collect, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.After(time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("collector called %d times, want >= 2", calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestReporter_StopBeforeFirstTick(t *testing.T) {
	var calls atomic.Int64
	collect := func() []slog.Attr {
		calls.Add(1)
		return nil
	}

	r := New(Config{Interval: time.Hour}, collect, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if calls.Load() != 0 {
		t.Errorf("collector called %d times before first tick, want 0", calls.Load())
	}
}

func TestReporter_DefaultInterval(t *testing.T) {
	r := New(Config{}, func() []slog.Attr { return nil }, nil)
	if r.cfg.Interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", r.cfg.Interval, DefaultInterval)
	}
}
