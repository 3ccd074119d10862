package job

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func TestRetentionRunsCleanup(t *testing.T) {
	images := &stubImageDeleter{}
	pending := &stubPendingExpirer{}
	job := NewRetention(trace.NewNoopTracerProvider().Tracer("test"), images, pending, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retention job did not stop")
	}

	// One immediate run plus at least one tick.
	if atomic.LoadInt32(&images.calls) < 2 {
		t.Fatalf("expected at least 2 image cleanup runs, got %d", images.calls)
	}
	if atomic.LoadInt32(&pending.calls) < 2 {
		t.Fatalf("expected at least 2 pending cleanup runs, got %d", pending.calls)
	}
	if got := pending.lastOlderThan(); got != stalePendingAge {
		t.Fatalf("expected stale cutoff %v, got %v", stalePendingAge, got)
	}
}

func TestRetentionImagesOnly(t *testing.T) {
	images := &stubImageDeleter{}
	job := NewRetention(trace.NewNoopTracerProvider().Tracer("test"), images, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retention job did not stop")
	}

	if atomic.LoadInt32(&images.calls) == 0 {
		t.Fatal("expected image cleanup to run without a pending expirer")
	}
}

func TestRetentionNoDepsBlocksUntilCancel(t *testing.T) {
	job := NewRetention(trace.NewNoopTracerProvider().Tracer("test"), nil, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop after cancel")
	}
}

func TestRetentionDefaultTick(t *testing.T) {
	job := NewRetention(trace.NewNoopTracerProvider().Tracer("test"), &stubImageDeleter{}, nil, 0)
	if job.tick != defaultRetentionTick {
		t.Fatalf("expected default tick, got %v", job.tick)
	}
}

type stubImageDeleter struct {
	calls int32
}

func (s *stubImageDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	atomic.AddInt32(&s.calls, 1)
	return 1, nil
}

type stubPendingExpirer struct {
	calls     int32
	olderThan int64
}

func (s *stubPendingExpirer) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	atomic.AddInt32(&s.calls, 1)
	atomic.StoreInt64(&s.olderThan, int64(olderThan))
	return 1, nil
}

func (s *stubPendingExpirer) lastOlderThan() time.Duration {
	return time.Duration(atomic.LoadInt64(&s.olderThan))
}
