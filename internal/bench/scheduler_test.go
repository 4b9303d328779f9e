package bench

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// fakeDispatcher instruments concurrency without touching the network.
// With limit set it also checks the batch barrier: a dispatch belonging
// to batch k must not be issued before every dispatch of batch k-1 has
// resolved.
type fakeDispatcher struct {
	delay time.Duration
	limit int

	issued            atomic.Int64
	resolved          atomic.Int64
	active            atomic.Int64
	peak              atomic.Int64
	barrierViolations atomic.Int64
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, endpoint, path string, timeout time.Duration) Outcome {
	idx := f.issued.Add(1) - 1

	if f.limit > 0 {
		batch := idx / int64(f.limit)
		if f.resolved.Load() < batch*int64(f.limit) {
			f.barrierViolations.Add(1)
		}
	}

	cur := f.active.Add(1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.active.Add(-1)
	f.resolved.Add(1)
	return Outcome{Latency: time.Millisecond, StatusCode: 200}
}

func TestBatchScheduler_ConcurrencyBound(t *testing.T) {
	fake := &fakeDispatcher{delay: 5 * time.Millisecond}
	s := NewBatchScheduler(fake, 0, 40, 8, time.Second)

	outcomes, totalTime, err := s.Run(context.Background(), "http://localhost", "/x")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(outcomes) != 40 {
		t.Errorf("Expected 40 outcomes, got %d", len(outcomes))
	}
	if peak := fake.peak.Load(); peak > 8 {
		t.Errorf("Peak concurrency %d exceeded limit 8", peak)
	}
	// Five barrier-separated batches of 5ms each.
	if totalTime < 25*time.Millisecond {
		t.Errorf("Total time %v shorter than five sequential batches", totalTime)
	}
}

func TestBatchScheduler_BarrierOrdering(t *testing.T) {
	fake := &fakeDispatcher{delay: 2 * time.Millisecond, limit: 10}
	s := NewBatchScheduler(fake, 0, 50, 10, time.Second)

	if _, _, err := s.Run(context.Background(), "http://localhost", "/x"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if v := fake.barrierViolations.Load(); v != 0 {
		t.Errorf("Observed %d dispatches issued before the previous batch settled", v)
	}
}

func TestBatchScheduler_PartialFinalBatch(t *testing.T) {
	fake := &fakeDispatcher{}
	s := NewBatchScheduler(fake, 0, 25, 10, time.Second)

	outcomes, _, err := s.Run(context.Background(), "http://localhost", "/x")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(outcomes) != 25 {
		t.Errorf("Expected 25 outcomes, got %d", len(outcomes))
	}
	if calls := fake.issued.Load(); calls != 25 {
		t.Errorf("Expected 25 dispatches, got %d", calls)
	}
}

func TestBatchScheduler_WarmupIsSequentialAndDiscarded(t *testing.T) {
	fake := &fakeDispatcher{delay: time.Millisecond}
	s := NewBatchScheduler(fake, 5, 0, 10, time.Second)

	outcomes, totalTime, err := s.Run(context.Background(), "http://localhost", "/x")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(outcomes) != 0 {
		t.Errorf("Warmup outcomes must be discarded, got %d", len(outcomes))
	}
	if calls := fake.issued.Load(); calls != 5 {
		t.Errorf("Expected 5 warmup dispatches, got %d", calls)
	}
	if peak := fake.peak.Load(); peak != 1 {
		t.Errorf("Warmup must run one request at a time, peak was %d", peak)
	}
	// Warmup time never counts toward the measured window.
	if totalTime > time.Millisecond {
		t.Errorf("Total time %v should exclude warmup", totalTime)
	}
}

func TestBatchScheduler_WarmupPrecedesMeasurement(t *testing.T) {
	fake := &fakeDispatcher{}
	s := NewBatchScheduler(fake, 7, 10, 5, time.Second)

	outcomes, _, err := s.Run(context.Background(), "http://localhost", "/x")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(outcomes) != 10 {
		t.Errorf("Expected 10 measured outcomes, got %d", len(outcomes))
	}
	if calls := fake.issued.Load(); calls != 17 {
		t.Errorf("Expected 17 total dispatches (7 warmup + 10 measured), got %d", calls)
	}
}

func TestBatchScheduler_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeDispatcher{}
	s := NewBatchScheduler(fake, 5, 10, 2, time.Second)

	if _, _, err := s.Run(ctx, "http://localhost", "/x"); err == nil {
		t.Fatal("Expected error from cancelled context")
	}
	if calls := fake.issued.Load(); calls != 0 {
		t.Errorf("Expected no dispatches after cancellation, got %d", calls)
	}
}

func TestBatchScheduler_MaxRPS(t *testing.T) {
	fake := &fakeDispatcher{}
	s := NewBatchScheduler(fake, 0, 3, 1, time.Second, WithMaxRPS(50))

	start := time.Now()
	outcomes, _, err := s.Run(context.Background(), "http://localhost", "/x")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	elapsed := time.Since(start)

	if len(outcomes) != 3 {
		t.Errorf("Expected 3 outcomes, got %d", len(outcomes))
	}
	// 50 req/s with burst 1 spaces three requests over at least ~40ms.
	if elapsed < 30*time.Millisecond {
		t.Errorf("Rate cap not applied: 3 requests in %v", elapsed)
	}
}
