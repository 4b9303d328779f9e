package bench

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BatchScheduler drives the warmup and measurement phases for one
// scenario path.
//
// Warmup issues requests strictly one at a time and discards every
// outcome: it primes connection and cache state in the target without
// contributing noise, and avoids bursting concurrency against a cold
// target.
//
// Measurement partitions the request budget into fixed-size batches. Each
// batch launches up to the concurrency limit dispatches and the scheduler
// waits for all of them to settle before the next batch starts. The full
// barrier makes total-time measurement reproducible; the cost is that one
// slow request delays the whole next batch, so reported throughput
// slightly underestimates steady-state capacity under unbounded
// concurrency. That trade-off is deliberate and must not be replaced with
// a sliding-window pool.
type BatchScheduler struct {
	dispatcher Dispatcher
	warmup     int
	total      int
	limit      int
	timeout    time.Duration
	limiter    *rate.Limiter // nil when no rate cap is configured
}

// SchedulerOption configures a BatchScheduler.
type SchedulerOption func(*BatchScheduler)

// WithMaxRPS caps the overall request issue rate. Zero or negative
// disables the cap, which is the default: the standard experiment issues
// as fast as the batch barrier allows.
func WithMaxRPS(rps float64) SchedulerOption {
	return func(s *BatchScheduler) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewBatchScheduler creates a scheduler that issues warmup unmeasured
// requests followed by total measured requests in batches of at most
// limit, each bounded by timeout.
func NewBatchScheduler(d Dispatcher, warmup, total, limit int, timeout time.Duration, opts ...SchedulerOption) *BatchScheduler {
	s := &BatchScheduler{
		dispatcher: d,
		warmup:     warmup,
		total:      total,
		limit:      limit,
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the warmup phase followed by the measured batches against
// endpoint+path. It returns one outcome per measured request, in batch
// order, plus the wall-clock time spanned by the batches alone (warmup is
// excluded). The only error condition is cancellation of ctx.
func (s *BatchScheduler) Run(ctx context.Context, endpoint, path string) ([]Outcome, time.Duration, error) {
	for i := 0; i < s.warmup; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		s.pace(ctx)
		s.dispatcher.Dispatch(ctx, endpoint, path, s.timeout) // outcome discarded
	}

	outcomes := make([]Outcome, 0, s.total)
	start := time.Now()

	for done := 0; done < s.total; {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		size := s.limit
		if remaining := s.total - done; remaining < size {
			size = remaining
		}

		// One join-group per batch. Slots keep collection order stable
		// without a mutex: each goroutine owns exactly one index.
		batch := make([]Outcome, size)
		var wg sync.WaitGroup
		for i := 0; i < size; i++ {
			s.pace(ctx)
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				batch[slot] = s.dispatcher.Dispatch(ctx, endpoint, path, s.timeout)
			}(i)
		}
		wg.Wait()

		outcomes = append(outcomes, batch...)
		done += size
	}

	return outcomes, time.Since(start), nil
}

func (s *BatchScheduler) pace(ctx context.Context) {
	if s.limiter != nil {
		// A cancelled ctx surfaces through the scheduler loop; the wait
		// error itself carries no extra information.
		_ = s.limiter.Wait(ctx)
	}
}
