package harness

import "time"

// Timer measures one interval with the monotonic clock.
type Timer struct {
	start   time.Time
	elapsed time.Duration
}

func (t *Timer) Start() {
	t.elapsed = 0
	t.start = time.Now()
}

func (t *Timer) Stop() {
	t.elapsed = time.Since(t.start)
}

// Elapsed is the last measured interval.
func (t *Timer) Elapsed() time.Duration { return t.elapsed }

// Mops converts ops over the last interval into millions of operations
// per second. A zero interval yields 0.
func (t *Timer) Mops(ops int) float64 {
	secs := t.elapsed.Seconds()
	if secs <= 0 {
		return 0
	}

	return float64(ops) / 1e6 / secs
}
