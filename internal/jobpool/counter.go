package jobpool

import "sync"

// Counter tracks how many submitted jobs are still outstanding. Submit
// increments it once per job; each job decrements it when it returns.
type Counter struct {
	mu   sync.Mutex
	n    int
	zero chan struct{}
}

// NewCounter returns a drained counter.
func NewCounter() *Counter {
	c := &Counter{zero: make(chan struct{})}
	close(c.zero)
	return c
}

// Value returns the number of outstanding jobs.
func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Done returns a channel that is closed while the counter is zero. The channel
// is replaced when the counter leaves zero, so callers must re-read it after
// every wake-up.
func (c *Counter) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zero
}

func (c *Counter) add(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 && delta > 0 {
		c.zero = make(chan struct{})
	}
	c.n += delta
	if c.n < 0 {
		panic("jobpool: counter went negative")
	}
	if c.n == 0 && delta < 0 {
		close(c.zero)
	}
}
