package jobpool

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// Job is a unit of background work. Jobs communicate exclusively through the
// state they mutate; they return nothing.
type Job func(ctx context.Context)

// Config sizes a Pool.
type Config struct {
	// Workers is the number of workers serving the default queue.
	Workers int
	// Tags maps a dedicated pool tag to its worker count. Jobs submitted with
	// an unknown tag go to the default queue.
	Tags map[string]int
	// HelpPoll bounds how long HelpWhileWaiting parks when nothing is queued.
	HelpPoll time.Duration
}

type entry struct {
	job     Job
	counter *Counter
}

type queue struct {
	tag    string
	mu     sync.Mutex
	cond   *sync.Cond
	items  []entry
	closed bool
}

func newQueue(tag string) *queue {
	q := &queue{tag: tag}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Pool runs jobs on a fixed set of worker goroutines.
type Pool struct {
	ctx      context.Context
	queues   map[string]*queue
	order    []*queue
	helpPoll time.Duration

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// New starts a pool. The context's logger is used by every worker and job.
func New(ctx context.Context, cfg Config) *Pool {
	logger := ctxlog.FromContext(ctx)
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.HelpPoll <= 0 {
		cfg.HelpPoll = 5 * time.Millisecond
	}

	p := &Pool{
		ctx:      ctx,
		queues:   make(map[string]*queue),
		helpPoll: cfg.HelpPoll,
	}

	sizes := map[string]int{"": cfg.Workers}
	for tag, n := range cfg.Tags {
		if tag == "" {
			continue
		}
		if n <= 0 {
			n = 1
		}
		sizes[tag] = n
	}

	tags := make([]string, 0, len(sizes))
	for tag := range sizes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		q := newQueue(tag)
		p.queues[tag] = q
		p.order = append(p.order, q)
		for i := 0; i < sizes[tag]; i++ {
			p.wg.Add(1)
			go p.worker(q, i)
		}
	}

	logger.Debug("Job pool started.", "queues", len(p.order), "default_workers", cfg.Workers)
	return p
}

// Submit enqueues jobs on the queue for tag. If counter is non-nil it is
// incremented once per job and decremented as each job finishes.
func (p *Pool) Submit(jobs []Job, counter *Counter, tag string) {
	if len(jobs) == 0 {
		return
	}
	q, ok := p.queues[tag]
	if !ok {
		ctxlog.FromContext(p.ctx).Warn("Unknown pool tag, using default queue.", "tag", tag)
		q = p.queues[""]
	}
	if counter != nil {
		counter.add(len(jobs))
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		// Late submissions still run to completion, on the caller.
		for _, job := range jobs {
			p.run(entry{job: job, counter: counter}, nil)
		}
		return
	}
	for _, job := range jobs {
		q.items = append(q.items, entry{job: job, counter: counter})
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Help runs one queued job, from any queue, on the calling goroutine. It
// reports whether a job was run.
func (p *Pool) Help() bool {
	for _, q := range p.order {
		if e, ok := q.tryPop(); ok {
			p.run(e, nil)
			return true
		}
	}
	return false
}

// HelpWhileWaiting blocks until counter drains, running queued jobs inline in
// the meantime and parking briefly when there is nothing to help with.
func (p *Pool) HelpWhileWaiting(counter *Counter) {
	for {
		done := counter.Done()
		select {
		case <-done:
			return
		default:
		}
		if p.Help() {
			continue
		}
		select {
		case <-done:
			return
		case <-time.After(p.helpPoll):
		}
	}
}

// Pending returns the number of jobs waiting in all queues.
func (p *Pool) Pending() int {
	n := 0
	for _, q := range p.order {
		q.mu.Lock()
		n += len(q.items)
		q.mu.Unlock()
	}
	return n
}

// Stop drains every queue and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	for _, q := range p.order {
		q.mu.Lock()
		q.closed = true
		q.cond.Broadcast()
		q.mu.Unlock()
	}
	p.wg.Wait()
	ctxlog.FromContext(p.ctx).Debug("Job pool stopped.")
}

func (q *queue) tryPop() (entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return entry{}, false
	}
	e := q.items[0]
	q.items[0] = entry{}
	q.items = q.items[1:]
	return e, true
}

func (p *Pool) run(e entry, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			if logger == nil {
				logger = ctxlog.FromContext(p.ctx)
			}
			logger.Error("Job panicked.", "panic", r)
		}
		if e.counter != nil {
			e.counter.add(-1)
		}
	}()
	e.job(p.ctx)
}
