package jobpool

import "github.com/specialistvlad/assetgrid/internal/ctxlog"

// worker is the processing loop for a single worker goroutine of one queue.
func (p *Pool) worker(q *queue, workerID int) {
	defer p.wg.Done()
	logger := ctxlog.FromContext(p.ctx).With("queue", q.tag, "workerID", workerID)
	logger.Debug("Worker started.")

	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			logger.Debug("Worker finished.")
			return
		}
		e := q.items[0]
		q.items[0] = entry{}
		q.items = q.items[1:]
		q.mu.Unlock()

		p.run(e, logger)
	}
}
