package resource

import (
	"context"
	"time"
)

// Wait blocks until h's resource leaves Pending and reports whether it is
// Loaded. While waiting it runs queued jobs on the calling goroutine, so it is
// safe to call with a pool of any size. A Deferred resource is not waited for.
func (m *Manager) Wait(ctx context.Context, h *Handle) bool {
	r := h.res
	timer := time.NewTimer(m.waitPoll)
	defer timer.Stop()

	for {
		changed := r.stateChanged()
		if st := r.State(); st != Pending {
			return st == Loaded
		}
		if ctx.Err() != nil {
			return false
		}
		if m.pool.Help() {
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(m.waitPoll)
		select {
		case <-changed:
		case <-timer.C:
		case <-ctx.Done():
			return false
		}
	}
}
