package resource

import "context"

func (m *Manager) scheduleRemoval(r *Resource) {
	if !r.removalQueued.CompareAndSwap(false, true) {
		return
	}
	m.removalMu.Lock()
	m.removals = append(m.removals, r)
	m.removalMu.Unlock()
}

func (m *Manager) scheduleUnload(r *Resource) {
	if r.inMemory || !r.unloadQueued.CompareAndSwap(false, true) {
		return
	}
	m.unloadMu.Lock()
	m.unloads = append(m.unloads, r)
	m.unloadMu.Unlock()
}

// CheckAndRemoveResources drains both deferred queues once. A queued removal
// is abandoned if the resource was requested again, kept while it is still
// loading, and otherwise erased and freed. A queued unload is dropped if a
// load was requested again, kept while loading, and otherwise resets the
// resource to Deferred. It returns the number of resources erased.
func (m *Manager) CheckAndRemoveResources() int {
	m.removalMu.Lock()
	removals := m.removals
	m.removals = nil
	m.removalMu.Unlock()

	removed := 0
	var keep []*Resource
	for _, r := range removals {
		r.removalQueued.Store(false)
		if r.freed.Load() {
			continue
		}
		switch m.buckets[r.typ].removeIfUnused(r) {
		case removeDone:
			r.free()
			removed++
			m.metrics.recordResident(r.typ.Name, -1)
			m.metrics.recordReclaim("removed")
			m.logger.Debug("Resource removed.", "type", r.typ.Name, "path", r.key.path)
		case removeKept:
			if r.removalQueued.CompareAndSwap(false, true) {
				keep = append(keep, r)
			}
		case removeAbandoned:
			m.metrics.recordReclaim("resurrected")
		}
	}
	if len(keep) > 0 {
		m.removalMu.Lock()
		m.removals = append(m.removals, keep...)
		m.removalMu.Unlock()
	}

	m.unloadMu.Lock()
	unloads := m.unloads
	m.unloads = nil
	m.unloadMu.Unlock()

	keep = nil
	for _, r := range unloads {
		r.unloadQueued.Store(false)
		if r.freed.Load() {
			continue
		}
		switch r.reset() {
		case resetDone:
			m.metrics.recordReclaim("reset")
			m.logger.Debug("Resource unloaded.", "type", r.typ.Name, "path", r.key.path)
		case resetKept:
			if r.unloadQueued.CompareAndSwap(false, true) {
				keep = append(keep, r)
			}
		case resetDropped:
		}
	}
	if len(keep) > 0 {
		m.unloadMu.Lock()
		m.unloads = append(m.unloads, keep...)
		m.unloadMu.Unlock()
	}
	return removed
}

// Close waits for in-flight loads, drops undelivered callbacks, reclaims
// everything that is no longer referenced and logs what is left. It returns
// the number of leaked resources.
func (m *Manager) Close(ctx context.Context) int {
	if !m.closed.CompareAndSwap(false, true) {
		return 0
	}

	m.pool.HelpWhileWaiting(m.inflight)

	if pending := m.callbacks.takeAll(); len(pending) > 0 {
		m.logger.Warn("Dropping undelivered callbacks.", "count", len(pending))
		for _, e := range pending {
			e.release()
		}
	}

	// Freeing a resource releases its dependencies, which queues them in turn.
	for ctx.Err() == nil {
		if m.CheckAndRemoveResources() == 0 {
			break
		}
	}

	leaked := 0
	for _, info := range m.Snapshot() {
		if info.RefCount == 0 {
			continue
		}
		leaked++
		m.logger.Warn("Resource leaked.", "type", info.Type, "path", info.Path, "refs", info.RefCount, "state", info.State)
	}
	m.logger.Debug("Resource manager closed.", "leaked", leaked)
	return leaked
}
