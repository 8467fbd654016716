package resource

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// dependencyTracker is the latch attached to every resource. incoming holds
// the trackers of resources that wait on this one; count is the number of
// unfinished dependencies of this one, plus a self token held by the load job
// until it has registered everything.
type dependencyTracker struct {
	owner *Resource

	mu        sync.Mutex
	incoming  map[*dependencyTracker]struct{}
	finished  bool
	succeeded bool

	count     atomic.Int32
	failure   atomic.Pointer[error]
}

// begin arms the latch for a new load cycle with the self token.
func (t *dependencyTracker) begin() {
	t.mu.Lock()
	t.finished = false
	t.succeeded = false
	t.mu.Unlock()
	t.failure.Store(nil)
	t.count.Store(1)
}

func (t *dependencyTracker) reset() {
	t.mu.Lock()
	t.finished = false
	t.succeeded = false
	t.incoming = nil
	t.mu.Unlock()
	t.failure.Store(nil)
	t.count.Store(0)
}

// addIncomingReference makes other wait on t. If t already finished its
// current load the outcome is applied to other immediately.
func (t *dependencyTracker) addIncomingReference(other *dependencyTracker) {
	t.mu.Lock()
	if t.finished {
		ok := t.succeeded
		t.mu.Unlock()
		if !ok {
			other.markFailed(fmt.Errorf("%w: %s", ErrDependencyFailed, t.owner.key.path))
		}
		return
	}
	if _, dup := t.incoming[other]; dup {
		t.mu.Unlock()
		return
	}
	if t.incoming == nil {
		t.incoming = make(map[*dependencyTracker]struct{})
	}
	t.incoming[other] = struct{}{}
	other.count.Add(1)
	t.mu.Unlock()
}

// waitsOn reports whether t transitively depends on target, following the
// incoming edges of target.
func (t *dependencyTracker) waitsOn(target *dependencyTracker) bool {
	seen := map[*dependencyTracker]struct{}{target: {}}
	stack := []*dependencyTracker{target}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cur.mu.Lock()
		next := make([]*dependencyTracker, 0, len(cur.incoming))
		for in := range cur.incoming {
			next = append(next, in)
		}
		cur.mu.Unlock()

		for _, in := range next {
			if in == t {
				return true
			}
			if _, ok := seen[in]; ok {
				continue
			}
			seen[in] = struct{}{}
			stack = append(stack, in)
		}
	}
	return false
}

// finishedLoading releases every dependent waiting on t.
func (t *dependencyTracker) finishedLoading(success bool) {
	t.mu.Lock()
	t.finished = true
	t.succeeded = success
	incoming := t.incoming
	t.incoming = nil
	t.mu.Unlock()

	var failure error
	if !success {
		failure = fmt.Errorf("%w: %s", ErrDependencyFailed, t.owner.key.path)
	}
	for dep := range incoming {
		if failure != nil {
			dep.markFailed(failure)
		}
		dep.release()
	}
}

// markFailed records the first failure seen by this load cycle.
func (t *dependencyTracker) markFailed(err error) {
	t.failure.CompareAndSwap(nil, &err)
}

// release drops one count; the goroutine that reaches zero finishes the owner.
func (t *dependencyTracker) release() {
	n := t.count.Add(-1)
	switch {
	case n == 0:
		t.dependenciesLoaded()
	case n < 0:
		panic(fmt.Sprintf("dependency latch of %s released below zero", t.owner.key.path))
	}
}

func (t *dependencyTracker) dependenciesLoaded() {
	r := t.owner
	if r.State() != Pending {
		return
	}
	if failure := t.failure.Load(); failure != nil {
		r.failed(*failure)
		return
	}
	r.finish(true)
}
