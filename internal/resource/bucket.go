package resource

import (
	"sort"
	"sync"

	"github.com/specialistvlad/assetgrid/internal/typeregistry"
)

// bucket holds every resource of one type, sorted by key.
type bucket struct {
	typ *typeregistry.TypeInfo

	mu    sync.Mutex
	items []*Resource
}

func newBucket(typ *typeregistry.TypeInfo) *bucket {
	return &bucket{typ: typ}
}

// search returns the insertion index of k and whether it is present.
// Callers hold b.mu.
func (b *bucket) search(k Key) (int, bool) {
	i := sort.Search(len(b.items), func(i int) bool {
		return !b.items[i].key.less(k)
	})
	return i, i < len(b.items) && b.items[i].key == k
}

func (b *bucket) insertAt(i int, r *Resource) {
	b.items = append(b.items, nil)
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = r
}

// getOrCreate returns the resource for k with one more reference, building it
// with factory when absent.
func (b *bucket) getOrCreate(k Key, factory func() *Resource) (r *Resource, created bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, found := b.search(k)
	if found {
		r = b.items[i]
		r.addRef()
		return r, false
	}
	r = factory()
	r.refCount.Store(1)
	b.insertAt(i, r)
	return r, true
}

// create inserts a new resource for k with one reference. It returns nil if k
// is already present.
func (b *bucket) create(k Key, factory func() *Resource) *Resource {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, found := b.search(k)
	if found {
		return nil
	}
	r := factory()
	r.refCount.Store(1)
	b.insertAt(i, r)
	return r
}

// get returns the resource for k with one more reference, or nil.
func (b *bucket) get(k Key) *Resource {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, found := b.search(k)
	if !found {
		return nil
	}
	r := b.items[i]
	r.addRef()
	return r
}

type removeOutcome int

const (
	removeDone removeOutcome = iota
	removeKept
	removeAbandoned
)

// removeIfUnused erases r if it is still unreferenced and not loading. The
// check and getOrCreate's increment share b.mu, so a concurrent request
// either resurrects r before the check or finds it gone and builds a new one.
func (b *bucket) removeIfUnused(r *Resource) removeOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.refCount.Load() > 0 {
		return removeAbandoned
	}
	if r.State() == Pending {
		return removeKept
	}
	i, found := b.search(r.key)
	if !found || b.items[i] != r {
		return removeAbandoned
	}
	copy(b.items[i:], b.items[i+1:])
	b.items[len(b.items)-1] = nil
	b.items = b.items[:len(b.items)-1]
	return removeDone
}

func (b *bucket) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *bucket) snapshot() []*Resource {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Resource, len(b.items))
	copy(out, b.items)
	return out
}
