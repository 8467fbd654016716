package resource

import (
	"sort"
	"strings"
	"sync"
)

// Callback receives the handles it was registered with. The handles are only
// valid for the duration of the call; Clone them to keep them.
type Callback func(handles []*Handle)

// CallbackID identifies a registered callback. The zero value means the
// callback already ran synchronously.
type CallbackID struct {
	key string
	id  uint64
}

// IsZero reports whether id is the zero value.
func (id CallbackID) IsZero() bool { return id.key == "" && id.id == 0 }

type callbackEntry struct {
	key       string
	handles   []*Handle
	callbacks map[uint64]Callback
	nextID    uint64
}

func (e *callbackEntry) terminal() bool {
	return allTerminal(e.handles)
}

func (e *callbackEntry) release() {
	for _, h := range e.handles {
		h.res.pins.Add(-1)
		h.Release()
	}
}

type callbackRegistry struct {
	mu      sync.Mutex
	entries map[string]*callbackEntry
}

// callbackKey is exact: the ordered type/path identities joined by NUL.
func callbackKey(handles []*Handle) string {
	var sb strings.Builder
	for i, h := range handles {
		if i > 0 {
			sb.WriteByte(0)
		}
		sb.WriteString(h.res.typ.Name)
		sb.WriteByte(':')
		sb.WriteString(h.res.key.path)
	}
	return sb.String()
}

func allTerminal(handles []*Handle) bool {
	for _, h := range handles {
		if !h.IsTerminal() {
			return false
		}
	}
	return true
}

// add stores cb under the entry for handles, creating the entry with its own
// clones of the handles.
func (c *callbackRegistry) add(handles []*Handle, cb Callback) CallbackID {
	key := callbackKey(handles)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*callbackEntry)
	}
	e, ok := c.entries[key]
	if !ok {
		e = &callbackEntry{
			key:       key,
			handles:   make([]*Handle, len(handles)),
			callbacks: make(map[uint64]Callback),
			nextID:    1,
		}
		for i, h := range handles {
			e.handles[i] = h.Clone()
			h.res.pins.Add(1)
		}
		c.entries[key] = e
	}
	id := e.nextID
	e.nextID++
	e.callbacks[id] = cb
	return CallbackID{key: key, id: id}
}

func (c *callbackRegistry) remove(id CallbackID) bool {
	c.mu.Lock()
	e, ok := c.entries[id.key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	if _, ok := e.callbacks[id.id]; !ok {
		c.mu.Unlock()
		return false
	}
	delete(e.callbacks, id.id)
	empty := len(e.callbacks) == 0
	if empty {
		delete(c.entries, id.key)
	}
	c.mu.Unlock()

	if empty {
		e.release()
	}
	return true
}

// takeReady removes and returns every entry whose resources are all
// terminal, ordered by key.
func (c *callbackRegistry) takeReady() []*callbackEntry {
	c.mu.Lock()
	var ready []*callbackEntry
	for key, e := range c.entries {
		if e.terminal() {
			ready = append(ready, e)
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool { return ready[i].key < ready[j].key })
	return ready
}

// takeAll empties the registry.
func (c *callbackRegistry) takeAll() []*callbackEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*callbackEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.entries = nil
	return out
}

func (c *callbackRegistry) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// fire runs the entry's callbacks in registration order, then drops its
// handles.
func (e *callbackEntry) fire() int {
	defer e.release()
	ids := make([]uint64, 0, len(e.callbacks))
	for id := range e.callbacks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e.callbacks[id](e.handles)
	}
	return len(ids)
}
