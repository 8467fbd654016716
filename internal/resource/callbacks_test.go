package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbacks_SynchronousWhenTerminal(t *testing.T) {
	e := newTestEnv(t, map[string]string{"a.sample": `name = "a"`})
	h := e.request(t, "a.sample")
	defer h.Release()
	require.True(t, e.m.Wait(e.ctx, h))

	var got []*Handle
	id := e.m.RegisterCallback([]*Handle{h}, func(hs []*Handle) { got = hs })

	assert.True(t, id.IsZero())
	require.Len(t, got, 1)
	assert.Same(t, h, got[0])
	assert.False(t, e.m.RemoveCallback(id))
}

func TestCallbacks_DeferredFireOnce(t *testing.T) {
	e := newTestEnv(t, map[string]string{
		"slow.scr": "",
		"a.sample": `name = "a"`,
	})
	e.scripts["slow.scr"] = e.gated

	slow := e.request(t, "slow.scr")
	defer slow.Release()
	fast := e.request(t, "a.sample")
	defer fast.Release()

	var order []int
	set := []*Handle{slow, fast}
	id1 := e.m.RegisterCallback(set, func(hs []*Handle) {
		assert.True(t, hs[0].IsLoaded())
		order = append(order, 1)
	})
	id2 := e.m.RegisterCallback(set, func([]*Handle) { order = append(order, 2) })
	assert.False(t, id1.IsZero())
	assert.NotEqual(t, id1, id2)

	e.m.CheckCallbacks()
	assert.Empty(t, order, "not fired while a resource is pending")

	e.openGate()
	e.drain()
	e.m.CheckCallbacks()
	assert.Equal(t, []int{1, 2}, order, "fired in registration order")

	e.m.CheckCallbacks()
	assert.Equal(t, []int{1, 2}, order, "fired exactly once")
	assert.False(t, e.m.RemoveCallback(id1))
	assert.Equal(t, 0, e.m.callbacks.len())
}

func TestCallbacks_RemoveBeforeFiring(t *testing.T) {
	e := newTestEnv(t, map[string]string{"slow.scr": ""})
	e.scripts["slow.scr"] = e.gated

	h := e.request(t, "slow.scr")
	fired := 0
	id := e.m.RegisterCallback([]*Handle{h}, func([]*Handle) { fired++ })
	assert.Equal(t, int32(2), h.Resource().RefCount(), "the entry retains its handles")

	assert.True(t, e.m.RemoveCallback(id))
	assert.False(t, e.m.RemoveCallback(id))
	assert.Equal(t, int32(1), h.Resource().RefCount())

	e.openGate()
	e.drain()
	e.m.CheckCallbacks()
	assert.Zero(t, fired)
	h.Release()
}

func TestCallbacks_FireOnFailure(t *testing.T) {
	e := newTestEnv(t, map[string]string{
		"a.sample": `deps = [resource("missing.sample")]`,
	})
	h := e.request(t, "a.sample")

	var failed bool
	e.m.RegisterCallback([]*Handle{h}, func(hs []*Handle) { failed = hs[0].HasFailed() })
	h.Release()

	e.drain()
	e.m.Tick()
	assert.True(t, failed)
}

func TestCallbacks_FireAfterCallerReleases(t *testing.T) {
	e := newTestEnv(t, map[string]string{"slow.scr": ""})
	e.scripts["slow.scr"] = e.gated

	h := e.request(t, "slow.scr")
	res := h.Resource()
	var states []State
	e.m.RegisterCallback([]*Handle{h}, func(hs []*Handle) { states = append(states, hs[0].State()) })
	h.Release()

	e.openGate()
	e.drain()
	require.Equal(t, Loaded, res.State())

	for range 3 {
		e.m.Tick()
	}
	assert.Equal(t, []State{Loaded}, states)
	assert.Equal(t, 0, e.m.callbacks.len())
	assert.Equal(t, 0, e.m.Len(), "reclaimed once the callback let go")
}

func TestCallbacks_PendingCallbackHoldsOffReset(t *testing.T) {
	e := newTestEnv(t, map[string]string{"slow.scr": ""})
	e.scripts["slow.scr"] = e.gated

	h := e.request(t, "slow.scr")
	defer h.Release()
	fired := 0
	e.m.RegisterCallback([]*Handle{h}, func(hs []*Handle) {
		assert.True(t, hs[0].IsLoaded())
		fired++
	})
	h.RequestUnload()

	e.openGate()
	e.drain()
	e.m.CheckAndRemoveResources()
	require.Equal(t, Loaded, h.State(), "reset waits for the pending callback")

	e.m.CheckCallbacks()
	assert.Equal(t, 1, fired)

	e.m.CheckAndRemoveResources()
	assert.Equal(t, Deferred, h.State())
	assert.Zero(t, h.Resource().pins.Load())
}

func TestCallbackKey(t *testing.T) {
	e := newTestEnv(t, nil)
	a, err := e.m.RequestDeferred("a.sample", nil)
	require.NoError(t, err)
	defer a.Release()
	b, err := e.m.RequestDeferred("b.sample", nil)
	require.NoError(t, err)
	defer b.Release()

	assert.Equal(t, callbackKey([]*Handle{a, b}), callbackKey([]*Handle{a.Clone(), b}))
	assert.NotEqual(t, callbackKey([]*Handle{a, b}), callbackKey([]*Handle{b, a}), "order matters")
}
