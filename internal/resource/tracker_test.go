package resource

import (
	"testing"

	"github.com/specialistvlad/assetgrid/internal/typeregistry"
	"github.com/stretchr/testify/assert"
)

func newPendingResource(path string) *Resource {
	typ := &typeregistry.TypeInfo{Name: "memo", New: func() typeregistry.Content { return &memo{} }}
	r := newBareResource(typ, NewKey(path))
	r.tracker.begin()
	r.state.Store(int32(Pending))
	return r
}

func TestTracker_LatchFiresOnLastDependency(t *testing.T) {
	dep1 := newPendingResource("d1.memo")
	dep2 := newPendingResource("d2.memo")
	owner := newPendingResource("owner.memo")

	dep1.tracker.addIncomingReference(&owner.tracker)
	dep2.tracker.addIncomingReference(&owner.tracker)
	dep2.tracker.addIncomingReference(&owner.tracker)
	assert.Equal(t, int32(3), owner.tracker.count.Load(), "self token plus one per distinct dependency")

	owner.tracker.release()
	assert.Equal(t, Pending, owner.State())

	dep1.finish(true)
	assert.Equal(t, Pending, owner.State())
	dep2.finish(true)
	assert.Equal(t, Loaded, owner.State())
}

func TestTracker_FailureMarksDependents(t *testing.T) {
	dep := newPendingResource("dep.memo")
	owner := newPendingResource("owner.memo")
	outer := newPendingResource("outer.memo")

	dep.tracker.addIncomingReference(&owner.tracker)
	owner.tracker.addIncomingReference(&outer.tracker)
	owner.tracker.release()
	outer.tracker.release()

	dep.failed(ErrFileOpen)
	assert.Equal(t, Failed, dep.State())
	assert.Equal(t, Failed, owner.State())
	assert.Equal(t, Failed, outer.State())
	assert.ErrorIs(t, owner.Err(), ErrDependencyFailed)
	assert.ErrorContains(t, outer.Err(), "owner.memo")
}

func TestTracker_FinishedDependencyAppliesImmediately(t *testing.T) {
	ok := newPendingResource("ok.memo")
	bad := newPendingResource("bad.memo")
	ok.finish(true)
	bad.failed(ErrParse)

	owner := newPendingResource("owner.memo")
	ok.tracker.addIncomingReference(&owner.tracker)
	assert.Equal(t, int32(1), owner.tracker.count.Load())
	bad.tracker.addIncomingReference(&owner.tracker)
	assert.Equal(t, int32(1), owner.tracker.count.Load())

	owner.tracker.release()
	assert.Equal(t, Failed, owner.State())
	assert.ErrorIs(t, owner.Err(), ErrDependencyFailed)
}

func TestTracker_WaitsOn(t *testing.T) {
	a := newPendingResource("a.memo")
	b := newPendingResource("b.memo")
	c := newPendingResource("c.memo")

	// a depends on b, b depends on c.
	b.tracker.addIncomingReference(&a.tracker)
	c.tracker.addIncomingReference(&b.tracker)

	assert.True(t, a.tracker.waitsOn(&c.tracker))
	assert.True(t, b.tracker.waitsOn(&c.tracker))
	assert.False(t, c.tracker.waitsOn(&a.tracker))
}
