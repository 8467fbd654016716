// Package resource turns a named path into a shared, reference-counted,
// lazily-loaded object.
//
// # Pieces
//
//   - Resource: one loadable unit. It owns a state machine
//     (Deferred → Pending → Loaded | Failed, and back to Deferred through an
//     unload reset), a reference count, and a load-request count.
//   - dependencyTracker: the latch attached to every resource. A resource
//     whose payload references other resources only reaches a terminal state
//     once all of them have, and any failure ripples to every dependent.
//   - bucket: one per registered type. A path-sorted slice guarded by its own
//     mutex; it is the single place where "at most one object per (type, path)"
//     is decided.
//   - callbackRegistry: notifications that fire once a set of resources are
//     all terminal.
//   - Manager: owns the buckets, the extension→type map, the deferred
//     removal/unload queues, and submits load jobs to the job pool.
//
// # Lifetimes
//
// Callers hold *Handle values. A handle keeps one reference on its resource
// and optionally one load request. Releasing the last reference does not free
// anything immediately: the resource is queued and the host's next call to
// CheckAndRemoveResources decides, under the bucket lock, whether it is still
// unreferenced and not loading. A request that arrives in between simply
// resurrects the resource. Dropping the last load request queues a reset that
// clears the payload but keeps the key and every outstanding handle valid.
//
// # Threads
//
// The package starts no goroutines. Load jobs run on the job pool; Wait helps
// the pool run queued jobs while it waits; the two per-tick pumps
// (CheckAndRemoveResources, CheckCallbacks) run on whatever goroutine the host
// calls them from. Omitting the pumps stalls reclamation and callback
// delivery.
package resource
