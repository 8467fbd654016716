// Package typeregistry enumerates every loadable resource type.
//
// Payload packages describe themselves with a TypeInfo (factory, declared file
// extensions, creatable flag, dedicated pool tag, schema identifier) and
// register it at startup through a Module. The resource manager scans the
// registry once to build its per-type buckets and its extension→factory map.
//
// Registering two types under the same name is a programmer error and panics,
// the same way duplicate handler registration does elsewhere in the codebase.
package typeregistry
