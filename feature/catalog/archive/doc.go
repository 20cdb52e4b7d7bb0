// Package archive stores raw upstream payload snapshots in object
// storage for audit and replay.
//
// Snapshots are keyed raw/{source}/{upstreamID}/{coreHash}.json: one
// object per content version, overwritten idempotently when the same
// version is re-applied. Prune keeps the newest versions per product
// so the bucket does not grow without bound.
package archive
