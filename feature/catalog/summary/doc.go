// Package summary maintains the read-optimized per-product listing
// projection.
//
// The refresher subscribes to change notifications and rebuilds affected
// rows in batches after the write transactions commit. Each summary row
// is assembled completely and swapped in with one upsert, so concurrent
// readers always see either the previous version or the new one, never
// a partial rebuild.
package summary
