// Package reconcile provides a generic set reconciler that converges a
// stored collection of rows to an incoming collection.
//
// Every owned sub-entity of a product (addresses, communications,
// services, media links, rates, ...) is reconciled with the same shape:
// index the stored rows by identity key, insert incoming items whose key
// is absent, overwrite in place those whose content hash differs, skip
// identical ones, and delete every stored row whose key vanished from
// the incoming set. Applying the same input twice is a no-op.
//
// # Architecture
//
// The package splits decision from mutation:
//
//  1. BuildPlan: pure computation of inserts, updates, deletes and skips
//     from the stored and incoming sets. Detects ambiguous batches where
//     two incoming items share a key with different content.
//
//  2. Apply: executes a plan inside a caller-owned transaction. Vanished
//     rows can carry a cascade hook so dependent rows (e.g. rates bound
//     to a removed service) are deleted first.
//
// # Usage Example
//
//	stats, err := reconcile.Sync(tx, stored, incoming, nil)
//	if err != nil {
//	    return err
//	}
//	if stats.Changed() {
//	    // record a change-log entry for this collection
//	}
//
// # Implementing Row
//
// Models implement IdentityKey, ContentHash, PrimaryKey and
// SetPrimaryKey with pointer receivers and are reconciled as pointer
// slices, e.g. reconcile.Sync[*model.ProductAddress](...).
package reconcile
