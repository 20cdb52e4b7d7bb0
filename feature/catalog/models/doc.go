// Package models defines the persisted catalog schema: the product
// aggregate root, its owned sub-entity collections, the attribute
// dictionary with typed values, deduplicated media assets, the
// append-only change log, the listing summary projection and the sync
// checkpoint.
//
// # Ownership
//
// Every sub-entity row carries its product's id and is owned
// exclusively by it: reconciliation converges each collection to the
// incoming set and removes vanished rows. Media assets are the one
// exception; they are shared across products and referenced through
// ProductMediaLink rows.
//
// # Reconciliation Surface
//
// Owned collection models implement the reconcile.Row interface with
// pointer receivers. IdentityKey scopes identity within the parent,
// ContentHash is a fingerprint over the model's canonical projection,
// recomputed by the model's own Recompute method. Derived values (the
// geohash location point, fingerprints) are recomputed by explicit
// calls, never by storage-layer hooks, so ordering stays visible.
package models
