// Package media implements the deduplicated media asset store.
//
// An asset's identity is (provider, canonical URL). Products reference
// assets through link rows carrying per-product ordinal and role; the
// links are owned by the product and reconciled set-wise, while the
// assets themselves are shared and survive any single product's
// reconciliation. Metadata arriving with an already-known asset is
// merged field-by-field so later, sparser sightings never erase known
// values.
package media
