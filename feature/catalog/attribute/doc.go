// Package attribute implements the attribute dictionary and the typed
// value store.
//
// Every incoming attribute code must resolve to an AttributeDefinition
// declaring its value kind. Raw feed values are coerced into exactly one
// typed slot; a shape that cannot satisfy the declared kind rejects the
// whole batch for that product, so attribute state never partially
// applies.
//
// # Unknown Codes
//
// Two policies exist for codes without a definition. Strict mode (the
// production default) fails the batch with UnknownCodeError and requires
// an explicit Define step. Discover mode auto-registers the code with a
// kind inferred from the first value seen and marks the definition
// Discovered for later curation.
//
// # Hot Projection
//
// Definitions flagged as facets drive the product's hot projection: a
// JSON map of facet key to value denormalized onto the product header.
// After any attribute mutation the projection is rebuilt from the
// current rows and overwritten wholesale, so removing an attribute
// clears its facet instead of leaving a stale value.
package attribute
