// Package changelog implements the append-only mutation audit and its
// notification fan-out.
//
// One entry is appended per mutated concern (product, media, attrs,
// services, rates, deals) per sync pass, never per field. Entries are
// immutable and are the sole basis for downstream cache invalidation.
// Notifications dispatch after the owning transaction commits and are
// delivered at-least-once; subscribers must be idempotent.
package changelog
