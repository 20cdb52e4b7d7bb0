// Package sync implements the product synchronization feature.
//
// It pulls tourism product records from an upstream feed and converges
// the local catalog onto them: each record is fingerprinted, classified
// against the stored product, and applied in a single transaction that
// reconciles the header plus every owned collection (addresses,
// communication channels, services, rates, deals, media links,
// attributes and the rest).
//
// # Classification
//
// Three digests decide what a record means: a core digest over the
// header projection and the owned collection set digests, a media
// digest over the upstream-visible media fields, and an attribute
// digest over the coerced attribute rows. A record whose digests all
// match the stored product is unchanged and triggers no write at all.
// Inactive and expired records only flip the stored status; their rows
// are preserved for a later reactivation.
//
// # Failure Containment
//
// A malformed record or a failed transaction rejects only that product
// and carries a correlation id into the run report. Data conflicts
// inside one collection (duplicate identities with differing content,
// unknown attribute codes, unresolvable service references) reject just
// that batch while the rest of the product commits.
//
// # Components
//
//   - Engine: Applies one record end to end (fingerprint, classify, converge, log changes).
//   - Runner: Pages through the feed with a bounded worker pool and page checkpoints.
//   - Handler: Exposes HTTP endpoints for run control and status.
//   - Loader: Registers the feature with the application.
//
// # HTTP Endpoints
//
//   - GET  /sync/status : Current run state, last report and checkpoints.
//   - POST /sync/run    : Starts a background synchronization run.
//   - GET  /attributes  : Lists the known attribute definitions.
package sync
