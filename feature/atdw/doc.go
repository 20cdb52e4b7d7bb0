// Package atdw implements the upstream feed client for the Australian
// Tourism Data Warehouse ATLAS2 API.
//
// The client owns everything the engine is agnostic to: HTTP transport,
// authentication, request throttling, 429 backoff honouring Retry-After,
// page-number cursors and the mapping from Atlas's loosely typed payloads
// into the engine's ProductRecord shape. Atlas recommends spreading
// requests rather than bursting, so outgoing calls pass through a shared
// rate limiter, and concurrent fetches of the same page collapse into one
// request via singleflight.
//
// Page-end detection follows Atlas semantics: an empty products array, a
// 404 on a page past the end, or the running record count reaching
// numberOfResults all terminate the listing.
package atdw
