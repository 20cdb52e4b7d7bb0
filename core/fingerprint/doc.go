// Package fingerprint computes deterministic content digests over canonical
// field projections.
//
// A digest is a sha256 hex string over a fixed, ordered field list joined by a
// non-printable separator. The upstream payload itself is never hashed: feeds
// reorder fields and add noise, so each concern (product core, media set,
// attribute set) declares its own projection and hashes only that.
//
// # Stability Rules
//
// Two renderings of the same logical content must produce the same digest:
//   - absent optional fields render as the empty string
//   - floats use the shortest round-tripping decimal form
//   - timestamps render in RFC3339 UTC, dates as YYYY-MM-DD
//   - unordered sets are sorted before hashing (SetDigest)
//
// # Usage
//
//	h := fingerprint.Digest(p.Name, p.Category, fingerprint.FloatPtr(p.Latitude))
//	m := fingerprint.SetDigest(memberDigests)
package fingerprint
