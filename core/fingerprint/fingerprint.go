package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// sep joins projection fields before hashing. A non-printable separator keeps
// adjacent fields from colliding ("ab","c" vs "a","bc").
const sep = "\x1f"

// Digest computes the sha256 hex digest of an ordered field projection.
// Callers pass a fixed field list in a fixed order; absent optional fields
// must be rendered as the empty string so the digest stays stable.
func Digest(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, sep)))
	return hex.EncodeToString(sum[:])
}

// SetDigest computes a digest over an unordered member set.
// Members are sorted before hashing so the result is independent of the
// order the upstream feed happened to deliver them in.
func SetDigest(members []string) string {
	sorted := make([]string, len(members))
	copy(sorted, members)
	sort.Strings(sorted)
	return Digest(sorted...)
}

// Float renders a float for inclusion in a projection.
// The shortest representation that round-trips is used.
func Float(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FloatPtr renders an optional float, empty when absent.
func FloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return Float(*f)
}

// Int renders an int for inclusion in a projection.
func Int(i int) string {
	return strconv.Itoa(i)
}

// IntPtr renders an optional int, empty when absent.
func IntPtr(i *int) string {
	if i == nil {
		return ""
	}
	return Int(*i)
}

// Bool renders a bool as "true" or "false".
func Bool(b bool) string {
	return strconv.FormatBool(b)
}

// Time renders a timestamp in RFC3339 UTC. The zero time renders empty.
func Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Date renders a calendar date as YYYY-MM-DD. The zero time renders empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
