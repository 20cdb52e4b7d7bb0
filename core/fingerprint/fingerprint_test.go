package fingerprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDigestDeterministic(t *testing.T) {
	a := Digest("Byron Bay Inn", "ACCOMM", "-28.64")
	b := Digest("Byron Bay Inn", "ACCOMM", "-28.64")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestDigestFieldBoundaries(t *testing.T) {
	// Adjacent fields must not collide when content shifts across the boundary.
	assert.NotEqual(t, Digest("ab", "c"), Digest("a", "bc"))
	assert.NotEqual(t, Digest("a", ""), Digest("a"))
}

func TestDigestChangesWithContent(t *testing.T) {
	base := Digest("Byron Bay Inn", "ACCOMM")
	assert.NotEqual(t, base, Digest("Byron Bay Motel", "ACCOMM"))
	assert.NotEqual(t, base, Digest("Byron Bay Inn", "ATTRACTION"))
}

func TestSetDigestOrderInsensitive(t *testing.T) {
	a := SetDigest([]string{"wifi", "pool", "spa"})
	b := SetDigest([]string{"spa", "wifi", "pool"})
	assert.Equal(t, a, b)
}

func TestSetDigestDoesNotMutateInput(t *testing.T) {
	members := []string{"c", "a", "b"}
	SetDigest(members)
	assert.Equal(t, []string{"c", "a", "b"}, members)
}

func TestSetDigestEmpty(t *testing.T) {
	assert.Equal(t, SetDigest(nil), SetDigest([]string{}))
	assert.NotEqual(t, SetDigest(nil), SetDigest([]string{""}))
}

func TestFloatRendering(t *testing.T) {
	assert.Equal(t, "-28.642", Float(-28.642))
	assert.Equal(t, "153", Float(153))
	assert.Equal(t, "", FloatPtr(nil))

	v := 153.612
	assert.Equal(t, "153.612", FloatPtr(&v))
}

func TestIntRendering(t *testing.T) {
	assert.Equal(t, "4", Int(4))
	assert.Equal(t, "", IntPtr(nil))

	v := 2
	assert.Equal(t, "2", IntPtr(&v))
}

func TestBoolRendering(t *testing.T) {
	assert.Equal(t, "true", Bool(true))
	assert.Equal(t, "false", Bool(false))
}

func TestTimeRendering(t *testing.T) {
	loc := time.FixedZone("AEST", 10*3600)
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, loc)

	// Always rendered in UTC so the source zone cannot flip the digest.
	assert.Equal(t, "2025-03-13T23:30:00Z", Time(ts))
	assert.Equal(t, "2025-03-13", Date(ts))
	assert.Equal(t, "", Time(time.Time{}))
	assert.Equal(t, "", Date(time.Time{}))
}
