package sync

import (
	"atdw-sync/core/fingerprint"
	"atdw-sync/core/reconcile"
	"atdw-sync/feature/catalog/media"
	"atdw-sync/feature/catalog/models"
)

// setOf renders a collection as an order-independent set digest over its
// member fingerprints.
func setOf[T reconcile.Item](rows []T) string {
	members := make([]string, len(rows))
	for i, row := range rows {
		members[i] = row.ContentHash()
	}
	return fingerprint.SetDigest(members)
}

// coreDigest fingerprints the product's core content: the header
// projection plus the set digests of every owned collection except
// media and attributes, which carry their own digests. Any owned
// content change flips the core hash; upstream noise fields never
// reach it.
func coreDigest(b *built) string {
	fields := b.header.CoreProjection()
	fields = append(fields,
		setOf(b.addresses),
		setOf(b.comms),
		setOf(b.services),
		setOf(b.rates),
		setOf(b.deals),
		setOf(b.awards),
		setOf(b.proximity),
		setOf(b.related),
		setOf(b.comments),
		setOf(b.extRefs),
	)
	return fingerprint.Digest(fields...)
}

// mediaMemberDigest fingerprints one media record from its
// upstream-visible fields. Local asset ids stay out so the digest can
// be computed before deduplication runs.
func mediaMemberDigest(m MediaRecord) string {
	return fingerprint.Digest(
		m.Provider,
		media.CanonicalURL(m.URL),
		m.AltText,
		m.Caption,
		m.Copyright,
		m.Photographer,
		fingerprint.Int(m.Width),
		fingerprint.Int(m.Height),
		fingerprint.Int(m.Ordinal),
		m.Role,
	)
}

// mediaSetDigest fingerprints the record's media collection.
func mediaSetDigest(records []MediaRecord) string {
	members := make([]string, len(records))
	for i, m := range records {
		members[i] = mediaMemberDigest(m)
	}
	return fingerprint.SetDigest(members)
}

// attrsSetDigest fingerprints a coerced attribute batch. Each member
// covers code, kind and canonical value, so retyping a definition or
// changing a value both flip the digest.
func attrsSetDigest(rows []*models.ProductAttributeValue) string {
	members := make([]string, len(rows))
	for i, row := range rows {
		members[i] = row.ContentHash()
	}
	return fingerprint.SetDigest(members)
}
