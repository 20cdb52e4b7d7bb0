package sync

import (
	"encoding/json"
	"testing"
	"time"

	"atdw-sync/feature/catalog/models"

	"github.com/stretchr/testify/assert"
)

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }

func ptrTime(v time.Time) *time.Time { return &v }

// fullRecord returns a representative active record with every owned
// collection populated.
func fullRecord() *ProductRecord {
	posted := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	validTo := time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)
	bookFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bookTo := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	return &ProductRecord{
		UpstreamID:     "5cf0a1e4",
		Name:           "Beachside Bungalows",
		Description:    "Absolute beachfront bungalows a short walk from town.",
		Category:       "ACCOMM",
		Classification: "Apartments",
		Status:         UpstreamActive,
		StateName:      "New South Wales",
		RegionName:     "North Coast",
		CityName:       "Byron Bay",
		Latitude:       ptrFloat(-28.6474),
		Longitude:      ptrFloat(153.6020),
		Addresses: []AddressRecord{
			{Purpose: "physical", Line1: "1 Bay Street", City: "Byron Bay", State: "New South Wales", Postcode: "2481", Country: "Australia"},
			{Purpose: "postal", Line1: "PO Box 12", City: "Byron Bay", State: "New South Wales", Postcode: "2481", Country: "Australia"},
		},
		Communications: []CommunicationRecord{
			{Kind: "phone", Value: "+61 2 6685 0000"},
			{Kind: "email", Value: "stay@beachside.example.com"},
		},
		Attributes: map[string]any{
			"ENTITY_FAC__POOL": true,
			"ENTITY_FAC__WIFI": true,
		},
		Media: []MediaRecord{
			{Provider: "atdw", URL: "https://cdn.example.com/img/hero.jpg", AltText: "Pool at dusk", Width: 1600, Height: 900, Ordinal: 1, Role: models.MediaRoleHero},
			{Provider: "atdw", URL: "https://cdn.example.com/img/room.jpg", AltText: "Studio interior", Width: 1600, Height: 900, Ordinal: 2, Role: models.MediaRoleGallery},
		},
		Services: []ServiceRecord{
			{UpstreamID: "svc-studio", Name: "Studio", Kind: "room", Sequence: 1, OccupancyAdults: ptrInt(2)},
			{UpstreamID: "svc-villa", Name: "Two Bedroom Villa", Kind: "room", Sequence: 2, OccupancyAdults: ptrInt(4), OccupancyChildren: ptrInt(2)},
		},
		Rates: []RateRecord{
			{ServiceKey: "svc-studio", PriceFrom: ptrFloat(189), PriceTo: ptrFloat(259), Currency: "AUD", ValidTo: ptrTime(validTo)},
		},
		Deals: []DealRecord{
			{UpstreamID: "deal-winter", ServiceKey: "svc-villa", Name: "Winter Escape", Price: ptrFloat(399), BookFrom: ptrTime(bookFrom), BookTo: ptrTime(bookTo)},
		},
		Awards: []AwardRecord{
			{Name: "Gold Tourism Award", Year: "2024", Category: "Accommodation"},
		},
		Proximity: []ProximityRecord{
			{LandmarkName: "Cape Byron Lighthouse", LandmarkType: "attraction", DistanceKm: ptrFloat(2.4)},
		},
		Related: []RelatedRecord{
			{UpstreamID: "77aa00bb", Kind: "also_operates"},
		},
		Comments: []CommentRecord{
			{Author: "operator", PostedAt: ptrTime(posted), Text: "Renovated March 2025."},
		},
		ExternalRefs: []ExternalRefRecord{
			{System: "tripadvisor", Reference: "d1234567"},
		},
		Raw: json.RawMessage(`{"productId":"5cf0a1e4"}`),
	}
}

func TestCoreDigestStableAcrossRebuilds(t *testing.T) {
	first := coreDigest(build("atdw", fullRecord()))
	second := coreDigest(build("atdw", fullRecord()))
	assert.Equal(t, first, second)
}

func TestCoreDigestIgnoresCollectionOrder(t *testing.T) {
	base := fullRecord()
	flipped := fullRecord()
	flipped.Addresses[0], flipped.Addresses[1] = flipped.Addresses[1], flipped.Addresses[0]
	flipped.Communications[0], flipped.Communications[1] = flipped.Communications[1], flipped.Communications[0]

	assert.Equal(t,
		coreDigest(build("atdw", base)),
		coreDigest(build("atdw", flipped)),
	)
}

func TestCoreDigestFlipsOnProjectedChange(t *testing.T) {
	base := coreDigest(build("atdw", fullRecord()))

	renamed := fullRecord()
	renamed.Name = "Beachside Bungalows & Spa"
	assert.NotEqual(t, base, coreDigest(build("atdw", renamed)))

	moved := fullRecord()
	moved.Addresses[0].Postcode = "2482"
	assert.NotEqual(t, base, coreDigest(build("atdw", moved)))

	repriced := fullRecord()
	repriced.Rates[0].PriceFrom = ptrFloat(199)
	assert.NotEqual(t, base, coreDigest(build("atdw", repriced)))
}

func TestCoreDigestIgnoresNoise(t *testing.T) {
	base := coreDigest(build("atdw", fullRecord()))

	noisy := fullRecord()
	noisy.Raw = json.RawMessage(`{"productId":"5cf0a1e4","rowKey":"20250314T234501"}`)
	noisy.Attributes["ENTITY_FAC__SPA"] = true
	noisy.Media[0].AltText = "Pool at dawn"
	assert.Equal(t, base, coreDigest(build("atdw", noisy)))
}

func TestMediaDigestCanonicalizesURL(t *testing.T) {
	a := mediaSetDigest([]MediaRecord{
		{Provider: "atdw", URL: "HTTPS://CDN.Example.com/img/Hero.jpg/", Ordinal: 1, Role: models.MediaRoleHero},
	})
	b := mediaSetDigest([]MediaRecord{
		{Provider: "atdw", URL: "https://cdn.example.com/img/Hero.jpg", Ordinal: 1, Role: models.MediaRoleHero},
	})
	assert.Equal(t, a, b)
}

func TestMediaDigestIgnoresOrder(t *testing.T) {
	rec := fullRecord()
	flipped := fullRecord()
	flipped.Media[0], flipped.Media[1] = flipped.Media[1], flipped.Media[0]

	assert.Equal(t, mediaSetDigest(rec.Media), mediaSetDigest(flipped.Media))
}

func TestMediaDigestFlipsOnMetadata(t *testing.T) {
	base := mediaSetDigest(fullRecord().Media)

	changed := fullRecord()
	changed.Media[1].AltText = "Studio interior, renovated"
	assert.NotEqual(t, base, mediaSetDigest(changed.Media))

	reordered := fullRecord()
	reordered.Media[1].Ordinal = 3
	assert.NotEqual(t, base, mediaSetDigest(reordered.Media))
}

func TestAttrsDigestIgnoresRowOrder(t *testing.T) {
	yes := true
	pool := &models.ProductAttributeValue{Code: "ENTITY_FAC__POOL", BoolValue: &yes}
	pool.Recompute()
	wifi := &models.ProductAttributeValue{Code: "ENTITY_FAC__WIFI", BoolValue: &yes}
	wifi.Recompute()

	assert.Equal(t,
		attrsSetDigest([]*models.ProductAttributeValue{pool, wifi}),
		attrsSetDigest([]*models.ProductAttributeValue{wifi, pool}),
	)
}

func TestAttrsDigestFlipsOnValue(t *testing.T) {
	yes, no := true, false
	on := &models.ProductAttributeValue{Code: "ENTITY_FAC__POOL", BoolValue: &yes}
	on.Recompute()
	off := &models.ProductAttributeValue{Code: "ENTITY_FAC__POOL", BoolValue: &no}
	off.Recompute()

	assert.NotEqual(t,
		attrsSetDigest([]*models.ProductAttributeValue{on}),
		attrsSetDigest([]*models.ProductAttributeValue{off}),
	)
}

func TestEmptyCollectionsDigestDeterministic(t *testing.T) {
	// A record with no collections at all still digests deterministically.
	bare := &ProductRecord{UpstreamID: "p1", Status: UpstreamActive, Name: "Bare"}
	assert.Equal(t,
		coreDigest(build("atdw", bare)),
		coreDigest(build("atdw", &ProductRecord{UpstreamID: "p1", Status: UpstreamActive, Name: "Bare"})),
	)
	assert.NotEmpty(t, mediaSetDigest(nil))
	assert.Equal(t, mediaSetDigest(nil), mediaSetDigest([]MediaRecord{}))
}
