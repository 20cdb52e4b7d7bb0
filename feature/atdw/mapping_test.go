package atdw

import (
	"testing"

	syncfeature "atdw-sync/feature/sync"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapPayload(t *testing.T, payload string) syncfeature.ProductRecord {
	t.Helper()
	return MapProduct(json.RawMessage(payload))
}

func TestMapProductCore(t *testing.T) {
	rec := mapPayload(t, `{
		"productId": "5f1a",
		"productName": "Byron Bay Inn",
		"productDescription": "Beachfront rooms.",
		"productCategoryId": "ACCOMM",
		"stateName": "New South Wales",
		"areaName": "North Coast",
		"cityName": "Byron Bay",
		"verticalClassifications": [{"productTypeDescription": "Hotel"}]
	}`)

	assert.Equal(t, "5f1a", rec.UpstreamID)
	assert.Equal(t, "Byron Bay Inn", rec.Name)
	assert.Equal(t, "ACCOMM", rec.Category)
	assert.Equal(t, "Hotel", rec.Classification)
	assert.Equal(t, "New South Wales", rec.StateName)
	assert.Equal(t, "North Coast", rec.RegionName)
	assert.Equal(t, "Byron Bay", rec.CityName)
	assert.Equal(t, syncfeature.UpstreamActive, rec.Status)
	assert.NotEmpty(t, rec.Raw)
}

func TestMapProductStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", syncfeature.UpstreamActive},
		{"ACTIVE", syncfeature.UpstreamActive},
		{"INACTIVE", syncfeature.UpstreamInactive},
		{"inactive", syncfeature.UpstreamInactive},
		{"EXPIRED", syncfeature.UpstreamExpired},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mapStatus(tc.raw), "raw status %q", tc.raw)
	}
}

func TestMapProductPrefersPhysicalGeocode(t *testing.T) {
	rec := mapPayload(t, `{
		"productId": "p1",
		"addresses": [
			{"addressPurpose": "POSTAL", "geocodeGdaLatitude": "-33.9", "geocodeGdaLongitude": "151.2"},
			{"addressPurpose": "PHYSICAL", "geocodeGdaLatitude": "-28.64", "geocodeGdaLongitude": "153.61"}
		]
	}`)

	require.NotNil(t, rec.Latitude)
	require.NotNil(t, rec.Longitude)
	assert.InDelta(t, -28.64, *rec.Latitude, 1e-9)
	assert.InDelta(t, 153.61, *rec.Longitude, 1e-9)

	require.Len(t, rec.Addresses, 2)
	assert.Equal(t, "postal", rec.Addresses[0].Purpose)
	assert.Equal(t, "physical", rec.Addresses[1].Purpose)
}

func TestMapProductGeocodeFallback(t *testing.T) {
	rec := mapPayload(t, `{
		"productId": "p1",
		"addresses": [
			{"addressPurpose": "PHYSICAL"},
			{"addressPurpose": "POSTAL", "geocodeGdaLatitude": -33.9, "geocodeGdaLongitude": 151.2}
		]
	}`)

	require.NotNil(t, rec.Latitude)
	assert.InDelta(t, -33.9, *rec.Latitude, 1e-9)
}

func TestMapCommunicationKinds(t *testing.T) {
	rec := mapPayload(t, `{
		"productId": "p1",
		"communication": [
			{"attributeIdCommunication": "CAEMENQUIR", "communicationDetail": "stay@inn.example"},
			{"attributeIdCommunication": "CAPHNUMBUA", "communicationDetail": "02 6685 0000"},
			{"attributeIdCommunication": "CAWEBADDR", "communicationDetail": "https://inn.example"},
			{"attributeIdCommunication": "CABOOKURL", "communicationDetail": "https://book.inn.example"},
			{"attributeIdCommunication": "UNKNOWN", "communicationDetail": "guest@inn.example"},
			{"attributeIdCommunication": "UNKNOWN", "communicationDetail": "http://other.example"},
			{"attributeIdCommunication": "CAPHNUMBUA", "communicationDetail": ""}
		]
	}`)

	require.Len(t, rec.Communications, 6)
	kinds := make([]string, 0, len(rec.Communications))
	for _, c := range rec.Communications {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []string{"email", "phone", "website", "booking", "email", "website"}, kinds)
}

func TestMapAttributesCompositeCodes(t *testing.T) {
	rec := mapPayload(t, `{
		"productId": "p1",
		"attributes": [
			{"attributeTypeId": "ENTITY FAC", "attributeId": "POOL"},
			{"attributeTypeId": "ENTITY FAC", "attributeId": "WIFI"},
			{"attributeTypeId": "", "attributeId": "IGNORED"}
		]
	}`)

	assert.Equal(t, map[string]any{
		"ENTITY_FAC__POOL": true,
		"ENTITY_FAC__WIFI": true,
	}, rec.Attributes)
}

func TestMapMediaURLResolution(t *testing.T) {
	rec := mapPayload(t, `{
		"productId": "p1",
		"multimedia": [
			{"imageUrl": "https://cdn.example/a.jpg", "url": "https://cdn.example/ignored.jpg"},
			{"url": "https://cdn.example/b.jpg"},
			{"serverPath": "https://cdn.example", "imagePath": "/c.jpg"},
			{"altText": "no url at all"}
		]
	}`)

	require.Len(t, rec.Media, 3)
	assert.Equal(t, "https://cdn.example/a.jpg", rec.Media[0].URL)
	assert.Equal(t, "https://cdn.example/b.jpg", rec.Media[1].URL)
	assert.Equal(t, "https://cdn.example/c.jpg", rec.Media[2].URL)

	assert.Equal(t, "hero", rec.Media[0].Role)
	assert.Equal(t, "gallery", rec.Media[1].Role)
	assert.Equal(t, 1, rec.Media[0].Ordinal)
	assert.Equal(t, 3, rec.Media[2].Ordinal)
	assert.Equal(t, Source, rec.Media[0].Provider)
}

func TestMapServicesAndDeals(t *testing.T) {
	rec := mapPayload(t, `{
		"productId": "p1",
		"services": [
			{"serviceId": "S1", "serviceName": "Ocean Room", "occupancyAdults": "2", "occupancyChildren": 1}
		],
		"rates": [
			{"priceFrom": "120.50", "priceTo": 180}
		],
		"deals": [
			{"dealId": "D1", "dealName": "Winter Special", "dealPrice": 99,
			 "dealStartDate": "2026-06-01", "dealEndDate": "2026-08-31"}
		]
	}`)

	require.Len(t, rec.Services, 1)
	svc := rec.Services[0]
	assert.Equal(t, "S1", svc.UpstreamID)
	assert.Equal(t, 1, svc.Sequence)
	require.NotNil(t, svc.OccupancyAdults)
	assert.Equal(t, 2, *svc.OccupancyAdults)

	require.Len(t, rec.Rates, 1)
	rate := rec.Rates[0]
	require.NotNil(t, rate.PriceFrom)
	assert.InDelta(t, 120.50, *rate.PriceFrom, 1e-9)
	assert.Equal(t, "AUD", rate.Currency)
	require.NotNil(t, rate.ValidTo)

	require.Len(t, rec.Deals, 1)
	deal := rec.Deals[0]
	assert.Equal(t, "D1", deal.UpstreamID)
	require.NotNil(t, deal.BookFrom)
	assert.Equal(t, "2026-06-01", deal.BookFrom.Format("2006-01-02"))
}

func TestMapProductUnparseablePayload(t *testing.T) {
	rec := mapPayload(t, `not json`)
	assert.Empty(t, rec.UpstreamID)
	assert.Error(t, rec.Validate())
}
