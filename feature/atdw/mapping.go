package atdw

import (
	"strconv"
	"strings"
	"time"

	"atdw-sync/feature/catalog/models"
	"atdw-sync/feature/sync"

	"github.com/goccy/go-json"
)

// Source is the provider label stamped on everything this feed maps.
const Source = "ATDW"

// rateValidTo closes product-level rate windows far in the future.
// Atlas rates carry no validity of their own; a moving end date would
// flip the content digest on every run.
var rateValidTo = time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)

// MapProduct adapts one Atlas product payload into the engine's record
// shape. The feed is loosely typed (numbers arrive as strings, fields
// appear and vanish per category), so every read is tolerant. A payload
// that cannot be parsed at all maps to a record with no identity, which
// the engine rejects as malformed.
func MapProduct(raw json.RawMessage) sync.ProductRecord {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return sync.ProductRecord{Raw: raw}
	}

	rec := sync.ProductRecord{
		UpstreamID:  str(payload, "productId"),
		Name:        str(payload, "productName"),
		Description: str(payload, "productDescription"),
		Category:    str(payload, "productCategoryId"),
		Status:      mapStatus(str(payload, "attributeIdAtdwStatus")),
		StateName:   str(payload, "stateName"),
		RegionName:  str(payload, "areaName"),
		CityName:    str(payload, "cityName"),
		Raw:         raw,
	}

	if verticals := list(payload, "verticalClassifications"); len(verticals) > 0 {
		rec.Classification = str(verticals[0], "productTypeDescription")
	}

	addresses := list(payload, "addresses")
	rec.Latitude, rec.Longitude = productPoint(addresses)
	for _, addr := range addresses {
		rec.Addresses = append(rec.Addresses, mapAddress(addr))
	}

	for _, comm := range list(payload, "communication") {
		if c, ok := mapCommunication(comm); ok {
			rec.Communications = append(rec.Communications, c)
		}
	}

	rec.Attributes = mapAttributes(list(payload, "attributes"))

	for i, m := range list(payload, "multimedia") {
		if mr, ok := mapMedia(m, i+1); ok {
			rec.Media = append(rec.Media, mr)
		}
	}

	for i, svc := range list(payload, "services") {
		rec.Services = append(rec.Services, mapService(svc, i+1))
	}

	for _, rate := range list(payload, "rates") {
		rec.Rates = append(rec.Rates, mapRate(rate))
	}

	for _, deal := range list(payload, "deals") {
		rec.Deals = append(rec.Deals, mapDeal(deal))
	}

	return rec
}

// mapStatus derives the record status from attributeIdAtdwStatus. Atlas
// omits the field entirely for active products; listings only surface
// INACTIVE and EXPIRED explicitly.
func mapStatus(raw string) string {
	switch strings.ToUpper(raw) {
	case "INACTIVE":
		return sync.UpstreamInactive
	case "EXPIRED":
		return sync.UpstreamExpired
	default:
		return sync.UpstreamActive
	}
}

// productPoint picks the product's coordinates: the PHYSICAL address
// with a geocode wins, any geocoded address is the fallback.
func productPoint(addresses []map[string]any) (*float64, *float64) {
	for _, addr := range addresses {
		if !strings.EqualFold(addressPurpose(addr), "PHYSICAL") {
			continue
		}
		lat, lng := toFloat(addr["geocodeGdaLatitude"]), toFloat(addr["geocodeGdaLongitude"])
		if lat != nil && lng != nil {
			return lat, lng
		}
	}
	for _, addr := range addresses {
		lat, lng := toFloat(addr["geocodeGdaLatitude"]), toFloat(addr["geocodeGdaLongitude"])
		if lat != nil && lng != nil {
			return lat, lng
		}
	}
	return nil, nil
}

func addressPurpose(addr map[string]any) string {
	if p := str(addr, "addressPurpose"); p != "" {
		return p
	}
	return str(addr, "addressType")
}

func mapAddress(addr map[string]any) sync.AddressRecord {
	purpose := "postal"
	if p := addressPurpose(addr); p == "" || strings.EqualFold(p, "PHYSICAL") {
		purpose = "physical"
	}
	return sync.AddressRecord{
		Purpose:   purpose,
		Line1:     str(addr, "addressLine1"),
		Line2:     str(addr, "addressLine2"),
		Line3:     str(addr, "addressLine3"),
		City:      str(addr, "cityName"),
		State:     str(addr, "stateName"),
		Postcode:  str(addr, "addressPostalCode"),
		Country:   str(addr, "countryName"),
		Latitude:  toFloat(addr["geocodeGdaLatitude"]),
		Longitude: toFloat(addr["geocodeGdaLongitude"]),
	}
}

// mapCommunication types a contact channel from the Atlas communication
// code (CAEMENQUIR, CAPHNUMBUA, CAWEBADDR, CABOOKURL and friends),
// falling back to the value's shape for unknown codes.
func mapCommunication(comm map[string]any) (sync.CommunicationRecord, bool) {
	value := str(comm, "communicationDetail")
	if value == "" {
		return sync.CommunicationRecord{}, false
	}

	code := strings.ToUpper(str(comm, "attributeIdCommunication"))
	var kind string
	switch {
	case strings.Contains(code, "EMEN"):
		kind = "email"
	case strings.Contains(code, "PHNUM"), strings.Contains(code, "PHONE"):
		kind = "phone"
	case strings.Contains(code, "WEBADDR"), strings.Contains(code, "WEBSITE"):
		kind = "website"
	case strings.Contains(code, "BOOKURL"), strings.Contains(code, "BOOKING"):
		kind = "booking"
	case strings.Contains(value, "@"):
		kind = "email"
	case strings.HasPrefix(value, "http"):
		kind = "website"
	default:
		kind = "phone"
	}
	return sync.CommunicationRecord{Kind: kind, Value: value}, true
}

// mapAttributes folds the attribute list into composite codes: the type
// id (spaces underscored) joined to the attribute id. Atlas attributes
// are presence flags, so every value is true.
func mapAttributes(attrs []map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		typeID := str(attr, "attributeTypeId")
		attrID := str(attr, "attributeId")
		if typeID == "" || attrID == "" {
			continue
		}
		code := strings.ReplaceAll(typeID, " ", "_") + "__" + attrID
		out[code] = true
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mapMedia resolves the image URL from the fields Atlas scatters it
// across. Entries without any URL are dropped.
func mapMedia(m map[string]any, ordinal int) (sync.MediaRecord, bool) {
	u := str(m, "imageUrl")
	if u == "" {
		u = str(m, "url")
	}
	if u == "" {
		u = str(m, "serverPath") + str(m, "imagePath")
	}
	if u == "" {
		return sync.MediaRecord{}, false
	}

	role := models.MediaRoleGallery
	if ordinal == 1 {
		role = models.MediaRoleHero
	}
	return sync.MediaRecord{
		Provider:     Source,
		URL:          u,
		AltText:      str(m, "altText"),
		Caption:      str(m, "caption"),
		Copyright:    str(m, "copyright"),
		Photographer: str(m, "photographer"),
		Width:        toInt(m["width"]),
		Height:       toInt(m["height"]),
		Ordinal:      ordinal,
		Role:         role,
	}, true
}

func mapService(svc map[string]any, seq int) sync.ServiceRecord {
	id := str(svc, "serviceId")
	if id == "" {
		id = str(svc, "serviceName")
	}
	return sync.ServiceRecord{
		UpstreamID:        id,
		Name:              str(svc, "serviceName"),
		Kind:              str(svc, "serviceType"),
		Sequence:          seq,
		OccupancyAdults:   toIntPtr(svc["occupancyAdults"]),
		OccupancyChildren: toIntPtr(svc["occupancyChildren"]),
		BedConfiguration:  str(svc, "bedConfiguration"),
		Details:           svc,
	}
}

// mapRate maps one product-level pricing entry. Atlas never links rates
// to services in the listing payload.
func mapRate(rate map[string]any) sync.RateRecord {
	currency := str(rate, "attributeIdCurrency")
	if currency == "" {
		currency = "AUD"
	}
	validTo := rateValidTo
	return sync.RateRecord{
		PriceFrom: toFloat(rate["priceFrom"]),
		PriceTo:   toFloat(rate["priceTo"]),
		Currency:  currency,
		ValidTo:   &validTo,
	}
}

func mapDeal(deal map[string]any) sync.DealRecord {
	return sync.DealRecord{
		UpstreamID:  str(deal, "dealId"),
		Name:        str(deal, "dealName"),
		Description: str(deal, "dealDescription"),
		Price:       toFloat(deal["dealPrice"]),
		BookFrom:    toDate(str(deal, "dealStartDate")),
		BookTo:      toDate(str(deal, "dealEndDate")),
		RedeemFrom:  toDate(str(deal, "dealRedeemStartDate")),
		RedeemTo:    toDate(str(deal, "dealRedeemEndDate")),
	}
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func list(m map[string]any, key string) []map[string]any {
	items, _ := m[key].([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func toFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return &f
		}
	}
	return nil
}

func toInt(v any) int {
	if f := toFloat(v); f != nil {
		return int(*f)
	}
	return 0
}

func toIntPtr(v any) *int {
	if f := toFloat(v); f != nil {
		i := int(*f)
		return &i
	}
	return nil
}

// toDate parses the YYYY-MM-DD dates Atlas uses for deal windows.
func toDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
