package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

// Upstream record statuses as the feed reports them. The feed never
// distinguishes new from updated; that classification is derived locally.
const (
	UpstreamActive   = "active"
	UpstreamInactive = "inactive"
	UpstreamExpired  = "expired"
)

// Feed is the upstream collaborator contract. Implementations own
// transport, rate limiting, retries and cursor mechanics; the engine is
// agnostic to all of them.
type Feed interface {
	// FetchPage returns the page at the given cursor. An empty cursor
	// requests the first page.
	FetchPage(ctx context.Context, cursor string) (Page, error)
}

// Page is one batch of upstream records plus the cursor to the next.
type Page struct {
	Records    []ProductRecord `json:"records"`
	NextCursor string          `json:"next_cursor"`
	HasMore    bool            `json:"has_more"`
}

// ProductRecord is the engine's view of one upstream product. Feed
// implementations map their wire format into this shape; everything the
// engine fingerprints, classifies and stores comes from here.
type ProductRecord struct {
	UpstreamID     string `json:"upstream_id" validate:"required"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Classification string `json:"classification"`

	Status string `json:"status" validate:"required,oneof=active inactive expired"`

	StateName  string   `json:"state_name"`
	RegionName string   `json:"region_name"`
	CityName   string   `json:"city_name"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`

	Addresses      []AddressRecord       `json:"addresses"`
	Communications []CommunicationRecord `json:"communications"`

	// Attributes maps attribute codes to raw feed values; the registry
	// coerces them against the declared kinds.
	Attributes map[string]any `json:"attributes"`

	Media    []MediaRecord   `json:"media"`
	Services []ServiceRecord `json:"services"`
	Rates    []RateRecord    `json:"rates"`
	Deals    []DealRecord    `json:"deals"`

	Awards       []AwardRecord       `json:"awards"`
	Proximity    []ProximityRecord   `json:"proximity"`
	Related      []RelatedRecord     `json:"related"`
	Comments     []CommentRecord     `json:"comments"`
	ExternalRefs []ExternalRefRecord `json:"external_refs"`

	// Raw is the upstream payload as received, stored for audit.
	Raw json.RawMessage `json:"-"`
}

// AddressRecord is one physical or postal address.
type AddressRecord struct {
	Purpose   string   `json:"purpose"`
	Line1     string   `json:"line1"`
	Line2     string   `json:"line2"`
	Line3     string   `json:"line3"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Postcode  string   `json:"postcode"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CommunicationRecord is one typed contact channel.
type CommunicationRecord struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// MediaRecord is one media item as the feed describes it, before asset
// deduplication assigns local ids.
type MediaRecord struct {
	Provider     string `json:"provider"`
	URL          string `json:"url"`
	AltText      string `json:"alt_text"`
	Caption      string `json:"caption"`
	Copyright    string `json:"copyright"`
	Photographer string `json:"photographer"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`

	// Ordinal is the 1-based display position; Role is hero or gallery.
	Ordinal int    `json:"ordinal"`
	Role    string `json:"role"`
}

// ServiceRecord is one bookable sub-unit (room type, tour session).
type ServiceRecord struct {
	UpstreamID        string         `json:"upstream_id"`
	Name              string         `json:"name"`
	Kind              string         `json:"kind"`
	Sequence          int            `json:"sequence"`
	OccupancyAdults   *int           `json:"occupancy_adults"`
	OccupancyChildren *int           `json:"occupancy_children"`
	BedConfiguration  string         `json:"bed_configuration"`
	Accessible        bool           `json:"accessible"`
	Details           map[string]any `json:"details"`
}

// RateRecord is one pricing window. ServiceKey references the owning
// service's upstream id, empty for product-level rates.
type RateRecord struct {
	ServiceKey string     `json:"service_key"`
	PriceFrom  *float64   `json:"price_from"`
	PriceTo    *float64   `json:"price_to"`
	Currency   string     `json:"currency"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to"`
}

// DealRecord is one time-boxed offer.
type DealRecord struct {
	UpstreamID  string     `json:"upstream_id"`
	ServiceKey  string     `json:"service_key"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       *float64   `json:"price"`
	BookFrom    *time.Time `json:"book_from"`
	BookTo      *time.Time `json:"book_to"`
	RedeemFrom  *time.Time `json:"redeem_from"`
	RedeemTo    *time.Time `json:"redeem_to"`
}

// AwardRecord is one industry award or accreditation.
type AwardRecord struct {
	Name     string `json:"name"`
	Year     string `json:"year"`
	Category string `json:"category"`
}

// ProximityRecord is one nearby landmark.
type ProximityRecord struct {
	LandmarkName string   `json:"landmark_name"`
	LandmarkType string   `json:"landmark_type"`
	DistanceKm   *float64 `json:"distance_km"`
}

// RelatedRecord links this product to another upstream product.
type RelatedRecord struct {
	UpstreamID string `json:"upstream_id"`
	Kind       string `json:"kind"`
}

// CommentRecord is one structured operator comment.
type CommentRecord struct {
	Author   string     `json:"author"`
	PostedAt *time.Time `json:"posted_at"`
	Text     string     `json:"text"`
}

// ExternalRefRecord maps the product to an id in another system.
type ExternalRefRecord struct {
	System    string `json:"system"`
	Reference string `json:"reference"`
}

var validate = validator.New()

// Validate rejects records the engine cannot process: a missing
// identity key or an unrecognized status. Runs before any fingerprint
// or classification work.
func (r *ProductRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &MalformedRecordError{UpstreamID: r.UpstreamID, Reason: err.Error()}
	}
	return nil
}
