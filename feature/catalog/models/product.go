package models

import (
	"time"

	"atdw-sync/core/fingerprint"

	"github.com/mmcloughlin/geohash"
	"gorm.io/datatypes"
)

// Product lifecycle statuses. A product row is never hard-deleted; the
// status field records soft deletion and expiry instead.
const (
	StatusActive      = "active"
	StatusSoftDeleted = "soft_deleted"
	StatusExpired     = "expired"
)

// GeohashPrecision is the character length of derived location points.
// 9 characters resolve to roughly 5 meters, enough for proximity search.
const GeohashPrecision = 9

// Product is the aggregate root for one upstream catalog record. It owns
// every sub-entity exclusively and carries three content fingerprints so
// a media-only change never looks like a core-content change.
type Product struct {
	ID uint `gorm:"primarykey" json:"id"`

	// Source plus UpstreamID form the product's identity. The same
	// upstream id from two sources is two distinct products.
	Source     string `gorm:"column:source;type:varchar(32);not null;uniqueIndex:idx_products_identity,priority:1" json:"source"`
	UpstreamID string `gorm:"column:upstream_id;type:varchar(64);not null;uniqueIndex:idx_products_identity,priority:2" json:"upstream_id"`

	Name           string `gorm:"column:name;type:varchar(255);index" json:"name"`
	Description    string `gorm:"column:description;type:text" json:"description"`
	Category       string `gorm:"column:category;type:varchar(64);index" json:"category"`
	Classification string `gorm:"column:classification;type:varchar(128)" json:"classification"`

	Status string `gorm:"column:status;type:varchar(16);index;default:active" json:"status"`

	StateName  string   `gorm:"column:state_name;type:varchar(64);index" json:"state_name"`
	RegionName string   `gorm:"column:region_name;type:varchar(128);index" json:"region_name"`
	CityName   string   `gorm:"column:city_name;type:varchar(128)" json:"city_name"`
	Latitude   *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude  *float64 `gorm:"column:longitude" json:"longitude"`

	// Geohash is the derived location point, recomputed on every write
	// that touches the coordinates.
	Geohash string `gorm:"column:geohash;type:varchar(12);index" json:"geohash"`

	// Facets is the hot projection: facet-flagged attribute values
	// denormalized for filtering. Overwritten wholesale on every
	// attribute recompute so removed attributes clear their flag.
	Facets datatypes.JSONMap `gorm:"column:facets" json:"facets"`

	// RawPayload is the upstream record as last received, kept for audit.
	RawPayload datatypes.JSON `gorm:"column:raw_payload" json:"-"`

	// Content fingerprints, one per concern.
	CoreHash  string `gorm:"column:core_hash;type:char(64)" json:"core_hash"`
	MediaHash string `gorm:"column:media_hash;type:char(64)" json:"media_hash"`
	AttrsHash string `gorm:"column:attrs_hash;type:char(64)" json:"attrs_hash"`

	// StatusChangedAt records the most recent status transition.
	StatusChangedAt *time.Time `gorm:"column:status_changed_at" json:"status_changed_at"`

	FirstSeenAt  time.Time `gorm:"column:first_seen_at" json:"first_seen_at"`
	LastSeenAt   time.Time `gorm:"column:last_seen_at" json:"last_seen_at"`
	LastSyncedAt time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name.
func (Product) TableName() string {
	return "products"
}

// RecomputePoint derives the geohash point from the current coordinates.
// Products without coordinates get an empty point.
func (p *Product) RecomputePoint() {
	if p.Latitude == nil || p.Longitude == nil {
		p.Geohash = ""
		return
	}
	p.Geohash = geohash.EncodeWithPrecision(*p.Latitude, *p.Longitude, GeohashPrecision)
}

// CoreProjection renders the canonical header field list feeding the
// core fingerprint. The sync engine appends the set digests of the
// non-media, non-attribute collections before hashing, so any owned
// content change flips the core hash while upstream noise fields never
// disturb it.
func (p *Product) CoreProjection() []string {
	return []string{
		p.Name,
		p.Description,
		p.Category,
		p.Classification,
		p.StateName,
		p.RegionName,
		p.CityName,
		fingerprint.FloatPtr(p.Latitude),
		fingerprint.FloatPtr(p.Longitude),
		fingerprint.Bool(p.Status == StatusActive),
	}
}
