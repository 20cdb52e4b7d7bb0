package models

import (
	"strconv"
	"time"

	"atdw-sync/core/fingerprint"
)

// Media link roles.
const (
	MediaRoleHero    = "hero"
	MediaRoleGallery = "gallery"
)

// MediaAsset is a deduplicated media item identified by provider and
// canonical URL. Assets are shared across products; deleting a product's
// link never removes the asset.
type MediaAsset struct {
	ID uint `gorm:"primarykey" json:"id"`

	Provider string `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:idx_media_assets_identity,priority:1" json:"provider"`
	URL      string `gorm:"column:url;type:varchar(768);not null;uniqueIndex:idx_media_assets_identity,priority:2" json:"url"`

	AltText      string `gorm:"column:alt_text;type:varchar(512)" json:"alt_text"`
	Caption      string `gorm:"column:caption;type:varchar(512)" json:"caption"`
	Copyright    string `gorm:"column:copyright;type:varchar(255)" json:"copyright"`
	Photographer string `gorm:"column:photographer;type:varchar(255)" json:"photographer"`
	Width        int    `gorm:"column:width;default:0" json:"width"`
	Height       int    `gorm:"column:height;default:0" json:"height"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name.
func (MediaAsset) TableName() string {
	return "media_assets"
}

// Merge folds incoming metadata into the asset without erasing known
// fields: empty incoming values never overwrite present ones. Reports
// whether anything changed.
func (m *MediaAsset) Merge(in MediaAsset) bool {
	changed := false
	if in.AltText != "" && in.AltText != m.AltText {
		m.AltText = in.AltText
		changed = true
	}
	if in.Caption != "" && in.Caption != m.Caption {
		m.Caption = in.Caption
		changed = true
	}
	if in.Copyright != "" && in.Copyright != m.Copyright {
		m.Copyright = in.Copyright
		changed = true
	}
	if in.Photographer != "" && in.Photographer != m.Photographer {
		m.Photographer = in.Photographer
		changed = true
	}
	if in.Width > 0 && in.Width != m.Width {
		m.Width = in.Width
		changed = true
	}
	if in.Height > 0 && in.Height != m.Height {
		m.Height = in.Height
		changed = true
	}
	return changed
}

// ProductMediaLink joins a product to an asset with per-product ordinal
// and role. The link is owned by the product; the asset is not.
type ProductMediaLink struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`
	AssetID   uint `gorm:"column:asset_id;index;not null" json:"asset_id"`

	// Ordinal is the 1-based display position within the product.
	Ordinal int    `gorm:"column:ordinal;default:0" json:"ordinal"`
	Role    string `gorm:"column:role;type:varchar(16);default:gallery" json:"role"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name.
func (ProductMediaLink) TableName() string {
	return "product_media_links"
}

// Recompute derives the change fingerprint from the current field values.
func (l *ProductMediaLink) Recompute() {
	l.Hash = fingerprint.Digest(
		strconv.FormatUint(uint64(l.AssetID), 10),
		fingerprint.Int(l.Ordinal),
		l.Role,
	)
}

func (l *ProductMediaLink) IdentityKey() string   { return strconv.FormatUint(uint64(l.AssetID), 10) }
func (l *ProductMediaLink) ContentHash() string   { return l.Hash }
func (l *ProductMediaLink) PrimaryKey() uint      { return l.ID }
func (l *ProductMediaLink) SetPrimaryKey(id uint) { l.ID = id }
