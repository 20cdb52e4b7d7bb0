package models

import "time"

// Change kinds, one per mutated concern per sync pass. Mutations of the
// auxiliary collections (addresses, communications, awards, proximity,
// related, comments, external refs) fold into KindProduct.
const (
	ChangeProduct  = "product"
	ChangeMedia    = "media"
	ChangeAttrs    = "attrs"
	ChangeServices = "services"
	ChangeRates    = "rates"
	ChangeDeals    = "deals"
)

// ChangeLogEntry is one append-only audit record. Entries are never
// mutated or deleted; downstream caches invalidate from them.
type ChangeLogEntry struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`

	Kind string `gorm:"column:kind;type:varchar(16);not null;index" json:"kind"`

	// PayloadHash is the fingerprint of the concern after the mutation,
	// empty for concerns without a dedicated digest.
	PayloadHash string `gorm:"column:payload_hash;type:char(64)" json:"payload_hash"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides the table name.
func (ChangeLogEntry) TableName() string {
	return "change_log"
}
