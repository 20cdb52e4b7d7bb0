package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProductSummary is the read-optimized listing projection, one row per
// product, rebuilt from current entity state and swapped in whole so
// readers never observe a half-built row.
type ProductSummary struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;not null;uniqueIndex" json:"product_id"`

	Name       string `gorm:"column:name;type:varchar(255)" json:"name"`
	Category   string `gorm:"column:category;type:varchar(64);index" json:"category"`
	Status     string `gorm:"column:status;type:varchar(16);index" json:"status"`
	StateName  string `gorm:"column:state_name;type:varchar(64);index" json:"state_name"`
	RegionName string `gorm:"column:region_name;type:varchar(128);index" json:"region_name"`
	CityName   string `gorm:"column:city_name;type:varchar(128)" json:"city_name"`

	Latitude  *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude"`
	Geohash   string   `gorm:"column:geohash;type:varchar(12);index" json:"geohash"`

	// Facets mirrors the product's hot projection for list filtering.
	Facets datatypes.JSONMap `gorm:"column:facets" json:"facets"`

	// HeroImageURL is the single representative media reference.
	HeroImageURL string `gorm:"column:hero_image_url;type:varchar(768)" json:"hero_image_url"`

	RefreshedAt time.Time `gorm:"column:refreshed_at" json:"refreshed_at"`
}

// TableName overrides the table name.
func (ProductSummary) TableName() string {
	return "product_summaries"
}
