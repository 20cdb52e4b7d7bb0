package models

import (
	"fmt"
	"time"

	"atdw-sync/core/fingerprint"

	"gorm.io/datatypes"
)

// Attribute value kinds. Exactly one typed slot of a value row is
// populated, and it must match the definition's declared kind.
const (
	KindBool       = "bool"
	KindInt        = "int"
	KindNumeric    = "numeric"
	KindText       = "text"
	KindDate       = "date"
	KindStructured = "structured"
)

// AttributeDefinition is a dictionary entry mapping an attribute code to
// its value kind. Facet-flagged definitions drive the hot projection on
// the product header.
type AttributeDefinition struct {
	ID uint `gorm:"primarykey" json:"id"`

	// Code is the composite upstream code, e.g. "ENTITY FAC__POOL".
	Code  string `gorm:"column:code;type:varchar(128);not null;uniqueIndex" json:"code"`
	Label string `gorm:"column:label;type:varchar(255)" json:"label"`

	ValueKind string `gorm:"column:value_kind;type:varchar(16);not null" json:"value_kind"`

	// Facet marks the definition as filter-relevant; its value is
	// denormalized into the product's hot projection.
	Facet bool `gorm:"column:facet;default:false" json:"facet"`

	// FacetKey is the projection field name used for facet definitions,
	// e.g. "wifi". Empty for non-facets.
	FacetKey string `gorm:"column:facet_key;type:varchar(64)" json:"facet_key"`

	// Discovered marks definitions auto-registered in discovery mode,
	// pending curation.
	Discovered bool `gorm:"column:discovered;default:false" json:"discovered"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name.
func (AttributeDefinition) TableName() string {
	return "attribute_definitions"
}

// ValidKind reports whether k names a supported value kind.
func ValidKind(k string) bool {
	switch k {
	case KindBool, KindInt, KindNumeric, KindText, KindDate, KindStructured:
		return true
	default:
		return false
	}
}

// ProductAttributeValue holds one typed value per (product, definition).
// Exactly one typed slot is non-nil.
type ProductAttributeValue struct {
	ID           uint `gorm:"primarykey" json:"id"`
	ProductID    uint `gorm:"column:product_id;not null;uniqueIndex:idx_product_attribute,priority:1" json:"product_id"`
	DefinitionID uint `gorm:"column:definition_id;index;not null" json:"definition_id"`

	// Code duplicates the definition code so reconciliation and digests
	// never need a join.
	Code string `gorm:"column:code;type:varchar(128);not null;uniqueIndex:idx_product_attribute,priority:2" json:"code"`

	BoolValue    *bool          `gorm:"column:bool_value" json:"bool_value,omitempty"`
	IntValue     *int64         `gorm:"column:int_value" json:"int_value,omitempty"`
	NumericValue *float64       `gorm:"column:numeric_value" json:"numeric_value,omitempty"`
	TextValue    *string        `gorm:"column:text_value;type:text" json:"text_value,omitempty"`
	DateValue    *time.Time     `gorm:"column:date_value" json:"date_value,omitempty"`
	StructValue  datatypes.JSON `gorm:"column:struct_value" json:"struct_value,omitempty"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name.
func (ProductAttributeValue) TableName() string {
	return "product_attribute_values"
}

// Kind reports which typed slot is populated, empty when none is.
func (v *ProductAttributeValue) Kind() string {
	switch {
	case v.BoolValue != nil:
		return KindBool
	case v.IntValue != nil:
		return KindInt
	case v.NumericValue != nil:
		return KindNumeric
	case v.TextValue != nil:
		return KindText
	case v.DateValue != nil:
		return KindDate
	case len(v.StructValue) > 0:
		return KindStructured
	default:
		return ""
	}
}

// Render returns the canonical string form of the populated slot, used
// for fingerprints and the hot projection.
func (v *ProductAttributeValue) Render() string {
	switch {
	case v.BoolValue != nil:
		return fingerprint.Bool(*v.BoolValue)
	case v.IntValue != nil:
		return fmt.Sprintf("%d", *v.IntValue)
	case v.NumericValue != nil:
		return fingerprint.Float(*v.NumericValue)
	case v.TextValue != nil:
		return *v.TextValue
	case v.DateValue != nil:
		return fingerprint.Date(*v.DateValue)
	case len(v.StructValue) > 0:
		return string(v.StructValue)
	default:
		return ""
	}
}

// Value returns the populated slot as a bare value for the hot
// projection map.
func (v *ProductAttributeValue) Value() any {
	switch {
	case v.BoolValue != nil:
		return *v.BoolValue
	case v.IntValue != nil:
		return *v.IntValue
	case v.NumericValue != nil:
		return *v.NumericValue
	case v.TextValue != nil:
		return *v.TextValue
	case v.DateValue != nil:
		return fingerprint.Date(*v.DateValue)
	case len(v.StructValue) > 0:
		return string(v.StructValue)
	default:
		return nil
	}
}

// Recompute derives the change fingerprint from code and rendered value.
func (v *ProductAttributeValue) Recompute() {
	v.Hash = fingerprint.Digest(v.Code, v.Kind(), v.Render())
}

func (v *ProductAttributeValue) IdentityKey() string   { return v.Code }
func (v *ProductAttributeValue) ContentHash() string   { return v.Hash }
func (v *ProductAttributeValue) PrimaryKey() uint      { return v.ID }
func (v *ProductAttributeValue) SetPrimaryKey(id uint) { v.ID = id }
