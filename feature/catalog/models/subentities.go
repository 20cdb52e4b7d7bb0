package models

import (
	"strings"
	"time"

	"atdw-sync/core/fingerprint"

	"github.com/mmcloughlin/geohash"
	"gorm.io/datatypes"
)

// Address purposes.
const (
	AddressPhysical = "physical"
	AddressPostal   = "postal"
)

// Communication kinds.
const (
	CommPhone   = "phone"
	CommEmail   = "email"
	CommWebsite = "website"
	CommBooking = "booking"
	CommSocial  = "social"
)

// ProductAddress is one of a product's physical or postal addresses.
// At most one address per purpose; two incoming addresses sharing a
// purpose with different content is an identity conflict.
type ProductAddress struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`

	Purpose  string   `gorm:"column:purpose;type:varchar(16);not null" json:"purpose"`
	Line1    string   `gorm:"column:line1;type:varchar(255)" json:"line1"`
	Line2    string   `gorm:"column:line2;type:varchar(255)" json:"line2"`
	Line3    string   `gorm:"column:line3;type:varchar(255)" json:"line3"`
	City     string   `gorm:"column:city;type:varchar(128)" json:"city"`
	State    string   `gorm:"column:state;type:varchar(64)" json:"state"`
	Postcode string   `gorm:"column:postcode;type:varchar(16)" json:"postcode"`
	Country  string   `gorm:"column:country;type:varchar(64)" json:"country"`
	Latitude  *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude"`
	Geohash   string   `gorm:"column:geohash;type:varchar(12)" json:"geohash"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductAddress) TableName() string { return "product_addresses" }

// Recompute derives the location point and the change fingerprint from
// the current field values.
func (a *ProductAddress) Recompute() {
	if a.Latitude != nil && a.Longitude != nil {
		a.Geohash = geohash.EncodeWithPrecision(*a.Latitude, *a.Longitude, GeohashPrecision)
	} else {
		a.Geohash = ""
	}
	a.Hash = fingerprint.Digest(
		a.Purpose, a.Line1, a.Line2, a.Line3,
		a.City, a.State, a.Postcode, a.Country,
		fingerprint.FloatPtr(a.Latitude), fingerprint.FloatPtr(a.Longitude),
	)
}

func (a *ProductAddress) IdentityKey() string   { return a.Purpose }
func (a *ProductAddress) ContentHash() string   { return a.Hash }
func (a *ProductAddress) PrimaryKey() uint      { return a.ID }
func (a *ProductAddress) SetPrimaryKey(id uint) { a.ID = id }

// ProductCommunication is one typed contact channel. Identity covers
// kind and value so a product can hold several entries of one kind.
type ProductCommunication struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`

	Kind  string `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	Value string `gorm:"column:value;type:varchar(512);not null" json:"value"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductCommunication) TableName() string { return "product_communications" }

// Recompute derives the change fingerprint from the current field values.
func (c *ProductCommunication) Recompute() {
	c.Hash = fingerprint.Digest(c.Kind, c.Value)
}

func (c *ProductCommunication) IdentityKey() string   { return c.Kind + "|" + c.Value }
func (c *ProductCommunication) ContentHash() string   { return c.Hash }
func (c *ProductCommunication) PrimaryKey() uint      { return c.ID }
func (c *ProductCommunication) SetPrimaryKey(id uint) { c.ID = id }

// ProductService is a bookable sub-unit such as a room type or a tour
// session. Rates and deals may reference a service and are cascade
// deleted with it.
type ProductService struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`

	UpstreamID string `gorm:"column:upstream_id;type:varchar(64);not null" json:"upstream_id"`
	Name       string `gorm:"column:name;type:varchar(255)" json:"name"`
	Kind       string `gorm:"column:kind;type:varchar(64)" json:"kind"`
	Sequence   int    `gorm:"column:sequence;default:0" json:"sequence"`

	OccupancyAdults   *int `gorm:"column:occupancy_adults" json:"occupancy_adults"`
	OccupancyChildren *int `gorm:"column:occupancy_children" json:"occupancy_children"`

	BedConfiguration string `gorm:"column:bed_configuration;type:varchar(255)" json:"bed_configuration"`
	Accessible       bool   `gorm:"column:accessible;default:false" json:"accessible"`

	// Details holds the raw service payload for fields without columns.
	Details datatypes.JSON `gorm:"column:details" json:"details"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductService) TableName() string { return "product_services" }

// Recompute derives the change fingerprint from the current field values.
// The raw details blob is excluded; only projected columns count.
func (s *ProductService) Recompute() {
	s.Hash = fingerprint.Digest(
		s.UpstreamID, s.Name, s.Kind,
		fingerprint.Int(s.Sequence),
		fingerprint.IntPtr(s.OccupancyAdults), fingerprint.IntPtr(s.OccupancyChildren),
		s.BedConfiguration, fingerprint.Bool(s.Accessible),
	)
}

func (s *ProductService) IdentityKey() string   { return s.UpstreamID }
func (s *ProductService) ContentHash() string   { return s.Hash }
func (s *ProductService) PrimaryKey() uint      { return s.ID }
func (s *ProductService) SetPrimaryKey(id uint) { s.ID = id }

// ProductRate is a pricing window, optionally scoped to one service.
// Rates carry no upstream identity, so the content digest doubles as
// the identity key and reconciliation is pure insert/delete.
type ProductRate struct {
	ID        uint  `gorm:"primarykey" json:"id"`
	ProductID uint  `gorm:"column:product_id;index;not null" json:"product_id"`
	ServiceID *uint `gorm:"column:service_id;index" json:"service_id"`

	// ServiceKey is the upstream id of the owning service, empty for
	// product-level rates. Kept alongside ServiceID so the fingerprint
	// does not depend on local row ids.
	ServiceKey string `gorm:"column:service_key;type:varchar(64)" json:"service_key"`

	PriceFrom *float64 `gorm:"column:price_from" json:"price_from"`
	PriceTo   *float64 `gorm:"column:price_to" json:"price_to"`
	Currency  string   `gorm:"column:currency;type:char(3);default:AUD" json:"currency"`

	ValidFrom *time.Time `gorm:"column:valid_from" json:"valid_from"`
	ValidTo   *time.Time `gorm:"column:valid_to" json:"valid_to"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (ProductRate) TableName() string { return "product_rates" }

// Recompute derives the change fingerprint from the current field values.
func (r *ProductRate) Recompute() {
	r.Hash = fingerprint.Digest(
		r.ServiceKey,
		fingerprint.FloatPtr(r.PriceFrom), fingerprint.FloatPtr(r.PriceTo),
		r.Currency,
		fingerprint.Date(derefTime(r.ValidFrom)), fingerprint.Date(derefTime(r.ValidTo)),
	)
}

func (r *ProductRate) IdentityKey() string   { return r.Hash }
func (r *ProductRate) ContentHash() string   { return r.Hash }
func (r *ProductRate) PrimaryKey() uint      { return r.ID }
func (r *ProductRate) SetPrimaryKey(id uint) { r.ID = id }

// ProductDeal is a time-boxed offer with booking and redemption windows.
type ProductDeal struct {
	ID        uint  `gorm:"primarykey" json:"id"`
	ProductID uint  `gorm:"column:product_id;index;not null" json:"product_id"`
	ServiceID *uint `gorm:"column:service_id;index" json:"service_id"`

	UpstreamID  string   `gorm:"column:upstream_id;type:varchar(64);not null" json:"upstream_id"`
	ServiceKey  string   `gorm:"column:service_key;type:varchar(64)" json:"service_key"`
	Name        string   `gorm:"column:name;type:varchar(255)" json:"name"`
	Description string   `gorm:"column:description;type:text" json:"description"`
	Price       *float64 `gorm:"column:price" json:"price"`

	BookFrom   *time.Time `gorm:"column:book_from" json:"book_from"`
	BookTo     *time.Time `gorm:"column:book_to" json:"book_to"`
	RedeemFrom *time.Time `gorm:"column:redeem_from" json:"redeem_from"`
	RedeemTo   *time.Time `gorm:"column:redeem_to" json:"redeem_to"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductDeal) TableName() string { return "product_deals" }

// Recompute derives the change fingerprint from the current field values.
func (d *ProductDeal) Recompute() {
	d.Hash = fingerprint.Digest(
		d.UpstreamID, d.ServiceKey, d.Name, d.Description,
		fingerprint.FloatPtr(d.Price),
		fingerprint.Date(derefTime(d.BookFrom)), fingerprint.Date(derefTime(d.BookTo)),
		fingerprint.Date(derefTime(d.RedeemFrom)), fingerprint.Date(derefTime(d.RedeemTo)),
	)
}

func (d *ProductDeal) IdentityKey() string   { return d.UpstreamID }
func (d *ProductDeal) ContentHash() string   { return d.Hash }
func (d *ProductDeal) PrimaryKey() uint      { return d.ID }
func (d *ProductDeal) SetPrimaryKey(id uint) { d.ID = id }

// ProductAward is an industry award or accreditation entry.
type ProductAward struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`

	Name     string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Year     string `gorm:"column:year;type:varchar(8)" json:"year"`
	Category string `gorm:"column:category;type:varchar(128)" json:"category"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductAward) TableName() string { return "product_awards" }

// Recompute derives the change fingerprint from the current field values.
func (a *ProductAward) Recompute() {
	a.Hash = fingerprint.Digest(a.Name, a.Year, a.Category)
}

func (a *ProductAward) IdentityKey() string   { return a.Name + "|" + a.Year }
func (a *ProductAward) ContentHash() string   { return a.Hash }
func (a *ProductAward) PrimaryKey() uint      { return a.ID }
func (a *ProductAward) SetPrimaryKey(id uint) { a.ID = id }

// ProductProximity is a nearby landmark (airport, town, attraction).
type ProductProximity struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`

	LandmarkName string   `gorm:"column:landmark_name;type:varchar(255);not null" json:"landmark_name"`
	LandmarkType string   `gorm:"column:landmark_type;type:varchar(64)" json:"landmark_type"`
	DistanceKm   *float64 `gorm:"column:distance_km" json:"distance_km"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductProximity) TableName() string { return "product_proximity" }

// Recompute derives the change fingerprint from the current field values.
func (p *ProductProximity) Recompute() {
	p.Hash = fingerprint.Digest(p.LandmarkName, p.LandmarkType, fingerprint.FloatPtr(p.DistanceKm))
}

func (p *ProductProximity) IdentityKey() string   { return p.LandmarkName + "|" + p.LandmarkType }
func (p *ProductProximity) ContentHash() string   { return p.Hash }
func (p *ProductProximity) PrimaryKey() uint      { return p.ID }
func (p *ProductProximity) SetPrimaryKey(id uint) { p.ID = id }

// ProductRelated links two products. Pairs are stored once in canonical
// (low, high) order regardless of which side reported them; the product
// whose sync inserted the row owns it for vanished-deletion purposes.
type ProductRelated struct {
	ID uint `gorm:"primarykey" json:"id"`

	// OwnerProductID scopes vanished deletion to the inserting product.
	OwnerProductID uint `gorm:"column:owner_product_id;index;not null" json:"owner_product_id"`

	LowUpstreamID  string `gorm:"column:low_upstream_id;type:varchar(64);not null;uniqueIndex:idx_related_pair,priority:1" json:"low_upstream_id"`
	HighUpstreamID string `gorm:"column:high_upstream_id;type:varchar(64);not null;uniqueIndex:idx_related_pair,priority:2" json:"high_upstream_id"`
	Kind           string `gorm:"column:kind;type:varchar(64);not null;uniqueIndex:idx_related_pair,priority:3" json:"kind"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (ProductRelated) TableName() string { return "product_related" }

// NewProductRelated builds a canonical relationship row between two
// upstream ids. Order of a and b does not matter.
func NewProductRelated(ownerProductID uint, a, b, kind string) *ProductRelated {
	low, high := a, b
	if strings.Compare(low, high) > 0 {
		low, high = high, low
	}
	r := &ProductRelated{
		OwnerProductID: ownerProductID,
		LowUpstreamID:  low,
		HighUpstreamID: high,
		Kind:           kind,
	}
	r.Recompute()
	return r
}

// Recompute derives the change fingerprint from the canonical triple.
func (r *ProductRelated) Recompute() {
	r.Hash = fingerprint.Digest(r.LowUpstreamID, r.HighUpstreamID, r.Kind)
}

func (r *ProductRelated) IdentityKey() string {
	return r.LowUpstreamID + "|" + r.HighUpstreamID + "|" + r.Kind
}
func (r *ProductRelated) ContentHash() string   { return r.Hash }
func (r *ProductRelated) PrimaryKey() uint      { return r.ID }
func (r *ProductRelated) SetPrimaryKey(id uint) { r.ID = id }

// ProductComment is a structured operator comment or review entry.
type ProductComment struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`

	Author   string     `gorm:"column:author;type:varchar(128)" json:"author"`
	PostedAt *time.Time `gorm:"column:posted_at" json:"posted_at"`
	Text     string     `gorm:"column:text;type:text" json:"text"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductComment) TableName() string { return "product_comments" }

// Recompute derives the change fingerprint from the current field values.
func (c *ProductComment) Recompute() {
	c.Hash = fingerprint.Digest(c.Author, fingerprint.Time(derefTime(c.PostedAt)), c.Text)
}

func (c *ProductComment) IdentityKey() string {
	return c.Author + "|" + fingerprint.Time(derefTime(c.PostedAt))
}
func (c *ProductComment) ContentHash() string   { return c.Hash }
func (c *ProductComment) PrimaryKey() uint      { return c.ID }
func (c *ProductComment) SetPrimaryKey(id uint) { c.ID = id }

// ProductExternalRef maps the product to an identifier in another
// system, one reference per system.
type ProductExternalRef struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`

	System    string `gorm:"column:system;type:varchar(64);not null" json:"system"`
	Reference string `gorm:"column:reference;type:varchar(255);not null" json:"reference"`

	Hash string `gorm:"column:hash;type:char(64)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProductExternalRef) TableName() string { return "product_external_refs" }

// Recompute derives the change fingerprint from the current field values.
func (e *ProductExternalRef) Recompute() {
	e.Hash = fingerprint.Digest(e.System, e.Reference)
}

func (e *ProductExternalRef) IdentityKey() string   { return e.System }
func (e *ProductExternalRef) ContentHash() string   { return e.Hash }
func (e *ProductExternalRef) PrimaryKey() uint      { return e.ID }
func (e *ProductExternalRef) SetPrimaryKey(id uint) { e.ID = id }

// derefTime unwraps an optional timestamp, zero when absent.
func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
