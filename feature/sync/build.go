package sync

import (
	"atdw-sync/feature/catalog/models"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// built holds the model rows constructed from one upstream record,
// before any of them touch the database. Construction is pure so the
// digests can be computed and compared ahead of the write transaction.
type built struct {
	header    *models.Product
	addresses []*models.ProductAddress
	comms     []*models.ProductCommunication
	services  []*models.ProductService
	rates     []*models.ProductRate
	deals     []*models.ProductDeal
	awards    []*models.ProductAward
	proximity []*models.ProductProximity
	related   []*models.ProductRelated
	comments  []*models.ProductComment
	extRefs   []*models.ProductExternalRef
}

// localStatus maps the feed's coarse status onto the stored lifecycle.
func localStatus(upstream string) string {
	switch upstream {
	case UpstreamInactive:
		return models.StatusSoftDeleted
	case UpstreamExpired:
		return models.StatusExpired
	default:
		return models.StatusActive
	}
}

// build constructs every owned row from the record. Product ids are
// left zero; the engine assigns them after the header upsert.
func build(source string, rec *ProductRecord) *built {
	b := &built{
		header: &models.Product{
			Source:         source,
			UpstreamID:     rec.UpstreamID,
			Name:           rec.Name,
			Description:    rec.Description,
			Category:       rec.Category,
			Classification: rec.Classification,
			Status:         localStatus(rec.Status),
			StateName:      rec.StateName,
			RegionName:     rec.RegionName,
			CityName:       rec.CityName,
			Latitude:       rec.Latitude,
			Longitude:      rec.Longitude,
		},
	}
	b.header.RecomputePoint()

	for _, a := range rec.Addresses {
		row := &models.ProductAddress{
			Purpose:   a.Purpose,
			Line1:     a.Line1,
			Line2:     a.Line2,
			Line3:     a.Line3,
			City:      a.City,
			State:     a.State,
			Postcode:  a.Postcode,
			Country:   a.Country,
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
		}
		row.Recompute()
		b.addresses = append(b.addresses, row)
	}

	for _, c := range rec.Communications {
		row := &models.ProductCommunication{Kind: c.Kind, Value: c.Value}
		row.Recompute()
		b.comms = append(b.comms, row)
	}

	for i, s := range rec.Services {
		row := &models.ProductService{
			UpstreamID:        s.UpstreamID,
			Name:              s.Name,
			Kind:              s.Kind,
			Sequence:          s.Sequence,
			OccupancyAdults:   s.OccupancyAdults,
			OccupancyChildren: s.OccupancyChildren,
			BedConfiguration:  s.BedConfiguration,
			Accessible:        s.Accessible,
		}
		if row.Sequence == 0 {
			row.Sequence = i + 1
		}
		if len(s.Details) > 0 {
			if blob, err := json.Marshal(s.Details); err == nil {
				row.Details = datatypes.JSON(blob)
			}
		}
		row.Recompute()
		b.services = append(b.services, row)
	}

	for _, r := range rec.Rates {
		row := &models.ProductRate{
			ServiceKey: r.ServiceKey,
			PriceFrom:  r.PriceFrom,
			PriceTo:    r.PriceTo,
			Currency:   r.Currency,
			ValidFrom:  r.ValidFrom,
			ValidTo:    r.ValidTo,
		}
		if row.Currency == "" {
			row.Currency = "AUD"
		}
		row.Recompute()
		b.rates = append(b.rates, row)
	}

	for _, d := range rec.Deals {
		row := &models.ProductDeal{
			UpstreamID:  d.UpstreamID,
			ServiceKey:  d.ServiceKey,
			Name:        d.Name,
			Description: d.Description,
			Price:       d.Price,
			BookFrom:    d.BookFrom,
			BookTo:      d.BookTo,
			RedeemFrom:  d.RedeemFrom,
			RedeemTo:    d.RedeemTo,
		}
		row.Recompute()
		b.deals = append(b.deals, row)
	}

	for _, a := range rec.Awards {
		row := &models.ProductAward{Name: a.Name, Year: a.Year, Category: a.Category}
		row.Recompute()
		b.awards = append(b.awards, row)
	}

	for _, p := range rec.Proximity {
		row := &models.ProductProximity{
			LandmarkName: p.LandmarkName,
			LandmarkType: p.LandmarkType,
			DistanceKm:   p.DistanceKm,
		}
		row.Recompute()
		b.proximity = append(b.proximity, row)
	}

	for _, r := range rec.Related {
		if r.UpstreamID == "" || r.UpstreamID == rec.UpstreamID {
			continue
		}
		b.related = append(b.related, models.NewProductRelated(0, rec.UpstreamID, r.UpstreamID, r.Kind))
	}

	for _, c := range rec.Comments {
		row := &models.ProductComment{Author: c.Author, PostedAt: c.PostedAt, Text: c.Text}
		row.Recompute()
		b.comments = append(b.comments, row)
	}

	for _, e := range rec.ExternalRefs {
		row := &models.ProductExternalRef{System: e.System, Reference: e.Reference}
		row.Recompute()
		b.extRefs = append(b.extRefs, row)
	}

	return b
}
