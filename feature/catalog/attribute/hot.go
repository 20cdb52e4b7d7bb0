package attribute

import (
	"fmt"

	"atdw-sync/core/reconcile"
	"atdw-sync/feature/catalog/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplyValues reconciles a product's attribute value rows to the
// incoming batch inside the caller's transaction, then recomputes the
// hot projection whenever any row was written or removed. The incoming
// batch comes from CoerceBatch, so kinds are already validated.
func (r *Registry) ApplyValues(tx *gorm.DB, product *models.Product, incoming []*models.ProductAttributeValue) (reconcile.Stats, error) {
	for _, row := range incoming {
		row.ProductID = product.ID
	}

	var stored []*models.ProductAttributeValue
	if err := tx.Where("product_id = ?", product.ID).Find(&stored).Error; err != nil {
		return reconcile.Stats{}, fmt.Errorf("load attribute values: %w", err)
	}

	stats, err := reconcile.Sync(tx, stored, incoming, nil)
	if err != nil {
		return stats, err
	}

	if stats.Changed() {
		if err := r.RecomputeHotFields(tx, product); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// RecomputeHotFields rebuilds the product's facet projection by
// re-reading the current attribute rows. The projection is overwritten
// wholesale: a facet whose attribute row vanished is cleared, never
// left stale.
func (r *Registry) RecomputeHotFields(tx *gorm.DB, product *models.Product) error {
	if err := r.ensureLoaded(); err != nil {
		return err
	}

	var rows []*models.ProductAttributeValue
	if err := tx.Where("product_id = ?", product.ID).Find(&rows).Error; err != nil {
		return fmt.Errorf("load attribute values: %w", err)
	}

	facets := datatypes.JSONMap{}
	for _, row := range rows {
		def, ok := r.Lookup(row.Code)
		if !ok || !def.Facet || def.FacetKey == "" {
			continue
		}
		if v := row.Value(); v != nil {
			facets[def.FacetKey] = v
		}
	}

	product.Facets = facets
	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Update("facets", facets).Error; err != nil {
		return fmt.Errorf("write hot projection: %w", err)
	}

	return nil
}
