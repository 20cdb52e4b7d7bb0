package attribute

import (
	"testing"

	"atdw-sync/feature/catalog/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()
	p := &models.Product{Source: "atdw", UpstreamID: "P1", Name: "Byron Bay Inn", Status: models.StatusActive}
	assert.NoError(t, db.Create(p).Error)
	return p
}

func TestApplyValuesSetsHotFacet(t *testing.T) {
	r, db := newTestRegistry(t, ModeStrict)
	_, err := r.Define("ENTITY FAC__WIFI", "WiFi", models.KindBool, true, "wifi")
	assert.NoError(t, err)
	p := seedProduct(t, db)

	rows, err := r.CoerceBatch(map[string]any{"ENTITY FAC__WIFI": true})
	assert.NoError(t, err)

	stats, err := r.ApplyValues(db, p, rows)
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, true, p.Facets["wifi"])

	var stored models.Product
	assert.NoError(t, db.First(&stored, p.ID).Error)
	assert.Equal(t, true, stored.Facets["wifi"])
}

func TestApplyValuesIdempotent(t *testing.T) {
	r, db := newTestRegistry(t, ModeStrict)
	_, err := r.Define("ENTITY FAC__WIFI", "WiFi", models.KindBool, true, "wifi")
	assert.NoError(t, err)
	p := seedProduct(t, db)

	rows, err := r.CoerceBatch(map[string]any{"ENTITY FAC__WIFI": true})
	assert.NoError(t, err)
	_, err = r.ApplyValues(db, p, rows)
	assert.NoError(t, err)

	again, err := r.CoerceBatch(map[string]any{"ENTITY FAC__WIFI": true})
	assert.NoError(t, err)
	stats, err := r.ApplyValues(db, p, again)
	assert.NoError(t, err)
	assert.False(t, stats.Changed())
	assert.Equal(t, 1, stats.Skipped)
}

func TestApplyValuesRemovalClearsHotFacet(t *testing.T) {
	r, db := newTestRegistry(t, ModeStrict)
	_, err := r.Define("ENTITY FAC__WIFI", "WiFi", models.KindBool, true, "wifi")
	assert.NoError(t, err)
	p := seedProduct(t, db)

	rows, err := r.CoerceBatch(map[string]any{"ENTITY FAC__WIFI": true})
	assert.NoError(t, err)
	_, err = r.ApplyValues(db, p, rows)
	assert.NoError(t, err)
	assert.Equal(t, true, p.Facets["wifi"])

	// The attribute vanished from the incoming record.
	stats, err := r.ApplyValues(db, p, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)

	// The row is gone and the facet is cleared, not left stale.
	var count int64
	assert.NoError(t, db.Model(&models.ProductAttributeValue{}).Where("product_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)

	var stored models.Product
	assert.NoError(t, db.First(&stored, p.ID).Error)
	_, present := stored.Facets["wifi"]
	assert.False(t, present)
}

func TestApplyValuesValueChangeUpdatesRow(t *testing.T) {
	r, db := newTestRegistry(t, ModeStrict)
	_, err := r.Define("ENTITY FAC__RATING", "Star rating", models.KindNumeric, true, "rating")
	assert.NoError(t, err)
	p := seedProduct(t, db)

	rows, err := r.CoerceBatch(map[string]any{"ENTITY FAC__RATING": 4.0})
	assert.NoError(t, err)
	_, err = r.ApplyValues(db, p, rows)
	assert.NoError(t, err)

	rows, err = r.CoerceBatch(map[string]any{"ENTITY FAC__RATING": 4.5})
	assert.NoError(t, err)
	stats, err := r.ApplyValues(db, p, rows)
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 4.5, p.Facets["rating"])

	// Still exactly one row for the (product, code) pair.
	var count int64
	assert.NoError(t, db.Model(&models.ProductAttributeValue{}).Where("product_id = ?", p.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecomputeHotFieldsIgnoresNonFacets(t *testing.T) {
	r, db := newTestRegistry(t, ModeStrict)
	_, err := r.Define("ENTITY FAC__CHECKIN", "Check-in time", models.KindText, false, "")
	assert.NoError(t, err)
	p := seedProduct(t, db)

	rows, err := r.CoerceBatch(map[string]any{"ENTITY FAC__CHECKIN": "14:00"})
	assert.NoError(t, err)
	_, err = r.ApplyValues(db, p, rows)
	assert.NoError(t, err)

	assert.Empty(t, p.Facets)
}
