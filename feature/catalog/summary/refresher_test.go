package summary

import (
	"context"
	"testing"

	"atdw-sync/feature/catalog/changelog"
	"atdw-sync/feature/catalog/media"
	"atdw-sync/feature/catalog/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.MediaAsset{},
		&models.ProductMediaLink{},
		&models.ProductSummary{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()
	p := &models.Product{
		Source:     "atdw",
		UpstreamID: "P1",
		Name:       "Byron Bay Inn",
		Category:   "ACCOMM",
		Status:     models.StatusActive,
		StateName:  "NSW",
		Facets:     datatypes.JSONMap{"wifi": true},
	}
	assert.NoError(t, db.Create(p).Error)
	return p
}

func TestRefreshBuildsSummary(t *testing.T) {
	db := openTestDB(t)
	store := media.NewStore(zap.NewNop())
	r := NewRefresher(db, store, zap.NewNop())
	p := seedProduct(t, db)

	asset, err := store.EnsureAsset(db, models.MediaAsset{Provider: "atdw", URL: "https://img.example.com/hero.jpg"})
	assert.NoError(t, err)
	_, err = store.SyncLinks(db, p.ID, []*models.ProductMediaLink{{AssetID: asset.ID, Ordinal: 1, Role: models.MediaRoleHero}})
	assert.NoError(t, err)

	assert.NoError(t, r.Refresh(context.Background(), p.ID))

	var row models.ProductSummary
	assert.NoError(t, db.Where("product_id = ?", p.ID).First(&row).Error)
	assert.Equal(t, "Byron Bay Inn", row.Name)
	assert.Equal(t, "NSW", row.StateName)
	assert.Equal(t, "https://img.example.com/hero.jpg", row.HeroImageURL)
	assert.Equal(t, true, row.Facets["wifi"])
	assert.False(t, row.RefreshedAt.IsZero())
}

func TestRefreshSwapsExistingRow(t *testing.T) {
	db := openTestDB(t)
	r := NewRefresher(db, media.NewStore(zap.NewNop()), zap.NewNop())
	p := seedProduct(t, db)

	assert.NoError(t, r.Refresh(context.Background(), p.ID))

	// The product changes; the summary row is replaced, not duplicated.
	assert.NoError(t, db.Model(p).Updates(map[string]any{"name": "Byron Bay Motel", "status": models.StatusSoftDeleted}).Error)
	assert.NoError(t, r.Refresh(context.Background(), p.ID))

	var rows []models.ProductSummary
	assert.NoError(t, db.Where("product_id = ?", p.ID).Find(&rows).Error)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Byron Bay Motel", rows[0].Name)
	assert.Equal(t, models.StatusSoftDeleted, rows[0].Status)
}

func TestInvalidateQueuesAndFlushRefreshes(t *testing.T) {
	db := openTestDB(t)
	r := NewRefresher(db, media.NewStore(zap.NewNop()), zap.NewNop())
	p := seedProduct(t, db)

	// Duplicate notifications collapse to one pending rebuild.
	r.Invalidate(changelog.Notification{ProductID: p.ID, Kind: models.ChangeProduct})
	r.Invalidate(changelog.Notification{ProductID: p.ID, Kind: models.ChangeAttrs})
	assert.Equal(t, 1, r.Pending())

	n, err := r.Flush(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, r.Pending())

	var count int64
	assert.NoError(t, db.Model(&models.ProductSummary{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFlushRequeuesFailures(t *testing.T) {
	db := openTestDB(t)
	r := NewRefresher(db, media.NewStore(zap.NewNop()), zap.NewNop())

	// Product 999 does not exist; its refresh fails and is requeued.
	r.Invalidate(changelog.Notification{ProductID: 999, Kind: models.ChangeProduct})

	n, err := r.Flush(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, r.Pending())
}

func TestRefreshAll(t *testing.T) {
	db := openTestDB(t)
	r := NewRefresher(db, media.NewStore(zap.NewNop()), zap.NewNop())

	seedProduct(t, db)
	p2 := &models.Product{Source: "atdw", UpstreamID: "P2", Name: "Garden Tours", Status: models.StatusActive}
	assert.NoError(t, db.Create(p2).Error)

	n, err := r.RefreshAll(context.Background(), 10)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int64
	assert.NoError(t, db.Model(&models.ProductSummary{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
