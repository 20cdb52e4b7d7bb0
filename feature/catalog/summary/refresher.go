package summary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"atdw-sync/feature/catalog/changelog"
	"atdw-sync/feature/catalog/media"
	"atdw-sync/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Refresher rebuilds the read-optimized product summaries. It subscribes
// to change notifications, queues the affected product ids, and rebuilds
// their summary rows in batches outside the write transactions, so
// reconciliation never blocks on projection work.
type Refresher struct {
	db     *gorm.DB
	media  *media.Store
	logger *zap.Logger

	mu      sync.Mutex
	pending map[uint]struct{}
}

// NewRefresher creates a refresher.
func NewRefresher(db *gorm.DB, mediaStore *media.Store, logger *zap.Logger) *Refresher {
	return &Refresher{
		db:      db,
		media:   mediaStore,
		logger:  logger,
		pending: make(map[uint]struct{}),
	}
}

// Invalidate implements changelog.Notifier: any change kind queues the
// product for a summary rebuild. Duplicate notifications collapse into
// one pending entry, which is what makes at-least-once delivery safe.
func (r *Refresher) Invalidate(n changelog.Notification) {
	r.mu.Lock()
	r.pending[n.ProductID] = struct{}{}
	r.mu.Unlock()
}

// Pending returns the number of queued product ids.
func (r *Refresher) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush rebuilds the summary of every queued product and empties the
// queue. Products that fail are logged and requeued for the next flush.
func (r *Refresher) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	ids := make([]uint, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	r.pending = make(map[uint]struct{})
	r.mu.Unlock()

	refreshed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if err := r.Refresh(ctx, id); err != nil {
			r.logger.Error("Summary refresh failed",
				zap.Uint("product_id", id),
				zap.Error(err),
			)
			r.mu.Lock()
			r.pending[id] = struct{}{}
			r.mu.Unlock()
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// Refresh rebuilds one product's summary row. The row is assembled
// completely before a single upsert swaps it in, so readers of the
// previous version are never blocked or shown a half-built row.
func (r *Refresher) Refresh(ctx context.Context, productID uint) error {
	db := r.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		return fmt.Errorf("load product %d: %w", productID, err)
	}

	hero, err := r.media.HeroURL(db, productID)
	if err != nil {
		return err
	}

	row := models.ProductSummary{
		ProductID:    product.ID,
		Name:         product.Name,
		Category:     product.Category,
		Status:       product.Status,
		StateName:    product.StateName,
		RegionName:   product.RegionName,
		CityName:     product.CityName,
		Latitude:     product.Latitude,
		Longitude:    product.Longitude,
		Geohash:      product.Geohash,
		Facets:       product.Facets,
		HeroImageURL: hero,
		RefreshedAt:  time.Now().UTC(),
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "category", "status", "state_name", "region_name",
			"city_name", "latitude", "longitude", "geohash", "facets",
			"hero_image_url", "refreshed_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert summary %d: %w", productID, err)
	}
	return nil
}

// RefreshAll rebuilds every product's summary in batches. Used by the
// refresh command after schema changes or to backfill a new deployment.
func (r *Refresher) RefreshAll(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	refreshed := 0
	var products []models.Product
	result := r.db.WithContext(ctx).Select("id").FindInBatches(&products, batchSize, func(_ *gorm.DB, _ int) error {
		for _, p := range products {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.Refresh(ctx, p.ID); err != nil {
				return err
			}
			refreshed++
		}
		return nil
	})
	if result.Error != nil {
		return refreshed, result.Error
	}
	return refreshed, nil
}
