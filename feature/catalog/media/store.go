package media

import (
	"errors"
	"fmt"
	"strings"

	"atdw-sync/core/reconcile"
	"atdw-sync/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store deduplicates media assets and reconciles per-product links.
type Store struct {
	logger *zap.Logger
}

// NewStore creates a media store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// CanonicalURL normalizes an asset URL for identity comparison: scheme
// and host are lowercased, fragments and trailing slashes dropped.
func CanonicalURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimSuffix(u, "/")

	// Lowercase scheme and host only; the path may be case-sensitive.
	if i := strings.Index(u, "://"); i >= 0 {
		rest := u[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			u = strings.ToLower(u[:i+3]+rest[:j]) + rest[j:]
		} else {
			u = strings.ToLower(u)
		}
	}
	return u
}

// EnsureAsset resolves the asset identified by (provider, canonical URL),
// creating it when absent. Metadata on an existing asset is merged in,
// never destructively overwritten, so a product carrying sparser data
// cannot erase what another product contributed.
func (s *Store) EnsureAsset(tx *gorm.DB, in models.MediaAsset) (*models.MediaAsset, error) {
	in.URL = CanonicalURL(in.URL)
	if in.Provider == "" || in.URL == "" {
		return nil, fmt.Errorf("ensure asset: provider and url are required")
	}

	var asset models.MediaAsset
	err := tx.Where("provider = ? AND url = ?", in.Provider, in.URL).First(&asset).Error
	switch {
	case err == nil:
		if asset.Merge(in) {
			if err := tx.Save(&asset).Error; err != nil {
				return nil, fmt.Errorf("merge asset %s: %w", in.URL, err)
			}
		}
		return &asset, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		// Two workers may race on first sighting; the unique index on
		// (provider, url) makes one insert win and the loser re-reads.
		create := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "url"}},
			DoNothing: true,
		}).Create(&in)
		if create.Error != nil {
			return nil, fmt.Errorf("create asset %s: %w", in.URL, create.Error)
		}
		if err := tx.Where("provider = ? AND url = ?", in.Provider, in.URL).First(&asset).Error; err != nil {
			return nil, fmt.Errorf("reload asset %s: %w", in.URL, err)
		}
		return &asset, nil

	default:
		return nil, fmt.Errorf("lookup asset %s: %w", in.URL, err)
	}
}

// SyncLinks converges the product's media links to the incoming set.
// Vanished links are removed; the shared assets they pointed at are
// left untouched.
func (s *Store) SyncLinks(tx *gorm.DB, productID uint, incoming []*models.ProductMediaLink) (reconcile.Stats, error) {
	for _, link := range incoming {
		link.ProductID = productID
		link.Recompute()
	}

	var stored []*models.ProductMediaLink
	if err := tx.Where("product_id = ?", productID).Find(&stored).Error; err != nil {
		return reconcile.Stats{}, fmt.Errorf("load media links: %w", err)
	}

	return reconcile.Sync(tx, stored, incoming, nil)
}

// HeroURL picks the product's representative image: the lowest-ordinal
// hero link, falling back to the lowest-ordinal link of any role. Empty
// when the product has no media.
func (s *Store) HeroURL(tx *gorm.DB, productID uint) (string, error) {
	type row struct {
		URL  string
		Role string
	}

	var rows []row
	err := tx.Model(&models.ProductMediaLink{}).
		Select("media_assets.url AS url, product_media_links.role AS role").
		Joins("JOIN media_assets ON media_assets.id = product_media_links.asset_id").
		Where("product_media_links.product_id = ?", productID).
		Order("product_media_links.ordinal").
		Scan(&rows).Error
	if err != nil {
		return "", fmt.Errorf("load hero image: %w", err)
	}

	for _, r := range rows {
		if r.Role == models.MediaRoleHero {
			return r.URL, nil
		}
	}
	if len(rows) > 0 {
		return rows[0].URL, nil
	}
	return "", nil
}
