package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"atdw-sync/core/fingerprint"
	"atdw-sync/core/reconcile"
	"atdw-sync/feature/catalog/archive"
	"atdw-sync/feature/catalog/attribute"
	"atdw-sync/feature/catalog/changelog"
	"atdw-sync/feature/catalog/media"
	"atdw-sync/feature/catalog/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// errUnknownServiceKey rejects a rate or deal whose service reference
// does not resolve against the product's reconciled service set.
var errUnknownServiceKey = errors.New("unknown service key")

// Engine applies one upstream record at a time: fingerprint, classify,
// then converge the product and every owned collection inside a single
// transaction. Safe for concurrent use across distinct products; the
// runner serializes concurrent applies of the same upstream id.
type Engine struct {
	db       *gorm.DB
	registry *attribute.Registry
	media    *media.Store
	log      *changelog.Log

	// archive is optional; nil disables raw payload snapshots.
	archive *archive.Archive

	logger    *zap.Logger
	source    string
	retention int
}

// NewEngine wires the per-product reconciliation pipeline.
func NewEngine(db *gorm.DB, registry *attribute.Registry, mediaStore *media.Store, changeLog *changelog.Log, arch *archive.Archive, logger *zap.Logger, cfg Config) *Engine {
	return &Engine{
		db:        db,
		registry:  registry,
		media:     mediaStore,
		log:       changeLog,
		archive:   arch,
		logger:    logger,
		source:    cfg.Source,
		retention: cfg.SnapshotRetention,
	}
}

// BatchError records a sub-entity batch that was rejected while the
// rest of the product committed.
type BatchError struct {
	// Concern names the rejected collection.
	Concern string `json:"concern"`

	// Err is the rejection cause.
	Err error `json:"-"`
}

// Result describes what applying one record did.
type Result struct {
	UpstreamID     string         `json:"upstream_id"`
	ProductID      uint           `json:"product_id"`
	Classification Classification `json:"classification"`

	// Stats holds per-collection mutation counts, keyed by concern.
	Stats map[string]reconcile.Stats `json:"stats,omitempty"`

	// Changed lists the change-log kinds appended this pass.
	Changed []string `json:"changed,omitempty"`

	// BatchErrors lists sub-entity batches rejected while the rest of
	// the product committed.
	BatchErrors []BatchError `json:"batch_errors,omitempty"`
}

// Apply reconciles one upstream record. Unchanged records short-circuit
// without any write. Inactive and expired records only flip the stored
// status. Active records converge the header and every owned collection
// transactionally, append change-log entries for mutated concerns, and
// dispatch notifications after commit.
func (e *Engine) Apply(ctx context.Context, rec *ProductRecord) (*Result, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	stored, err := e.lookup(ctx, rec.UpstreamID)
	if err != nil {
		return nil, &TransactionError{UpstreamID: rec.UpstreamID, CorrelationID: uuid.NewString(), Err: err}
	}

	if rec.Status != UpstreamActive {
		return e.applyStatus(ctx, rec, stored)
	}

	// Coercion runs before the transaction: an invalid batch rejects
	// only the attributes while the rest of the product proceeds, and
	// discovery-mode definition writes stay outside the product scope.
	attrRows, attrErr := e.registry.CoerceBatch(rec.Attributes)

	b := build(e.source, rec)
	coreHash := coreDigest(b)
	mediaHash := mediaSetDigest(rec.Media)
	attrsHash := attrsSetDigest(attrRows)
	if attrErr != nil {
		// The incoming batch is unusable, so the stored attribute state
		// is carried forward and must not register as a change.
		if stored != nil {
			attrsHash = stored.AttrsHash
		} else {
			attrsHash = attrsSetDigest(nil)
		}
	}

	res := &Result{
		UpstreamID:     rec.UpstreamID,
		Classification: classify(rec.Status, stored, coreHash, mediaHash, attrsHash),
		Stats:          map[string]reconcile.Stats{},
	}
	if attrErr != nil {
		res.BatchErrors = append(res.BatchErrors, BatchError{Concern: "attributes", Err: attrErr})
		e.logger.Warn("Attribute batch rejected",
			zap.String("upstream_id", rec.UpstreamID),
			zap.Error(attrErr),
		)
	}

	if res.Classification == ClassificationUnchanged {
		res.ProductID = stored.ID
		return res, nil
	}

	notes, err := e.applyFull(ctx, rec, b, stored, coreHash, mediaHash, attrsHash, attrRows, attrErr == nil, res)
	if err != nil {
		return res, &TransactionError{UpstreamID: rec.UpstreamID, CorrelationID: uuid.NewString(), Err: err}
	}

	e.archiveRaw(ctx, rec, coreHash)
	e.log.Dispatch(notes)
	return res, nil
}

// lookup loads the stored product, nil when this is a first sighting.
func (e *Engine) lookup(ctx context.Context, upstreamID string) (*models.Product, error) {
	var stored models.Product
	err := e.db.WithContext(ctx).
		Where("source = ? AND upstream_id = ?", e.source, upstreamID).
		First(&stored).Error
	switch {
	case err == nil:
		return &stored, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("lookup product %s: %w", upstreamID, err)
	}
}

// applyStatus handles inactive and expired records. The product row is
// never removed and no owned row is touched; only the status flips,
// with a change-log entry when it actually moved.
func (e *Engine) applyStatus(ctx context.Context, rec *ProductRecord, stored *models.Product) (*Result, error) {
	class := ClassificationSoftDeleted
	if rec.Status == UpstreamExpired {
		class = ClassificationExpired
	}
	res := &Result{
		UpstreamID:     rec.UpstreamID,
		Classification: class,
		Stats:          map[string]reconcile.Stats{},
	}

	target := localStatus(rec.Status)
	now := time.Now().UTC()

	if stored == nil {
		// First sighting arrives already inactive: keep a header row so
		// audit and a later reactivation have an anchor. No owned rows
		// are created for it.
		b := build(e.source, rec)
		header := b.header
		header.CoreHash = coreDigest(b)
		header.MediaHash = mediaSetDigest(rec.Media)
		header.FirstSeenAt = now
		header.LastSeenAt = now
		header.LastSyncedAt = now
		header.StatusChangedAt = &now
		if len(rec.Raw) > 0 {
			header.RawPayload = datatypes.JSON(rec.Raw)
		}

		var notes []changelog.Notification
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(header).Error; err != nil {
				return fmt.Errorf("create product header: %w", err)
			}
			if err := e.log.Append(tx, header.ID, models.ChangeProduct, header.CoreHash); err != nil {
				return err
			}
			notes = append(notes, changelog.Notification{ProductID: header.ID, Kind: models.ChangeProduct})
			return nil
		})
		if err != nil {
			return res, &TransactionError{UpstreamID: rec.UpstreamID, CorrelationID: uuid.NewString(), Err: err}
		}

		res.ProductID = header.ID
		res.Changed = append(res.Changed, models.ChangeProduct)
		e.archiveRaw(ctx, rec, header.CoreHash)
		e.log.Dispatch(notes)
		return res, nil
	}

	res.ProductID = stored.ID
	if stored.Status == target {
		return res, nil
	}

	var notes []changelog.Notification
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":            target,
			"status_changed_at": now,
			"last_seen_at":      now,
			"last_synced_at":    now,
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", stored.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("flip product status: %w", err)
		}
		if err := e.log.Append(tx, stored.ID, models.ChangeProduct, stored.CoreHash); err != nil {
			return err
		}
		notes = append(notes, changelog.Notification{ProductID: stored.ID, Kind: models.ChangeProduct})
		return nil
	})
	if err != nil {
		return res, &TransactionError{UpstreamID: rec.UpstreamID, CorrelationID: uuid.NewString(), Err: err}
	}

	res.Changed = append(res.Changed, models.ChangeProduct)
	e.log.Dispatch(notes)
	return res, nil
}

// applyFull converges the whole product inside one transaction. Data
// conflicts reject only their own collection batch; infrastructure
// errors roll the entire product back.
func (e *Engine) applyFull(
	ctx context.Context,
	rec *ProductRecord,
	b *built,
	stored *models.Product,
	coreHash, mediaHash, attrsHash string,
	attrRows []*models.ProductAttributeValue,
	applyAttrs bool,
	res *Result,
) ([]changelog.Notification, error) {
	now := time.Now().UTC()
	header := b.header
	if stored != nil {
		header.ID = stored.ID
		header.CreatedAt = stored.CreatedAt
		header.FirstSeenAt = stored.FirstSeenAt
		header.Facets = stored.Facets
		header.StatusChangedAt = stored.StatusChangedAt
		if stored.Status != header.Status {
			header.StatusChangedAt = &now
		}
	} else {
		header.FirstSeenAt = now
		header.StatusChangedAt = &now
	}
	header.LastSeenAt = now
	header.LastSyncedAt = now
	header.CoreHash = coreHash
	header.MediaHash = mediaHash
	header.AttrsHash = attrsHash
	if len(rec.Raw) > 0 {
		header.RawPayload = datatypes.JSON(rec.Raw)
	}

	var notes []changelog.Notification
	txErr := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Unconditional header overwrite; the change log below decides
		// whether anything noteworthy happened.
		if err := tx.Save(header).Error; err != nil {
			return fmt.Errorf("save product header: %w", err)
		}
		pid := header.ID
		res.ProductID = pid

		// runBatch applies one collection. A data conflict rejects just
		// that batch; anything else aborts the product.
		rejected := map[string]bool{}
		runBatch := func(concern string, fn func() (reconcile.Stats, error)) error {
			stats, err := fn()
			if err != nil {
				var conflict *reconcile.ConflictError
				if errors.As(err, &conflict) || errors.Is(err, errUnknownServiceKey) {
					rejected[concern] = true
					res.BatchErrors = append(res.BatchErrors, BatchError{Concern: concern, Err: err})
					e.logger.Warn("Sub-entity batch rejected",
						zap.String("upstream_id", rec.UpstreamID),
						zap.String("concern", concern),
						zap.Error(err),
					)
					return nil
				}
				return fmt.Errorf("%s: %w", concern, err)
			}
			res.Stats[concern] = stats
			return nil
		}

		if err := runBatch("addresses", func() (reconcile.Stats, error) {
			return syncOwned(tx, pid, b.addresses, func(r *models.ProductAddress) { r.ProductID = pid }, nil)
		}); err != nil {
			return err
		}
		if err := runBatch("communications", func() (reconcile.Stats, error) {
			return syncOwned(tx, pid, b.comms, func(r *models.ProductCommunication) { r.ProductID = pid }, nil)
		}); err != nil {
			return err
		}
		if err := runBatch("awards", func() (reconcile.Stats, error) {
			return syncOwned(tx, pid, b.awards, func(r *models.ProductAward) { r.ProductID = pid }, nil)
		}); err != nil {
			return err
		}
		if err := runBatch("proximity", func() (reconcile.Stats, error) {
			return syncOwned(tx, pid, b.proximity, func(r *models.ProductProximity) { r.ProductID = pid }, nil)
		}); err != nil {
			return err
		}
		if err := runBatch("comments", func() (reconcile.Stats, error) {
			return syncOwned(tx, pid, b.comments, func(r *models.ProductComment) { r.ProductID = pid }, nil)
		}); err != nil {
			return err
		}
		if err := runBatch("external_refs", func() (reconcile.Stats, error) {
			return syncOwned(tx, pid, b.extRefs, func(r *models.ProductExternalRef) { r.ProductID = pid }, nil)
		}); err != nil {
			return err
		}
		if err := runBatch("related", func() (reconcile.Stats, error) {
			return syncRelated(tx, pid, rec.UpstreamID, b.related)
		}); err != nil {
			return err
		}

		// Services cascade their dependent rates and deals on vanish, so
		// a removed service never strands a pricing row.
		if err := runBatch("services", func() (reconcile.Stats, error) {
			return syncOwned(tx, pid, b.services,
				func(r *models.ProductService) { r.ProductID = pid },
				func(tx *gorm.DB, doomed *models.ProductService) error {
					if err := tx.Where("service_id = ?", doomed.ID).Delete(&models.ProductRate{}).Error; err != nil {
						return err
					}
					return tx.Where("service_id = ?", doomed.ID).Delete(&models.ProductDeal{}).Error
				})
		}); err != nil {
			return err
		}

		if _, servicesOK := res.Stats["services"]; servicesOK {
			svcIDs, err := serviceIDs(tx, pid)
			if err != nil {
				return err
			}
			resolve := func(key string) (*uint, error) {
				if key == "" {
					return nil, nil
				}
				id, ok := svcIDs[key]
				if !ok {
					return nil, fmt.Errorf("service key %q: %w", key, errUnknownServiceKey)
				}
				return &id, nil
			}

			if err := runBatch("rates", func() (reconcile.Stats, error) {
				for _, r := range b.rates {
					sid, err := resolve(r.ServiceKey)
					if err != nil {
						return reconcile.Stats{}, err
					}
					r.ServiceID = sid
				}
				return syncOwned(tx, pid, b.rates, func(r *models.ProductRate) { r.ProductID = pid }, nil)
			}); err != nil {
				return err
			}
			if err := runBatch("deals", func() (reconcile.Stats, error) {
				for _, d := range b.deals {
					sid, err := resolve(d.ServiceKey)
					if err != nil {
						return reconcile.Stats{}, err
					}
					d.ServiceID = sid
				}
				return syncOwned(tx, pid, b.deals, func(r *models.ProductDeal) { r.ProductID = pid }, nil)
			}); err != nil {
				return err
			}
		} else {
			// A rejected service batch leaves the stored service set
			// stale, so rates and deals wait for the next pass rather
			// than resolve against it.
			e.logger.Warn("Rates and deals skipped after service batch rejection",
				zap.String("upstream_id", rec.UpstreamID),
			)
		}

		if err := runBatch("media", func() (reconcile.Stats, error) {
			links, err := e.buildLinks(tx, rec.Media)
			if err != nil {
				return reconcile.Stats{}, err
			}
			return e.media.SyncLinks(tx, pid, links)
		}); err != nil {
			return err
		}

		if applyAttrs {
			if err := runBatch("attributes", func() (reconcile.Stats, error) {
				return e.registry.ApplyValues(tx, header, attrRows)
			}); err != nil {
				return err
			}
		}

		// A rejected batch wrote nothing: conflicts are detected at plan
		// time, before any row lands. The fingerprints saved with the
		// header must fall back to what the store actually holds, or the
		// next identical pass would classify unchanged and the stale
		// collection would never reconverge.
		coreRejected := false
		for _, concern := range []string{
			"addresses", "communications", "awards", "proximity",
			"comments", "external_refs", "related",
			"services", "rates", "deals",
		} {
			if rejected[concern] {
				coreRejected = true
				break
			}
		}
		reverts := map[string]any{}
		if coreRejected {
			header.CoreHash = ""
			if stored != nil {
				header.CoreHash = stored.CoreHash
			}
			reverts["core_hash"] = header.CoreHash
		}
		if rejected["media"] {
			header.MediaHash = mediaSetDigest(nil)
			if stored != nil {
				header.MediaHash = stored.MediaHash
			}
			reverts["media_hash"] = header.MediaHash
		}
		if rejected["attributes"] {
			header.AttrsHash = attrsSetDigest(nil)
			if stored != nil {
				header.AttrsHash = stored.AttrsHash
			}
			reverts["attrs_hash"] = header.AttrsHash
		}
		if len(reverts) > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ?", pid).Updates(reverts).Error; err != nil {
				return fmt.Errorf("revert fingerprints: %w", err)
			}
		}

		record := func(kind, payload string) error {
			if err := e.log.Append(tx, pid, kind, payload); err != nil {
				return err
			}
			res.Changed = append(res.Changed, kind)
			notes = append(notes, changelog.Notification{ProductID: pid, Kind: kind})
			return nil
		}

		// One change-log entry per mutated concern. The auxiliary
		// collections fold into the product concern.
		auxChanged := res.Stats["addresses"].Changed() ||
			res.Stats["communications"].Changed() ||
			res.Stats["awards"].Changed() ||
			res.Stats["proximity"].Changed() ||
			res.Stats["related"].Changed() ||
			res.Stats["comments"].Changed() ||
			res.Stats["external_refs"].Changed()

		productChanged := stored == nil || stored.Status != header.Status || auxChanged
		if !productChanged {
			if coreRejected {
				// The core hash folds in the rejected collection, so it
				// cannot say whether anything applied moved. The header
				// projection alone can.
				productChanged = fingerprint.Digest(stored.CoreProjection()...) != fingerprint.Digest(header.CoreProjection()...)
			} else {
				productChanged = stored.CoreHash != coreHash
			}
		}
		if productChanged {
			if err := record(models.ChangeProduct, coreHash); err != nil {
				return err
			}
		}
		if res.Stats["services"].Changed() {
			if err := record(models.ChangeServices, setOf(b.services)); err != nil {
				return err
			}
		}
		if res.Stats["rates"].Changed() {
			if err := record(models.ChangeRates, setOf(b.rates)); err != nil {
				return err
			}
		}
		if res.Stats["deals"].Changed() {
			if err := record(models.ChangeDeals, setOf(b.deals)); err != nil {
				return err
			}
		}
		// The hash arm catches asset-metadata-only changes, which never
		// move a link row. It only speaks for an applied batch.
		if res.Stats["media"].Changed() || (stored != nil && !rejected["media"] && stored.MediaHash != mediaHash) {
			if err := record(models.ChangeMedia, mediaHash); err != nil {
				return err
			}
		}
		if res.Stats["attributes"].Changed() {
			if err := record(models.ChangeAttrs, attrsHash); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return notes, nil
}

// syncOwned converges one owned collection: claim stamps the parent id
// on each incoming row, stored rows load from the transaction, and the
// reconciler plans and applies the difference.
func syncOwned[T reconcile.Row](tx *gorm.DB, productID uint, incoming []T, claim func(T), cascade reconcile.CascadeFunc[T]) (reconcile.Stats, error) {
	for _, row := range incoming {
		claim(row)
	}
	var stored []T
	if err := tx.Where("product_id = ?", productID).Find(&stored).Error; err != nil {
		return reconcile.Stats{}, fmt.Errorf("load stored rows: %w", err)
	}
	return reconcile.Sync(tx, stored, incoming, cascade)
}

// syncRelated converges the relationship rows this product owns. Pairs
// already recorded by the mirror product's sync are filtered from the
// incoming set, and vanished-deletion only considers owned rows, so a
// pair is stored once no matter which side reports it.
func syncRelated(tx *gorm.DB, productID uint, upstreamID string, incoming []*models.ProductRelated) (reconcile.Stats, error) {
	var involving []*models.ProductRelated
	if err := tx.Where("low_upstream_id = ? OR high_upstream_id = ?", upstreamID, upstreamID).Find(&involving).Error; err != nil {
		return reconcile.Stats{}, fmt.Errorf("load related links: %w", err)
	}

	owned := make([]*models.ProductRelated, 0, len(involving))
	foreign := make(map[string]struct{})
	for _, row := range involving {
		if row.OwnerProductID == productID {
			owned = append(owned, row)
		} else {
			foreign[row.IdentityKey()] = struct{}{}
		}
	}

	mine := make([]*models.ProductRelated, 0, len(incoming))
	for _, row := range incoming {
		if _, taken := foreign[row.IdentityKey()]; taken {
			continue
		}
		row.OwnerProductID = productID
		mine = append(mine, row)
	}

	return reconcile.Sync(tx, owned, mine, nil)
}

// serviceIDs maps the product's reconciled service keys to row ids.
func serviceIDs(tx *gorm.DB, productID uint) (map[string]uint, error) {
	var rows []models.ProductService
	if err := tx.Select("id", "upstream_id").Where("product_id = ?", productID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load service ids: %w", err)
	}
	ids := make(map[string]uint, len(rows))
	for _, r := range rows {
		ids[r.UpstreamID] = r.ID
	}
	return ids, nil
}

// buildLinks resolves each media record to a deduplicated asset and
// produces the link rows to reconcile. Records without a URL are
// dropped; the upstream feed occasionally emits empty entries.
func (e *Engine) buildLinks(tx *gorm.DB, records []MediaRecord) ([]*models.ProductMediaLink, error) {
	links := make([]*models.ProductMediaLink, 0, len(records))
	for i, m := range records {
		if strings.TrimSpace(m.URL) == "" {
			continue
		}
		provider := m.Provider
		if provider == "" {
			provider = e.source
		}
		asset, err := e.media.EnsureAsset(tx, models.MediaAsset{
			Provider:     provider,
			URL:          m.URL,
			AltText:      m.AltText,
			Caption:      m.Caption,
			Copyright:    m.Copyright,
			Photographer: m.Photographer,
			Width:        m.Width,
			Height:       m.Height,
		})
		if err != nil {
			return nil, err
		}

		ordinal := m.Ordinal
		if ordinal == 0 {
			ordinal = i + 1
		}
		role := m.Role
		if role == "" {
			role = models.MediaRoleGallery
		}
		links = append(links, &models.ProductMediaLink{
			AssetID: asset.ID,
			Ordinal: ordinal,
			Role:    role,
		})
	}
	return links, nil
}

// archiveRaw snapshots the raw payload after commit. Archive failures
// are logged, never propagated: the committed product is authoritative
// and the snapshot is audit material.
func (e *Engine) archiveRaw(ctx context.Context, rec *ProductRecord, coreHash string) {
	if e.archive == nil || len(rec.Raw) == 0 {
		return
	}
	if err := e.archive.Store(ctx, e.source, rec.UpstreamID, coreHash, rec.Raw); err != nil {
		e.logger.Warn("Raw snapshot archive failed",
			zap.String("upstream_id", rec.UpstreamID),
			zap.Error(err),
		)
		return
	}
	if e.retention > 0 {
		if _, err := e.archive.Prune(ctx, e.source, rec.UpstreamID, e.retention); err != nil {
			e.logger.Warn("Raw snapshot prune failed",
				zap.String("upstream_id", rec.UpstreamID),
				zap.Error(err),
			)
		}
	}
}
