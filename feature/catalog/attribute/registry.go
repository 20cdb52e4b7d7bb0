package attribute

import (
	"fmt"
	"sync"

	"atdw-sync/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Registry modes for unknown incoming attribute codes.
const (
	// ModeStrict rejects unknown codes; definitions must be registered
	// in advance. The production default.
	ModeStrict = "strict"

	// ModeDiscover auto-registers unknown codes with a kind inferred
	// from the first value seen, marked Discovered for later curation.
	ModeDiscover = "discover"
)

// Registry is the attribute dictionary: code to definition, with typed
// value coercion and the product hot-field projection. It is injected
// into the sync engine rather than accessed as a global so tests can
// substitute a fixed dictionary.
type Registry struct {
	db     *gorm.DB
	logger *zap.Logger
	mode   string

	mu   sync.RWMutex
	byCode map[string]models.AttributeDefinition
}

// NewRegistry creates a registry in the given mode. Definitions load
// lazily on first use.
func NewRegistry(db *gorm.DB, logger *zap.Logger, mode string) *Registry {
	if mode != ModeDiscover {
		mode = ModeStrict
	}
	return &Registry{db: db, logger: logger, mode: mode}
}

// Mode returns the configured unknown-code policy.
func (r *Registry) Mode() string {
	return r.mode
}

// ensureLoaded populates the in-memory index from the database once.
func (r *Registry) ensureLoaded() error {
	r.mu.RLock()
	loaded := r.byCode != nil
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byCode != nil {
		return nil
	}

	var defs []models.AttributeDefinition
	if err := r.db.Find(&defs).Error; err != nil {
		return fmt.Errorf("load attribute definitions: %w", err)
	}

	index := make(map[string]models.AttributeDefinition, len(defs))
	for _, d := range defs {
		index[d.Code] = d
	}
	r.byCode = index
	return nil
}

// Lookup returns the definition for a code.
func (r *Registry) Lookup(code string) (models.AttributeDefinition, bool) {
	if err := r.ensureLoaded(); err != nil {
		r.logger.Error("Attribute registry load failed", zap.Error(err))
		return models.AttributeDefinition{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byCode[code]
	return def, ok
}

// List returns all definitions ordered by code.
func (r *Registry) List() ([]models.AttributeDefinition, error) {
	var defs []models.AttributeDefinition
	if err := r.db.Order("code").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("list attribute definitions: %w", err)
	}
	return defs, nil
}

// Define registers a definition or updates an existing one in place.
// The value kind must be one of the supported kinds.
func (r *Registry) Define(code, label, valueKind string, facet bool, facetKey string) (models.AttributeDefinition, error) {
	if code == "" {
		return models.AttributeDefinition{}, fmt.Errorf("define attribute: empty code")
	}
	if !models.ValidKind(valueKind) {
		return models.AttributeDefinition{}, fmt.Errorf("define attribute %q: unsupported value kind %q", code, valueKind)
	}
	if err := r.ensureLoaded(); err != nil {
		return models.AttributeDefinition{}, err
	}

	def := models.AttributeDefinition{
		Code:      code,
		Label:     label,
		ValueKind: valueKind,
		Facet:     facet,
		FacetKey:  facetKey,
	}

	// Concurrent workers may discover the same code; the unique index
	// on code makes the first writer win and the rest update.
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "value_kind", "facet", "facet_key"}),
	}).Create(&def).Error
	if err != nil {
		return models.AttributeDefinition{}, fmt.Errorf("define attribute %q: %w", code, err)
	}

	// Re-read so the row id is authoritative even on conflict-update.
	if err := r.db.Where("code = ?", code).First(&def).Error; err != nil {
		return models.AttributeDefinition{}, fmt.Errorf("define attribute %q: %w", code, err)
	}

	r.mu.Lock()
	r.byCode[code] = def
	r.mu.Unlock()

	return def, nil
}

// discover registers an unknown code with an inferred kind, marking the
// definition for curation.
func (r *Registry) discover(code string, valueKind string) (models.AttributeDefinition, error) {
	facetKey, isFacet := GuessFacetKey(code)

	def := models.AttributeDefinition{
		Code:       code,
		Label:      code,
		ValueKind:  valueKind,
		Facet:      isFacet,
		FacetKey:   facetKey,
		Discovered: true,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&def).Error
	if err != nil {
		return models.AttributeDefinition{}, fmt.Errorf("discover attribute %q: %w", code, err)
	}

	if err := r.db.Where("code = ?", code).First(&def).Error; err != nil {
		return models.AttributeDefinition{}, fmt.Errorf("discover attribute %q: %w", code, err)
	}

	r.mu.Lock()
	r.byCode[code] = def
	r.mu.Unlock()

	r.logger.Info("Discovered attribute definition",
		zap.String("code", code),
		zap.String("value_kind", def.ValueKind),
		zap.Bool("facet", def.Facet),
	)

	return def, nil
}
