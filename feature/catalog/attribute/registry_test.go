package attribute

import (
	"testing"

	"atdw-sync/feature/catalog/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
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
		&models.AttributeDefinition{},
		&models.Product{},
		&models.ProductAttributeValue{},
	))
	return db
}

func newTestRegistry(t *testing.T, mode string) (*Registry, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	return NewRegistry(db, zap.NewNop(), mode), db
}

func TestDefineAndLookup(t *testing.T) {
	r, _ := newTestRegistry(t, ModeStrict)

	def, err := r.Define("ENTITY FAC__POOL", "Swimming pool", models.KindBool, true, "pool")
	assert.NoError(t, err)
	assert.NotZero(t, def.ID)

	got, ok := r.Lookup("ENTITY FAC__POOL")
	assert.True(t, ok)
	assert.Equal(t, models.KindBool, got.ValueKind)
	assert.True(t, got.Facet)

	_, ok = r.Lookup("ENTITY FAC__GYM")
	assert.False(t, ok)
}

func TestDefineRejectsBadKind(t *testing.T) {
	r, _ := newTestRegistry(t, ModeStrict)

	_, err := r.Define("X", "x", "blob", false, "")
	assert.Error(t, err)

	_, err = r.Define("", "x", models.KindBool, false, "")
	assert.Error(t, err)
}

func TestDefineUpdatesExisting(t *testing.T) {
	r, _ := newTestRegistry(t, ModeStrict)

	first, err := r.Define("ENTITY FAC__POOL", "Pool", models.KindBool, false, "")
	assert.NoError(t, err)

	second, err := r.Define("ENTITY FAC__POOL", "Swimming pool", models.KindBool, true, "pool")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Facet)

	defs, err := r.List()
	assert.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestCoerceBatchStrictRejectsUnknown(t *testing.T) {
	r, _ := newTestRegistry(t, ModeStrict)

	_, err := r.CoerceBatch(map[string]any{"ENTITY FAC__WIFI": true})
	assert.Error(t, err)

	var unknown *UnknownCodeError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ENTITY FAC__WIFI", unknown.Code)
}

func TestCoerceBatchDiscoverAutoRegisters(t *testing.T) {
	r, _ := newTestRegistry(t, ModeDiscover)

	rows, err := r.CoerceBatch(map[string]any{"ENTITY FAC__WIFI": true})
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NotNil(t, rows[0].BoolValue)

	def, ok := r.Lookup("ENTITY FAC__WIFI")
	assert.True(t, ok)
	assert.True(t, def.Discovered)
	assert.True(t, def.Facet)
	assert.Equal(t, "wifi", def.FacetKey)
	assert.Equal(t, models.KindBool, def.ValueKind)
}

func TestCoerceBatchTypeMismatchRejectsWholeBatch(t *testing.T) {
	r, _ := newTestRegistry(t, ModeStrict)

	_, err := r.Define("ENTITY FAC__POOL", "Pool", models.KindBool, true, "pool")
	assert.NoError(t, err)

	_, err = r.CoerceBatch(map[string]any{"ENTITY FAC__POOL": map[string]any{"depth": 2}})
	assert.Error(t, err)

	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, models.KindBool, mismatch.Want)
	assert.Equal(t, "object", mismatch.Got)
}

func TestGuessFacetKey(t *testing.T) {
	key, ok := GuessFacetKey("ENTITY FAC__CARPARK")
	assert.True(t, ok)
	assert.Equal(t, "parking", key)

	key, ok = GuessFacetKey("entity fac__wifi")
	assert.True(t, ok)
	assert.Equal(t, "wifi", key)

	_, ok = GuessFacetKey("ENTITY FAC__CHECKIN")
	assert.False(t, ok)
}

func TestInferKind(t *testing.T) {
	assert.Equal(t, models.KindBool, InferKind(true))
	assert.Equal(t, models.KindInt, InferKind(float64(4)))
	assert.Equal(t, models.KindNumeric, InferKind(4.5))
	assert.Equal(t, models.KindDate, InferKind("2025-06-01"))
	assert.Equal(t, models.KindText, InferKind("four stars"))
	assert.Equal(t, models.KindStructured, InferKind(map[string]any{"a": 1}))
}
