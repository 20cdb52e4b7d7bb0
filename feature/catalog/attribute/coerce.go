package attribute

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"atdw-sync/feature/catalog/models"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// facetKeywords maps code fragments to hot-projection field names.
// A code containing a keyword is treated as a facet attribute. Longer,
// more specific keywords are listed first so matching is deterministic.
var facetKeywords = []struct {
	keyword string
	key     string
}{
	{"RESTAURANT", "restaurant"},
	{"SUSTAINABLE", "eco_certified"},
	{"BREAKFAST", "breakfast"},
	{"FAMILYRUN", "family_run"},
	{"DISASSIST", "accessible"},
	{"CARPARK", "parking"},
	{"PARKING", "parking"},
	{"ECOTOUR", "eco_certified"},
	{"DINNER", "dinner"},
	{"CAFE", "cafe"},
	{"WIFI", "wifi"},
	{"POOL", "pool"},
	{"GYM", "gym"},
	{"SPA", "spa"},
	{"BAR", "bar"},
	{"PET", "pets_allowed"},
}

// GuessFacetKey derives a hot-projection field name from an attribute
// code, reporting whether the code looks facet-worthy at all.
func GuessFacetKey(code string) (string, bool) {
	upper := strings.ToUpper(code)
	for _, f := range facetKeywords {
		if strings.Contains(upper, f.keyword) {
			return f.key, true
		}
	}
	return "", false
}

// InferKind guesses a value kind from a raw feed value, used when
// discovering unregistered codes.
func InferKind(raw any) string {
	switch v := raw.(type) {
	case bool:
		return models.KindBool
	case int, int32, int64:
		return models.KindInt
	case float32:
		return models.KindNumeric
	case float64:
		// JSON numbers always arrive as float64; integral values are
		// still more useful as ints.
		if v == float64(int64(v)) {
			return models.KindInt
		}
		return models.KindNumeric
	case string:
		if _, err := time.Parse("2006-01-02", v); err == nil {
			return models.KindDate
		}
		return models.KindText
	case map[string]any, []any:
		return models.KindStructured
	default:
		return models.KindText
	}
}

// Coerce converts a raw feed value into a typed value row matching the
// definition's declared kind. A value whose shape cannot satisfy the
// kind yields a *TypeMismatchError.
func Coerce(def models.AttributeDefinition, raw any) (*models.ProductAttributeValue, error) {
	row := &models.ProductAttributeValue{
		DefinitionID: def.ID,
		Code:         def.Code,
	}

	mismatch := func() error {
		return &TypeMismatchError{Code: def.Code, Want: def.ValueKind, Got: describe(raw)}
	}

	switch def.ValueKind {
	case models.KindBool:
		b, ok := asBool(raw)
		if !ok {
			return nil, mismatch()
		}
		row.BoolValue = &b

	case models.KindInt:
		i, ok := asInt(raw)
		if !ok {
			return nil, mismatch()
		}
		row.IntValue = &i

	case models.KindNumeric:
		f, ok := asFloat(raw)
		if !ok {
			return nil, mismatch()
		}
		row.NumericValue = &f

	case models.KindText:
		s, ok := asText(raw)
		if !ok {
			return nil, mismatch()
		}
		row.TextValue = &s

	case models.KindDate:
		d, ok := asDate(raw)
		if !ok {
			return nil, mismatch()
		}
		row.DateValue = &d

	case models.KindStructured:
		blob, err := json.Marshal(raw)
		if err != nil {
			return nil, mismatch()
		}
		row.StructValue = datatypes.JSON(blob)

	default:
		return nil, fmt.Errorf("attribute %q: definition has unsupported kind %q", def.Code, def.ValueKind)
	}

	row.Recompute()
	return row, nil
}

// CoerceBatch converts a whole incoming attribute map. Any unknown code
// (strict mode) or kind mismatch rejects the entire batch, so attribute
// application stays atomic per product.
func (r *Registry) CoerceBatch(values map[string]any) ([]*models.ProductAttributeValue, error) {
	rows := make([]*models.ProductAttributeValue, 0, len(values))

	for code, raw := range values {
		def, ok := r.Lookup(code)
		if !ok {
			if r.mode != ModeDiscover {
				return nil, &UnknownCodeError{Code: code}
			}
			var err error
			def, err = r.discover(code, InferKind(raw))
			if err != nil {
				return nil, err
			}
		}

		row, err := Coerce(def, raw)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func asBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	case float64:
		if v == 0 || v == 1 {
			return v == 1, true
		}
	case int:
		if v == 0 || v == 1 {
			return v == 1, true
		}
	}
	return false, false
}

func asInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func asText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

func asDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// describe names a raw value's shape for error messages.
func describe(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case float64, float32, int, int32, int64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
