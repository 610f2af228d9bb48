package validate

import (
	"testing"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestRequiredOnlyOnCreate(t *testing.T) {
	fields := []config.Field{{Name: "name", Type: config.FieldString, Required: true}}
	v := Record(map[string]interface{}{}, fields, nil, "id", nil, ModeCreate)
	assert.Len(t, v, 1)

	v = Record(map[string]interface{}{}, fields, nil, "id", nil, ModeUpdate)
	assert.Empty(t, v)
}

func TestLengthRange(t *testing.T) {
	fields := []config.Field{
		{Name: "name", Type: config.FieldString, MinLength: ptr(2), MaxLength: ptr(4)},
		{Name: "age", Type: config.FieldNumber, Min: ptr(0.0), Max: ptr(10.0)},
	}
	v := Record(map[string]interface{}{"name": "x", "age": 20.0}, fields, nil, "id", nil, ModeCreate)
	assert.Len(t, v, 2)
}

func TestPatternAnchored(t *testing.T) {
	fields := []config.Field{{Name: "code", Type: config.FieldString, Pattern: "[A-Z]{3}"}}
	v := Record(map[string]interface{}{"code": "ABCX"}, fields, nil, "id", nil, ModeCreate)
	assert.Len(t, v, 1)
	v = Record(map[string]interface{}{"code": "ABC"}, fields, nil, "id", nil, ModeCreate)
	assert.Empty(t, v)
}

func TestEnum(t *testing.T) {
	fields := []config.Field{{Name: "role", Type: config.FieldString, Enum: []interface{}{"admin", "user"}}}
	v := Record(map[string]interface{}{"role": "guest"}, fields, nil, "id", nil, ModeCreate)
	assert.Len(t, v, 1)
}

func TestUniqueExcludesSelf(t *testing.T) {
	fields := []config.Field{{Name: "email", Type: config.FieldString, Unique: true}}
	collection := []query.Record{
		{"id": 1.0, "email": "a@x.com"},
		{"id": 2.0, "email": "b@x.com"},
	}
	v := Record(map[string]interface{}{"email": "a@x.com"}, fields, collection, "id", 2.0, ModeUpdate)
	assert.Len(t, v, 1)

	v = Record(map[string]interface{}{"email": "a@x.com"}, fields, collection, "id", 1.0, ModeUpdate)
	assert.Empty(t, v)
}
