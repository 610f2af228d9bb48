package special

import (
	"testing"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementStartsAtOneThenIncreases(t *testing.T) {
	fields := []config.Field{{Name: "seq", DefaultValue: "$increment"}}
	rec := map[string]interface{}{}
	Apply(rec, fields, nil, "id", nil, ModeInsert)
	assert.Equal(t, 1.0, rec["seq"])

	collection := []query.Record{{"seq": 1.0}, {"seq": 5.0}}
	rec2 := map[string]interface{}{}
	Apply(rec2, fields, collection, "id", nil, ModeInsert)
	assert.Equal(t, 6.0, rec2["seq"])
}

func TestHashPassHashesPasswordLikeFields(t *testing.T) {
	rec := map[string]interface{}{"username": "u", "password": "secret"}
	Apply(rec, nil, nil, "id", nil, ModeInsert)
	hashed, ok := rec["password"].(string)
	require.True(t, ok)
	assert.Equal(t, HashString("secret"), hashed)
	assert.Len(t, hashed, 64)

	// re-applying should leave the already-hashed value unchanged
	Apply(rec, nil, nil, "id", nil, ModeInsert)
	assert.Equal(t, hashed, rec["password"])
}

func TestUpdatedAtRefreshedOnUpdateOnly(t *testing.T) {
	fields := []config.Field{{Name: "updatedAt", DefaultValue: "$now"}, {Name: "createdAt", DefaultValue: "$now"}}
	rec := map[string]interface{}{"updatedAt": "old", "createdAt": "old"}
	Apply(rec, fields, nil, "id", nil, ModeUpdate)
	assert.NotEqual(t, "old", rec["updatedAt"])
	assert.Equal(t, "old", rec["createdAt"])
}

func TestUserIDDefaultsToAuthenticatedSubject(t *testing.T) {
	fields := []config.Field{{Name: "ownerId", DefaultValue: "$userId"}}
	rec := map[string]interface{}{}
	Apply(rec, fields, nil, "id", 42.0, ModeInsert)
	assert.Equal(t, 42.0, rec["ownerId"])
}
