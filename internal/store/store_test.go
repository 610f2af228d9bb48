package store

import (
	"testing"

	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGeneratesContiguousIDs(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		res := s.Add("users", query.Record{"name": "x"}, "id", nil)
		require.True(t, res.IsOk())
	}
	all := s.All("users")
	require.Len(t, all, 3)
	assert.Equal(t, 1.0, all[0]["id"])
	assert.Equal(t, 2.0, all[1]["id"])
	assert.Equal(t, 3.0, all[2]["id"])
}

func TestAddConflictOnDuplicateKey(t *testing.T) {
	s := New()
	require.True(t, s.Add("users", query.Record{"id": 1.0}, "id", nil).IsOk())
	res := s.Add("users", query.Record{"id": 1.0}, "id", nil)
	require.False(t, res.IsOk())
	assert.Equal(t, "conflict", string(res.Error().Kind))
}

func TestUpdateMergeVsReplace(t *testing.T) {
	s := New()
	s.Add("users", query.Record{"id": 1.0, "name": "A", "age": 10.0}, "id", nil)

	merged := s.Update("users", 1.0, query.Record{"age": 11.0}, "id", true, nil)
	require.True(t, merged.IsOk())
	assert.Equal(t, "A", merged.Value()["name"])
	assert.Equal(t, 11.0, merged.Value()["age"])

	replaced := s.Update("users", 1.0, query.Record{"name": "B"}, "id", false, nil)
	require.True(t, replaced.IsOk())
	assert.Equal(t, "B", replaced.Value()["name"])
	_, hasAge := replaced.Value()["age"]
	assert.False(t, hasAge)
	assert.Equal(t, 1.0, replaced.Value()["id"])
}

func TestDeleteCascadesOneLevel(t *testing.T) {
	s := New()
	s.Add("users", query.Record{"id": 1.0}, "id", nil)
	s.Add("posts", query.Record{"id": 1.0, "userId": 1.0}, "id", nil)
	s.Add("posts", query.Record{"id": 2.0, "userId": 2.0}, "id", nil)

	res := s.Delete("users", 1.0, "id", []CascadeTarget{{Collection: "posts", ForeignKey: "userId"}})
	require.True(t, res.IsOk())
	assert.True(t, res.Value())

	remaining := s.All("posts")
	require.Len(t, remaining, 1)
	assert.Equal(t, 2.0, remaining[0]["id"])

	// second delete is idempotent: ok(false)
	res = s.Delete("users", 1.0, "id", nil)
	assert.True(t, res.IsOk())
	assert.False(t, res.Value())
}

func TestQueryReturnsDeepCopies(t *testing.T) {
	s := New()
	s.Add("users", query.Record{"id": 1.0, "tags": []interface{}{"a"}}, "id", nil)

	recs, _ := s.Query("users", query.Options{}, "id")
	tags := recs[0]["tags"].([]interface{})
	tags[0] = "mutated"

	recs2, _ := s.Query("users", query.Options{}, "id")
	assert.Equal(t, "a", recs2[0]["tags"].([]interface{})[0])
}
