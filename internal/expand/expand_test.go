package expand

import (
	"testing"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	resources map[string]config.Resource
	records   map[string][]query.Record
}

func (f *fakeResolver) ResourceByName(name string) (config.Resource, bool) {
	r, ok := f.resources[name]
	return r, ok
}

func (f *fakeResolver) Get(resource string, id interface{}) query.Record {
	pk := f.resources[resource].PrimaryKeyOrDefault()
	for _, rec := range f.records[resource] {
		if rec[pk] == id {
			copyRec := query.Record{}
			for k, v := range rec {
				copyRec[k] = v
			}
			return copyRec
		}
	}
	return nil
}

func (f *fakeResolver) FindByForeignKey(resource, fk string, id interface{}) []query.Record {
	var out []query.Record
	for _, rec := range f.records[resource] {
		if rec[fk] == id {
			out = append(out, rec)
		}
	}
	return out
}

func (f *fakeResolver) JoinPairs(through string, id interface{}, sourceKey, targetKey string) []interface{} {
	return nil
}

func TestExpandBelongsTo(t *testing.T) {
	resolver := &fakeResolver{
		resources: map[string]config.Resource{
			"posts": {Name: "posts", Relationships: []config.Relationship{
				{Name: "author", Type: config.RelBelongsTo, Resource: "users", ForeignKey: "userId"},
			}},
			"users": {Name: "users"},
		},
		records: map[string][]query.Record{
			"users": {{"id": 1.0, "name": "Alice"}},
		},
	}
	rec := query.Record{"id": 1.0, "userId": 1.0}
	err := Expand(resolver, "posts", rec, []string{"author"}, 3)
	require.Nil(t, err)
	author := rec["author"].(query.Record)
	assert.Equal(t, "Alice", author["name"])
}

func TestExpandDepthExceeded(t *testing.T) {
	resolver := &fakeResolver{resources: map[string]config.Resource{"posts": {Name: "posts"}}}
	rec := query.Record{}
	err := Expand(resolver, "posts", rec, []string{"a.b.c.d"}, 3)
	require.NotNil(t, err)
	assert.Equal(t, "expansion-depth", string(err.Kind))
}
