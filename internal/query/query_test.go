package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFiltersEq(t *testing.T) {
	records := []Record{
		{"id": 1.0, "name": "A"},
		{"id": 2.0, "name": "B"},
	}
	out := ApplyFilters(records, []Filter{{Field: "name", Op: OpEq, Value: "A"}})
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0]["name"])
}

func TestApplyFiltersNullNeverMatchesEq(t *testing.T) {
	records := []Record{{"id": 1.0}}
	out := ApplyFilters(records, []Filter{{Field: "name", Op: OpEq, Value: "A"}})
	assert.Empty(t, out)
	out = ApplyFilters(records, []Filter{{Field: "name", Op: OpNe, Value: "A"}})
	assert.Len(t, out, 1)
}

func TestApplySortNullsFirstAscLastDesc(t *testing.T) {
	records := []Record{
		{"id": 1.0, "name": "B"},
		{"id": 2.0},
		{"id": 3.0, "name": "A"},
	}
	asc := ApplySort(records, []SortKey{{Field: "name"}})
	assert.Equal(t, 2.0, asc[0]["id"])
	assert.Equal(t, 3.0, asc[1]["id"])
	assert.Equal(t, 1.0, asc[2]["id"])

	desc := ApplySort(records, []SortKey{{Field: "name", Desc: true}})
	assert.Equal(t, 2.0, desc[len(desc)-1]["id"])
}

func TestApplyPaginationClamping(t *testing.T) {
	var records []Record
	for i := 0; i < 5; i++ {
		records = append(records, Record{"id": float64(i)})
	}
	page, pg := ApplyPagination(records, 0, 0, 10)
	assert.Equal(t, 1, pg.CurrentPage)
	assert.Equal(t, 1, pg.PerPage)
	assert.Len(t, page, 1)

	page, pg = ApplyPagination(records, 2, 100, 3)
	assert.Equal(t, 3, pg.PerPage)
	assert.Equal(t, 2, pg.TotalPages)
	assert.Len(t, page, 2)

	page, _ = ApplyPagination(records, 99, 2, 10)
	assert.Empty(t, page)
}

func TestParseBracketSyntax(t *testing.T) {
	v, err := url.ParseQuery("age[gte]=18&name=Bob&role[in]=admin,owner&sortBy=name.desc&perPage=5&page=2&i:tag=FOO")
	require.NoError(t, err)
	opts := Parse(v)
	assert.Equal(t, 2, opts.Page)
	assert.Equal(t, 5, opts.PerPage)
	require.Len(t, opts.Sort, 1)
	assert.True(t, opts.Sort[0].Desc)

	var foundAge, foundRole, foundName, foundTag bool
	for _, f := range opts.Filters {
		switch f.Field {
		case "age":
			foundAge = true
			assert.Equal(t, OpGte, f.Op)
			assert.Equal(t, 18.0, f.Value)
		case "role":
			foundRole = true
			assert.Equal(t, OpIn, f.Op)
			assert.Len(t, f.Values, 2)
		case "name":
			foundName = true
			assert.Equal(t, OpEq, f.Op)
		case "tag":
			foundTag = true
			assert.True(t, f.CaseInsensitive)
		}
	}
	assert.True(t, foundAge && foundRole && foundName && foundTag)
}
