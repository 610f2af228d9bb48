package database

import (
	"context"
	"testing"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/persistence"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() config.Document {
	return config.Document{
		Resources: []config.Resource{
			{
				Name:   "users",
				Fields: []config.Field{{Name: "name", Type: config.FieldString, Required: true}},
				Relationships: []config.Relationship{
					{Name: "posts", Type: config.RelHasMany, Resource: "posts", ForeignKey: "userId"},
				},
			},
			{
				Name:   "posts",
				Fields: []config.Field{{Name: "title", Type: config.FieldString}},
				Relationships: []config.Relationship{
					{Name: "author", Type: config.RelBelongsTo, Resource: "users", ForeignKey: "userId"},
				},
			},
		},
	}
}

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(testDoc(), persistence.NewMemory())
	require.Nil(t, err)
	return db
}

func TestCreateAndFindByID(t *testing.T) {
	db := newTestDB(t)
	users, ok := db.Resource("users")
	require.True(t, ok)

	created := users.Create(context.Background(), query.Record{"name": "Alice"}, nil)
	require.True(t, created.IsOk())

	fetched := users.FindByID(created.Value()["id"], nil)
	require.True(t, fetched.IsOk())
	assert.Equal(t, "Alice", fetched.Value()["name"])
}

func TestDeleteCascadesDeclaredRelationship(t *testing.T) {
	db := newTestDB(t)
	users, _ := db.Resource("users")
	posts, _ := db.Resource("posts")

	ctx := context.Background()
	user := users.Create(ctx, query.Record{"name": "Bob"}, nil).Value()
	posts.Create(ctx, query.Record{"title": "hello", "userId": user["id"]}, nil)

	res := users.Delete(ctx, user["id"])
	require.True(t, res.IsOk())
	assert.True(t, res.Value())

	all := db.Snapshot()["posts"]
	assert.Len(t, all, 0)
}

func TestFindRelatedBelongsTo(t *testing.T) {
	db := newTestDB(t)
	users, _ := db.Resource("users")
	posts, _ := db.Resource("posts")

	ctx := context.Background()
	user := users.Create(ctx, query.Record{"name": "Carol"}, nil).Value()
	post := posts.Create(ctx, query.Record{"title": "post", "userId": user["id"]}, nil).Value()

	related := posts.FindRelated("author", post["id"], query.Options{})
	require.True(t, related.IsOk())
	require.Len(t, related.Value().Records, 1)
	assert.Equal(t, "Carol", related.Value().Records[0]["name"])
}

func TestExpandOnFindAll(t *testing.T) {
	db := newTestDB(t)
	users, _ := db.Resource("users")
	posts, _ := db.Resource("posts")

	ctx := context.Background()
	user := users.Create(ctx, query.Record{"name": "Dana"}, nil).Value()
	posts.Create(ctx, query.Record{"title": "p1", "userId": user["id"]}, nil)

	result := posts.FindAll(query.Options{}, []string{"author"})
	require.True(t, result.IsOk())
	require.Len(t, result.Value().Records, 1)
	author := result.Value().Records[0]["author"].(query.Record)
	assert.Equal(t, "Dana", author["name"])
}
