package openapi

import (
	"testing"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() config.Document {
	return config.Document{
		Resources: []config.Resource{
			{
				Name:   "posts",
				Fields: []config.Field{{Name: "title", Type: config.FieldString, Required: true}},
				Relationships: []config.Relationship{
					{Name: "author", Type: config.RelBelongsTo, Resource: "users", ForeignKey: "userId"},
				},
			},
			{Name: "users", Fields: []config.Field{{Name: "name", Type: config.FieldString}}},
		},
	}
}

func TestGenerateIncludesResourcePaths(t *testing.T) {
	doc := Generate(testDoc())
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/posts")
	assert.Contains(t, paths, "/posts/{id}")
	assert.Contains(t, paths, "/posts/{id}/author")
}

func TestGenerateIncludesLoginWhenAuthEnabled(t *testing.T) {
	doc := testDoc()
	doc.Options.Auth.Enabled = true
	rendered := Generate(doc)
	paths := rendered["paths"].(map[string]interface{})
	assert.Contains(t, paths, "/auth/login")
	assert.Contains(t, paths, "/auth/logout")
}

func TestGenerateYAMLRendersDocument(t *testing.T) {
	body, err := GenerateYAML(testDoc())
	require.NoError(t, err)
	assert.Contains(t, string(body), "openapi:")
}
