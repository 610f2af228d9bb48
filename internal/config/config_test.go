package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "resources": [
    {
      "name": "users",
      "fields": [
        {"name": "id", "type": "number"},
        {"name": "name", "type": "string", "required": true}
      ]
    }
  ],
  "data": {
    "users": [{"id": 1, "name": "A"}, {"id": 2, "name": "B"}]
  }
}`

func TestParseAppliesDefaults(t *testing.T) {
	doc, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, 3000, doc.Options.Port)
	assert.Equal(t, "localhost", doc.Options.Host)
	assert.Equal(t, 10, doc.Options.DefaultPageSize)
	assert.Equal(t, 100, doc.Options.MaxPageSize)
	assert.Equal(t, "memory", doc.Options.Database.Adapter)
	assert.Equal(t, "/auth/login", doc.Options.Auth.LoginEndpoint)
	require.Len(t, doc.Resources, 1)
	assert.Equal(t, "id", doc.Resources[0].PrimaryKeyOrDefault())
}

func TestParseRejectsInvalidDocument(t *testing.T) {
	_, err := Parse([]byte(`{"resources": [{"name": "x"}]}`))
	assert.Error(t, err)
}

func TestYamlToJSON(t *testing.T) {
	data, err := yamlToJSON([]byte("resources:\n  - name: users\n    fields:\n      - name: id\n        type: number\n"))
	require.NoError(t, err)
	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "users", doc.Resources[0].Name)
}
