package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// schemaJSON is the embedded meta-schema the whole configuration
// document is validated against before it is unmarshalled into a
// Document, mirroring core/backend.New's
// jsonValidator.ValidateString(bb.Config, "...config.json") gate in the
// teacher.
//
//go:embed config_schema.json
var schemaJSON string

// LoadFile reads a configuration document from path, accepting both
// YAML (.yml/.yaml) and JSON, validates it against the embedded
// meta-schema, and applies every option default.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	jsonData := data
	if strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml") {
		jsonData, err = yamlToJSON(data)
		if err != nil {
			return Document{}, fmt.Errorf("cannot parse yaml config %s: %w", path, err)
		}
	}

	return Parse(jsonData)
}

// Parse validates raw JSON config bytes against the meta-schema and
// unmarshals them into a Document with defaults applied.
func Parse(jsonData []byte) (Document, error) {
	if err := Validate(jsonData); err != nil {
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return Document{}, fmt.Errorf("cannot parse configuration: %w", err)
	}
	doc.ApplyDefaults()
	return doc, nil
}

// Validate checks raw JSON config bytes against the embedded meta-schema.
func Validate(jsonData []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("cannot validate configuration: %w", err)
	}
	if !result.Valid() {
		msg := "configuration document is invalid:\n"
		for _, e := range result.Errors() {
			msg += fmt.Sprintf("- %s\n", e)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	generic = normalizeYAML(generic)
	return json.Marshal(generic)
}

// normalizeYAML converts the map[string]interface{} keys that
// gopkg.in/yaml.v3 decodes as-is (it uses string keys already, unlike
// yaml.v2) and any map[interface{}]interface{} leftovers from nested
// anchors/merges into plain JSON-marshalable maps.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[k] = normalizeYAML(vv)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = normalizeYAML(vv)
		}
		return out
	default:
		return val
	}
}
