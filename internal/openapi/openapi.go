// Package openapi renders a configuration document's resource graph as
// an OpenAPI 3.0 document, per spec.md §6's "GET /__docs → OpenAPI 3.0
// document". It is a pure function over config.Document: no state, no
// I/O.
package openapi

import (
	"github.com/alexberriman/pretendo-sub001/internal/config"
	"gopkg.in/yaml.v3"
)

// Generate builds the OpenAPI document describing every CRUD,
// relation, and auth route the route synthesizer registers for doc.
func Generate(doc config.Document) map[string]interface{} {
	paths := map[string]interface{}{}
	schemas := map[string]interface{}{}

	for _, resource := range doc.Resources {
		schemas[resource.Name] = resourceSchema(resource)
		addResourcePaths(paths, resource)
	}

	if doc.Options.Auth.Enabled {
		loginPath := doc.Options.Auth.LoginEndpoint
		if loginPath == "" {
			loginPath = "/auth/login"
		}
		paths[loginPath] = map[string]interface{}{
			"post": operation("login", []string{"auth"}, loginRequestSchema(), loginResponseSchema()),
		}
		paths["/auth/logout"] = map[string]interface{}{
			"post": map[string]interface{}{
				"operationId": "logout",
				"tags":        []string{"auth"},
				"responses":   map[string]interface{}{"204": map[string]interface{}{"description": "logged out"}},
			},
		}
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   "pretendo",
			"version": "1.0.0",
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": schemas,
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]interface{}{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}

// GenerateYAML renders the same document as YAML, for the
// "?format=yaml" variant of GET /__docs.
func GenerateYAML(doc config.Document) ([]byte, error) {
	return yaml.Marshal(Generate(doc))
}

func addResourcePaths(paths map[string]interface{}, resource config.Resource) {
	base := "/" + resource.Name
	ref := map[string]interface{}{"$ref": "#/components/schemas/" + resource.Name}

	paths[base] = map[string]interface{}{
		"get":  operation("list"+resource.Name, []string{resource.Name}, nil, listResponseSchema(ref)),
		"post": operation("create"+resource.Name, []string{resource.Name}, ref, itemResponseSchema(ref)),
	}
	paths[base+"/{id}"] = map[string]interface{}{
		"get":    withIDParam(operation("get"+resource.Name, []string{resource.Name}, nil, itemResponseSchema(ref))),
		"put":    withIDParam(operation("replace"+resource.Name, []string{resource.Name}, ref, itemResponseSchema(ref))),
		"patch":  withIDParam(operation("patch"+resource.Name, []string{resource.Name}, ref, itemResponseSchema(ref))),
		"delete": withIDParam(map[string]interface{}{
			"operationId": "delete" + resource.Name,
			"tags":        []string{resource.Name},
			"responses":   map[string]interface{}{"204": map[string]interface{}{"description": "deleted"}},
		}),
	}

	for _, rel := range resource.Relationships {
		if rel.Type != config.RelBelongsTo && rel.Type != config.RelHasMany {
			continue
		}
		relatedRef := map[string]interface{}{"$ref": "#/components/schemas/" + rel.Resource}
		paths[base+"/{id}/"+rel.Name] = map[string]interface{}{
			"get": withIDParam(operation(resource.Name+"_"+rel.Name, []string{resource.Name}, nil, listResponseSchema(relatedRef))),
		}
	}
}

func withIDParam(op map[string]interface{}) map[string]interface{} {
	op["parameters"] = []interface{}{
		map[string]interface{}{"name": "id", "in": "path", "required": true, "schema": map[string]interface{}{"type": "string"}},
	}
	return op
}

func operation(operationID string, tags []string, requestSchema interface{}, responseSchema interface{}) map[string]interface{} {
	op := map[string]interface{}{
		"operationId": operationID,
		"tags":        tags,
		"responses": map[string]interface{}{
			"200": map[string]interface{}{
				"description": "ok",
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{"schema": responseSchema},
				},
			},
		},
	}
	if requestSchema != nil {
		op["requestBody"] = map[string]interface{}{
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{"schema": requestSchema},
			},
		}
	}
	return op
}

func itemResponseSchema(ref map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"data": ref},
	}
}

func listResponseSchema(ref map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"data": map[string]interface{}{"type": "array", "items": ref},
			"meta": map[string]interface{}{"type": "object"},
		},
	}
}

func loginRequestSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"username": map[string]interface{}{"type": "string"},
			"password": map[string]interface{}{"type": "string"},
		},
		"required": []string{"username", "password"},
	}
}

func loginResponseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"token":     map[string]interface{}{"type": "string"},
			"user":      map[string]interface{}{"type": "object"},
			"expiresAt": map[string]interface{}{"type": "string", "format": "date-time"},
		},
	}
}

func resourceSchema(resource config.Resource) map[string]interface{} {
	properties := map[string]interface{}{
		resource.PrimaryKeyOrDefault(): map[string]interface{}{"type": "string"},
	}
	var required []string
	for _, field := range resource.Fields {
		properties[field.Name] = fieldSchema(field)
		if field.Required {
			required = append(required, field.Name)
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func fieldSchema(field config.Field) map[string]interface{} {
	schema := map[string]interface{}{}
	switch field.Type {
	case config.FieldString:
		schema["type"] = "string"
	case config.FieldNumber:
		schema["type"] = "number"
	case config.FieldBoolean:
		schema["type"] = "boolean"
	case config.FieldObject:
		schema["type"] = "object"
	case config.FieldArray:
		schema["type"] = "array"
	case config.FieldDate:
		schema["type"] = "string"
		schema["format"] = "date-time"
	case config.FieldUUID:
		schema["type"] = "string"
		schema["format"] = "uuid"
	default:
		schema["type"] = "string"
	}
	if len(field.Enum) > 0 {
		schema["enum"] = field.Enum
	}
	return schema
}
