// Package config holds the parsed shape of the operator-supplied
// configuration document (resources, relationships, access rules,
// options, seed data, custom routes) plus a reference loader. Per
// spec.md §1, the YAML/JSON config loader is treated as an external
// collaborator; this package exists so cmd/pretendo has something to
// run, but nothing in internal/database or internal/routes depends on
// how the document was decoded from disk.
package config

import "github.com/goccy/go-json"

// FieldType enumerates the field primitive types a schema may declare.
type FieldType string

// Recognized field types.
const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldObject  FieldType = "object"
	FieldArray   FieldType = "array"
	FieldDate    FieldType = "date"
	FieldUUID    FieldType = "uuid"
)

// Field describes one column of a resource schema.
type Field struct {
	Name         string        `json:"name"`
	Type         FieldType     `json:"type"`
	Required     bool          `json:"required,omitempty"`
	Unique       bool          `json:"unique,omitempty"`
	Min          *float64      `json:"min,omitempty"`
	Max          *float64      `json:"max,omitempty"`
	MinLength    *int          `json:"minLength,omitempty"`
	MaxLength    *int          `json:"maxLength,omitempty"`
	Pattern      string        `json:"pattern,omitempty"`
	Enum         []interface{} `json:"enum,omitempty"`
	DefaultValue interface{}   `json:"defaultValue,omitempty"`
}

// RelationshipType enumerates the relation kinds a resource may declare.
type RelationshipType string

// Recognized relationship types.
const (
	RelBelongsTo  RelationshipType = "belongsTo"
	RelHasOne     RelationshipType = "hasOne"
	RelHasMany    RelationshipType = "hasMany"
	RelManyToMany RelationshipType = "manyToMany"
)

// Relationship describes an association from this resource to another.
type Relationship struct {
	Name       string           `json:"name"`
	Type       RelationshipType `json:"type"`
	Resource   string           `json:"resource"`
	ForeignKey string           `json:"foreignKey"`
	TargetKey  string           `json:"targetKey,omitempty"`
	Through    string           `json:"through,omitempty"`
}

// Action is a CRUD-ish verb access control governs.
type Action string

// Recognized actions.
const (
	ActionList   Action = "list"
	ActionGet    Action = "get"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Access maps an action to the ordered list of role tokens permitted to
// perform it. "*" means any authenticated subject, "owner" means the
// record's ownedBy field must match the subject's id.
type Access map[Action][]string

// Resource is one schema block of the configuration document.
type Resource struct {
	Name          string         `json:"name"`
	PrimaryKey    string         `json:"primaryKey,omitempty"`
	Fields        []Field        `json:"fields"`
	Relationships []Relationship `json:"relationships,omitempty"`
	AccessControl Access         `json:"access,omitempty"`
	OwnedBy       string         `json:"ownedBy,omitempty"`
	Seed          []map[string]interface{} `json:"seed,omitempty"`
}

// PrimaryKeyOrDefault returns the configured primary key name, or "id".
func (r Resource) PrimaryKeyOrDefault() string {
	if r.PrimaryKey == "" {
		return "id"
	}
	return r.PrimaryKey
}

// AuthUser is an inline user entry usable when no dedicated user
// resource is configured.
type AuthUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ID       interface{} `json:"id,omitempty"`
	Role     string      `json:"role,omitempty"`
}

// AuthOptions configures the bearer-token auth service.
type AuthOptions struct {
	Enabled        bool       `json:"enabled,omitempty"`
	UserResource   string     `json:"userResource,omitempty"`
	UsernameField  string     `json:"usernameField,omitempty"`
	PasswordField  string     `json:"passwordField,omitempty"`
	RoleField      string     `json:"roleField,omitempty"`
	Users          []AuthUser `json:"users,omitempty"`
	TokenTTLSeconds int       `json:"tokenTtlSeconds,omitempty"`
	LoginEndpoint  string     `json:"loginEndpoint,omitempty"`
	HeaderName     string     `json:"headerName,omitempty"`
}

// LatencyOptions configures the latency-injection middleware.
type LatencyOptions struct {
	Enabled bool `json:"enabled,omitempty"`
	Fixed   int  `json:"fixed,omitempty"`
	Min     int  `json:"min,omitempty"`
	Max     int  `json:"max,omitempty"`
}

// ErrorSimulationOptions configures the error-injection middleware.
type ErrorSimulationOptions struct {
	Enabled           bool    `json:"enabled,omitempty"`
	Rate              float64 `json:"rate,omitempty"`
	StatusCodes       []int   `json:"statusCodes,omitempty"`
	QueryParamTrigger string  `json:"queryParamTrigger,omitempty"`
}

// DatabaseOptions configures the persistence adapter.
type DatabaseOptions struct {
	Adapter          string `json:"adapter,omitempty"` // "memory" | "file" | "s3"
	DBPath           string `json:"dbPath,omitempty"`
	AutoSave         bool   `json:"autoSave,omitempty"`
	SaveIntervalMS   int    `json:"saveInterval,omitempty"`
	StrictValidation bool   `json:"strictValidation,omitempty"`
	S3Bucket         string `json:"s3Bucket,omitempty"`
	S3Region         string `json:"s3Region,omitempty"`
	S3KeyPrefix      string `json:"s3KeyPrefix,omitempty"`
}

// DocsOptions configures the OpenAPI document endpoint.
type DocsOptions struct {
	Enabled      bool `json:"enabled,omitempty"`
	RequireAuth  bool `json:"requireAuth,omitempty"`
}

// EventsOptions configures the optional change-event publisher.
type EventsOptions struct {
	Enabled      bool     `json:"enabled,omitempty"`
	KafkaBrokers []string `json:"kafkaBrokers,omitempty"`
	Topic        string   `json:"topic,omitempty"`
}

// Options is the top-level "options" block of the configuration.
type Options struct {
	Port            int                     `json:"port,omitempty"`
	Host            string                  `json:"host,omitempty"`
	CORSEnabled     *bool                   `json:"corsEnabled,omitempty"`
	DBPath          string                  `json:"dbPath,omitempty"` // legacy top-level shortcut
	Database        DatabaseOptions         `json:"database,omitempty"`
	Auth            AuthOptions             `json:"auth,omitempty"`
	Latency         LatencyOptions          `json:"latency,omitempty"`
	ErrorSimulation ErrorSimulationOptions  `json:"errorSimulation,omitempty"`
	LogRequests     *bool                   `json:"logRequests,omitempty"`
	LogMaxEntries   int                     `json:"logMaxEntries,omitempty"`
	DefaultPageSize int                     `json:"defaultPageSize,omitempty"`
	MaxPageSize     int                     `json:"maxPageSize,omitempty"`
	Docs            DocsOptions             `json:"docs,omitempty"`
	Events          EventsOptions           `json:"events,omitempty"`
}

// RouteAuth overrides the global auth rule for one custom route.
type RouteAuth struct {
	Enabled bool     `json:"enabled"`
	Roles   []string `json:"roles,omitempty"`
}

// Route is one operator-declared custom route.
type Route struct {
	Method   string                 `json:"method"`
	Path     string                 `json:"path"`
	Type     string                 `json:"type"` // "json" | "script"
	Response map[string]interface{} `json:"response,omitempty"`
	Script   string                 `json:"script,omitempty"`
	Auth     *RouteAuth             `json:"auth,omitempty"`
}

// Document is the full configuration document.
type Document struct {
	Resources []Resource                          `json:"resources"`
	Options   Options                              `json:"options,omitempty"`
	Data      map[string][]map[string]interface{}  `json:"data,omitempty"`
	Routes    []Route                              `json:"routes,omitempty"`
}

// ApplyDefaults fills in every option default named in spec.md §6.
func (d *Document) ApplyDefaults() {
	if d.Options.Port == 0 {
		d.Options.Port = 3000
	}
	if d.Options.Host == "" {
		d.Options.Host = "localhost"
	}
	if d.Options.CORSEnabled == nil {
		enabled := true
		d.Options.CORSEnabled = &enabled
	}
	if d.Options.LogRequests == nil {
		enabled := true
		d.Options.LogRequests = &enabled
	}
	if d.Options.LogMaxEntries == 0 {
		d.Options.LogMaxEntries = 1000
	}
	if d.Options.DefaultPageSize == 0 {
		d.Options.DefaultPageSize = 10
	}
	if d.Options.MaxPageSize == 0 {
		d.Options.MaxPageSize = 100
	}
	if d.Options.Database.SaveIntervalMS == 0 {
		d.Options.Database.SaveIntervalMS = 5000
	}
	if d.Options.Database.Adapter == "" {
		if d.Options.Database.DBPath != "" || d.Options.DBPath != "" {
			d.Options.Database.Adapter = "file"
		} else {
			d.Options.Database.Adapter = "memory"
		}
	}
	if d.Options.Database.DBPath == "" {
		d.Options.Database.DBPath = d.Options.DBPath
	}
	if d.Options.Auth.TokenTTLSeconds == 0 {
		d.Options.Auth.TokenTTLSeconds = 3600
	}
	if d.Options.Auth.LoginEndpoint == "" {
		d.Options.Auth.LoginEndpoint = "/auth/login"
	}
	if d.Options.Auth.HeaderName == "" {
		d.Options.Auth.HeaderName = "Authorization"
	}
	if d.Options.Auth.UsernameField == "" {
		d.Options.Auth.UsernameField = "username"
	}
	if d.Options.Auth.PasswordField == "" {
		d.Options.Auth.PasswordField = "password"
	}
	if len(d.Options.ErrorSimulation.StatusCodes) == 0 {
		d.Options.ErrorSimulation.StatusCodes = []int{500, 502, 503, 504}
	}
	if d.Options.ErrorSimulation.QueryParamTrigger == "" {
		d.Options.ErrorSimulation.QueryParamTrigger = "_status"
	}
	if d.Options.Events.Topic == "" {
		d.Options.Events.Topic = "pretendo.mutations"
	}
}

// Marshal renders a Document as two-space-indented JSON.
func Marshal(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
