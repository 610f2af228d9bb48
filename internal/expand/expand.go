// Package expand implements multi-level relationship expansion of
// dotted paths like "author.profile", per spec.md §4.4.
package expand

import (
	"strings"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/resultx"
)

// DefaultMaxDepth is the default maximum number of dotted segments a
// single expansion path may contain.
const DefaultMaxDepth = 3

// Resolver abstracts the lookups the expander needs from the database:
// fetching a single record and fetching a related set, both already
// deep-copied by the caller (the store always returns copies).
type Resolver interface {
	Get(resource string, id interface{}) query.Record
	FindByForeignKey(resource, foreignKey string, id interface{}) []query.Record
	ResourceByName(name string) (config.Resource, bool)
	JoinPairs(through string, id interface{}, sourceKey, targetKey string) []interface{}
}

// Expand mutates rec in place, attaching the result of each comma
// separated dotted path under its top-level segment name. resourceName
// is rec's own resource.
func Expand(resolver Resolver, resourceName string, rec query.Record, paths []string, maxDepth int) *resultx.Error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	for _, raw := range paths {
		path := strings.Split(raw, ".")
		if len(path) > maxDepth {
			return resultx.New(resultx.KindExpansionDepth, "expansion path %q exceeds max depth %d", raw, maxDepth)
		}
		if err := expandPath(resolver, resourceName, rec, path); err != nil {
			return err
		}
	}
	return nil
}

func expandPath(resolver Resolver, resourceName string, rec query.Record, path []string) *resultx.Error {
	if len(path) == 0 {
		return nil
	}
	segment := path[0]

	res, ok := resolver.ResourceByName(resourceName)
	if !ok {
		return resultx.New(resultx.KindBadRequest, "unknown resource %q", resourceName)
	}

	var rel *config.Relationship
	for i := range res.Relationships {
		if res.Relationships[i].Name == segment {
			rel = &res.Relationships[i]
			break
		}
	}
	if rel == nil {
		return resultx.New(resultx.KindBadRequest, "unknown relationship %q on %q", segment, resourceName)
	}

	var attached interface{}
	switch rel.Type {
	case config.RelBelongsTo:
		fk := rec[rel.ForeignKey]
		if fk != nil {
			child := resolver.Get(rel.Resource, fk)
			if child != nil {
				if err := expandPath(resolver, rel.Resource, child, path[1:]); err != nil {
					return err
				}
				attached = child
			}
		}
	case config.RelHasOne:
		matches := resolver.FindByForeignKey(rel.Resource, rel.ForeignKey, rec[sourcePrimaryKey(resolver, resourceName)])
		if len(matches) > 0 {
			child := matches[0]
			if err := expandPath(resolver, rel.Resource, child, path[1:]); err != nil {
				return err
			}
			attached = child
		}
	case config.RelHasMany:
		matches := resolver.FindByForeignKey(rel.Resource, rel.ForeignKey, rec[sourcePrimaryKey(resolver, resourceName)])
		for i := range matches {
			if err := expandPath(resolver, rel.Resource, matches[i], path[1:]); err != nil {
				return err
			}
		}
		attached = matches
	case config.RelManyToMany:
		sourceID := rec[sourcePrimaryKey(resolver, resourceName)]
		ids := resolver.JoinPairs(rel.Through, sourceID, resourceName+"Id", rel.Resource+"Id")
		var matches []query.Record
		for _, id := range ids {
			child := resolver.Get(rel.Resource, id)
			if child != nil {
				if err := expandPath(resolver, rel.Resource, child, path[1:]); err != nil {
					return err
				}
				matches = append(matches, child)
			}
		}
		attached = matches
	}

	if attached != nil {
		rec[segment] = attached
	}
	return nil
}

func sourcePrimaryKey(resolver Resolver, resourceName string) string {
	res, ok := resolver.ResourceByName(resourceName)
	if !ok {
		return "id"
	}
	return res.PrimaryKeyOrDefault()
}
